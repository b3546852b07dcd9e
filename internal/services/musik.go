// musik server [Library] and [Importer] implementation
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/musik/internal/models"
	"github.com/desertthunder/musik/internal/shared"
)

const defaultMusikBaseURL string = "http://localhost:8080"

// APIError is a non-2xx response from the musik server.
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("musik API error (%s %s, status %d): %s", e.Method, e.Endpoint, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("musik API error (%s %s): status %d", e.Method, e.Endpoint, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return shared.ErrSessionExpired
	}
	return shared.ErrAPIRequest
}

// StatusCode extracts the HTTP status from err, or 0 when err is not an [*APIError].
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Stream is an open audio response body.
type Stream struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64 // -1 when the server streams without a length
	URI           string
}

// MusikService talks to the REST API of a musik server.
type MusikService struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time

	mu      sync.RWMutex
	session *Session
}

// NewMusikService creates a client for the server at baseURL.
func NewMusikService(baseURL string, client *http.Client) *MusikService {
	if baseURL == "" {
		baseURL = defaultMusikBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &MusikService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		now:        time.Now,
	}
}

// BaseURL returns the server root requests are sent to.
func (m *MusikService) BaseURL() string { return m.baseURL }

// Session returns the current session, or nil.
func (m *MusikService) Session() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// SetSession replaces the session used for authenticated requests. nil logs out.
func (m *MusikService) SetSession(s *Session) {
	m.mu.Lock()
	m.session = s
	m.mu.Unlock()
}

// resolve turns a server-relative path or an absolute URI into a request URL.
func (m *MusikService) resolve(endpoint string) string {
	if u, err := url.Parse(endpoint); err == nil && u.IsAbs() {
		return endpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return m.baseURL + endpoint
}

// newRequest builds a request, attaching session credentials when authed is set.
func (m *MusikService) newRequest(ctx context.Context, method, endpoint string, body any, authed bool) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.resolve(endpoint), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if authed {
		if err := m.Session().authorize(req, m.now()); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// doRequest sends a JSON request and decodes a 2xx body into result when result is non-nil.
func (m *MusikService) doRequest(ctx context.Context, method, endpoint string, body, result any, authed bool) error {
	req, err := m.newRequest(ctx, method, endpoint, body, authed)
	if err != nil {
		return err
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, method, endpoint); err != nil {
		return err
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// checkStatus converts a non-2xx response into an [*APIError].
//
// The server reports failures as plain text or as a JSON {"detail": ...} body.
func checkStatus(resp *http.Response, method, endpoint string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{Method: method, Endpoint: endpoint, StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var errResp struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Detail != "" {
		apiErr.Detail = errResp.Detail
	} else {
		apiErr.Detail = strings.TrimSpace(string(data))
	}
	return apiErr
}

// Login exchanges username and password for a session token and stores the session.
//
// Calls PUT /api/users/current with Basic username:password.
func (m *MusikService) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, shared.ErrMissingCredentials
	}

	req, err := m.newRequest(ctx, http.MethodPut, "/api/users/current", nil, false)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", basicAuth(username, password))

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.MethodPut, "/api/users/current"); err != nil {
		if code := StatusCode(err); code == http.StatusUnauthorized || code == http.StatusForbidden {
			return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}
		return nil, err
	}

	var account models.UserAccount
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if account.Token == "" {
		return nil, fmt.Errorf("%w: server returned no token", shared.ErrAuthFailed)
	}
	if account.Username == "" {
		account.Username = username
	}

	session := NewSession(account)
	m.SetSession(session)
	return session, nil
}

// Register creates a new account. It does not log in.
//
// Calls POST /api/users.
func (m *MusikService) Register(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return shared.ErrMissingCredentials
	}
	return m.doRequest(ctx, http.MethodPost, "/api/users", models.Registration{Username: username, Password: password}, nil, false)
}

// Encoders lists the MIME types the server can transcode to.
//
// Calls GET /api/stream/encoders. No session is required.
func (m *MusikService) Encoders(ctx context.Context) ([]string, error) {
	var mimeTypes []string
	if err := m.doRequest(ctx, http.MethodGet, "/api/stream/encoders", nil, &mimeTypes, false); err != nil {
		return nil, err
	}
	return mimeTypes, nil
}

// RandomTrack asks the server to pick a track.
//
// Calls GET /api/tracks/random.
func (m *MusikService) RandomTrack(ctx context.Context) (models.RandomTrack, error) {
	var track models.RandomTrack
	if err := m.doRequest(ctx, http.MethodGet, "/api/tracks/random", nil, &track, true); err != nil {
		return models.RandomTrack{}, err
	}
	if track.StreamURI == "" {
		return models.RandomTrack{}, fmt.Errorf("%w: random track has no stream_uri", shared.ErrAPIRequest)
	}
	return track, nil
}

// StreamPath builds the server-relative stream location for trackID in the format named by suffix.
func (m *MusikService) StreamPath(trackID, suffix string) string {
	return fmt.Sprintf("/api/stream/%s/%s", url.PathEscape(trackID), url.PathEscape(suffix))
}

// OpenStream starts downloading the audio at uri. The caller closes the body.
func (m *MusikService) OpenStream(ctx context.Context, uri string) (*Stream, error) {
	req, err := m.newRequest(ctx, http.MethodGet, uri, nil, true)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "audio/*")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if err := checkStatus(resp, http.MethodGet, uri); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return &Stream{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		URI:           req.URL.String(),
	}, nil
}

// SubmitImport queues path for import.
//
// Calls POST /api/importer. The server answers 404 when path is not a directory it can see.
func (m *MusikService) SubmitImport(ctx context.Context, path string) error {
	return m.doRequest(ctx, http.MethodPost, "/api/importer", models.ImportRequest{Path: path}, nil, true)
}

// ImportStatus fetches the importer queue.
//
// Calls GET /api/importer.
func (m *MusikService) ImportStatus(ctx context.Context) (*models.ImportStatus, error) {
	var status models.ImportStatus
	if err := m.doRequest(ctx, http.MethodGet, "/api/importer", nil, &status, true); err != nil {
		return nil, err
	}
	return &status, nil
}

// Albums lists the catalog's albums.
//
// Calls GET /api/albums.
func (m *MusikService) Albums(ctx context.Context) ([]models.Album, error) {
	var albums []models.Album
	if err := m.doRequest(ctx, http.MethodGet, "/api/albums", nil, &albums, true); err != nil {
		return nil, err
	}
	return albums, nil
}

// Album retrieves an album with its tracks.
//
// Calls GET /api/album/id/{id}.
func (m *MusikService) Album(ctx context.Context, id int64) (*models.Album, error) {
	var album models.Album
	endpoint := "/api/album/id/" + strconv.FormatInt(id, 10)
	if err := m.doRequest(ctx, http.MethodGet, endpoint, nil, &album, true); err != nil {
		if StatusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %d", shared.ErrAlbumNotFound, id)
		}
		return nil, err
	}
	return &album, nil
}

// Artists lists the catalog's artists.
//
// Calls GET /api/artists.
func (m *MusikService) Artists(ctx context.Context) ([]models.Artist, error) {
	var artists []models.Artist
	if err := m.doRequest(ctx, http.MethodGet, "/api/artists", nil, &artists, true); err != nil {
		return nil, err
	}
	return artists, nil
}

// Artist retrieves an artist with their albums.
//
// Calls GET /api/artist/id/{id}.
func (m *MusikService) Artist(ctx context.Context, id int64) (*models.Artist, error) {
	var artist models.Artist
	endpoint := "/api/artist/id/" + strconv.FormatInt(id, 10)
	if err := m.doRequest(ctx, http.MethodGet, endpoint, nil, &artist, true); err != nil {
		if StatusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %d", shared.ErrArtistNotFound, id)
		}
		return nil, err
	}
	return &artist, nil
}
