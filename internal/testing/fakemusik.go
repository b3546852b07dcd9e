package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/musik/internal/models"
)

// FakeMusik is an in-process musik server for tests.
//
// Users, encoders, streams, catalog and importer state are configured with
// the setters; every request is recorded and can be inspected with [FakeMusik.Requests].
type FakeMusik struct {
	*httptest.Server

	mu          sync.Mutex
	users       map[string]string // username -> password
	tokens      map[string]string // username -> token
	tokenTTL    time.Duration
	encoders    []string
	randomURIs  []string
	randomNext  int
	randomFail  int
	streams     map[string]fakeStream
	albums      []models.Album
	artists     []models.Artist
	importDirs  map[string]bool
	submitFail  int
	statuses    []models.ImportStatus
	statusFail  int
	submissions []string
	requests    []string
}

type fakeStream struct {
	contentType string
	body        []byte
}

// NewFakeMusik starts a fake server that is closed when the test ends.
func NewFakeMusik(t *testing.T) *FakeMusik {
	t.Helper()

	f := &FakeMusik{
		users:      map[string]string{},
		tokens:     map[string]string{},
		tokenTTL:   time.Hour,
		streams:    map[string]fakeStream{},
		importDirs: map[string]bool{},
	}

	router := NewBasicRouter()
	router.Use(RecordRequests(f.record))
	router.Handle(http.MethodGet, "/api/stream/encoders", f.handleEncoders)
	router.Handle(http.MethodPut, "/api/users/current", f.handleLogin)
	router.Handle(http.MethodPost, "/api/users", f.handleRegister)

	router.Use(RequireBasicAuth(f.checkToken))
	router.Handle(http.MethodGet, "/api/tracks/random", f.handleRandom)
	router.Handle(http.MethodGet, "/api/stream/{id}/{suffix}", f.handleStream)
	router.Handle(http.MethodGet, "/api/stream/{id}", f.handleStream)
	router.Handle(http.MethodPost, "/api/importer", f.handleSubmit)
	router.Handle(http.MethodGet, "/api/importer", f.handleStatus)
	router.Handle(http.MethodGet, "/api/albums", f.handleAlbums)
	router.Handle(http.MethodGet, "/api/album/id/{id}", f.handleAlbum)
	router.Handle(http.MethodGet, "/api/artists", f.handleArtists)
	router.Handle(http.MethodGet, "/api/artist/id/{id}", f.handleArtist)

	f.Server = httptest.NewServer(router)
	t.Cleanup(f.Close)
	return f
}

// AddUser registers an account and issues its session token.
func (f *FakeMusik) AddUser(username, password, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[username] = password
	f.tokens[username] = token
}

// SetTokenTTL controls the token_expires value returned by login.
func (f *FakeMusik) SetTokenTTL(ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenTTL = ttl
}

// SetEncoders sets the response of GET /api/stream/encoders.
func (f *FakeMusik) SetEncoders(mimeTypes ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.encoders = mimeTypes
}

// SetRandomTracks sets the stream URIs GET /api/tracks/random cycles through.
func (f *FakeMusik) SetRandomTracks(streamURIs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.randomURIs = streamURIs
	f.randomNext = 0
}

// FailRandom makes GET /api/tracks/random answer with status until cleared with 0.
func (f *FakeMusik) FailRandom(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.randomFail = status
}

// SetStream serves body with contentType for GET requests to path.
func (f *FakeMusik) SetStream(path, contentType string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streams[path] = fakeStream{contentType: contentType, body: body}
}

// SetCatalog sets the albums and artists the library endpoints serve.
func (f *FakeMusik) SetCatalog(albums []models.Album, artists []models.Artist) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.albums = albums
	f.artists = artists
}

// AddImportDir makes path acceptable to POST /api/importer.
func (f *FakeMusik) AddImportDir(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.importDirs[path] = true
}

// FailSubmit makes POST /api/importer answer with status until cleared with 0.
func (f *FakeMusik) FailSubmit(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitFail = status
}

// QueueStatuses appends importer snapshots. Each GET /api/importer consumes
// one; the last is repeated once the queue is drained.
func (f *FakeMusik) QueueStatuses(statuses ...models.ImportStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, statuses...)
}

// QueueOutstanding is [FakeMusik.QueueStatuses] for snapshots that differ only in outstanding_tasks.
func (f *FakeMusik) QueueOutstanding(counts ...int) {
	statuses := make([]models.ImportStatus, len(counts))
	for i, n := range counts {
		statuses[i] = models.ImportStatus{OutstandingTasks: n}
		if n > 0 {
			statuses[i].CurrentTask = &models.ImportTask{URI: "/music/task-" + strconv.Itoa(i)}
		}
	}
	f.QueueStatuses(statuses...)
}

// FailStatus makes the next n GET /api/importer requests answer 500.
func (f *FakeMusik) FailStatus(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusFail = n
}

// Submissions returns the paths accepted by POST /api/importer.
func (f *FakeMusik) Submissions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.submissions...)
}

// Requests returns "METHOD /path" for every request received so far.
func (f *FakeMusik) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// Count returns how many requests matched "METHOD /path".
func (f *FakeMusik) Count(request string) int {
	n := 0
	for _, r := range f.Requests() {
		if r == request {
			n++
		}
	}
	return n
}

func (f *FakeMusik) record(request string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, request)
}

func (f *FakeMusik) checkToken(user, token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	want, ok := f.tokens[user]
	return ok && want == token
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (f *FakeMusik) handleEncoders(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	encoders := append([]string{}, f.encoders...)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, encoders)
}

func (f *FakeMusik) handleLogin(w http.ResponseWriter, r *http.Request) {
	user, password, ok := r.BasicAuth()

	f.mu.Lock()
	want, known := f.users[user]
	token, ttl := f.tokens[user], f.tokenTTL
	f.mu.Unlock()

	if !ok || !known || want != password {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	expires := time.Now().UTC().Add(ttl).Format("2006-01-02T15:04:05.999999")
	writeJSON(w, http.StatusOK, map[string]any{
		"username":      user,
		"token":         token,
		"token_expires": expires,
		"id":            1,
	})
}

func (f *FakeMusik) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil || reg.Username == "" || reg.Password == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[reg.Username]; exists {
		http.Error(w, "Conflict", http.StatusConflict)
		return
	}
	f.users[reg.Username] = reg.Password
	f.tokens[reg.Username] = "token-" + reg.Username
	writeJSON(w, http.StatusOK, nil)
}

func (f *FakeMusik) handleRandom(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	fail := f.randomFail
	var uri string
	if fail == 0 && len(f.randomURIs) > 0 {
		uri = f.randomURIs[f.randomNext%len(f.randomURIs)]
		f.randomNext++
	}
	f.mu.Unlock()

	switch {
	case fail != 0:
		http.Error(w, http.StatusText(fail), fail)
	case uri == "":
		http.Error(w, "Not Found", http.StatusNotFound)
	default:
		writeJSON(w, http.StatusOK, map[string]string{"stream_uri": uri})
	}
}

func (f *FakeMusik) handleStream(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	stream, ok := f.streams[r.URL.Path]
	f.mu.Unlock()

	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", stream.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(stream.body)))
	w.Write(stream.body)
}

func (f *FakeMusik) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req models.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitFail != 0 {
		http.Error(w, http.StatusText(f.submitFail), f.submitFail)
		return
	}
	if !f.importDirs[req.Path] {
		http.Error(w, "Couldn't find the path "+req.Path+" on the target system", http.StatusNotFound)
		return
	}
	f.submissions = append(f.submissions, req.Path)
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte("null"))
}

func (f *FakeMusik) handleStatus(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	if f.statusFail > 0 {
		f.statusFail--
		f.mu.Unlock()
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	status := models.ImportStatus{}
	if len(f.statuses) > 0 {
		status = f.statuses[0]
		if len(f.statuses) > 1 {
			f.statuses = f.statuses[1:]
		}
	}
	f.mu.Unlock()

	if status.Warnings == nil {
		status.Warnings = []models.Message{}
	}
	if status.Errors == nil {
		status.Errors = []models.Message{}
	}
	writeJSON(w, http.StatusOK, status)
}

func (f *FakeMusik) handleAlbums(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	albums := make([]models.Album, len(f.albums))
	for i, a := range f.albums {
		a.Tracks = nil
		albums[i] = a
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, albums)
}

func (f *FakeMusik) handleAlbum(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.albums {
		if a.ID == id {
			writeJSON(w, http.StatusOK, a)
			return
		}
	}
	http.Error(w, "Not Found", http.StatusNotFound)
}

func (f *FakeMusik) handleArtists(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	artists := make([]models.Artist, len(f.artists))
	for i, a := range f.artists {
		a.Albums = nil
		artists[i] = a
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, artists)
}

func (f *FakeMusik) handleArtist(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.artists {
		if a.ID == id {
			writeJSON(w, http.StatusOK, a)
			return
		}
	}
	http.Error(w, "Not Found", http.StatusNotFound)
}
