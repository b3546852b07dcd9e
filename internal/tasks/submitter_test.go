package tasks

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/desertthunder/musik/internal/services"
	"github.com/desertthunder/musik/internal/shared"
)

type fakeSubmitAPI struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (f *fakeSubmitAPI) SubmitImport(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	return f.err
}

func TestSubmitter(t *testing.T) {
	ctx := context.Background()

	t.Run("Blank Path Never Reaches Network", func(t *testing.T) {
		for _, path := range []string{"", "   ", "\t\n"} {
			api := &fakeSubmitAPI{}
			_, err := NewSubmitter(api, nil).Submit(ctx, path)

			if !errors.Is(err, shared.ErrInvalidPath) {
				t.Errorf("Submit(%q) expected ErrInvalidPath, got %v", path, err)
			}
			if len(api.paths) != 0 {
				t.Errorf("Submit(%q) made %d requests", path, len(api.paths))
			}
		}
	})

	t.Run("Accepted", func(t *testing.T) {
		api := &fakeSubmitAPI{}
		ack, err := NewSubmitter(api, nil).Submit(ctx, "  /music  ")
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if ack.Path != "/music" || ack.SubmittedAt.IsZero() {
			t.Errorf("unexpected acknowledgment %+v", ack)
		}
		if len(api.paths) != 1 || api.paths[0] != "/music" {
			t.Errorf("expected trimmed path to be posted, got %v", api.paths)
		}
	})

	tt := []struct {
		name    string
		apiErr  error
		want    error
		wantToo error
	}{
		{
			name:   "not found",
			apiErr: &services.APIError{StatusCode: http.StatusNotFound},
			want:   shared.ErrPathNotFound,
		},
		{
			name:    "server error",
			apiErr:  &services.APIError{StatusCode: http.StatusInternalServerError},
			want:    shared.ErrSubmissionFailed,
			wantToo: shared.ErrAPIRequest,
		},
		{
			name:   "network error",
			apiErr: errors.New("connection refused"),
			want:   shared.ErrSubmissionFailed,
		},
		{
			name:    "session expired",
			apiErr:  shared.ErrSessionExpired,
			want:    shared.ErrSubmissionFailed,
			wantToo: shared.ErrSessionExpired,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSubmitter(&fakeSubmitAPI{err: tc.apiErr}, nil).Submit(ctx, "/music")
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
			if tc.wantToo != nil && !errors.Is(err, tc.wantToo) {
				t.Errorf("expected %v in chain, got %v", tc.wantToo, err)
			}
			if errors.Is(err, shared.ErrPathNotFound) && errors.Is(err, shared.ErrSubmissionFailed) {
				t.Error("404 should not also be a generic submission failure")
			}
		})
	}
}
