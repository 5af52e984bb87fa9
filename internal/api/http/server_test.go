package httpapi

import (
	stdcontext "context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lifeos-app/shell/internal/api"
)

type mockController struct {
	notifyFn  func(stdcontext.Context, string, string) error
	portFn    func(stdcontext.Context) (int, error)
	backendFn func(stdcontext.Context) (*api.BackendReport, error)
}

func (m *mockController) Notify(ctx stdcontext.Context, title, body string) error {
	if m.notifyFn != nil {
		return m.notifyFn(ctx, title, body)
	}
	return nil
}

func (m *mockController) BackendPort(ctx stdcontext.Context) (int, error) {
	if m.portFn != nil {
		return m.portFn(ctx)
	}
	return 52700, nil
}

func (m *mockController) BackendStatus(ctx stdcontext.Context) (*api.BackendReport, error) {
	if m.backendFn != nil {
		return m.backendFn(ctx)
	}
	return &api.BackendReport{}, nil
}

func newTestServer(t *testing.T, ctrl api.Controller) *Server {
	t.Helper()
	server, err := NewServer(Config{Controller: ctrl})
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	return server
}

func TestNewServerRequiresController(t *testing.T) {
	if _, err := NewServer(Config{}); err == nil {
		t.Fatalf("expected error when controller is missing")
	}
}

func TestNormalizeAddr(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":              defaultAddr,
		":52710":        "127.0.0.1:52710",
		"0.0.0.0:52710": "127.0.0.1:52710",
		"host:9000":     "host:9000",
		"[::1]:443":     "[::1]:443",
	}

	for input, expected := range tests {
		input, expected := input, expected
		t.Run(fmt.Sprintf("%s->%s", input, expected), func(t *testing.T) {
			t.Parallel()
			if got := normalizeAddr(input); got != expected {
				t.Fatalf("normalizeAddr(%q)=%q, want %q", input, got, expected)
			}
		})
	}
}

func TestHandleNotify(t *testing.T) {
	var gotTitle, gotBody string
	ctrl := &mockController{
		notifyFn: func(_ stdcontext.Context, title, body string) error {
			gotTitle, gotBody = title, body
			return nil
		},
	}
	server := newTestServer(t, ctrl)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notify", strings.NewReader(`{"title":"Daily Brief","body":"3 meetings today"}`))
	rec := httptest.NewRecorder()

	server.handleNotify(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if gotTitle != "Daily Brief" || gotBody != "3 meetings today" {
		t.Fatalf("controller received (%q, %q)", gotTitle, gotBody)
	}
}

func TestHandleNotifyEmptyTitle(t *testing.T) {
	ctrl := &mockController{
		notifyFn: func(stdcontext.Context, string, string) error {
			return api.ErrEmptyTitle
		},
	}
	server := newTestServer(t, ctrl)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notify", strings.NewReader(`{"body":"no title"}`))
	rec := httptest.NewRecorder()

	server.handleNotify(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body.Code != "empty_title" {
		t.Fatalf("expected empty_title code, got %q", body.Code)
	}
}

func TestHandleNotifyRejectsMalformedPayload(t *testing.T) {
	server := newTestServer(t, &mockController{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notify", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	server.handleNotify(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleNotifyMethodNotAllowed(t *testing.T) {
	server := newTestServer(t, &mockController{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notify", nil)
	rec := httptest.NewRecorder()

	server.handleNotify(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if got, want := rec.Header().Get("Allow"), http.MethodPost; got != want {
		t.Fatalf("Allow header: got %q want %q", got, want)
	}
}

func TestHandlePort(t *testing.T) {
	server := newTestServer(t, &mockController{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/port", nil)
	rec := httptest.NewRecorder()

	server.handlePort(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if got, want := body["port"], 52700; got != want {
		t.Fatalf("port mismatch: got %d want %d", got, want)
	}
}

func TestHandleBackend(t *testing.T) {
	ctrl := &mockController{
		backendFn: func(stdcontext.Context) (*api.BackendReport, error) {
			return &api.BackendReport{Running: true, PID: 4321, Mode: "development", Port: 52700, GeneratedAt: time.Unix(123, 0)}, nil
		},
	}
	server := newTestServer(t, ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/backend", nil)
	rec := httptest.NewRecorder()

	server.handleBackend(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body api.BackendReport
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !body.Running || body.PID != 4321 {
		t.Fatalf("unexpected report: %+v", body)
	}
}

func TestHandleBackendError(t *testing.T) {
	ctrl := &mockController{
		backendFn: func(stdcontext.Context) (*api.BackendReport, error) {
			return nil, errors.New("boom")
		},
	}
	server := newTestServer(t, ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/backend", nil)
	rec := httptest.NewRecorder()

	server.handleBackend(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
