package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/clipman/internal/clipservice"
	"github.com/starford/clipman/internal/models"
	"github.com/starford/clipman/internal/monitor"
	"github.com/starford/clipman/internal/search"
	"github.com/starford/clipman/internal/testutil"
)

type memClipboard struct {
	last string
}

func (m *memClipboard) WriteText(s string) error {
	m.last = s
	return nil
}

type env struct {
	svc    *clipservice.Service
	state  *monitor.State
	clip   *memClipboard
	router http.Handler
}

// newEnv builds a router over a temp store. An empty token disables auth.
func newEnv(t *testing.T, token string, sseHandler http.Handler) *env {
	t.Helper()
	st := testutil.TestStore(t)
	hs := search.NewHybrid(st, 100, testutil.QuietLogger())

	e := &env{state: monitor.NewState(), clip: &memClipboard{}}
	e.svc = clipservice.NewService(st, hs,
		clipservice.WithLogger(testutil.QuietLogger()),
		clipservice.WithClipboard(e.clip),
		clipservice.WithMonitorState(e.state))
	e.router = NewRouter(e.svc, e.state, token != "", token, sseHandler)
	return e
}

func (e *env) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	} else {
		r = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) capture(t *testing.T, content string) models.Entry {
	t.Helper()
	w := e.do(t, http.MethodPost, "/entries", CaptureRequest{Content: content})
	if w.Code != http.StatusCreated {
		t.Fatalf("capture status = %d, body = %s", w.Code, w.Body.String())
	}
	var out models.Entry
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestCaptureAndGetEntry(t *testing.T) {
	e := newEnv(t, "", nil)

	created := e.capture(t, "Hello clipboard")
	if created.ID == 0 || created.Preview != "Hello clipboard" {
		t.Fatalf("created = %+v", created)
	}

	w := e.do(t, http.MethodGet, fmt.Sprintf("/entries/%d", created.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got models.Entry
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Content != "Hello clipboard" || got.IsPinned {
		t.Errorf("got = %+v", got)
	}
}

func TestCaptureEntry_Empty(t *testing.T) {
	e := newEnv(t, "", nil)
	w := e.do(t, http.MethodPost, "/entries", CaptureRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty capture = %d, want 400", w.Code)
	}
}

func TestCaptureEntry_InvalidJSON(t *testing.T) {
	e := newEnv(t, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader("{"))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", w.Code)
	}
}

func TestGetEntry_NotFoundAndBadID(t *testing.T) {
	e := newEnv(t, "", nil)
	if w := e.do(t, http.MethodGet, "/entries/999", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing = %d, want 404", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/entries/abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d, want 400", w.Code)
	}
}

func TestDeleteEntry(t *testing.T) {
	e := newEnv(t, "", nil)
	created := e.capture(t, "short lived")
	path := fmt.Sprintf("/entries/%d", created.ID)

	if w := e.do(t, http.MethodDelete, path, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d, want 204", w.Code)
	}
	if w := e.do(t, http.MethodGet, path, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
	if w := e.do(t, http.MethodDelete, path, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestListEntries_PinnedFirst(t *testing.T) {
	e := newEnv(t, "", nil)
	a := e.capture(t, "first")
	time.Sleep(2 * time.Millisecond)
	b := e.capture(t, "second")

	if w := e.do(t, http.MethodPost, fmt.Sprintf("/entries/%d/pin", a.ID), nil); w.Code != http.StatusOK {
		t.Fatalf("pin = %d", w.Code)
	}

	w := e.do(t, http.MethodGet, "/entries?limit=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp EntryListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 || resp.Entries[0].ID != a.ID || resp.Entries[1].ID != b.ID {
		t.Errorf("listing = %+v", resp)
	}
}

func TestPinUnpin(t *testing.T) {
	e := newEnv(t, "", nil)
	a := e.capture(t, "a")
	b := e.capture(t, "b")

	for _, id := range []int64{a.ID, b.ID} {
		e.do(t, http.MethodPost, fmt.Sprintf("/entries/%d/pin", id), nil)
	}

	w := e.do(t, http.MethodGet, "/pinned", nil)
	var pinned EntryListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &pinned)
	if pinned.Total != 2 || *pinned.Entries[0].PinOrder != 1 || *pinned.Entries[1].PinOrder != 2 {
		t.Fatalf("pinned = %+v", pinned)
	}

	w = e.do(t, http.MethodDelete, fmt.Sprintf("/entries/%d/pin", a.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unpin = %d", w.Code)
	}
	var unpinned models.Entry
	_ = json.Unmarshal(w.Body.Bytes(), &unpinned)
	if unpinned.IsPinned || unpinned.PinOrder != nil {
		t.Errorf("unpinned = %+v", unpinned)
	}

	if w := e.do(t, http.MethodPost, "/entries/999/pin", nil); w.Code != http.StatusNotFound {
		t.Errorf("pin missing = %d, want 404", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	e := newEnv(t, "", nil)
	e.capture(t, "golang generics")
	time.Sleep(2 * time.Millisecond)
	newest := e.capture(t, "golang channels")
	e.capture(t, "rust traits")

	w := e.do(t, http.MethodGet, "/search?q=golang", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(resp.Results))
	}
	if resp.Results[0].ID != newest.ID {
		t.Errorf("first result = %d, want newest %d", resp.Results[0].ID, newest.ID)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	e := newEnv(t, "", nil)
	if w := e.do(t, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/search?q=%20%20", nil); w.Code != http.StatusBadRequest {
		t.Errorf("search blank query = %d, want 400", w.Code)
	}
}

func TestClearHistory(t *testing.T) {
	e := newEnv(t, "", nil)
	e.capture(t, "one")
	e.capture(t, "two")

	if w := e.do(t, http.MethodDelete, "/entries", nil); w.Code != http.StatusNoContent {
		t.Fatalf("clear = %d, want 204", w.Code)
	}
	var resp EntryListResponse
	_ = json.Unmarshal(e.do(t, http.MethodGet, "/entries", nil).Body.Bytes(), &resp)
	if resp.Total != 0 {
		t.Errorf("entries after clear = %d", resp.Total)
	}
	if e.svc.IndexSize() != 0 {
		t.Errorf("index size after clear = %d", e.svc.IndexSize())
	}
}

func TestCopyEntry(t *testing.T) {
	e := newEnv(t, "", nil)
	created := e.capture(t, "copy me")

	w := e.do(t, http.MethodPost, fmt.Sprintf("/entries/%d/copy", created.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("copy = %d, body = %s", w.Code, w.Body.String())
	}
	if e.clip.last != "copy me" {
		t.Errorf("clipboard = %q", e.clip.last)
	}
	if e.state.Observe("copy me") {
		t.Error("copied content should not be seen as a change")
	}
}

func TestMonitorPauseResume(t *testing.T) {
	e := newEnv(t, "", nil)

	var status MonitorResponse
	w := e.do(t, http.MethodPost, "/monitor/pause", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &status)
	if w.Code != http.StatusOK || !status.Enabled || !status.Paused {
		t.Fatalf("pause = %d %+v", w.Code, status)
	}

	w = e.do(t, http.MethodPost, "/monitor/resume", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &status)
	if status.Paused {
		t.Errorf("still paused after resume")
	}
}

func TestMonitorDisabled(t *testing.T) {
	st := testutil.TestStore(t)
	svc := clipservice.NewService(st, search.NewHybrid(st, 10, testutil.QuietLogger()))
	router := NewRouter(svc, nil, false, "", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/monitor", nil))
	if w.Code != http.StatusOK || strings.Contains(w.Body.String(), `"enabled":true`) {
		t.Errorf("status = %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/monitor/pause", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("pause without monitor = %d, want 503", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/entries/1/copy", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("copy without clipboard = %d, want 503", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	e := newEnv(t, "secret123", nil)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer wrong", http.StatusUnauthorized},
		{"scheme", "Basic secret123", http.StatusUnauthorized},
		{"valid", "Bearer secret123", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/entries", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			e.router.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	e := newEnv(t, "", nil)
	if w := e.do(t, http.MethodGet, "/entries", nil); w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// blockingSSE writes headers and blocks until the request context ends.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	e := newEnv(t, "secret", blockingSSE)
	if w := e.do(t, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	e := newEnv(t, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}
