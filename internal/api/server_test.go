package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"videolib/internal/account"
	"videolib/internal/auth"
	"videolib/internal/events"
	"videolib/internal/library"
	"videolib/internal/playlist"
	"videolib/internal/record"
	"videolib/internal/video"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Publish(ctx context.Context, ev events.Event) error {
	return m.Called(ctx, ev).Error(0)
}

type harness struct {
	root   string
	router http.Handler
	events *recorder
	tokens *auth.Service
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	root := t.TempDir()
	cfg.StaticRoot = root

	videosDir := filepath.Join(root, "videos")
	imagesDir := filepath.Join(root, "images")
	playlistsDir := filepath.Join(root, "playlists")

	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}

	meta := record.NewFileRepository(videosDir)
	lists := record.NewFileRepository(playlistsDir)
	rec := &recorder{}
	tokens := auth.NewService("test-secret")

	srv := NewServer(cfg, Deps{
		Videos:    video.NewService(videosDir, imagesDir, meta, zerolog.Nop()).WithClock(tick),
		Playlists: playlist.NewService(lists).WithClock(tick),
		Accounts:  account.NewStore(filepath.Join(root, "users.json")),
		Library:   library.NewService(library.Dirs{Videos: videosDir, Images: imagesDir, Playlists: playlistsDir}, meta, lists),
		Tokens:    tokens,
		Notifier:  rec,
		Log:       zerolog.Nop(),
	})
	return &harness{root: root, router: srv.Router(), events: rec, tokens: tokens}
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

type part struct {
	field, filename, contentType, content string
}

func multipartBody(t *testing.T, fields map[string]string, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, p := range parts {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.filename))
		hdr.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = w.Write([]byte(p.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (h *harness) upload(t *testing.T, method, path string, fields map[string]string, parts ...part) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, fields, parts...)
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	h := newHarness(t, Config{})
	rr := h.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestNewServer_DefaultsToNop(t *testing.T) {
	srv := NewServer(Config{}, Deps{Log: zerolog.Nop()})
	assert.IsType(t, events.Nop{}, srv.Notifier)
	assert.Equal(t, int64(2048<<20), srv.cfg.MaxUploadBytes)
}

func TestEmit_PublishFailureIsLogged(t *testing.T) {
	n := &mockNotifier{}
	n.On("Publish", mock.Anything, mock.MatchedBy(func(ev events.Event) bool {
		return ev.Type == events.LibraryCleared
	})).Return(errors.New("bus down")).Once()

	srv := NewServer(Config{}, Deps{Notifier: n, Log: zerolog.Nop()})
	srv.emit(context.Background(), events.LibraryCleared, nil)
	n.AssertExpectations(t)
}

func TestStaticAssets(t *testing.T) {
	h := newHarness(t, Config{})
	require.NoError(t, os.MkdirAll(filepath.Join(h.root, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(h.root, "images", "a_thumb.png"), []byte("png"), 0o644))

	rr := h.do(t, "GET", "/images/a_thumb.png", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "png", rr.Body.String())

	rr = h.do(t, "GET", "/videos/missing.mp4", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/videos", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/api/videos", line["path"])
	assert.Equal(t, float64(http.StatusTeapot), line["status"])
}
