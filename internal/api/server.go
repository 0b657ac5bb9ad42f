package api

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"videolib/internal/account"
	"videolib/internal/auth"
	"videolib/internal/events"
	"videolib/internal/library"
	"videolib/internal/playlist"
	"videolib/internal/video"
	pkgauth "videolib/pkg/auth"
)

type Config struct {
	StaticRoot     string
	MaxUploadBytes int64
	AdminToken     string
}

// Deps are the services the HTTP layer dispatches to. Hub may be nil, in
// which case /api/events is not mounted.
type Deps struct {
	Videos    *video.Service
	Playlists *playlist.Service
	Accounts  *account.Store
	Library   *library.Service
	Tokens    *auth.Service
	Notifier  events.Notifier
	Hub       *events.Hub
	Log       zerolog.Logger
}

type Server struct {
	Deps
	cfg Config
}

func NewServer(cfg Config, deps Deps) *Server {
	if deps.Notifier == nil {
		deps.Notifier = events.Nop{}
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 2048 << 20
	}
	return &Server{Deps: deps, cfg: cfg}
}

// Router builds the chi router with every endpoint plus static asset serving.
func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/videos", s.handleListVideos)
		r.Delete("/videos", s.handleDeleteVideo)
		r.Put("/videos/update", s.handleUpdateVideo)
		r.Post("/upload", s.handleUpload)

		r.Get("/playlists", s.handleListPlaylists)
		r.Post("/playlists", s.handleCreatePlaylist)
		r.Delete("/playlists", s.handleDeletePlaylist)
		r.Put("/playlists/update", s.handleUpdatePlaylist)
		r.Post("/playlists/videos", s.handleAddToPlaylist)
		r.Delete("/playlists/videos", s.handleRemoveFromPlaylist)

		r.Post("/auth/login", s.handleLogin)
		r.Get("/auth/status", s.handleAuthStatus)
		r.With(s.Tokens.RequireAuth).Get("/auth/me", s.handleMe)
		r.Delete("/auth/delete", s.handleDeleteAccount)

		r.Group(func(r chi.Router) {
			r.Use(pkgauth.TokenMiddleware(s.cfg.AdminToken))
			r.Delete("/clear-all-data", s.handleClearAll)
			r.Get("/export-data", s.handleExport)
		})

		if s.Hub != nil {
			r.Get("/events", s.Hub.ServeWS)
		}
	})

	fileServer(r, "/videos", filepath.Join(s.cfg.StaticRoot, "videos"))
	fileServer(r, "/images", filepath.Join(s.cfg.StaticRoot, "images"))
	return r
}

func fileServer(r chi.Router, prefix, dir string) {
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	r.Get(prefix+"/*", fs.ServeHTTP)
}

// RequestLogger writes one zerolog line per request.
func RequestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

func (s *Server) emit(ctx context.Context, typ string, payload any) {
	if err := s.Notifier.Publish(ctx, events.New(typ, payload)); err != nil {
		s.Log.Warn().Err(err).Str("event", typ).Msg("publish event failed")
	}
}

// fail logs the cause and answers with a generic 500.
func (s *Server) fail(w http.ResponseWriter, err error, msg string) {
	s.Log.Error().Err(err).Msg(msg)
	errorJSON(w, http.StatusInternalServerError, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
