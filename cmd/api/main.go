package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gocql/gocql"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"videolib/internal/account"
	"videolib/internal/api"
	"videolib/internal/auth"
	"videolib/internal/db"
	"videolib/internal/events"
	"videolib/internal/library"
	"videolib/internal/playlist"
	"videolib/internal/record"
	"videolib/internal/video"
	pkgdb "videolib/pkg/db"
	"videolib/pkg/logger"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := loadConfig()
	log := logger.New(cfg.LogLevel)
	if envErr != nil && !os.IsNotExist(envErr) {
		log.Warn().Err(envErr).Msg("failed to load .env")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	if cfg.AppSecret == "" {
		log.Warn().Msg("APP_SECRET not set; session tokens will not survive a restart")
		cfg.AppSecret = randomSecret()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	videosDir := filepath.Join(cfg.StaticRoot, "videos")
	imagesDir := filepath.Join(cfg.StaticRoot, "images")
	playlistsDir := filepath.Join(cfg.StaticRoot, "playlists")
	for _, dir := range []string{videosDir, imagesDir, playlistsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("create storage dir")
		}
	}

	repos, err := openRecords(ctx, cfg, videosDir, playlistsDir, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Backend).Msg("record backend unavailable")
	}
	defer repos.close()

	hub := events.NewHub(log)
	go hub.Run(ctx)
	var notifier events.Notifier = hub
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb := redis.NewClient(opt)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis not reachable yet")
		}
		bus := events.NewRedisBus(rdb, hub, log)
		go func() {
			if err := bus.Run(ctx); err != nil {
				log.Error().Err(err).Msg("redis relay stopped")
			}
		}()
		notifier = bus
	}

	srv := api.NewServer(api.Config{
		StaticRoot:     cfg.StaticRoot,
		MaxUploadBytes: int64(cfg.MaxUploadMB) << 20,
		AdminToken:     cfg.AdminToken,
	}, api.Deps{
		Videos:    video.NewService(videosDir, imagesDir, repos.videoMeta, log),
		Playlists: playlist.NewService(repos.playlists),
		Accounts:  account.NewStore(filepath.Join(cfg.StaticRoot, "users.json")),
		Library: library.NewService(library.Dirs{
			Videos:    videosDir,
			Images:    imagesDir,
			Playlists: playlistsDir,
		}, repos.videoMeta, repos.playlists),
		Tokens:   auth.NewService(cfg.AppSecret),
		Notifier: notifier,
		Hub:      hub,
		Log:      log,
	})

	router := srv.Router(
		middleware.RequestID,
		middleware.RealIP,
		api.RequestLogger(log),
		middleware.Recoverer,
	)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", httpSrv.Addr).Str("backend", cfg.Backend).Msg("api listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-done
	log.Info().Msg("shutdown signal received")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		_ = httpSrv.Close()
	}
	log.Info().Msg("server stopped")
}

type recordRepos struct {
	videoMeta record.Repository
	playlists record.Repository
	close     func()
}

// openRecords picks the storage behind video side-cars and playlists.
func openRecords(ctx context.Context, cfg config, videosDir, playlistsDir string, log zerolog.Logger) (recordRepos, error) {
	switch cfg.Backend {
	case "postgres":
		pool, err := pkgdb.Connect(ctx, cfg.DBURL)
		if err != nil {
			return recordRepos{}, err
		}
		if err := db.EnsurePostgresSchema(ctx, pool); err != nil {
			pool.Close()
			return recordRepos{}, err
		}
		return recordRepos{
			videoMeta: record.NewPostgresRepository(pool, "videos"),
			playlists: record.NewPostgresRepository(pool, "playlists"),
			close:     pool.Close,
		}, nil
	case "scylla":
		session, err := connectScyllaWithRetry(cfg, log)
		if err != nil {
			return recordRepos{}, err
		}
		return recordRepos{
			videoMeta: record.NewScyllaRepository(session, cfg.Keyspace, "videos"),
			playlists: record.NewScyllaRepository(session, cfg.Keyspace, "playlists"),
			close:     session.Close,
		}, nil
	default:
		return recordRepos{
			videoMeta: record.NewFileRepository(videosDir),
			playlists: record.NewFileRepository(playlistsDir),
			close:     func() {},
		}, nil
	}
}

func connectScyllaWithRetry(cfg config, log zerolog.Logger) (*gocql.Session, error) {
	scfg := db.ScyllaConfig{
		Hosts:       cfg.ScyllaHosts,
		Port:        cfg.ScyllaPort,
		Keyspace:    cfg.Keyspace,
		Consistency: cfg.Consistency,
		Replication: cfg.Replication,
	}
	for i := 0; i < 20; i++ {
		s, err := db.ConnectScylla(scfg)
		if err == nil {
			return s, nil
		}
		log.Warn().Err(err).Msgf("scylla connect retry %d/20", i+1)
		time.Sleep(5 * time.Second)
	}
	return nil, fmt.Errorf("scylla not ready after retries")
}
