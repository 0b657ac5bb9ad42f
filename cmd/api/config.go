package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

type config struct {
	Port        string
	StaticRoot  string
	AppSecret   string
	Backend     string
	DBURL       string
	ScyllaHosts []string
	ScyllaPort  int
	Keyspace    string
	Consistency string
	Replication int
	RedisURL    string
	AdminToken  string
	MaxUploadMB int
	LogLevel    string
}

func loadConfig() (config, error) {
	var hosts []string
	for _, h := range strings.Split(os.Getenv("SCYLLA_HOSTS"), ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	cfg := config{
		Port:        envDefault("API_PORT", envDefault("PORT", "8080")),
		StaticRoot:  envDefault("STATIC_ROOT", "static"),
		AppSecret:   os.Getenv("APP_SECRET"),
		Backend:     strings.ToLower(envDefault("RECORD_BACKEND", "file")),
		DBURL:       os.Getenv("DB_URL"),
		ScyllaHosts: hosts,
		ScyllaPort:  envDefaultInt("SCYLLA_PORT", 9042),
		Keyspace:    envDefault("SCYLLA_KEYSPACE", "videolib"),
		Consistency: envDefault("SCYLLA_CONSISTENCY", "QUORUM"),
		Replication: envDefaultInt("SCYLLA_RF", 1),
		RedisURL:    os.Getenv("REDIS_URL"),
		AdminToken:  os.Getenv("ADMIN_API_TOKEN"),
		MaxUploadMB: envDefaultInt("MAX_UPLOAD_MB", 2048),
		LogLevel:    envDefault("LOG_LEVEL", "info"),
	}
	switch cfg.Backend {
	case "file":
	case "postgres":
		if cfg.DBURL == "" {
			return cfg, fmt.Errorf("DB_URL is required for RECORD_BACKEND=postgres")
		}
	case "scylla":
		if len(cfg.ScyllaHosts) == 0 {
			return cfg, fmt.Errorf("SCYLLA_HOSTS is required for RECORD_BACKEND=scylla")
		}
	default:
		return cfg, fmt.Errorf("unknown RECORD_BACKEND %q", cfg.Backend)
	}
	if cfg.MaxUploadMB <= 0 {
		return cfg, fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return cfg, nil
}

func envDefault(key, val string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return val
}

func envDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var out int
		if _, err := fmt.Sscanf(v, "%d", &out); err == nil {
			return out
		}
	}
	return def
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
