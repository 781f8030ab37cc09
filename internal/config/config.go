package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreSQLite = "sqlite"
	StoreRemote = "remote"
)

type Config struct {
	ListenAddr    string
	Store         string
	DataPath      string
	PublicURL     string
	RemoteURL     string
	RemoteKey     string
	RemoteTimeout time.Duration
	DBBusyTimeout time.Duration
	DBLockTimeout time.Duration
	CatalogFile   string
	MaxUploadMB   int
}

func Load() Config {
	initEnvFile()

	cfg := Config{
		ListenAddr:  envOr("PBN_LISTEN_ADDR", "127.0.0.1:8080"),
		Store:       strings.ToLower(envOr("PBN_STORE", StoreSQLite)),
		DataPath:    envOr("PBN_DATA_PATH", "data"),
		PublicURL:   strings.TrimRight(os.Getenv("PBN_PUBLIC_URL"), "/"),
		RemoteURL:   strings.TrimRight(os.Getenv("PBN_REMOTE_URL"), "/"),
		RemoteKey:   os.Getenv("PBN_REMOTE_KEY"),
		CatalogFile: os.Getenv("PBN_CATALOG_FILE"),
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = "http://" + cfg.ListenAddr
	}

	cfg.RemoteTimeout = parseDurationOr("PBN_REMOTE_TIMEOUT", 30*time.Second)
	cfg.DBBusyTimeout = parseDurationOr("PBN_DB_BUSY_TIMEOUT", 5*time.Second)
	cfg.DBLockTimeout = parseDurationOr("PBN_DB_LOCK_TIMEOUT", 10*time.Second)
	cfg.MaxUploadMB = parseIntOr("PBN_MAX_UPLOAD_MB", 32)
	return cfg
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func parseIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}
