package main

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"pbnadmin/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := parseLogLevel(raw).Level(); got != want {
			t.Fatalf("parseLogLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestPrettyHandlerLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newPrettyHandler(&buf, parseLogLevel("info")))
	logger.With("component", "web").WithGroup("req").Info("http request", "path", "/offers", "note", "two words")
	logger.Debug("hidden")

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected one line, got %q", out)
	}
	for _, want := range []string{" INFO http request", " component=web", " req.path=/offers", ` req.note="two words"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
	if strings.Contains(out, "req.component") {
		t.Fatalf("component was added before the group: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("colour must be off for non-terminal writers: %q", out)
	}
}

func TestPrettyHandlerGroupsOnlyQualifyLaterAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newPrettyHandler(&buf, parseLogLevel("debug")))
	logger.With("store", "sqlite").WithGroup("req").With("id", "7").WithGroup("db").Debug("query", "rows", 2)

	out := buf.String()
	for _, want := range []string{" store=sqlite", " req.id=7", " req.db.rows=2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
	for _, bad := range []string{"req.store", "db.id", "req.db.id"} {
		if strings.Contains(out, bad) {
			t.Fatalf("attr qualified by a later group (%q) in %q", bad, out)
		}
	}
}

func TestOpenBackendSQLite(t *testing.T) {
	cfg := config.Config{
		Store:     config.StoreSQLite,
		DataPath:  filepath.Join(t.TempDir(), "data"),
		PublicURL: "http://127.0.0.1:8080",
	}
	b, err := openBackend(context.Background(), cfg, config.DefaultCatalog())
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	defer b.close()
	if b.objectsDir != filepath.Join(cfg.DataPath, "objects") || b.bucket == nil || b.gw == nil {
		t.Fatalf("incomplete backend %+v", b)
	}
}

func TestOpenBackendRejectsUnknownStore(t *testing.T) {
	if _, err := openBackend(context.Background(), config.Config{Store: "mongo"}, config.DefaultCatalog()); err == nil {
		t.Fatalf("expected error for unknown store")
	}
	if _, err := openBackend(context.Background(), config.Config{Store: config.StoreRemote}, config.DefaultCatalog()); err == nil {
		t.Fatalf("expected error for remote store without url")
	}
}
