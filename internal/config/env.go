package config

import (
	"bufio"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
)

var envFileName = ".env"

// initEnvFile loads KEY=VALUE pairs from .env into the process environment.
// Variables that are already set win.
func initEnvFile() {
	if err := loadEnvFile(envFileName); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("read env file", "path", envFileName, "err", err)
	}
}

func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		key, val, ok := strings.Cut(strings.TrimPrefix(line, "export "), "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		val = unquote(strings.TrimSpace(val))
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, val)
		}
	}
	return sc.Err()
}

func unquote(val string) string {
	if len(val) >= 2 {
		if q := val[0]; (q == '"' || q == '\'') && val[len(val)-1] == q {
			return val[1 : len(val)-1]
		}
	}
	return val
}
