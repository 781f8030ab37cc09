package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// execContext runs a statement, retrying while the database reports
// SQLITE_BUSY until the lock timeout elapses.
func (s *Store) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	slog.Debug("sql exec", "query", query, "args", args)
	start := time.Now()
	for attempt := 0; ; attempt++ {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err == nil || !isSQLiteBusy(err) {
			slog.Debug("sql exec done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err)
			return res, err
		}
		if reason, stop := s.giveUp(ctx, start); stop {
			slog.Debug("sql exec done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err, "reason", reason)
			if reason == "context" {
				return nil, ctx.Err()
			}
			return nil, err
		}
		time.Sleep(retryDelay(attempt))
	}
}

func (s *Store) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	slog.Debug("sql query", "query", query, "args", args)
	start := time.Now()
	for attempt := 0; ; attempt++ {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err == nil || !isSQLiteBusy(err) {
			slog.Debug("sql query done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err)
			return rows, err
		}
		if reason, stop := s.giveUp(ctx, start); stop {
			slog.Debug("sql query done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err, "reason", reason)
			if reason == "context" {
				return nil, ctx.Err()
			}
			return nil, err
		}
		time.Sleep(retryDelay(attempt))
	}
}

func (s *Store) giveUp(ctx context.Context, start time.Time) (string, bool) {
	switch {
	case s.lockTimeout <= 0:
		return "no-timeout", true
	case ctx.Err() != nil:
		return "context", true
	case time.Since(start) >= s.lockTimeout:
		return "timeout", true
	}
	return "", false
}

func retryDelay(attempt int) time.Duration {
	delay := time.Duration(attempt+1) * 40 * time.Millisecond
	if delay > 300*time.Millisecond {
		delay = 300 * time.Millisecond
	}
	return delay
}

func isSQLiteBusy(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_BUSY
	}
	return false
}
