package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/lib/pq"
)

// highUsageRatio - доля занятых соединений, после которой health пишет предупреждение
const highUsageRatio = 0.9

// Ping проверяет базу для /health и предупреждает о почти исчерпанном пуле
func (db *DB) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		slog.Error("Database health check failed", "error", err)
		return err
	}

	stats := db.Stats()
	if stats.MaxOpenConnections > 0 && float64(stats.InUse) > float64(stats.MaxOpenConnections)*highUsageRatio {
		slog.Warn("High connection usage detected",
			"in_use", stats.InUse, "max_open", stats.MaxOpenConnections, "wait_count", stats.WaitCount)
	}
	return nil
}

// QueryWithRetry повторяет чтение при обрывах соединения
func (db *DB) QueryWithRetry(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	const maxRetries = 3
	const backoffDelay = 100 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		rows, err := db.QueryContext(ctx, query, args...)
		if err == nil {
			return rows, nil
		}

		lastErr = err

		if !IsRetryableError(err) {
			return nil, err
		}

		if attempt < maxRetries {
			slog.Warn("Database query failed, retrying",
				"attempt", attempt, "max_retries", maxRetries, "error", err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * backoffDelay):
			}
		}
	}

	return nil, fmt.Errorf("query failed after %d attempts: %w", maxRetries, lastErr)
}

// IsRetryableError - обрыв соединения, сетевая ошибка или класс 08 / 57P0x от Postgres
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code.Class() == "08":
			return true
		case pqErr.Code == "57P01", pqErr.Code == "57P02", pqErr.Code == "57P03":
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
