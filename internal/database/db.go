package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"eventhive/internal/metrics"
)

type DB struct {
	*sql.DB
}

type Config struct {
	Host               string
	Port               int
	User               string
	Password           string
	DBName             string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	ConnMaxIdleTimeMin int
	// ConnectAttempts - сколько раз пинговать базу при старте (postgres в compose поднимается дольше api)
	ConnectAttempts int
}

// DSN фиксирует зону сессии в UTC: дни в to_char совпадают с UTC-днями аналитики
func (cfg Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s timezone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

func Connect(cfg Config) (*DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMin) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMin) * time.Minute)

	db := &DB{sqlDB}
	if err := db.waitReady(cfg.ConnectAttempts); err != nil {
		sqlDB.Close()
		return nil, err
	}

	metrics.RegisterDB(cfg.DBName, sqlDB)

	slog.Info("Connected to database",
		"host", cfg.Host, "port", cfg.Port, "dbname", cfg.DBName,
		"max_open_conns", cfg.MaxOpenConns, "max_idle_conns", cfg.MaxIdleConns)

	return db, nil
}

func (db *DB) waitReady(attempts int) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt < attempts {
			slog.Warn("Database not ready, retrying", "attempt", attempt, "max_attempts", attempts, "error", err)
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}
	return fmt.Errorf("failed to ping database: %w", err)
}

func (db *DB) Close() error {
	return db.DB.Close()
}
