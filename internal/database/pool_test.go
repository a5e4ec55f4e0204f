package database

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad connection", fmt.Errorf("query: %w", driver.ErrBadConn), true},
		{"connection failure class", &pq.Error{Code: "08006"}, true},
		{"admin shutdown", &pq.Error{Code: "57P01"}, true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"network", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
		{"plain", errors.New("syntax error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.err))
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "eventhive", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=eventhive sslmode=disable timezone=UTC", cfg.DSN())
}
