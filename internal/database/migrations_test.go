package database

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Колонки времени хранятся с зоной, иначе UTC-дни аналитики и отсечка истечения
// зависят от часового пояса сервера базы
func TestMigrationsUseTimestampWithTimeZone(t *testing.T) {
	naive := regexp.MustCompile(`(?m)^\s+\w+ TIMESTAMP\b[^T]`)

	for i, m := range migrations {
		if !strings.Contains(m, "CREATE TABLE") {
			continue
		}
		assert.False(t, naive.MatchString(m), "migration %d declares TIMESTAMP without time zone", i+1)
		assert.NotContains(t, m, "TIMESTAMP,", "migration %d", i+1)
	}
}

func TestTimestampConversionRunsBeforeIndexes(t *testing.T) {
	convert, firstIndex := -1, -1
	for i, m := range migrations {
		if m == convertTimestampsToTZ {
			convert = i
		}
		if firstIndex < 0 && strings.Contains(m, "CREATE INDEX") {
			firstIndex = i
		}
	}
	assert.GreaterOrEqual(t, convert, 0)
	assert.Less(t, convert, firstIndex)
}
