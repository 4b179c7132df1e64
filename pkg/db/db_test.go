package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"sampleapps/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DBConfig{User: "u", Password: "p", Host: "h", Port: 5433, Name: "n"})
	assert.Equal(t, "postgres://u:p@h:5433/n?sslmode=disable", dsn)
}

func TestTruncateSQL(t *testing.T) {
	assert.Equal(t, "unknown", truncateSQL("", 10))
	assert.Equal(t, "SELECT 1", truncateSQL("SELECT 1", 10))
	long := strings.Repeat("x", 20)
	assert.Equal(t, strings.Repeat("x", 10)+"...", truncateSQL(long, 10))
}
