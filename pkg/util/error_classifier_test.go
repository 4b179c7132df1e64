package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryableError(t *testing.T) {
	var syntaxErr error
	{
		var v map[string]any
		syntaxErr = json.Unmarshal([]byte("{oops"), &v)
	}

	cases := []struct {
		name      string
		err       error
		retryable bool
		errType   string
	}{
		{"nil", nil, false, ""},
		{"json syntax", fmt.Errorf("decode: %w", syntaxErr), false, "json_decode_error"},
		{"no rows", fmt.Errorf("lookup: %w", pgx.ErrNoRows), false, "row_not_found"},
		{"unique violation", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, false, "duplicate_key"},
		{"fk violation", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, false, "constraint_violation"},
		{"deadlock", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, true, "db_transient_error"},
		{"too many connections", &pgconn.PgError{Code: pgerrcode.TooManyConnections}, true, "db_transient_error"},
		{"syntax error in sql", &pgconn.PgError{Code: pgerrcode.SyntaxError}, false, "db_error"},
		{"deadline", context.DeadlineExceeded, true, "timeout"},
		{"canceled", context.Canceled, false, "context_canceled"},
		{"url error", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("dial")}, true, "network_error"},
		{"forced transient", fmt.Errorf("wrap: %w", ErrTransient), true, "transient"},
		{"forced permanent", fmt.Errorf("wrap: %w: %w", ErrPermanent, context.DeadlineExceeded), false, "permanent"},
		{"connection refused text", errors.New("dial tcp: connection refused"), true, "db_connection_error"},
		{"unknown", errors.New("something odd"), false, "unknown_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			retryable, errType := IsRetryableError(tc.err)
			assert.Equal(t, tc.retryable, retryable)
			assert.Equal(t, tc.errType, errType)
		})
	}
}

func TestShouldRetry(t *testing.T) {
	assert.False(t, ShouldRetry(0, 3, false))
	assert.True(t, ShouldRetry(3, 3, true))
	assert.False(t, ShouldRetry(4, 3, true))
}
