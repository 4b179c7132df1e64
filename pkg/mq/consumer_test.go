package mq

import (
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	cases := []struct {
		name      string
		retryable bool
		attempts  int64
		hasDLQ    bool
		want      action
	}{
		{"retryable under limit", true, 1, true, actionRequeue},
		{"retryable without tracker", true, 0, true, actionRequeue},
		{"retryable over limit goes to dlq", true, 4, true, actionDeadLetter},
		{"retryable over limit without dlq keeps requeueing", true, 4, false, actionRequeue},
		{"permanent with dlq", false, 0, true, actionDeadLetter},
		{"permanent without dlq is dropped", false, 0, false, actionDrop},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, decide(tc.retryable, tc.attempts, 3, tc.hasDLQ))
		})
	}
}

func TestDLQHeaders(t *testing.T) {
	orig := amqp091.Table{TraceHeader: "abc"}
	h := DLQHeaders(orig, "boom", "json_decode_error", "worker")

	assert.Equal(t, "abc", h[TraceHeader])
	assert.Equal(t, "boom", h["x-original-error"])
	assert.Equal(t, "json_decode_error", h["x-error-type"])
	assert.Equal(t, "worker", h["x-failed-at"])
	_, leaked := orig["x-original-error"]
	assert.False(t, leaked)
}
