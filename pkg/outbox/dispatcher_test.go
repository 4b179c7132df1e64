package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"sampleapps/pkg/circuitbreaker"
	"sampleapps/pkg/trace"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeStore struct {
	mu      sync.Mutex
	pending []*Event
	sent    []int64
	failed  []int64
}

func (s *fakeStore) GetPendingEvents(ctx context.Context, limit int) ([]*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out, nil
}

func (s *fakeStore) MarkAsSent(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, id)
	return nil
}

func (s *fakeStore) MarkAsFailed(ctx context.Context, id int64, maxRetries int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, id)
	return nil
}

type publishCall struct {
	routingKey string
	traceID    string
	body       string
}

type fakePublisher struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []publishCall
}

func (p *fakePublisher) PublishWithContext(ctx context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	body, _ := json.Marshal(payload)
	p.calls = append(p.calls, publishCall{routingKey, trace.FromContext(ctx), string(body)})
	if p.fail[routingKey] {
		return errors.New("broker down")
	}
	return nil
}

func event(id int64, key, payload string) *Event {
	return &Event{ID: id, RoutingKey: key, Payload: json.RawMessage(payload), Status: StatusPending}
}

func TestProcessPendingEvents(t *testing.T) {
	store := &fakeStore{pending: []*Event{
		event(1, "habit.checked_in", `{"trace_id":"t-1","habit_id":3}`),
		event(2, "plant.watered", `{"plant_id":9}`),
		event(3, "card.reviewed", `{"card_id":1}`),
	}}
	pub := &fakePublisher{fail: map[string]bool{"plant.watered": true}}
	d := newDispatcher(store, pub, zap.NewNop())

	sent := d.processPendingEvents(context.Background())

	assert.Equal(t, 2, sent)
	assert.Equal(t, []int64{1, 3}, store.sent)
	assert.Equal(t, []int64{2}, store.failed)
	require.Len(t, pub.calls, 3)
	assert.Equal(t, "t-1", pub.calls[0].traceID)
	// raw payload is forwarded without re-encoding
	assert.JSONEq(t, `{"trace_id":"t-1","habit_id":3}`, pub.calls[0].body)
}

func TestProcessPendingEvents_InvalidPayloadIsFailed(t *testing.T) {
	store := &fakeStore{pending: []*Event{event(5, "x", `{not json`)}}
	pub := &fakePublisher{}
	d := newDispatcher(store, pub, zap.NewNop())

	assert.Equal(t, 0, d.processPendingEvents(context.Background()))
	assert.Equal(t, []int64{5}, store.failed)
	assert.Empty(t, pub.calls)
}

func TestProcessPendingEvents_OpenBreakerDefersBatch(t *testing.T) {
	store := &fakeStore{pending: []*Event{
		event(1, "a", `{}`),
		event(2, "a", `{}`),
		event(3, "a", `{}`),
	}}
	pub := &fakePublisher{fail: map[string]bool{"a": true}}
	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{
		FailureThreshold: 1, SuccessThreshold: 1, Timeout: time.Hour, HalfOpenMaxRequests: 1,
	})
	d := newDispatcher(store, pub, zap.NewNop()).WithCircuitBreaker(cb)

	d.processPendingEvents(context.Background())

	// first failure opens the breaker; the rest stay pending untouched
	assert.Equal(t, []int64{1}, store.failed)
	assert.Len(t, pub.calls, 1)
}

func TestStartStopsWithContext(t *testing.T) {
	store := &fakeStore{pending: []*Event{event(1, "a", `{}`)}}
	pub := &fakePublisher{}
	d := newDispatcher(store, pub, zap.NewNop()).WithInterval(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.sent) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestNextAttempt(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	status, next := nextAttempt(2, 5, now)
	assert.Equal(t, StatusPending, status)
	require.NotNil(t, next)
	assert.Equal(t, now.Add(10*time.Second), *next)

	status, next = nextAttempt(5, 5, now)
	assert.Equal(t, StatusFailed, status)
	assert.Nil(t, next)
}

func TestWithSettersIgnoreNonPositive(t *testing.T) {
	d := newDispatcher(&fakeStore{}, &fakePublisher{}, zap.NewNop()).
		WithBatchSize(0).WithMaxRetries(-1).WithInterval(0)
	assert.Equal(t, 100, d.batchSize)
	assert.Equal(t, 5, d.maxRetries)
	assert.Equal(t, time.Second, d.interval)
}
