package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sampleapps/pkg/outbox"
)

type fakeReplayer struct {
	replayed []int64
	failed   []*outbox.Event
	err      error
}

func (f *fakeReplayer) ReplayEvent(_ context.Context, id int64) error {
	if id == 404 {
		return fmt.Errorf("failed to get event: %w", outbox.ErrEventNotFound)
	}
	if f.err != nil {
		return f.err
	}
	f.replayed = append(f.replayed, id)
	return nil
}

func (f *fakeReplayer) ReplayFailedEvents(_ context.Context, limit int) (int, error) {
	return len(f.failed), f.err
}

func (f *fakeReplayer) FailedEvents(_ context.Context, limit int) ([]*outbox.Event, error) {
	return f.failed, f.err
}

func TestAdmin_Replay(t *testing.T) {
	rep := &fakeReplayer{failed: []*outbox.Event{{ID: 7, RoutingKey: "card.reviewed", Status: outbox.StatusFailed}}}
	h := NewAdminHandler(rep, nopLogger())
	r := newEngine()
	r.GET("/admin/outbox/failed", h.FailedEvents)
	r.POST("/admin/outbox/replay", h.ReplayOutboxEvent)
	r.POST("/admin/outbox/replay-failed", h.ReplayFailedEvents)

	w := doJSON(t, r, http.MethodGet, "/admin/outbox/failed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	events := decode[[]outbox.Event](t, w)
	require.Len(t, events, 1)
	assert.Equal(t, "card.reviewed", events[0].RoutingKey)

	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, "/admin/outbox/replay?id=7", nil).Code)
	assert.Equal(t, []int64{7}, rep.replayed)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/admin/outbox/replay", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/admin/outbox/replay?id=x", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodPost, "/admin/outbox/replay?id=404", nil).Code)

	w = doJSON(t, r, http.MethodPost, "/admin/outbox/replay-failed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, w)["success_count"])

	rep.err = errors.New("broker down")
	assert.Equal(t, http.StatusInternalServerError, doJSON(t, r, http.MethodPost, "/admin/outbox/replay?id=8", nil).Code)
}
