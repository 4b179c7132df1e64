package mqhandler

import (
	"context"

	"sampleapps/internal/model"
)

// Deduper is satisfied by *util.Deduper.
type Deduper interface {
	AcquireOnce(ctx context.Context, handler string, eventID string) bool
	Release(ctx context.Context, handler string, eventID string)
}

type ActivityWriter interface {
	Insert(ctx context.Context, a *model.Activity) error
}
