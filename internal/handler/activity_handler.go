package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sampleapps/internal/model"
)

type ActivityStore interface {
	ListByUser(ctx context.Context, userID, limit int) ([]model.Activity, error)
}

type ActivityHandler struct {
	activity ActivityStore
	logger   *zap.Logger
}

func NewActivityHandler(activity ActivityStore, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{activity: activity, logger: logger}
}

// List handles GET /activity?limit=N
func (h *ActivityHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.activity.ListByUser(c.Request.Context(), userID, intQuery(c, "limit", 50, 200))
	if err != nil {
		respondError(c, h.logger, "list activity", err)
		return
	}
	c.JSON(http.StatusOK, list)
}
