package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sampleapps/internal/model"
	"sampleapps/internal/service/plant"
	"sampleapps/pkg/metrics"
)

type PlantStore interface {
	Create(ctx context.Context, p *model.Plant) error
	List(ctx context.Context, userID int) ([]model.Plant, error)
	Get(ctx context.Context, userID, id int) (*model.Plant, error)
	Update(ctx context.Context, userID, id int, p model.PlantPatch) (*model.Plant, error)
	Delete(ctx context.Context, userID, id int) error
	Water(ctx context.Context, userID, id int, at time.Time) (*model.Plant, error)
}

type PlantHandler struct {
	plants PlantStore
	loc    *time.Location
	now    Clock
	logger *zap.Logger
}

func NewPlantHandler(plants PlantStore, loc *time.Location, logger *zap.Logger) *PlantHandler {
	return &PlantHandler{plants: plants, loc: loc, now: time.Now, logger: logger}
}

func (h *PlantHandler) withStatus(p *model.Plant) model.PlantWithStatus {
	return model.PlantWithStatus{Plant: *p, Status: plant.Status(*p, h.now(), h.loc)}
}

type createPlantRequest struct {
	Name                 string `json:"name" binding:"required,notblank,max=100"`
	Species              string `json:"species" binding:"max=100"`
	Location             string `json:"location" binding:"max=100"`
	WateringIntervalDays int    `json:"watering_interval_days" binding:"required,min=1,max=365"`
	Notes                string `json:"notes" binding:"max=1000"`
}

// Create handles POST /plants
func (h *PlantHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req createPlantRequest
	if !bindJSON(c, &req) {
		return
	}

	p := &model.Plant{
		UserID:               userID,
		Name:                 strings.TrimSpace(req.Name),
		Species:              req.Species,
		Location:             req.Location,
		WateringIntervalDays: req.WateringIntervalDays,
		Notes:                req.Notes,
	}
	if err := h.plants.Create(c.Request.Context(), p); err != nil {
		respondError(c, h.logger, "create plant", err)
		return
	}
	c.JSON(http.StatusCreated, h.withStatus(p))
}

// List handles GET /plants
func (h *PlantHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.plants.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, "list plants", err)
		return
	}
	c.JSON(http.StatusOK, plant.WithStatus(list, h.now(), h.loc))
}

// Thirsty handles GET /plants/thirsty
func (h *PlantHandler) Thirsty(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.plants.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, "list plants", err)
		return
	}
	out := plant.Thirsty(list, h.now(), h.loc)
	if out == nil {
		out = []model.PlantWithStatus{}
	}
	c.JSON(http.StatusOK, out)
}

// Get handles GET /plants/:id
func (h *PlantHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.plants.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, "get plant", err)
		return
	}
	c.JSON(http.StatusOK, h.withStatus(p))
}

// Update handles PATCH /plants/:id
func (h *PlantHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var patch model.PlantPatch
	if !bindJSON(c, &patch) {
		return
	}
	p, err := h.plants.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		respondError(c, h.logger, "update plant", err)
		return
	}
	c.JSON(http.StatusOK, h.withStatus(p))
}

// Delete handles DELETE /plants/:id
func (h *PlantHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.plants.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, "delete plant", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Water handles POST /plants/:id/water
func (h *PlantHandler) Water(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.plants.Water(c.Request.Context(), userID, id, h.now().UTC())
	if err != nil {
		respondError(c, h.logger, "water plant", err)
		return
	}
	metrics.IncrementDomainAction("plant_water")
	c.JSON(http.StatusOK, h.withStatus(p))
}
