package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sampleapps/internal/model"
	"sampleapps/internal/service/conspiracy"
)

type AssessmentStore interface {
	Create(ctx context.Context, a *model.Assessment) error
	List(ctx context.Context, userID int) ([]model.Assessment, error)
	Get(ctx context.Context, userID, id int) (*model.Assessment, error)
	Delete(ctx context.Context, userID, id int) error
}

type ConspiracyHandler struct {
	assessments AssessmentStore
	logger      *zap.Logger
}

func NewConspiracyHandler(assessments AssessmentStore, logger *zap.Logger) *ConspiracyHandler {
	return &ConspiracyHandler{assessments: assessments, logger: logger}
}

// Levels handles GET /conspiracy/levels
func (h *ConspiracyHandler) Levels(c *gin.Context) {
	c.JSON(http.StatusOK, conspiracy.Levels())
}

// Classify handles GET /conspiracy/classify?score=N
func (h *ConspiracyHandler) Classify(c *gin.Context) {
	score, err := strconv.Atoi(c.Query("score"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "score must be an integer"})
		return
	}
	level, err := conspiracy.Classify(score)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"score": score, "level": level})
}

type createAssessmentRequest struct {
	Answers []int `json:"answers" binding:"required,min=1,max=20,dive,min=0,max=10"`
}

// Create handles POST /assessments
func (h *ConspiracyHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req createAssessmentRequest
	if !bindJSON(c, &req) {
		return
	}

	total, score, err := conspiracy.Score(req.Answers)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	level, err := conspiracy.Classify(score)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a := &model.Assessment{
		UserID:  userID,
		Answers: req.Answers,
		Total:   total,
		Score:   score,
		Level:   level.Name,
	}
	if err := h.assessments.Create(c.Request.Context(), a); err != nil {
		respondError(c, h.logger, "create assessment", err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// List handles GET /assessments
func (h *ConspiracyHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.assessments.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, "list assessments", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get handles GET /assessments/:id
func (h *ConspiracyHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	a, err := h.assessments.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, "get assessment", err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// Delete handles DELETE /assessments/:id
func (h *ConspiracyHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.assessments.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, "delete assessment", err)
		return
	}
	c.Status(http.StatusNoContent)
}
