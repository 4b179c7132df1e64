package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sampleapps/internal/model"
	"sampleapps/internal/repository"
	"sampleapps/internal/service/conspiracy"
)

type memAssessments struct {
	rows []model.Assessment
}

func (m *memAssessments) Create(_ context.Context, a *model.Assessment) error {
	a.ID = len(m.rows) + 1
	m.rows = append(m.rows, *a)
	return nil
}

func (m *memAssessments) List(_ context.Context, userID int) ([]model.Assessment, error) {
	out := []model.Assessment{}
	for _, a := range m.rows {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAssessments) Get(_ context.Context, userID, id int) (*model.Assessment, error) {
	for _, a := range m.rows {
		if a.ID == id && a.UserID == userID {
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memAssessments) Delete(ctx context.Context, userID, id int) error {
	_, err := m.Get(ctx, userID, id)
	return err
}

func conspiracyRouter() *gin.Engine {
	h := NewConspiracyHandler(&memAssessments{}, nopLogger())
	r := newEngine()
	r.GET("/conspiracy/levels", h.Levels)
	r.GET("/conspiracy/classify", h.Classify)
	r.POST("/assessments", h.Create)
	r.GET("/assessments", h.List)
	r.GET("/assessments/:id", h.Get)
	r.DELETE("/assessments/:id", h.Delete)
	return r
}

func TestConspiracy_Levels(t *testing.T) {
	r := conspiracyRouter()
	w := doJSON(t, r, http.MethodGet, "/conspiracy/levels", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, conspiracy.Levels(), decode[[]conspiracy.Level](t, w))
}

func TestConspiracy_Classify(t *testing.T) {
	r := conspiracyRouter()

	w := doJSON(t, r, http.MethodGet, "/conspiracy/classify?score=55", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Level conspiracy.Level `json:"level"`
	}](t, w)
	assert.Equal(t, "Questioner", resp.Level.Name)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/conspiracy/classify?score=-3", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/conspiracy/classify?score=lots", nil).Code)
}

func TestConspiracy_CreateAssessment(t *testing.T) {
	r := conspiracyRouter()

	w := doJSON(t, r, http.MethodPost, "/assessments", gin.H{"answers": []int{9, 10, 8, 10}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	a := decode[model.Assessment](t, w)
	assert.Equal(t, 37, a.Total)
	assert.Equal(t, 92, a.Score)
	assert.Equal(t, "Tinfoil Hat", a.Level)
	assert.Equal(t, []int{9, 10, 8, 10}, a.Answers)

	for _, answers := range [][]int{{}, {11}, {-1}, make([]int, 21)} {
		w := doJSON(t, r, http.MethodPost, "/assessments", gin.H{"answers": answers})
		assert.Equal(t, http.StatusBadRequest, w.Code, "%v", answers)
	}

	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodGet, "/assessments/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/assessments/1", nil, "2").Code)
}
