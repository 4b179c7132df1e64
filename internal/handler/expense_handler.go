package handler

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sampleapps/internal/model"
	"sampleapps/internal/service/expense"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExpenseStore interface {
	Create(ctx context.Context, e *model.Expense) error
	List(ctx context.Context, userID int, f model.ExpenseFilter) ([]model.Expense, error)
	Get(ctx context.Context, userID, id int) (*model.Expense, error)
	Update(ctx context.Context, userID, id int, p model.ExpensePatch) (*model.Expense, error)
	Delete(ctx context.Context, userID, id int) error
	CategoryTotals(ctx context.Context, userID int, month string) ([]model.CategorySpend, error)
}

type BudgetStore interface {
	Upsert(ctx context.Context, b *model.Budget) error
	List(ctx context.Context, userID int, month string) ([]model.Budget, error)
	Delete(ctx context.Context, userID, id int) error
}

type ExpenseHandler struct {
	expenses ExpenseStore
	budgets  BudgetStore
	loc      *time.Location
	now      Clock
	logger   *zap.Logger
}

func NewExpenseHandler(expenses ExpenseStore, budgets BudgetStore, loc *time.Location, logger *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		expenses: expenses,
		budgets:  budgets,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

type createExpenseRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required,gt=0"`
	Category    string `json:"category" binding:"required,notblank,max=50"`
	Description string `json:"description" binding:"max=500"`
	SpentOn     string `json:"spent_on" binding:"omitempty,datetime=2006-01-02"`
}

// Create handles POST /expenses
func (h *ExpenseHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req createExpenseRequest
	if !bindJSON(c, &req) {
		return
	}

	spentOn := model.Day(h.now(), h.loc)
	if req.SpentOn != "" {
		d, err := model.ParseDay(req.SpentOn)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "spent_on must be YYYY-MM-DD"})
			return
		}
		spentOn = d
	}

	e := &model.Expense{
		UserID:      userID,
		AmountCents: req.AmountCents,
		Category:    strings.TrimSpace(req.Category),
		Description: req.Description,
		SpentOn:     spentOn,
	}
	if err := h.expenses.Create(c.Request.Context(), e); err != nil {
		respondError(c, h.logger, "create expense", err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// List handles GET /expenses?month=&category=
func (h *ExpenseHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	f := model.ExpenseFilter{Category: c.Query("category")}
	if c.Query("month") != "" {
		month, ok := monthQuery(c, h.now(), h.loc)
		if !ok {
			return
		}
		f.Month = month
	}

	list, err := h.expenses.List(c.Request.Context(), userID, f)
	if err != nil {
		respondError(c, h.logger, "list expenses", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get handles GET /expenses/:id
func (h *ExpenseHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	e, err := h.expenses.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, "get expense", err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// Update handles PATCH /expenses/:id
func (h *ExpenseHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var patch model.ExpensePatch
	if !bindJSON(c, &patch) {
		return
	}
	e, err := h.expenses.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		respondError(c, h.logger, "update expense", err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// Delete handles DELETE /expenses/:id
func (h *ExpenseHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.expenses.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, "delete expense", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Summary handles GET /expenses/summary?month=
func (h *ExpenseHandler) Summary(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	month, ok := monthQuery(c, h.now(), h.loc)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	spends, err := h.expenses.CategoryTotals(ctx, userID, month)
	if err != nil {
		respondError(c, h.logger, "load summary", err)
		return
	}
	budgets, err := h.budgets.List(ctx, userID, month)
	if err != nil {
		respondError(c, h.logger, "load summary", err)
		return
	}
	c.JSON(http.StatusOK, expense.BuildSummary(month, spends, budgets))
}

// Export handles GET /expenses/export?month=, returning an xlsx attachment.
func (h *ExpenseHandler) Export(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	month, ok := monthQuery(c, h.now(), h.loc)
	if !ok {
		return
	}

	list, err := h.expenses.List(c.Request.Context(), userID, model.ExpenseFilter{Month: month})
	if err != nil {
		respondError(c, h.logger, "export expenses", err)
		return
	}

	var buf bytes.Buffer
	if err := expense.WriteWorkbook(&buf, month, list); err != nil {
		respondError(c, h.logger, "export expenses", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+expense.ExportFilename(month)+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

type upsertBudgetRequest struct {
	Category   string `json:"category" binding:"required,notblank,max=50"`
	Month      string `json:"month" binding:"required,yyyymm"`
	LimitCents int64  `json:"limit_cents" binding:"required,gt=0"`
}

// UpsertBudget handles PUT /budgets
func (h *ExpenseHandler) UpsertBudget(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req upsertBudgetRequest
	if !bindJSON(c, &req) {
		return
	}

	b := &model.Budget{
		UserID:     userID,
		Category:   strings.TrimSpace(req.Category),
		Month:      req.Month,
		LimitCents: req.LimitCents,
	}
	if err := h.budgets.Upsert(c.Request.Context(), b); err != nil {
		respondError(c, h.logger, "save budget", err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ListBudgets handles GET /budgets?month=
func (h *ExpenseHandler) ListBudgets(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	month := ""
	if c.Query("month") != "" {
		if month, ok = monthQuery(c, h.now(), h.loc); !ok {
			return
		}
	}
	list, err := h.budgets.List(c.Request.Context(), userID, month)
	if err != nil {
		respondError(c, h.logger, "list budgets", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// DeleteBudget handles DELETE /budgets/:id
func (h *ExpenseHandler) DeleteBudget(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.budgets.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, "delete budget", err)
		return
	}
	c.Status(http.StatusNoContent)
}
