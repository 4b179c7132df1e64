package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sampleapps/internal/handler"
	"sampleapps/pkg/rbac"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnChecker is satisfied by *mq.Publisher.
type ConnChecker interface {
	IsConnected() bool
}

type Handlers struct {
	Auth       *handler.AuthHandler
	Habit      *handler.HabitHandler
	Card       *handler.CardHandler
	Conspiracy *handler.ConspiracyHandler
	Expense    *handler.ExpenseHandler
	Plant      *handler.PlantHandler
	Activity   *handler.ActivityHandler
	Admin      *handler.AdminHandler
}

func NewRouter(h Handlers, jwtSecret string, logger *zap.Logger, db Pinger, mq ConnChecker) *gin.Engine {
	handler.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(RequestLogger(logger))

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if db != nil {
			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready", "error": err.Error()})
				return
			}
		}
		if mq != nil && !mq.IsConnected() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	if h.Auth != nil {
		r.POST("/register", h.Auth.Register)
		r.POST("/login", h.Auth.Login)
	}
	if h.Conspiracy != nil {
		r.GET("/conspiracy/levels", h.Conspiracy.Levels)
		r.GET("/conspiracy/classify", h.Conspiracy.Classify)
	}

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))

	if hh := h.Habit; hh != nil {
		g := auth.Group("/habits", RequirePermission(rbac.PermissionManageHabits))
		g.POST("", hh.Create)
		g.GET("", hh.List)
		g.GET("/:id", hh.Get)
		g.PATCH("/:id", hh.Update)
		g.DELETE("/:id", hh.Delete)
		g.POST("/:id/check-ins", hh.CheckIn)
		g.GET("/:id/check-ins", hh.ListCheckIns)
		g.DELETE("/:id/check-ins/:date", hh.UndoCheckIn)
		g.GET("/:id/stats", hh.Stats)
	}

	if ch := h.Card; ch != nil {
		g := auth.Group("/cards", RequirePermission(rbac.PermissionManageCards))
		g.POST("", ch.Create)
		g.GET("", ch.List)
		g.GET("/due", ch.Due)
		g.GET("/:id", ch.Get)
		g.PATCH("/:id", ch.Update)
		g.DELETE("/:id", ch.Delete)
		g.POST("/:id/review", ch.Review)
		g.GET("/:id/reviews", ch.Reviews)
	}

	if cs := h.Conspiracy; cs != nil {
		g := auth.Group("/assessments", RequirePermission(rbac.PermissionTakeAssessments))
		g.POST("", cs.Create)
		g.GET("", cs.List)
		g.GET("/:id", cs.Get)
		g.DELETE("/:id", cs.Delete)
	}

	if eh := h.Expense; eh != nil {
		g := auth.Group("/expenses", RequirePermission(rbac.PermissionManageExpenses))
		g.POST("", eh.Create)
		g.GET("", eh.List)
		g.GET("/summary", eh.Summary)
		g.GET("/export", eh.Export)
		g.GET("/:id", eh.Get)
		g.PATCH("/:id", eh.Update)
		g.DELETE("/:id", eh.Delete)

		b := auth.Group("/budgets", RequirePermission(rbac.PermissionManageExpenses))
		b.PUT("", eh.UpsertBudget)
		b.GET("", eh.ListBudgets)
		b.DELETE("/:id", eh.DeleteBudget)
	}

	if ph := h.Plant; ph != nil {
		g := auth.Group("/plants", RequirePermission(rbac.PermissionManagePlants))
		g.POST("", ph.Create)
		g.GET("", ph.List)
		g.GET("/thirsty", ph.Thirsty)
		g.GET("/:id", ph.Get)
		g.PATCH("/:id", ph.Update)
		g.DELETE("/:id", ph.Delete)
		g.POST("/:id/water", ph.Water)
	}

	if h.Activity != nil {
		auth.GET("/activity", RequirePermission(rbac.PermissionReadActivity), h.Activity.List)
	}

	if ah := h.Admin; ah != nil {
		admin := auth.Group("/admin/outbox")
		admin.GET("/failed", RequirePermission(rbac.PermissionReadFailedEvents), ah.FailedEvents)
		admin.POST("/replay", RequirePermission(rbac.PermissionReplayOutbox), ah.ReplayOutboxEvent)
		admin.POST("/replay-failed", RequirePermission(rbac.PermissionReplayOutbox), ah.ReplayFailedEvents)
	}

	return r
}
