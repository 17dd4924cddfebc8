package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/udsstack/uds-monitor/internal/models"
	"github.com/udsstack/uds-monitor/internal/periods"
	"github.com/udsstack/uds-monitor/internal/repo"
	"github.com/udsstack/uds-monitor/internal/store"
)

// DashboardService defines the facade behaviour the handlers depend on.
type DashboardService interface {
	GetResourceView(ctx context.Context, req models.ViewRequest) (models.ViewResult, error)
	InvalidateAccount(accountKey string)
	CacheStats(accountKey string) store.Stats
	Periods() []string
}

type handlers struct {
	logger  *slog.Logger
	service DashboardService
}

func newHandlers(logger *slog.Logger, service DashboardService) *handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &handlers{logger: logger, service: service}
}

func (h *handlers) register(router *gin.Engine) {
	router.GET("/healthz", h.health)

	apiRoutes := router.Group("/api")
	{
		apiRoutes.GET("/dashboard/resources", h.resourceView)
		apiRoutes.GET("/periods", h.listPeriods)

		accountRoutes := apiRoutes.Group("/accounts")
		{
			accountRoutes.POST("/:account/invalidate", h.invalidateAccount)
			accountRoutes.GET("/:account/cache", h.cacheStats)
		}
	}
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) resourceView(c *gin.Context) {
	account := c.Query("account")
	organization := c.Query("organization")
	if account == "" || organization == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account and organization are required"})
		return
	}
	period := c.DefaultQuery("period", "3h")
	refresh := c.Query("refresh") == "true" || c.Query("refresh") == "1"

	result, err := h.service.GetResourceView(c.Request.Context(), models.ViewRequest{
		AccountKey:      account,
		OrganizationKey: organization,
		PeriodID:        period,
		ForceRefresh:    refresh,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *handlers) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, periods.ErrUnknownPeriod):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "unknown_period"})
	case errors.Is(err, repo.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "permission_denied"})
	case errors.Is(err, repo.ErrCollectionFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "code": "collection_failed"})
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to render.
		c.Status(499)
	default:
		h.logger.Error("resource view failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *handlers) invalidateAccount(c *gin.Context) {
	account := c.Param("account")
	if account == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account is required"})
		return
	}
	h.service.InvalidateAccount(account)
	c.Status(http.StatusNoContent)
}

func (h *handlers) cacheStats(c *gin.Context) {
	account := c.Param("account")
	if account == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account is required"})
		return
	}
	c.JSON(http.StatusOK, h.service.CacheStats(account))
}

func (h *handlers) listPeriods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"periods": h.service.Periods()})
}
