package audit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pcaplink/internal/constants"
	"pcaplink/internal/discord"
	"pcaplink/internal/logger"
	"pcaplink/pkg/errors"
)

// Handler serves read-only usage statistics from a Store.
type Handler struct {
	Store  Store
	Logger logger.Logger
}

func NewHandler(store Store, log logger.Logger) *Handler {
	return &Handler{
		Store:  store,
		Logger: log,
	}
}

func (h *Handler) HandleError(c *gin.Context, err error) {
	h.Logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
	c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	stats := router.Group("/api/v1/stats")
	{
		stats.GET("/commands", h.GetCommandStats)
		stats.GET("/recent", h.GetRecentLogs)
		stats.GET("/total", h.GetTotalUses)
		stats.GET("/users/:user_id", h.GetUserStats)
		stats.GET("/usage", h.GetUsageOverTime)
	}
}

// TotalResponse wraps a single count.
type TotalResponse struct {
	Total int64 `json:"total"`
}

// GetCommandStats godoc
// @Summary      Command usage
// @Description  Successful uses per command, most used first
// @Tags         stats
// @Produce      json
// @Success      200  {array}   audit.CommandCount
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /api/v1/stats/commands [get]
func (h *Handler) GetCommandStats(c *gin.Context) {
	stats, err := h.Store.CommandStats(c.Request.Context())
	if err != nil {
		h.HandleError(c, errors.Wrap(err, errors.ErrInternal))
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetRecentLogs godoc
// @Summary      Recent commands
// @Description  Most recent audited commands, newest first
// @Tags         stats
// @Produce      json
// @Param        limit  query     int  false  "Maximum entries (default 50, max 1000)"
// @Success      200    {array}   audit.RecentLog
// @Failure      500    {object}  errors.ErrorResponse
// @Router       /api/v1/stats/recent [get]
func (h *Handler) GetRecentLogs(c *gin.Context) {
	limit := parseLimit(c.Query("limit"))
	logs, err := h.Store.RecentLogs(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, errors.Wrap(err, errors.ErrInternal))
		return
	}
	c.JSON(http.StatusOK, logs)
}

// GetTotalUses godoc
// @Summary      Total uses
// @Tags         stats
// @Produce      json
// @Success      200  {object}  audit.TotalResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /api/v1/stats/total [get]
func (h *Handler) GetTotalUses(c *gin.Context) {
	total, err := h.Store.TotalUses(c.Request.Context())
	if err != nil {
		h.HandleError(c, errors.Wrap(err, errors.ErrInternal))
		return
	}
	c.JSON(http.StatusOK, TotalResponse{Total: total})
}

// GetUserStats godoc
// @Summary      Per-user usage
// @Tags         stats
// @Produce      json
// @Param        user_id  path      string  true  "Discord user ID"
// @Success      200      {object}  audit.UserStats
// @Failure      400      {object}  errors.ErrorResponse
// @Failure      500      {object}  errors.ErrorResponse
// @Router       /api/v1/stats/users/{user_id} [get]
func (h *Handler) GetUserStats(c *gin.Context) {
	userID := c.Param("user_id")
	if !discord.IsValidSnowflake(userID) {
		h.HandleError(c, errors.ErrBadIdentifier.WithMessage("Invalid user ID format"))
		return
	}

	stats, err := h.Store.UserStats(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, errors.Wrap(err, errors.ErrInternal))
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetUsageOverTime godoc
// @Summary      Daily usage
// @Description  Successful commands per UTC day, newest first
// @Tags         stats
// @Produce      json
// @Param        days  query     int  false  "Window in days (default 30, max 366)"
// @Success      200   {array}   audit.DailyUsage
// @Failure      500   {object}  errors.ErrorResponse
// @Router       /api/v1/stats/usage [get]
func (h *Handler) GetUsageOverTime(c *gin.Context) {
	days := parseBounded(c.Query("days"), constants.DefaultUsageDays, constants.MaxUsageDays)
	usage, err := h.Store.UsageOverTime(c.Request.Context(), days)
	if err != nil {
		h.HandleError(c, errors.Wrap(err, errors.ErrInternal))
		return
	}
	c.JSON(http.StatusOK, usage)
}

func parseLimit(limitStr string) int {
	return parseBounded(limitStr, constants.DefaultLimit, constants.MaxLimit)
}

// parseBounded falls back to def for anything that is not an integer in [1, max].
func parseBounded(raw string, def, max int) int {
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 || parsed > max {
		return def
	}
	return parsed
}
