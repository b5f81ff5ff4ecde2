package stats

import (
	"net/http"
	"prompt-library-backend/internal/database"
	"prompt-library-backend/internal/metrics"
	"prompt-library-backend/internal/mockdata"
	"prompt-library-backend/internal/services"
	"prompt-library-backend/internal/utils"
	"prompt-library-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	stats *services.StatsService
}

func NewHandler(stats *services.StatsService) *Handler {
	return &Handler{stats: stats}
}

// FallbackStats describes the fixed sample data set.
func FallbackStats() services.Stats {
	return services.Stats{
		TotalPrompts:    int64(len(mockdata.Prompts())),
		TotalCategories: int64(len(mockdata.Categories())),
		TotalUsers:      0,
		TotalViews:      mockdata.TotalViews,
	}
}

// GetStats godoc
// @Summary Library statistics
// @Description Totals of prompts, categories, users and prompt views.
// @Tags stats
// @Produce  json
// @Success 200 {object} utils.Response{data=services.Stats}
// @Failure 500 {object} utils.ErrorResponse
// @Router /stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	snapshot, err := h.stats.Snapshot(c.Request.Context())
	if err != nil {
		if database.IsUnavailable(err) {
			metrics.FallbackResponses.WithLabelValues("stats").Inc()
			logger.Log.Warn("Database unavailable, returning mock stats", zap.Error(err))
			c.JSON(http.StatusOK, utils.NewFallbackResponse(FallbackStats(), mockdata.FallbackWarning))
			return
		}
		logger.Log.Error("Failed to fetch stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to fetch stats"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(snapshot))
}
