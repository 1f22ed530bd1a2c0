package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wine_inference/service"
)

type StatsController struct {
	statsService *service.StatsService
}

func NewStatsController(statsService *service.StatsService) *StatsController {
	return &StatsController{
		statsService: statsService,
	}
}

// GetStats handles GET /v1/stats
func (c *StatsController) GetStats(ctx *gin.Context) {
	stats, err := c.statsService.Snapshot(ctx.Request.Context())
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, stats)
}
