package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mongolog-insights/internal/dto"
	"mongolog-insights/internal/service"
)

type AnalysisController struct {
	analysisService service.AnalysisService
}

func NewAnalysisController(analysisService service.AnalysisService) *AnalysisController {
	return &AnalysisController{
		analysisService: analysisService,
	}
}

func RegisterAnalysisRoutes(router *gin.Engine, controller *AnalysisController) {
	v1 := router.Group("/api/v1/analysis")
	{
		v1.POST("", controller.RunAnalysis)
	}
}

// RunAnalysis godoc
// @Summary      Re-run log analysis
// @Description  Processes the configured log file from the first line and replaces the latest snapshot.
// @Tags         analysis
// @Produce      json
// @Success      200  {object}  dto.AnalysisResponse
// @Failure      409  {object}  model.Response "Analysis already in progress"
// @Failure      500  {object}  model.Response "Analysis failed"
// @Router       /api/v1/analysis [post]
func (c *AnalysisController) RunAnalysis(ctx *gin.Context) {
	snap, err := c.analysisService.Analyze(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, "Log analysis failed")
		return
	}
	ctx.JSON(http.StatusOK, dto.AnalysisResponse{
		RunID: snap.RunID,
		Stats: snap.Stats,
	})
}
