package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"mongolog-insights/internal/dto"
	"mongolog-insights/internal/model"
	"mongolog-insights/internal/service"
	"mongolog-insights/internal/util"
)

type ReportController struct {
	reportService service.ReportService
}

func NewReportController(reportService service.ReportService) *ReportController {
	return &ReportController{
		reportService: reportService,
	}
}

func RegisterReportRoutes(router *gin.Engine, controller *ReportController) {
	v1 := router.Group("/api/v1")
	{
		v1.GET("/identity", controller.GetIdentity)
		v1.GET("/slow-queries", controller.GetSlowQueries)
		v1.GET("/slow-queries/namespaces", controller.GetNamespaceSummary)
		v1.GET("/connections", controller.GetConnections)
		v1.GET("/information", controller.GetInformation)
		v1.GET("/summary", controller.GetSummary)
	}
}

// GetIdentity godoc
// @Summary      Server identity
// @Description  Returns the version, node, replica set and OS facts from the latest analysis.
// @Tags         reports
// @Produce      json
// @Success      200  {object}  model.ServerIdentity
// @Failure      503  {object}  model.Response "No analysis has completed yet"
// @Router       /api/v1/identity [get]
func (c *ReportController) GetIdentity(ctx *gin.Context) {
	identity, err := c.reportService.Identity()
	if err != nil {
		respondError(ctx, err, "Failed to load server identity")
		return
	}
	ctx.JSON(http.StatusOK, identity)
}

// GetSlowQueries godoc
// @Summary      List slow queries
// @Description  Returns slow query rows in log order, optionally filtered by time range and namespace and randomly sampled.
// @Tags         reports
// @Produce      json
// @Param        startTime  query     string  false  "Inclusive lower bound, ISO 8601 or epoch milliseconds"
// @Param        endTime    query     string  false  "Exclusive upper bound, ISO 8601 or epoch milliseconds"
// @Param        namespace  query     string  false  "Exact namespace, e.g. db.users"
// @Param        sample     query     int     false  "Return at most this many randomly chosen rows" minimum(0)
// @Success      200        {object}  dto.SlowQueryResponse
// @Failure      400        {object}  model.Response "Invalid query parameters"
// @Failure      503        {object}  model.Response "No analysis has completed yet"
// @Router       /api/v1/slow-queries [get]
func (c *ReportController) GetSlowQueries(ctx *gin.Context) {
	timeRange, ok := bindTimeRange(ctx)
	if !ok {
		return
	}
	sample := 0
	if raw := ctx.Query("sample"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid sample size. Use a non-negative integer.", nil))
			return
		}
		sample = n
	}

	result, err := c.reportService.SlowQueries(dto.SlowQueryRequest{
		TimeRangeRequest: timeRange,
		Namespace:        strings.TrimSpace(ctx.Query("namespace")),
		Sample:           sample,
	})
	if err != nil {
		respondError(ctx, err, "Failed to list slow queries")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetNamespaceSummary godoc
// @Summary      Slow queries per namespace
// @Description  Counts slow queries and averages their duration per namespace, most frequent first.
// @Tags         reports
// @Produce      json
// @Success      200  {object}  dto.NamespaceSummaryResponse
// @Failure      503  {object}  model.Response "No analysis has completed yet"
// @Router       /api/v1/slow-queries/namespaces [get]
func (c *ReportController) GetNamespaceSummary(ctx *gin.Context) {
	result, err := c.reportService.NamespaceSummary()
	if err != nil {
		respondError(ctx, err, "Failed to aggregate namespaces")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetConnections godoc
// @Summary      List connection counts
// @Tags         reports
// @Produce      json
// @Param        startTime  query     string  false  "Inclusive lower bound, ISO 8601 or epoch milliseconds"
// @Param        endTime    query     string  false  "Exclusive upper bound, ISO 8601 or epoch milliseconds"
// @Success      200        {object}  dto.ConnectionResponse
// @Failure      400        {object}  model.Response "Invalid query parameters"
// @Failure      503        {object}  model.Response "No analysis has completed yet"
// @Router       /api/v1/connections [get]
func (c *ReportController) GetConnections(ctx *gin.Context) {
	timeRange, ok := bindTimeRange(ctx)
	if !ok {
		return
	}
	result, err := c.reportService.Connections(timeRange)
	if err != nil {
		respondError(ctx, err, "Failed to list connections")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetInformation godoc
// @Summary      List error-bearing records
// @Tags         reports
// @Produce      json
// @Param        startTime  query     string  false  "Inclusive lower bound, ISO 8601 or epoch milliseconds"
// @Param        endTime    query     string  false  "Exclusive upper bound, ISO 8601 or epoch milliseconds"
// @Success      200        {object}  dto.InformationResponse
// @Failure      400        {object}  model.Response "Invalid query parameters"
// @Failure      503        {object}  model.Response "No analysis has completed yet"
// @Router       /api/v1/information [get]
func (c *ReportController) GetInformation(ctx *gin.Context) {
	timeRange, ok := bindTimeRange(ctx)
	if !ok {
		return
	}
	result, err := c.reportService.Information(timeRange)
	if err != nil {
		respondError(ctx, err, "Failed to list information records")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetSummary godoc
// @Summary      Analysis summary
// @Tags         reports
// @Produce      json
// @Success      200  {object}  dto.SummaryResponse
// @Failure      503  {object}  model.Response "No analysis has completed yet"
// @Router       /api/v1/summary [get]
func (c *ReportController) GetSummary(ctx *gin.Context) {
	result, err := c.reportService.Summary()
	if err != nil {
		respondError(ctx, err, "Failed to build summary")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// bindTimeRange reads optional startTime and endTime. On failure it has
// already written the 400 response.
func bindTimeRange(ctx *gin.Context) (dto.TimeRangeRequest, bool) {
	var r dto.TimeRangeRequest
	if raw := ctx.Query("startTime"); raw != "" {
		t, err := util.ParseTimeFlexible(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid startTime format. Use ISO 8601 or epoch milliseconds.", nil))
			return r, false
		}
		r.StartTime = t
	}
	if raw := ctx.Query("endTime"); raw != "" {
		t, err := util.ParseTimeFlexible(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid endTime format. Use ISO 8601 or epoch milliseconds.", nil))
			return r, false
		}
		r.EndTime = t
	}
	if !r.StartTime.IsZero() && !r.EndTime.IsZero() && r.EndTime.Before(r.StartTime) {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("endTime must not be before startTime.", nil))
		return r, false
	}
	return r, true
}

func respondError(ctx *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrNoSnapshot):
		ctx.JSON(http.StatusServiceUnavailable, model.NewResponse("No analysis has completed yet", nil))
	case errors.Is(err, service.ErrAnalysisInProgress):
		ctx.JSON(http.StatusConflict, model.NewResponse("Analysis already in progress", nil))
	default:
		log.Error().Err(err).Msg(msg)
		ctx.JSON(http.StatusInternalServerError, model.NewResponse(msg, nil))
	}
}
