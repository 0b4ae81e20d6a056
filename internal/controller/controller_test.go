package controller_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mongolog-insights/config"
	"mongolog-insights/internal/controller"
	"mongolog-insights/internal/dto"
	"mongolog-insights/internal/extractor"
	"mongolog-insights/internal/model"
	"mongolog-insights/internal/parser"
	"mongolog-insights/internal/pipeline"
	"mongolog-insights/internal/service"
)

const testLog = `{"t":{"$date":"2024-03-01T10:00:00.000+00:00"},"msg":"Build Info","attr":{"buildInfo":{"version":"7.0.2"}}}
{"t":{"$date":"2024-03-01T10:00:01.000+00:00"},"msg":"Slow query","attr":{"ns":"db.users","durationMillis":100}}
{"t":{"$date":"2024-03-01T10:00:02.000+00:00"},"msg":"Slow query","attr":{"ns":"db.orders","durationMillis":40}}
{"t":{"$date":"2024-03-01T10:00:03.000+00:00"},"msg":"Connection accepted","attr":{"connectionCount":9}}
`

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T, analyze bool) *gin.Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mongod.log")
	require.NoError(t, os.WriteFile(path, []byte(testLog), 0o644))

	cfg := &config.Config{Analysis: config.AnalysisConfig{LogFilePath: path, PlotSampleSize: 10000}}
	p := pipeline.New(parser.NewJSONRecordParser(), extractor.NewMongodLogExtractor())
	analysis := service.NewAnalysisService(cfg, p, nil)
	if analyze {
		_, err := analysis.Analyze(context.Background())
		require.NoError(t, err)
	}

	router := gin.New()
	controller.RegisterReportRoutes(router, controller.NewReportController(service.NewReportService(cfg, analysis)))
	controller.RegisterAnalysisRoutes(router, controller.NewAnalysisController(analysis))
	return router
}

func perform(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestReportRoutes_BeforeFirstAnalysis(t *testing.T) {
	router := setupRouter(t, false)
	for _, target := range []string{
		"/api/v1/identity",
		"/api/v1/slow-queries",
		"/api/v1/slow-queries/namespaces",
		"/api/v1/connections",
		"/api/v1/information",
		"/api/v1/summary",
	} {
		w := perform(router, http.MethodGet, target)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, target)
	}
}

func TestAnalysisRoute_ThenReports(t *testing.T) {
	router := setupRouter(t, false)

	w := perform(router, http.MethodPost, "/api/v1/analysis")
	require.Equal(t, http.StatusOK, w.Code)
	var run dto.AnalysisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.NotEmpty(t, run.RunID)
	assert.Equal(t, int64(4), run.Stats.TotalLines)

	w = perform(router, http.MethodGet, "/api/v1/identity")
	require.Equal(t, http.StatusOK, w.Code)
	var identity model.ServerIdentity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &identity))
	assert.Equal(t, "7.0.2", identity.Version)
	assert.Equal(t, model.NoData, identity.NodeName)

	w = perform(router, http.MethodGet, "/api/v1/summary")
	require.Equal(t, http.StatusOK, w.Code)
	var summary dto.SummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, run.RunID, summary.RunID)
	assert.Equal(t, 2, summary.SlowQueries)
	assert.Equal(t, 2, summary.SlowQueriesPlotted)
}

func TestGetSlowQueries(t *testing.T) {
	router := setupRouter(t, true)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantNs     []string
	}{
		{name: "all", target: "/api/v1/slow-queries", wantStatus: http.StatusOK, wantNs: []string{"db.users", "db.orders"}},
		{name: "namespace", target: "/api/v1/slow-queries?namespace=db.orders", wantStatus: http.StatusOK, wantNs: []string{"db.orders"}},
		{name: "start time", target: "/api/v1/slow-queries?startTime=2024-03-01T10:00:02Z", wantStatus: http.StatusOK, wantNs: []string{"db.orders"}},
		{name: "epoch end time", target: "/api/v1/slow-queries?endTime=1709287202000", wantStatus: http.StatusOK, wantNs: []string{"db.users"}},
		{name: "bad time", target: "/api/v1/slow-queries?startTime=yesterday", wantStatus: http.StatusBadRequest},
		{name: "inverted range", target: "/api/v1/slow-queries?startTime=2024-03-02T00:00:00Z&endTime=2024-03-01T00:00:00Z", wantStatus: http.StatusBadRequest},
		{name: "bad sample", target: "/api/v1/slow-queries?sample=-1", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(router, http.MethodGet, tt.target)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp dto.SlowQueryResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantNs, resp.Rows.Namespace)
		})
	}
}

func TestGetNamespaceSummary(t *testing.T) {
	router := setupRouter(t, true)
	w := perform(router, http.MethodGet, "/api/v1/slow-queries/namespaces")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"mean duration (ms)":100`))
}

func TestGetConnections(t *testing.T) {
	router := setupRouter(t, true)
	w := perform(router, http.MethodGet, "/api/v1/connections")
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.ConnectionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []int64{9}, resp.Rows.ConnectionCount)
	assert.Equal(t, []string{"Timestamp", "ConnectionCount"}, resp.Columns)
}
