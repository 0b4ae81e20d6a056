package dto

import (
	"mongolog-insights/internal/dataset"
	"mongolog-insights/internal/model"
)

type SlowQueryResponse struct {
	RunID   string                 `json:"runId"`
	Columns []string               `json:"columns"`
	Rows    dataset.SlowQueryTable `json:"data"`
	Total   int                    `json:"total"`
	Count   int                    `json:"count"`
}

type ConnectionResponse struct {
	RunID   string                  `json:"runId"`
	Columns []string                `json:"columns"`
	Rows    dataset.ConnectionTable `json:"data"`
	Count   int                     `json:"count"`
}

type InformationResponse struct {
	RunID   string                   `json:"runId"`
	Columns []string                 `json:"columns"`
	Rows    dataset.InformationTable `json:"data"`
	Count   int                      `json:"count"`
}

// NamespaceStat is one row of the per-namespace slow query aggregation.
type NamespaceStat struct {
	Namespace      string `json:"Namespace"`
	Count          int    `json:"count"`
	MeanDurationMs int64  `json:"mean duration (ms)"`
}

type NamespaceSummaryResponse struct {
	RunID      string          `json:"runId"`
	Namespaces []NamespaceStat `json:"namespaces"`
}

type SummaryResponse struct {
	RunID              string               `json:"runId"`
	Source             string               `json:"source"`
	Identity           model.ServerIdentity `json:"identity"`
	SlowQueries        int                  `json:"slowQueries"`
	SlowQueriesPlotted int                  `json:"slowQueriesPlotted"`
	Connections        int                  `json:"connections"`
	Information        int                  `json:"information"`
	Stats              dataset.Stats        `json:"stats"`
}

type AnalysisResponse struct {
	RunID string        `json:"runId"`
	Stats dataset.Stats `json:"stats"`
}
