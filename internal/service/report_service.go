package service

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"mongolog-insights/config"
	"mongolog-insights/internal/dataset"
	"mongolog-insights/internal/dto"
	"mongolog-insights/internal/model"
)

// ReportService answers read-only questions about the latest snapshot.
type ReportService interface {
	Identity() (model.ServerIdentity, error)
	SlowQueries(req dto.SlowQueryRequest) (*dto.SlowQueryResponse, error)
	NamespaceSummary() (*dto.NamespaceSummaryResponse, error)
	Connections(req dto.TimeRangeRequest) (*dto.ConnectionResponse, error)
	Information(req dto.TimeRangeRequest) (*dto.InformationResponse, error)
	Summary() (*dto.SummaryResponse, error)
}

type reportService struct {
	analysis   AnalysisService
	sampleSize int
}

func NewReportService(cfg *config.Config, analysis AnalysisService) ReportService {
	return &reportService{
		analysis:   analysis,
		sampleSize: cfg.Analysis.PlotSampleSize,
	}
}

func (s *reportService) Identity() (model.ServerIdentity, error) {
	snap, err := s.analysis.Latest()
	if err != nil {
		return model.ServerIdentity{}, err
	}
	return snap.Identity, nil
}

func (s *reportService) SlowQueries(req dto.SlowQueryRequest) (*dto.SlowQueryResponse, error) {
	snap, err := s.analysis.Latest()
	if err != nil {
		return nil, err
	}

	table := snap.SlowQueries
	rows := make([]int, 0, table.Len())
	for i := 0; i < table.Len(); i++ {
		if req.Namespace != "" && table.Namespace[i] != req.Namespace {
			continue
		}
		if !inRange(table.Timestamp[i], req.TimeRangeRequest) {
			continue
		}
		rows = append(rows, i)
	}
	matched := len(rows)
	rows = sampleRows(rows, req.Sample)

	log.Debug().
		Str("namespace", req.Namespace).
		Int("matched", matched).
		Int("returned", len(rows)).
		Msg("Listing slow queries")

	return &dto.SlowQueryResponse{
		RunID:   snap.RunID,
		Columns: table.Columns(),
		Rows:    table.Select(rows),
		Total:   matched,
		Count:   len(rows),
	}, nil
}

func (s *reportService) NamespaceSummary() (*dto.NamespaceSummaryResponse, error) {
	snap, err := s.analysis.Latest()
	if err != nil {
		return nil, err
	}
	return &dto.NamespaceSummaryResponse{
		RunID:      snap.RunID,
		Namespaces: AggregateNamespaces(snap.SlowQueries),
	}, nil
}

func (s *reportService) Connections(req dto.TimeRangeRequest) (*dto.ConnectionResponse, error) {
	snap, err := s.analysis.Latest()
	if err != nil {
		return nil, err
	}
	table := snap.Connections
	rows := make([]int, 0, table.Len())
	for i := 0; i < table.Len(); i++ {
		if inRange(table.Timestamp[i], req) {
			rows = append(rows, i)
		}
	}
	return &dto.ConnectionResponse{
		RunID:   snap.RunID,
		Columns: table.Columns(),
		Rows:    table.Select(rows),
		Count:   len(rows),
	}, nil
}

func (s *reportService) Information(req dto.TimeRangeRequest) (*dto.InformationResponse, error) {
	snap, err := s.analysis.Latest()
	if err != nil {
		return nil, err
	}
	table := snap.Information
	rows := make([]int, 0, table.Len())
	for i := 0; i < table.Len(); i++ {
		if inRange(table.Timestamp[i], req) {
			rows = append(rows, i)
		}
	}
	return &dto.InformationResponse{
		RunID:   snap.RunID,
		Columns: table.Columns(),
		Rows:    table.Select(rows),
		Count:   len(rows),
	}, nil
}

func (s *reportService) Summary() (*dto.SummaryResponse, error) {
	snap, err := s.analysis.Latest()
	if err != nil {
		return nil, err
	}
	total := snap.SlowQueries.Len()
	plotted := total
	if s.sampleSize > 0 && plotted > s.sampleSize {
		plotted = s.sampleSize
	}
	return &dto.SummaryResponse{
		RunID:              snap.RunID,
		Source:             snap.Source,
		Identity:           snap.Identity,
		SlowQueries:        total,
		SlowQueriesPlotted: plotted,
		Connections:        snap.Connections.Len(),
		Information:        snap.Information.Len(),
		Stats:              snap.Stats,
	}, nil
}

// AggregateNamespaces counts slow queries per namespace and averages their
// duration, most frequent namespace first.
func AggregateNamespaces(table dataset.SlowQueryTable) []dto.NamespaceStat {
	type agg struct {
		count int
		sum   int64
	}
	byNamespace := make(map[string]*agg)
	for i := 0; i < table.Len(); i++ {
		a, ok := byNamespace[table.Namespace[i]]
		if !ok {
			a = &agg{}
			byNamespace[table.Namespace[i]] = a
		}
		a.count++
		a.sum += table.DurationMs[i]
	}

	stats := make([]dto.NamespaceStat, 0, len(byNamespace))
	for ns, a := range byNamespace {
		stats = append(stats, dto.NamespaceStat{
			Namespace:      ns,
			Count:          a.count,
			MeanDurationMs: int64(math.RoundToEven(float64(a.sum) / float64(a.count))),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Namespace < stats[j].Namespace
	})
	return stats
}

func inRange(ts *time.Time, r dto.TimeRangeRequest) bool {
	if !r.Bounded() {
		return true
	}
	if ts == nil {
		return false
	}
	if !r.StartTime.IsZero() && ts.Before(r.StartTime) {
		return false
	}
	if !r.EndTime.IsZero() && !ts.Before(r.EndTime) {
		return false
	}
	return true
}

// sampleRows picks n rows at random and keeps them in arrival order.
func sampleRows(rows []int, n int) []int {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	picked := rand.Perm(len(rows))[:n]
	sort.Ints(picked)
	out := make([]int, n)
	for i, p := range picked {
		out[i] = rows[p]
	}
	return out
}
