package extractor

import "mongolog-insights/internal/model"

// Accumulator collects everything extracted during one pass over a log.
// It belongs to a single run and is not safe for concurrent use.
type Accumulator struct {
	Identity    model.ServerIdentity
	SlowQueries []model.SlowQueryEvent
	Connections []model.ConnectionEvent
	Information []model.InformationalEvent
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		Identity: model.NewServerIdentity(),
	}
}
