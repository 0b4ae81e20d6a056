package dataset

import (
	"time"

	"mongolog-insights/internal/extractor"
	"mongolog-insights/internal/model"
)

// Stats describes one pass over a log file.
type Stats struct {
	TotalLines    int64         `json:"total_lines"`
	ParsedRecords int64         `json:"parsed_records"`
	SkippedLines  int64         `json:"skipped_lines"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration_ns"`
}

// Snapshot is the read-only result of one analysis run.
type Snapshot struct {
	RunID       string               `json:"run_id"`
	Source      string               `json:"source"`
	Identity    model.ServerIdentity `json:"identity"`
	SlowQueries SlowQueryTable       `json:"slow_queries"`
	Connections ConnectionTable      `json:"connections"`
	Information InformationTable     `json:"information"`
	Stats       Stats                `json:"stats"`
}

// Assemble copies the accumulated events into column tables. Later changes
// to acc are not visible through the returned snapshot.
func Assemble(acc *extractor.Accumulator, source string, stats Stats) *Snapshot {
	snap := &Snapshot{
		Source:      source,
		Identity:    acc.Identity,
		SlowQueries: newSlowQueryTable(len(acc.SlowQueries)),
		Connections: newConnectionTable(len(acc.Connections)),
		Information: newInformationTable(len(acc.Information)),
		Stats:       stats,
	}
	for _, ev := range acc.SlowQueries {
		snap.SlowQueries.append(ev)
	}
	for _, ev := range acc.Connections {
		snap.Connections.append(ev)
	}
	for _, ev := range acc.Information {
		snap.Information.append(ev)
	}
	return snap
}
