package repository

import (
	"context"

	"mongolog-insights/internal/dataset"
)

// SnapshotSink receives every successfully assembled snapshot. Sinks sit
// downstream of the analysis and never influence its result.
type SnapshotSink interface {
	Name() string
	Publish(ctx context.Context, snap *dataset.Snapshot) error
}
