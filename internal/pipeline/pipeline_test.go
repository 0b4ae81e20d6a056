package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mongolog-insights/internal/dataset"
	"mongolog-insights/internal/extractor"
	"mongolog-insights/internal/parser"
	"mongolog-insights/internal/pipeline"
	"mongolog-insights/internal/reader"
)

const (
	slowQueryLine  = `{"t":{"$date":"2024-03-01T10:00:00.000+00:00"},"s":"I","c":"COMMAND","id":51803,"ctx":"conn7","msg":"Slow query","attr":{"type":"command","ns":"db.coll","command":{"find":"coll"},"durationMillis":120}}`
	malformedLine  = `{"t":{"$date":"2024-03-01T10:00:01.000+00:00"},"msg":"Slow qu`
	connectionLine = `{"t":{"$date":"2024-03-01T10:00:02.000+00:00"},"s":"I","c":"NETWORK","id":22943,"ctx":"listener","msg":"Connection accepted","attr":{"remote":"10.0.0.5:51234","connectionId":8,"connectionCount":5}}`
)

func runLines(t *testing.T, lines ...string) *dataset.Snapshot {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mongod.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	p := pipeline.New(parser.NewJSONRecordParser(), extractor.NewMongodLogExtractor())
	snap, err := p.Run(context.Background(), reader.NewFileSource(path, nil))
	require.NoError(t, err)
	return snap
}

func TestPipeline_EndToEnd(t *testing.T) {
	snap := runLines(t, slowQueryLine, malformedLine, connectionLine)

	require.Equal(t, 1, snap.SlowQueries.Len())
	assert.Equal(t, int64(120), snap.SlowQueries.DurationMs[0])
	assert.Equal(t, "db.coll", snap.SlowQueries.Namespace[0])

	require.Equal(t, 1, snap.Connections.Len())
	assert.Equal(t, int64(5), snap.Connections.ConnectionCount[0])

	assert.Equal(t, 0, snap.Information.Len())
	assert.Equal(t, int64(3), snap.Stats.TotalLines)
	assert.Equal(t, int64(2), snap.Stats.ParsedRecords)
	assert.Equal(t, int64(1), snap.Stats.SkippedLines)
}

func TestPipeline_MalformedLinesAreNoOps(t *testing.T) {
	clean := runLines(t, slowQueryLine, connectionLine)
	noisy := runLines(t, "garbage", slowQueryLine, malformedLine, "[1,2,3]", "", connectionLine, "{")

	assert.Equal(t, clean.Identity, noisy.Identity)
	assert.Equal(t, clean.SlowQueries, noisy.SlowQueries)
	assert.Equal(t, clean.Connections, noisy.Connections)
	assert.Equal(t, clean.Information, noisy.Information)
}

func TestPipeline_SlowQueryRowCount(t *testing.T) {
	lines := []string{
		slowQueryLine,
		`{"msg":"Slow query","attr":{"ns":"db.other","durationMillis":5}}`,
		`{"msg":"Slow query"}`,
		`{"msg":"slow query","attr":{"durationMillis":5}}`,
		`{"msg":"Slow query plan","attr":{"durationMillis":5}}`,
	}
	snap := runLines(t, lines...)

	assert.Equal(t, 3, snap.SlowQueries.Len())
	assert.Equal(t, int64(0), snap.SlowQueries.DurationMs[2])
}

func TestPipeline_ErrorSubstringInBothTables(t *testing.T) {
	snap := runLines(t, `{"t":{"$date":"2024-03-01T10:00:00"},"msg":"Slow query","attr":{"ns":"db.coll","durationMillis":42,"command":{"comment":"error occurred"}}}`)

	require.Equal(t, 1, snap.SlowQueries.Len())
	require.Equal(t, 1, snap.Information.Len())
	assert.Equal(t, "Slow query", snap.Information.Message[0])
	assert.Equal(t, "Slow query", snap.Information.Detail[0])
	assert.True(t, snap.SlowQueries.Timestamp[0].Equal(*snap.Information.Timestamp[0]))
}

func TestPipeline_IdentityLastWins(t *testing.T) {
	snap := runLines(t,
		`{"msg":"Build Info","attr":{"buildInfo":{"version":"4.2"}}}`,
		`{"msg":"Process Details","attr":{"host":"mongo-a"}}`,
		`{"msg":"Build Info","attr":{"buildInfo":{"version":"5.0"}}}`,
	)

	assert.Equal(t, "5.0", snap.Identity.Version)
	assert.Equal(t, "mongo-a", snap.Identity.NodeName)
	assert.Equal(t, "No data", snap.Identity.ReplicaSetName)
}

func TestPipeline_MissingFileIsFatal(t *testing.T) {
	p := pipeline.New(parser.NewJSONRecordParser(), extractor.NewMongodLogExtractor())

	snap, err := p.Run(context.Background(), reader.NewFileSource(filepath.Join(t.TempDir(), "nope.log"), nil))

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Nil(t, snap)
}
