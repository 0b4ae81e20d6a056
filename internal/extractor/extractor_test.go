package extractor_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mongolog-insights/internal/extractor"
	"mongolog-insights/internal/model"
	"mongolog-insights/internal/parser"
)

func mustParse(t *testing.T, line string) model.Record {
	t.Helper()
	rec, err := parser.NewJSONRecordParser().Parse(line)
	require.NoError(t, err)
	return rec
}

func TestExtract_SlowQuery(t *testing.T) {
	ext := extractor.NewMongodLogExtractor()
	acc := extractor.NewAccumulator()

	kinds := ext.Extract(mustParse(t, `{"t":{"$date":"2024-03-01T10:00:00.000+00:00"},"msg":"Slow query","attr":{"ns":"shop.orders","durationMillis":120.6,"command":{"find":"orders"}}}`), acc)

	assert.Equal(t, []extractor.Kind{extractor.KindSlowQuery}, kinds)
	require.Len(t, acc.SlowQueries, 1)
	ev := acc.SlowQueries[0]
	require.NotNil(t, ev.Timestamp)
	assert.True(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Equal(*ev.Timestamp))
	assert.Equal(t, int64(121), ev.DurationMs)
	assert.Equal(t, "shop.orders", ev.Namespace)
	assert.Equal(t, map[string]interface{}{"find": "orders"}, ev.Command)
}

func TestExtract_SlowQueryDefaults(t *testing.T) {
	ext := extractor.NewMongodLogExtractor()
	acc := extractor.NewAccumulator()

	ext.Extract(mustParse(t, `{"msg":"Slow query"}`), acc)

	require.Len(t, acc.SlowQueries, 1)
	ev := acc.SlowQueries[0]
	assert.Nil(t, ev.Timestamp)
	assert.Equal(t, int64(0), ev.DurationMs)
	assert.Equal(t, extractor.DefaultNamespace, ev.Namespace)
	assert.Equal(t, extractor.DefaultCommand, ev.Command)
}

func TestExtract_NumericBounds(t *testing.T) {
	tests := []struct {
		name           string
		line           string
		wantDuration   int64
		wantConnection int64
	}{
		{name: "Huge Duration Saturates", line: `{"msg":"Slow query","attr":{"durationMillis":1e30}}`, wantDuration: math.MaxInt64},
		{name: "Just Above Int64 Duration", line: `{"msg":"Slow query","attr":{"durationMillis":9.3e18}}`, wantDuration: math.MaxInt64},
		{name: "Negative Duration Clamps", line: `{"msg":"Slow query","attr":{"durationMillis":-1e30}}`, wantDuration: 0},
		{name: "Huge Connection Count Saturates", line: `{"msg":"Connection accepted","attr":{"connectionCount":1e30}}`, wantConnection: math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := extractor.NewAccumulator()
			extractor.NewMongodLogExtractor().Extract(mustParse(t, tt.line), acc)

			for _, ev := range acc.SlowQueries {
				assert.Equal(t, tt.wantDuration, ev.DurationMs)
				assert.GreaterOrEqual(t, ev.DurationMs, int64(0))
			}
			for _, ev := range acc.Connections {
				assert.Equal(t, tt.wantConnection, ev.ConnectionCount)
			}
			assert.Equal(t, 1, len(acc.SlowQueries)+len(acc.Connections))
		})
	}
}

func TestExtract_UnparseableTimestampKeepsRow(t *testing.T) {
	ext := extractor.NewMongodLogExtractor()
	acc := extractor.NewAccumulator()

	ext.Extract(mustParse(t, `{"t":{"$date":"last tuesday"},"msg":"Connection accepted","attr":{"connectionCount":3}}`), acc)

	require.Len(t, acc.Connections, 1)
	assert.Nil(t, acc.Connections[0].Timestamp)
	assert.Equal(t, int64(3), acc.Connections[0].ConnectionCount)
}

func TestExtract_ConnectionDefaults(t *testing.T) {
	ext := extractor.NewMongodLogExtractor()
	acc := extractor.NewAccumulator()

	ext.Extract(mustParse(t, `{"t":{"$date":"2024-03-01T10:00:00"},"msg":"Connection accepted","attr":{}}`), acc)

	require.Len(t, acc.Connections, 1)
	assert.Equal(t, int64(0), acc.Connections[0].ConnectionCount)
	require.NotNil(t, acc.Connections[0].Timestamp)
	assert.Equal(t, time.UTC, acc.Connections[0].Timestamp.Location())
}

func TestExtract_IdentityFacts(t *testing.T) {
	ext := extractor.NewMongodLogExtractor()
	acc := extractor.NewAccumulator()

	lines := []string{
		`{"msg":"Build Info","attr":{"buildInfo":{"version":"4.2"}}}`,
		`{"msg":"Process Details","attr":{"host":"db-01"}}`,
		`{"msg":"Node is a member of a replica set","attr":{"config":{"_id":"rs0"}}}`,
		`{"msg":"Operating System","attr":{"os":{"name":"Ubuntu","version":"22.04"}}}`,
		`{"msg":"Build Info","attr":{"buildInfo":{"version":"5.0"}}}`,
	}
	for _, line := range lines {
		ext.Extract(mustParse(t, line), acc)
	}

	assert.Equal(t, model.ServerIdentity{
		Version:        "5.0",
		NodeName:       "db-01",
		ReplicaSetName: "rs0",
		OSVersion:      "22.04",
	}, acc.Identity)
	assert.Empty(t, acc.SlowQueries)
	assert.Empty(t, acc.Connections)
	assert.Empty(t, acc.Information)
}

func TestExtract_IdentityMissingFieldOverwrites(t *testing.T) {
	ext := extractor.NewMongodLogExtractor()
	acc := extractor.NewAccumulator()

	ext.Extract(mustParse(t, `{"msg":"Build Info","attr":{"buildInfo":{"version":"6.0.4"}}}`), acc)
	ext.Extract(mustParse(t, `{"msg":"Build Info","attr":{}}`), acc)

	assert.Equal(t, "", acc.Identity.Version)
	assert.Equal(t, model.NoData, acc.Identity.NodeName)
}

func TestExtract_ErrorSubstring(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected []extractor.Kind
		message  string
	}{
		{
			name:     "Slow Query Mentioning Error",
			line:     `{"msg":"Slow query","attr":{"ns":"db.coll","command":{"comment":"error occurred"}}}`,
			expected: []extractor.Kind{extractor.KindSlowQuery, extractor.KindInformation},
			message:  "Slow query",
		},
		{
			name:     "Nested Error Key",
			line:     `{"msg":"Interrupted operation","attr":{"error":{"code":11601}}}`,
			expected: []extractor.Kind{extractor.KindInformation},
			message:  "Interrupted operation",
		},
		{
			name:     "Missing Message",
			line:     `{"attr":{"errmsg":"error"}}`,
			expected: []extractor.Kind{extractor.KindInformation},
			message:  extractor.DefaultInformationMessage,
		},
		{
			name:     "Case Sensitive",
			line:     `{"msg":"ERROR in uppercase","attr":{"Error":"x"}}`,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := extractor.NewMongodLogExtractor()
			acc := extractor.NewAccumulator()

			kinds := ext.Extract(mustParse(t, tt.line), acc)

			assert.Equal(t, tt.expected, kinds)
			if tt.message != "" {
				require.Len(t, acc.Information, 1)
				assert.Equal(t, tt.message, acc.Information[0].Message)
				assert.Equal(t, tt.message, acc.Information[0].Detail)
			} else {
				assert.Empty(t, acc.Information)
			}
		})
	}
}

func TestExtract_NilInputs(t *testing.T) {
	ext := extractor.NewMongodLogExtractor()

	assert.Nil(t, ext.Extract(nil, extractor.NewAccumulator()))
	assert.Nil(t, ext.Extract(model.Record{"msg": "Slow query"}, nil))
}
