package timescaledb

import (
	"context"
	"fmt"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"mongolog-insights/config"
	"mongolog-insights/internal/dataset"
	"mongolog-insights/internal/repository"
)

const (
	sinkName = "timescaledb"

	slowQueriesTable = "mongolog_slow_queries"
	connectionsTable = "mongolog_connections"

	colTime            = "time"
	colRunID           = "run_id"
	colNamespace       = "namespace"
	colDurationMs      = "duration_ms"
	colCommand         = "command" // JSONB
	colConnectionCount = "connection_count"
)

var (
	slowQueryColumns  = []string{colTime, colRunID, colNamespace, colDurationMs, colCommand}
	connectionColumns = []string{colTime, colRunID, colConnectionCount}
)

type copier interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

type snapshotSink struct {
	db copier
}

// NewSnapshotSink opens the pool and ensures both hypertables exist. It
// returns a nil sink when TimescaleDB is disabled.
func NewSnapshotSink(lc fx.Lifecycle, cfg *config.Config) (repository.SnapshotSink, error) {
	if !cfg.TimescaleDB.Enabled {
		return nil, nil
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.TimescaleDB.DSN)
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse TimescaleDB DSN")
		return nil, fmt.Errorf("invalid TimescaleDB DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Error().Err(err).Msg("Unable to create connection pool to TimescaleDB")
		return nil, fmt.Errorf("failed to connect to TimescaleDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		log.Error().Err(err).Msg("Failed to ping TimescaleDB")
		return nil, fmt.Errorf("failed to ping TimescaleDB: %w", err)
	}
	log.Info().Msg("TimescaleDB connection pool created and verified.")

	setupCtx, cancelSetup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelSetup()
	if err := ensureHypertables(setupCtx, pool); err != nil {
		pool.Close()
		log.Error().Err(err).Msg("Failed to ensure TimescaleDB hypertables exist")
		return nil, fmt.Errorf("failed ensuring hypertables: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Closing TimescaleDB connection pool...")
			pool.Close()
			return nil
		},
	})

	return &snapshotSink{db: pool}, nil
}

func ensureHypertables(ctx context.Context, pool *pgxpool.Pool) error {
	tables := map[string]string{
		slowQueriesTable: fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				%s TIMESTAMPTZ NOT NULL,
				%s TEXT NOT NULL,
				%s TEXT NOT NULL,
				%s BIGINT NOT NULL,
				%s JSONB
			);`, slowQueriesTable, colTime, colRunID, colNamespace, colDurationMs, colCommand),
		connectionsTable: fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				%s TIMESTAMPTZ NOT NULL,
				%s TEXT NOT NULL,
				%s BIGINT NOT NULL
			);`, connectionsTable, colTime, colRunID, colConnectionCount),
	}

	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS timescaledb;"); err != nil {
		log.Warn().Err(err).Msg("Failed to ensure timescaledb extension exists (permission issue?). Trying to proceed...")
	}

	for _, table := range []string{slowQueriesTable, connectionsTable} {
		if _, err := pool.Exec(ctx, tables[table]); err != nil {
			return fmt.Errorf("failed to create base table %s: %w", table, err)
		}

		var isHypertable bool
		_ = pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM timescaledb_information.hypertables WHERE hypertable_name = $1);`,
			table).Scan(&isHypertable)
		if isHypertable {
			log.Info().Str("table", table).Msg("Table is already a hypertable.")
			continue
		}

		createHyperSQL := fmt.Sprintf(
			"SELECT create_hypertable('%s', '%s', if_not_exists => TRUE, chunk_time_interval => INTERVAL '1 day');",
			table, colTime)
		if _, err := pool.Exec(ctx, createHyperSQL); err != nil && !strings.Contains(err.Error(), "already a hypertable") {
			return fmt.Errorf("failed to create hypertable %s: %w", table, err)
		}
		log.Info().Str("table", table).Msg("Successfully ensured hypertable.")
	}

	indexSQL := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_ns_time ON %s (%s, %s DESC);
		CREATE INDEX IF NOT EXISTS idx_%s_run ON %s (%s);
	`, slowQueriesTable, slowQueriesTable, colNamespace, colTime, connectionsTable, connectionsTable, colRunID)
	if _, err := pool.Exec(ctx, indexSQL); err != nil {
		log.Warn().Err(err).Msg("Failed to create indexes on mongolog tables (continuing)")
	}
	return nil
}

func (s *snapshotSink) Name() string {
	return sinkName
}

func (s *snapshotSink) Publish(ctx context.Context, snap *dataset.Snapshot) error {
	slowRows, skippedSlow := SlowQueryRows(snap)
	connRows, skippedConn := ConnectionRows(snap)
	if skippedSlow+skippedConn > 0 {
		log.Warn().
			Int("slow_queries", skippedSlow).
			Int("connections", skippedConn).
			Str("run_id", snap.RunID).
			Msg("Skipping rows without a timestamp")
	}

	if err := s.copyRows(ctx, slowQueriesTable, slowQueryColumns, slowRows); err != nil {
		return err
	}
	return s.copyRows(ctx, connectionsTable, connectionColumns, connRows)
}

func (s *snapshotSink) copyRows(ctx context.Context, table string, columns []string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	copyCount, err := s.db.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		log.Error().Err(err).Str("table", table).Msg("Failed to bulk insert rows into TimescaleDB")
		return fmt.Errorf("timescaledb copyfrom into %s failed: %w", table, err)
	}
	if int(copyCount) != len(rows) {
		log.Warn().Int64("inserted", copyCount).Int("expected", len(rows)).Str("table", table).Msg("TimescaleDB CopyFrom row count mismatch")
	} else {
		log.Debug().Int64("count", copyCount).Str("table", table).Msg("Successfully inserted rows into TimescaleDB")
	}
	return nil
}

// SlowQueryRows converts the slow query table to CopyFrom rows, dropping
// rows without a timestamp. The second result is the number dropped.
func SlowQueryRows(snap *dataset.Snapshot) ([][]interface{}, int) {
	t := snap.SlowQueries
	rows := make([][]interface{}, 0, t.Len())
	skipped := 0
	for i := 0; i < t.Len(); i++ {
		if t.Timestamp[i] == nil {
			skipped++
			continue
		}
		command, err := gojson.Marshal(t.Command[i])
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal slow query command to JSON, inserting null")
			command = nil
		}
		rows = append(rows, []interface{}{*t.Timestamp[i], snap.RunID, t.Namespace[i], t.DurationMs[i], command})
	}
	return rows, skipped
}

func ConnectionRows(snap *dataset.Snapshot) ([][]interface{}, int) {
	t := snap.Connections
	rows := make([][]interface{}, 0, t.Len())
	skipped := 0
	for i := 0; i < t.Len(); i++ {
		if t.Timestamp[i] == nil {
			skipped++
			continue
		}
		rows = append(rows, []interface{}{*t.Timestamp[i], snap.RunID, t.ConnectionCount[i]})
	}
	return rows, skipped
}
