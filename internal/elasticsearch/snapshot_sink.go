package elasticsearch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	gojson "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"mongolog-insights/config"
	"mongolog-insights/internal/dataset"
	"mongolog-insights/internal/repository"
)

const sinkName = "elasticsearch"

type snapshotSink struct {
	client *elasticsearch.Client
	cfg    config.ElasticsearchConfig
}

// NewSnapshotSink connects to the cluster with retries. It returns a nil sink
// when Elasticsearch is disabled.
func NewSnapshotSink(cfg *config.Config) (repository.SnapshotSink, error) {
	if !cfg.Elasticsearch.Enabled {
		return nil, nil
	}
	if len(cfg.Elasticsearch.Addresses) == 0 {
		log.Error().Msg("Elasticsearch addresses are not configured.")
		return nil, errors.New("elasticsearch configuration missing")
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost:   10,
		ResponseHeaderTimeout: 10 * time.Second,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
	}
	esCfg := elasticsearch.Config{
		Addresses: cfg.Elasticsearch.Addresses,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
		Transport: transport,
	}

	var client *elasticsearch.Client
	operation := func() error {
		var err error
		client, err = elasticsearch.NewClient(esCfg)
		if err != nil {
			log.Warn().Err(err).Msg("Attempt failed: Error creating the Elasticsearch client")
			return err
		}
		res, err := client.Info(client.Info.WithContext(context.Background()))
		if err != nil {
			log.Warn().Err(err).Msg("Attempt failed: Error during Elasticsearch Info() call")
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			errStatus := fmt.Errorf("elasticsearch Info() returned error status: %s", res.Status())
			log.Warn().Err(errStatus).Msg("Attempt failed: Elasticsearch ping returned error status")
			return errStatus
		}
		log.Info().Msg("Elasticsearch client initialized and connection verified!")
		return nil
	}

	connectBackoff := backoff.NewExponentialBackOff()
	connectBackoff.InitialInterval = 2 * time.Second
	connectBackoff.MaxInterval = 15 * time.Second
	connectBackoff.MaxElapsedTime = 90 * time.Second

	log.Info().Strs("addresses", cfg.Elasticsearch.Addresses).Msg("Attempting to connect to Elasticsearch with retries...")
	if err := backoff.Retry(operation, connectBackoff); err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}

	return &snapshotSink{client: client, cfg: cfg.Elasticsearch}, nil
}

func (s *snapshotSink) Name() string {
	return sinkName
}

// Publish indexes every event of snap and waits for the bulk indexer to
// drain.
func (s *snapshotSink) Publish(ctx context.Context, snap *dataset.Snapshot) error {
	docs, err := BuildDocuments(s.cfg.IndexPrefix, snap)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	var failed uint64
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        s.client,
		NumWorkers:    s.cfg.BulkWorkers,
		FlushBytes:    s.cfg.FlushBytes,
		FlushInterval: s.cfg.FlushInterval,
		OnError: func(ctx context.Context, err error) {
			log.Error().Err(err).Msg("BulkIndexer error")
		},
	})
	if err != nil {
		return fmt.Errorf("error creating the BulkIndexer: %w", err)
	}

	for _, doc := range docs {
		err := bi.Add(ctx, esutil.BulkIndexerItem{
			Action: "index",
			Index:  doc.Index,
			Body:   bytes.NewReader(doc.Body),
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				atomic.AddUint64(&failed, 1)
				if err != nil {
					log.Error().Err(err).Str("index", item.Index).Msg("Failed to index document")
					return
				}
				log.Error().Str("index", item.Index).Str("type", res.Error.Type).Str("reason", res.Error.Reason).Msg("Failed to index document")
			},
		})
		if err != nil {
			atomic.AddUint64(&failed, 1)
			log.Error().Err(err).Msg("Failed to add item to BulkIndexer")
		}
	}

	if err := bi.Close(ctx); err != nil {
		return fmt.Errorf("error closing BulkIndexer: %w", err)
	}
	stats := bi.Stats()
	log.Info().
		Str("run_id", snap.RunID).
		Uint64("indexed", stats.NumIndexed).
		Uint64("failed", stats.NumFailed).
		Uint64("requests", stats.NumRequests).
		Msg("Elasticsearch BulkIndexer stats")

	if n := atomic.LoadUint64(&failed); n > 0 {
		return fmt.Errorf("%d of %d documents failed to index", n, len(docs))
	}
	return nil
}

// Document is one bulk item.
type Document struct {
	Index string
	Body  []byte
}

type eventDocument struct {
	RunID string      `json:"run_id"`
	Kind  string      `json:"kind"`
	Time  *time.Time  `json:"@timestamp,omitempty"`
	Event interface{} `json:"event"`
}

// BuildDocuments renders one document per event plus an identity document.
// Events without a timestamp land in the index dated by the run start.
func BuildDocuments(prefix string, snap *dataset.Snapshot) ([]Document, error) {
	runDay := snap.Stats.StartedAt
	total := snap.SlowQueries.Len() + snap.Connections.Len() + snap.Information.Len() + 1
	docs := make([]Document, 0, total)

	add := func(kind string, ts *time.Time, event interface{}) error {
		body, err := gojson.Marshal(eventDocument{RunID: snap.RunID, Kind: kind, Time: ts, Event: event})
		if err != nil {
			return fmt.Errorf("failed to marshal %s document: %w", kind, err)
		}
		day := runDay
		if ts != nil {
			day = *ts
		}
		docs = append(docs, Document{Index: IndexName(prefix, kind, day), Body: body})
		return nil
	}

	for i := 0; i < snap.SlowQueries.Len(); i++ {
		if err := add("slowquery", snap.SlowQueries.Timestamp[i], snap.SlowQueries.Row(i)); err != nil {
			return nil, err
		}
	}
	for i := 0; i < snap.Connections.Len(); i++ {
		if err := add("connection", snap.Connections.Timestamp[i], snap.Connections.Row(i)); err != nil {
			return nil, err
		}
	}
	for i := 0; i < snap.Information.Len(); i++ {
		if err := add("information", snap.Information.Timestamp[i], snap.Information.Row(i)); err != nil {
			return nil, err
		}
	}

	body, err := gojson.Marshal(struct {
		RunID  string      `json:"run_id"`
		Source string      `json:"source"`
		Time   time.Time   `json:"@timestamp"`
		Server interface{} `json:"server"`
	}{snap.RunID, snap.Source, snap.Stats.StartedAt, snap.Identity})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal identity document: %w", err)
	}
	docs = append(docs, Document{Index: prefix + "-identity", Body: body})
	return docs, nil
}

// IndexName returns e.g. "mongolog-slowquery-2024.03.01".
func IndexName(prefix, kind string, day time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, kind, day.UTC().Format("2006.01.02"))
}
