package extractor

import (
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"mongolog-insights/internal/model"
	"mongolog-insights/internal/parser"
	"mongolog-insights/internal/util"
)

// Kind names a classification a record can receive.
type Kind string

const (
	KindBuildInfo      Kind = "build_info"
	KindProcessDetails Kind = "process_details"
	KindReplicaSet     Kind = "replica_set"
	KindOS             Kind = "operating_system"
	KindSlowQuery      Kind = "slow_query"
	KindConnection     Kind = "connection"
	KindInformation    Kind = "information"
)

const (
	MsgBuildInfo          = "Build Info"
	MsgProcessDetails     = "Process Details"
	MsgReplicaSetMember   = "Node is a member of a replica set"
	MsgOperatingSystem    = "Operating System"
	MsgSlowQuery          = "Slow query"
	MsgConnectionAccepted = "Connection accepted"

	DefaultNamespace          = "Unknown"
	DefaultCommand            = "No command available"
	DefaultInformationMessage = "Unknown Information"

	errorMarker = "error"
)

type Extractor interface {
	// Extract applies every matching rule to rec and returns the kinds it
	// matched, in rule order.
	Extract(rec model.Record, acc *Accumulator) []Kind
}

type identityRule struct {
	kind  Kind
	apply func(rec model.Record, id *model.ServerIdentity)
}

type eventRule struct {
	kind  Kind
	match func(rec model.Record, msg string) bool
	apply func(rec model.Record, msg string, acc *Accumulator)
}

type mongodLogExtractor struct {
	identityRules map[string]identityRule
	eventRules    []eventRule
}

func NewMongodLogExtractor() Extractor {
	return &mongodLogExtractor{
		identityRules: map[string]identityRule{
			MsgBuildInfo: {KindBuildInfo, func(rec model.Record, id *model.ServerIdentity) {
				id.Version = rec.StringOr("", "attr", "buildInfo", "version")
			}},
			MsgProcessDetails: {KindProcessDetails, func(rec model.Record, id *model.ServerIdentity) {
				id.NodeName = rec.StringOr("", "attr", "host")
			}},
			MsgReplicaSetMember: {KindReplicaSet, func(rec model.Record, id *model.ServerIdentity) {
				id.ReplicaSetName = rec.StringOr("", "attr", "config", "_id")
			}},
			MsgOperatingSystem: {KindOS, func(rec model.Record, id *model.ServerIdentity) {
				id.OSVersion = rec.StringOr("", "attr", "os", "version")
			}},
		},
		eventRules: []eventRule{
			{kind: KindSlowQuery, match: messageIs(MsgSlowQuery), apply: appendSlowQuery},
			{kind: KindConnection, match: messageIs(MsgConnectionAccepted), apply: appendConnection},
			{kind: KindInformation, match: mentionsError, apply: appendInformation},
		},
	}
}

func (e *mongodLogExtractor) Extract(rec model.Record, acc *Accumulator) []Kind {
	if rec == nil || acc == nil {
		return nil
	}

	var matched []Kind
	msg, hasMsg := rec.LookupString("msg")

	if hasMsg {
		if rule, ok := e.identityRules[msg]; ok {
			rule.apply(rec, &acc.Identity)
			matched = append(matched, rule.kind)
		}
	}

	for _, rule := range e.eventRules {
		if rule.match(rec, msg) {
			rule.apply(rec, msg, acc)
			matched = append(matched, rule.kind)
		}
	}

	if len(matched) > 0 {
		log.Trace().Str("msg", msg).Interface("kinds", matched).Msg("Classified log record")
	}
	return matched
}

func messageIs(want string) func(model.Record, string) bool {
	return func(_ model.Record, msg string) bool {
		return msg == want
	}
}

func mentionsError(rec model.Record, _ string) bool {
	text, err := parser.Render(rec)
	if err != nil {
		log.Warn().Err(err).Msg("Could not render record for error detection")
		return false
	}
	return strings.Contains(text, errorMarker)
}

func appendSlowQuery(rec model.Record, _ string, acc *Accumulator) {
	acc.SlowQueries = append(acc.SlowQueries, model.SlowQueryEvent{
		Timestamp:  timestampOf(rec),
		DurationMs: durationOf(rec),
		Namespace:  rec.StringOr(DefaultNamespace, "attr", "ns"),
		Command:    rec.ValueOr(DefaultCommand, "attr", "command"),
	})
}

func appendConnection(rec model.Record, _ string, acc *Accumulator) {
	acc.Connections = append(acc.Connections, model.ConnectionEvent{
		Timestamp:       timestampOf(rec),
		ConnectionCount: rec.IntOr(0, "attr", "connectionCount"),
	})
}

func appendInformation(rec model.Record, _ string, acc *Accumulator) {
	message := rec.StringOr(DefaultInformationMessage, "msg")
	acc.Information = append(acc.Information, model.InformationalEvent{
		Timestamp: timestampOf(rec),
		Message:   message,
		Detail:    message,
	})
}

// durationOf rounds attr.durationMillis; durations are never negative.
func durationOf(rec model.Record) int64 {
	ms := rec.FloatOr(0, "attr", "durationMillis")
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 {
		return 0
	}
	return model.RoundInt64(ms)
}

func timestampOf(rec model.Record) *time.Time {
	raw, ok := rec.LookupString("t", "$date")
	if !ok {
		return nil
	}
	return util.NormalizeTimestampPtr(&raw)
}
