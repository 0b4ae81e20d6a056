package dataset

import (
	"time"

	"mongolog-insights/internal/model"
)

// Column names handed to rendering layers. They match the labels the
// dashboards plot against.
const (
	ColTimestamp          = "Timestamp"
	ColDuration           = "Duration (ms)"
	ColNamespace          = "Namespace"
	ColCommand            = "Command"
	ColConnectionCount    = "ConnectionCount"
	ColInformationMessage = "Information Message"
)

type SlowQueryTable struct {
	Timestamp  []*time.Time  `json:"Timestamp"`
	DurationMs []int64       `json:"Duration (ms)"`
	Namespace  []string      `json:"Namespace"`
	Command    []interface{} `json:"Command"`
}

func (t SlowQueryTable) Columns() []string {
	return []string{ColTimestamp, ColDuration, ColNamespace, ColCommand}
}

func (t SlowQueryTable) Len() int {
	return len(t.DurationMs)
}

func (t SlowQueryTable) Row(i int) model.SlowQueryEvent {
	return model.SlowQueryEvent{
		Timestamp:  t.Timestamp[i],
		DurationMs: t.DurationMs[i],
		Namespace:  t.Namespace[i],
		Command:    t.Command[i],
	}
}

// Select returns a new table holding the given rows in the given order.
func (t SlowQueryTable) Select(rows []int) SlowQueryTable {
	out := newSlowQueryTable(len(rows))
	for _, i := range rows {
		out.append(t.Row(i))
	}
	return out
}

func newSlowQueryTable(n int) SlowQueryTable {
	return SlowQueryTable{
		Timestamp:  make([]*time.Time, 0, n),
		DurationMs: make([]int64, 0, n),
		Namespace:  make([]string, 0, n),
		Command:    make([]interface{}, 0, n),
	}
}

func (t *SlowQueryTable) append(ev model.SlowQueryEvent) {
	t.Timestamp = append(t.Timestamp, copyTime(ev.Timestamp))
	t.DurationMs = append(t.DurationMs, ev.DurationMs)
	t.Namespace = append(t.Namespace, ev.Namespace)
	t.Command = append(t.Command, copyValue(ev.Command))
}

type ConnectionTable struct {
	Timestamp       []*time.Time `json:"Timestamp"`
	ConnectionCount []int64      `json:"ConnectionCount"`
}

func (t ConnectionTable) Columns() []string {
	return []string{ColTimestamp, ColConnectionCount}
}

func (t ConnectionTable) Len() int {
	return len(t.ConnectionCount)
}

func (t ConnectionTable) Row(i int) model.ConnectionEvent {
	return model.ConnectionEvent{
		Timestamp:       t.Timestamp[i],
		ConnectionCount: t.ConnectionCount[i],
	}
}

func (t ConnectionTable) Select(rows []int) ConnectionTable {
	out := newConnectionTable(len(rows))
	for _, i := range rows {
		out.append(t.Row(i))
	}
	return out
}

func newConnectionTable(n int) ConnectionTable {
	return ConnectionTable{
		Timestamp:       make([]*time.Time, 0, n),
		ConnectionCount: make([]int64, 0, n),
	}
}

func (t *ConnectionTable) append(ev model.ConnectionEvent) {
	t.Timestamp = append(t.Timestamp, copyTime(ev.Timestamp))
	t.ConnectionCount = append(t.ConnectionCount, ev.ConnectionCount)
}

// InformationTable keeps the detail column under the "Command" label.
type InformationTable struct {
	Timestamp []*time.Time `json:"Timestamp"`
	Message   []string     `json:"Information Message"`
	Detail    []string     `json:"Command"`
}

func (t InformationTable) Columns() []string {
	return []string{ColTimestamp, ColInformationMessage, ColCommand}
}

func (t InformationTable) Len() int {
	return len(t.Message)
}

func (t InformationTable) Row(i int) model.InformationalEvent {
	return model.InformationalEvent{
		Timestamp: t.Timestamp[i],
		Message:   t.Message[i],
		Detail:    t.Detail[i],
	}
}

func (t InformationTable) Select(rows []int) InformationTable {
	out := newInformationTable(len(rows))
	for _, i := range rows {
		out.append(t.Row(i))
	}
	return out
}

func newInformationTable(n int) InformationTable {
	return InformationTable{
		Timestamp: make([]*time.Time, 0, n),
		Message:   make([]string, 0, n),
		Detail:    make([]string, 0, n),
	}
}

func (t *InformationTable) append(ev model.InformationalEvent) {
	t.Timestamp = append(t.Timestamp, copyTime(ev.Timestamp))
	t.Message = append(t.Message, ev.Message)
	t.Detail = append(t.Detail, ev.Detail)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// copyValue deep-copies decoded JSON objects and arrays. Scalars are
// returned as is.
func copyValue(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, item := range x {
			out[k] = copyValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, item := range x {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
