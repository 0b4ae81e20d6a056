package dto

import "time"

// TimeRangeRequest filters rows by timestamp. Zero bounds are open; rows
// without a timestamp only survive an unbounded request.
type TimeRangeRequest struct {
	StartTime time.Time
	EndTime   time.Time
}

func (r TimeRangeRequest) Bounded() bool {
	return !r.StartTime.IsZero() || !r.EndTime.IsZero()
}

type SlowQueryRequest struct {
	TimeRangeRequest
	Namespace string
	Sample    int // 0 returns every matching row
}
