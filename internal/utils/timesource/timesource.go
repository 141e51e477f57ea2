package timesource

import (
	"sync/atomic"
	"time"
)

type (
	// TimeSource is an interface for any entity that provides the current time.
	TimeSource interface {
		Now() time.Time
	}

	realTimeSource struct{}

	// TickingTimeSource advances by one second every time it is read.
	TickingTimeSource struct {
		now int64
	}
)

func NewRealTimeSource() TimeSource {
	return &realTimeSource{}
}

func (s *realTimeSource) Now() time.Time {
	return time.Now()
}

func NewTickingTimeSource() *TickingTimeSource {
	return &TickingTimeSource{}
}

func (s *TickingTimeSource) Now() time.Time {
	return time.Unix(0, atomic.AddInt64(&s.now, int64(time.Second))).UTC()
}
