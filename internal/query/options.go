package query

import (
	"log/slog"
	"time"

	"github.com/mmcdole/vista/internal/domain"
)

const (
	// DefaultSegmentSize is the number of items tracked by one segment
	DefaultSegmentSize = 100

	// DefaultQueryDelay is the debounce applied before a query group fires
	DefaultQueryDelay = 250 * time.Millisecond
)

// Options configures an Instance and, through an Endpoint, every instance it
// creates.
type Options struct {
	SegmentSize  int
	QueryDelay   time.Duration
	ErrorHandler domain.ErrorHandler
	Logger       *slog.Logger
	Metrics      *Metrics
	Scheduler    Scheduler
}

// DefaultOptions returns the default engine options
func DefaultOptions() Options {
	return Options{
		SegmentSize: DefaultSegmentSize,
		QueryDelay:  DefaultQueryDelay,
	}
}

func (o Options) normalize() Options {
	if o.SegmentSize <= 0 {
		o.SegmentSize = DefaultSegmentSize
	}
	if o.QueryDelay < 0 {
		o.QueryDelay = 0
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Scheduler == nil {
		o.Scheduler = SystemScheduler{}
	}
	return o
}
