package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmcdole/vista/internal/domain"
)

// RequestStatus is reported to a queued request as it moves through the queue
type RequestStatus int

const (
	StatusCanceled RequestStatus = iota
	StatusQuerying
	StatusOK
	StatusError
)

func (s RequestStatus) String() string {
	switch s {
	case StatusQuerying:
		return "querying"
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "canceled"
	}
}

type request struct {
	offset int
	limit  int
	keep   bool
	notify func(RequestStatus)
}

// group is the set of requests that share one generation. Requests of the
// same generation fire together after a single debounce.
type group struct {
	generation int
	requests   []request
	timer      Timer
	canceled   bool
}

// queue coalesces generation-tagged (offset, limit) requests and runs them
// against the fetch function. All state is guarded by the instance guard; the
// fetch itself runs without it.
type queue[T any] struct {
	g       *guard
	buf     *Buffer[T]
	fetch   domain.FetchFunc[T]
	sched   Scheduler
	delay   time.Duration
	onError domain.ErrorHandler
	logger  *slog.Logger
	metrics *Metrics
	ctx     context.Context

	current *group
}

// enqueue must be called with the guard held. A request with keep set joins
// whatever group is live and survives supersession: it is carried into the
// group that replaces it instead of being cancelled.
func (q *queue[T]) enqueue(generation, offset, limit int, keep bool, notify func(RequestStatus)) {
	req := request{offset: offset, limit: limit, keep: keep, notify: notify}

	if q.current != nil && (keep || q.current.generation == generation) {
		q.current.requests = append(q.current.requests, req)
		return
	}

	var carried []request
	if q.current != nil {
		carried = q.supersede(q.current)
	}

	grp := &group{generation: generation, requests: append(carried, req)}
	q.current = grp

	delay := q.delay
	if _, known := q.buf.Total(); !known {
		delay = 0
	}
	grp.timer = q.sched.AfterFunc(delay, func() { q.execute(grp) })
}

// supersede cancels grp and returns its keep requests. Must be called with
// the guard held.
func (q *queue[T]) supersede(grp *group) []request {
	var kept, dropped []request
	for _, req := range grp.requests {
		if req.keep {
			kept = append(kept, req)
		} else {
			dropped = append(dropped, req)
		}
	}
	grp.requests = dropped
	q.cancel(grp)
	return kept
}

// cancel must be called with the guard held
func (q *queue[T]) cancel(grp *group) {
	if grp.timer != nil {
		grp.timer.Stop()
	}
	grp.canceled = true
	q.metrics.ObserveCanceled(len(grp.requests))
	q.logger.Debug("query group superseded", "generation", grp.generation, "requests", len(grp.requests))
	for _, req := range grp.requests {
		req.notify(StatusCanceled)
	}
	grp.requests = nil
	if q.current == grp {
		q.current = nil
	}
}

func (q *queue[T]) execute(grp *group) {
	q.g.lock()
	if grp.canceled || q.ctx.Err() != nil {
		q.g.unlock()
		return
	}
	if q.current == grp {
		q.current = nil
	}
	requests := grp.requests
	for _, req := range requests {
		req.notify(StatusQuerying)
	}
	q.g.unlock()

	for _, req := range requests {
		start := time.Now()
		page, err := q.fetch(q.ctx, req.offset, req.limit)
		q.metrics.ObserveFetch(err, time.Since(start))

		q.g.lock()
		if q.ctx.Err() != nil {
			q.g.unlock()
			return
		}
		if err != nil {
			q.logger.Error("fetch failed", "offset", req.offset, "limit", req.limit, "error", err)
			if q.onError != nil {
				onError, msg := q.onError, err.Error()
				q.g.later(func() { onError("Error Occurred", msg) })
			}
			req.notify(StatusError)
		} else {
			q.buf.SetTotal(page.Total)
			q.buf.Write(req.offset, page.Items)
			q.logger.Debug("fetch complete", "offset", req.offset, "limit", req.limit,
				"total", page.Total, "items", len(page.Items))
			req.notify(StatusOK)
		}
		q.g.unlock()
	}
}

// stop cancels the live group, if any. Must be called with the guard held.
func (q *queue[T]) stop() {
	if q.current != nil {
		q.cancel(q.current)
	}
}
