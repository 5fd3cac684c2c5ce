// Package memory serves a catalogue held entirely in memory. It backs the
// demo mode and exercises the engine with configurable latency and failures.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/vista/internal/domain"
	"github.com/mmcdole/vista/internal/search"
)

// Sort orders understood by the library
const (
	SortTitle  = "title"
	SortYear   = "year"
	SortRating = "rating"
)

// Library is an in-memory catalogue answering paginated, filtered requests
type Library struct {
	mu      sync.RWMutex
	items   []*domain.MediaItem
	index   *search.Index
	latency time.Duration
	offline bool
	logger  *slog.Logger
}

// Option configures a Library
type Option func(*Library)

// WithLatency delays every fetch by d
func WithLatency(d time.Duration) Option {
	return func(l *Library) { l.latency = d }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) { l.logger = logger }
}

// NewLibrary creates a library over items. The slice is copied.
func NewLibrary(items []*domain.MediaItem, opts ...Option) *Library {
	l := &Library{logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	l.setItems(items)
	return l
}

func (l *Library) setItems(items []*domain.MediaItem) {
	l.items = slices.Clone(items)
	titles := make([]string, len(l.items))
	for i, item := range l.items {
		titles[i] = item.FilterValue()
	}
	l.index = search.NewIndex(titles)
}

// SetOffline makes every following fetch fail with ErrServerOffline
func (l *Library) SetOffline(offline bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.offline = offline
}

// Len returns the unfiltered collection size
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Remove deletes the item with id
func (l *Library) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.offline {
		return fmt.Errorf("%w: library is offline", domain.ErrServerOffline)
	}
	i := slices.IndexFunc(l.items, func(item *domain.MediaItem) bool { return item.ID == id })
	if i < 0 {
		return fmt.Errorf("item %q not found", id)
	}
	l.setItems(slices.Delete(slices.Clone(l.items), i, i+1))
	return nil
}

// SetFavorite marks or unmarks the item with id
func (l *Library) SetFavorite(ctx context.Context, id string, favorite bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.offline {
		return fmt.Errorf("%w: library is offline", domain.ErrServerOffline)
	}
	i := slices.IndexFunc(l.items, func(item *domain.MediaItem) bool { return item.ID == id })
	if i < 0 {
		return fmt.Errorf("item %q not found", id)
	}
	c := *l.items[i]
	c.Favorite = favorite
	l.items[i] = &c
	return nil
}

// Fetch returns the page [offset, offset+limit) of the items selected by
// filter. A query ranks fuzzy matches best first; otherwise filter.Sort
// orders the collection.
func (l *Library) Fetch(ctx context.Context, offset, limit int, filter domain.Filter) (domain.Page[*domain.MediaItem], error) {
	if l.latency > 0 {
		timer := time.NewTimer(l.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return domain.Page[*domain.MediaItem]{}, ctx.Err()
		case <-timer.C:
		}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.offline {
		return domain.Page[*domain.MediaItem]{}, fmt.Errorf("%w: library is offline", domain.ErrServerOffline)
	}
	if offset < 0 || limit < 0 {
		return domain.Page[*domain.MediaItem]{}, fmt.Errorf("invalid page offset=%d limit=%d", offset, limit)
	}

	selected := l.selectItems(filter)
	l.logger.Debug("library fetch", "offset", offset, "limit", limit, "query", filter.Query, "total", len(selected))

	start := min(offset, len(selected))
	end := min(offset+limit, len(selected))
	page := make([]*domain.MediaItem, end-start)
	for i, item := range selected[start:end] {
		c := *item
		page[i] = &c
	}
	return domain.Page[*domain.MediaItem]{Total: len(selected), Items: page}, nil
}

func (l *Library) selectItems(filter domain.Filter) []*domain.MediaItem {
	if q := strings.TrimSpace(filter.Query); q != "" {
		matches := l.index.Filter(q)
		out := make([]*domain.MediaItem, len(matches))
		for i, m := range matches {
			out[i] = l.items[m.Index]
		}
		return out
	}

	out := slices.Clone(l.items)
	switch filter.Sort {
	case SortTitle:
		slices.SortStableFunc(out, func(a, b *domain.MediaItem) int {
			return cmp.Compare(strings.ToLower(a.GetSortTitle()), strings.ToLower(b.GetSortTitle()))
		})
	case SortYear:
		slices.SortStableFunc(out, func(a, b *domain.MediaItem) int { return cmp.Compare(b.Year, a.Year) })
	case SortRating:
		slices.SortStableFunc(out, func(a, b *domain.MediaItem) int { return cmp.Compare(b.Rating, a.Rating) })
	}
	return out
}
