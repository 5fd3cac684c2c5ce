package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/vista/internal/adapter"
	"github.com/mmcdole/vista/internal/adapter/source/catalog"
	"github.com/mmcdole/vista/internal/adapter/source/memory"
	"github.com/mmcdole/vista/internal/domain"
	"github.com/mmcdole/vista/internal/query"
	"github.com/mmcdole/vista/internal/store"
)

// demoSeed keeps the demo catalogue identical between runs
const demoSeed = 1979

// Catalogue answers filtered page requests. Both backends implement it.
type Catalogue interface {
	Fetch(ctx context.Context, offset, limit int, filter domain.Filter) (domain.Page[*domain.MediaItem], error)
}

var (
	_ Catalogue = (*catalog.Client)(nil)
	_ Catalogue = (*memory.Library)(nil)
)

// NewCatalogue creates the configured backend
func NewCatalogue(cfg *adapter.Config, logger *slog.Logger) (Catalogue, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	switch cfg.Server.Type {
	case adapter.SourceTypeHTTP:
		if cfg.Server.URL == "" {
			return nil, fmt.Errorf("server URL is required")
		}
		return catalog.NewClient(cfg.Server.URL, cfg.Server.Token, cfg.Server.Timeout, logger), nil

	case adapter.SourceTypeMemory:
		items := memory.Generate(cfg.Server.DemoItems, demoSeed)
		return memory.NewLibrary(items, memory.WithLatency(cfg.Server.DemoLatency), memory.WithLogger(logger)), nil

	default:
		return nil, fmt.Errorf("unknown server type: %s", cfg.Server.Type)
	}
}

// FilterKey is the cache scope suffix for a filter
func FilterKey(f domain.Filter) string {
	return fmt.Sprintf("q=%s&s=%s", f.Query, f.Sort)
}

// serverKey identifies the configured backend in the page store
func serverKey(cfg *adapter.Config) string {
	return string(cfg.Server.Type) + ":" + cfg.Server.URL
}

// Scope is the page store scope for filter on the configured backend
func Scope(cfg *adapter.Config, f domain.Filter) string {
	return store.Scope(serverKey(cfg), FilterKey(f))
}

// NewRequest returns the endpoint request function for cat. When pages is
// non-nil every page is persisted and served again if the backend fails.
func NewRequest(cfg *adapter.Config, cat Catalogue, pages *store.PageStore, logger *slog.Logger) query.RequestFunc[*domain.MediaItem, domain.Filter] {
	request := store.RequestFunc[*domain.MediaItem, domain.Filter](cat.Fetch)
	if pages != nil {
		scope := func(f domain.Filter) string { return Scope(cfg, f) }
		request = store.StaleIfError(pages, scope, cfg.Cache.TTL, logger, request)
	}
	return query.RequestFunc[*domain.MediaItem, domain.Filter](request)
}

// InvalidateOnChange keeps pages in sync with ep. A modify or remove drops
// every stored page of the backend since the item may appear under any
// filter; a refresh drops the pages of the current filter. The returned
// function stops listening.
func InvalidateOnChange(cfg *adapter.Config, ep *query.Endpoint[*domain.MediaItem, domain.Filter], pages *store.PageStore, logger *slog.Logger) func() {
	if logger == nil {
		logger = slog.Default()
	}

	unsubModified := ep.Modified().Subscribe(func(ev query.ModifiedEvent[*domain.MediaItem]) {
		if err := pages.InvalidateServer(serverKey(cfg)); err != nil {
			logger.Warn("failed to invalidate page cache", "index", ev.Index, "error", err)
		}
	})
	unsubRefreshed := ep.Refreshed().Subscribe(func(ev query.RefreshedEvent) {
		if ev.Reason != query.Refreshed {
			return
		}
		if err := pages.InvalidateScope(Scope(cfg, ep.Filter())); err != nil {
			logger.Warn("failed to invalidate page cache", "generation", ev.Generation, "error", err)
		}
	})

	return func() {
		unsubModified()
		unsubRefreshed()
	}
}

// ClearCache drops every page in the configured page store
func ClearCache(cfg *adapter.Config) error {
	pages, err := store.NewPageStore(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer pages.Close()

	if err := pages.InvalidateAll(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
