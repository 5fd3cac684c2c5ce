package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmcdole/vista/internal/domain"
)

// RequestFunc is a filtered page fetch
type RequestFunc[T, F any] func(ctx context.Context, offset, limit int, filter F) (domain.Page[T], error)

// StaleIfError wraps request so every successful page is written to store
// and a failed fetch falls back to a stored page no older than maxAge.
// A zero maxAge accepts pages of any age. Cancellation is never masked.
func StaleIfError[T, F any](s *PageStore, scope func(F) string, maxAge time.Duration, logger *slog.Logger, request RequestFunc[T, F]) RequestFunc[T, F] {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, offset, limit int, filter F) (domain.Page[T], error) {
		key := scope(filter)
		page, err := request(ctx, offset, limit, filter)
		if err == nil {
			if serr := s.Save(key, offset, limit, page.Total, page.Items); serr != nil {
				logger.Warn("failed to cache page", "scope", key, "offset", offset, "error", serr)
			}
			return page, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return page, err
		}

		var items []T
		total, age, ok := s.Load(key, offset, limit, &items)
		if !ok || (maxAge > 0 && age > maxAge) {
			return page, err
		}
		logger.Warn("serving cached page", "scope", key, "offset", offset, "age", age, "error", err)
		return domain.Page[T]{Total: total, Items: items}, nil
	}
}
