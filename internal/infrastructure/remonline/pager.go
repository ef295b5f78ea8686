package remonline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/remflow/stockhistory-api/internal/domain"
)

// fetchAllPages walks a positional page cursor starting at 1, concatenating
// results until the source returns an empty or short page. Pages are fetched
// strictly one at a time: the cursor is positional and the underlying record
// set may be written concurrently, so parallel fetches could duplicate or
// skip records.
//
// Error contract:
//   - source rejects the session: refresh once, retry the same page; a second
//     rejection on that page returns ErrAuthRefreshFailed (fatal).
//   - pageLimit reached before completion: ErrPaginationOverrun, accumulated
//     records returned alongside.
//   - any other page error: pagination stops early and the accumulated
//     records are returned alongside the error, never discarded.
func fetchAllPages[T any](
	ctx context.Context,
	log zerolog.Logger,
	fetch func(ctx context.Context, page int) ([]T, error),
	refresh func(ctx context.Context) error,
	pageSize, pageLimit int,
) ([]T, error) {
	var all []T

	for page := 1; ; page++ {
		if page > pageLimit {
			log.Error().Int("page_limit", pageLimit).Int("accumulated", len(all)).
				Msg("pagination ceiling reached before the source signaled completion")
			return all, fmt.Errorf("page %d: %w", page, domain.ErrPaginationOverrun)
		}

		items, err := fetch(ctx, page)
		if errors.Is(err, domain.ErrSourceUnauthorized) {
			log.Info().Int("page", page).Msg("session rejected, refreshing once and retrying page")
			if rerr := refresh(ctx); rerr != nil {
				return all, fmt.Errorf("page %d: refresh after rejection: %v: %w", page, rerr, domain.ErrAuthRefreshFailed)
			}
			items, err = fetch(ctx, page)
			if errors.Is(err, domain.ErrSourceUnauthorized) {
				return all, fmt.Errorf("page %d: session rejected again after refresh: %w", page, domain.ErrAuthRefreshFailed)
			}
		}
		if err != nil {
			log.Warn().Err(err).Int("page", page).Int("accumulated", len(all)).
				Msg("pagination terminated early, returning partial result")
			return all, fmt.Errorf("page %d: %w", page, err)
		}

		all = append(all, items...)

		// Empty or short page means the source is exhausted.
		if len(items) == 0 || len(items) < pageSize {
			return all, nil
		}
	}
}
