// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/pdiddy/portfolio-research/pkg/types"
)

// limited throttles calls to the wrapped provider with a token bucket.
type limited struct {
	next    Provider
	limiter *rate.Limiter
}

// Limit wraps p so that at most rps searches start per second. Waiting
// honors context cancellation.
func Limit(p Provider, rps float64) Provider {
	return &limited{next: p, limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

func (l *limited) Name() string { return l.next.Name() }

func (l *limited) Search(ctx context.Context, query string, limit int) ([]types.SourceSnippet, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.next.Search(ctx, query, limit)
}
