// Package syncer propagates authoritative product state into the mirror
// store and the search index after every mutation. Propagation is
// best-effort: failures are retried a bounded number of times, counted and
// logged, and never surfaced to the caller or rolled back.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/freshmart/api/internal/mirror"
	"github.com/freshmart/api/internal/models"
	"github.com/freshmart/api/internal/search"
)

type Propagator struct {
	Mirror  mirror.Store
	ES      *elasticsearch.Client
	Index   string
	Log     *slog.Logger
	Retries int           // attempts after the first, per target
	Backoff time.Duration // linear backoff between attempts

	// Notification retention; zero means keep everything.
	NotifyTTL time.Duration

	// Clock hook for tests.
	Now func() time.Time

	attempts atomic.Int64
	failures atomic.Int64
}

func (p *Propagator) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Propagator) logger() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}

// ProductUpserted merges the post-write snapshot into the mirror and
// reindexes it for search. Field values come from the snapshot; updatedAt
// is assigned here, at propagation time.
func (p *Propagator) ProductUpserted(ctx context.Context, prod *models.Product) {
	doc := map[string]any{
		"name":        prod.Name,
		"description": prod.Description,
		"price":       prod.Price,
		"inventory":   prod.Inventory,
		"seasonalTag": prod.SeasonalTag,
		"avgRating":   prod.AvgRating,
		"hidden":      prod.Hidden,
		"updatedAt":   p.now().UTC().Format(time.RFC3339),
	}

	if p.Mirror != nil {
		p.withRetry(ctx, "mirror merge", prod.ID, func() error {
			return p.Mirror.Merge(mirror.ProductCollection, fmt.Sprint(prod.ID), doc)
		})
	}
	if p.ES != nil {
		p.withRetry(ctx, "search index", prod.ID, func() error {
			return search.IndexProduct(ctx, p.ES, p.Index, prod)
		})
	}
}

// ProductDeleted removes the product from the mirror and the search index,
// best-effort.
func (p *Propagator) ProductDeleted(ctx context.Context, id uint) {
	if p.Mirror != nil {
		p.withRetry(ctx, "mirror remove", id, func() error {
			return p.Mirror.Remove(mirror.ProductCollection, fmt.Sprint(id))
		})
	}
	if p.ES != nil {
		p.withRetry(ctx, "search delete", id, func() error {
			return search.DeleteProduct(ctx, p.ES, p.Index, id)
		})
	}
}

// Notify appends to the broadcast feed with a server-assigned timestamp,
// then applies the retention policy if one is configured.
func (p *Propagator) Notify(ctx context.Context, title, message string) {
	if p.Mirror == nil {
		return
	}

	createdAt := p.now()
	p.withRetry(ctx, "notification append", 0, func() error {
		return p.Mirror.Append(mirror.NotificationCollection, map[string]any{
			"title":     title,
			"message":   message,
			"createdAt": createdAt.UTC().Format(time.RFC3339),
		})
	})

	if p.NotifyTTL > 0 {
		if err := p.Mirror.PruneBefore(mirror.NotificationCollection, createdAt.Add(-p.NotifyTTL)); err != nil {
			p.logger().Warn("notification prune failed", "error", err)
		}
	}
}

// Stats reports total propagation attempts and how many exhausted their
// retries. The gap between the two is the staleness signal.
func (p *Propagator) Stats() (attempts, failures int64) {
	return p.attempts.Load(), p.failures.Load()
}

func (p *Propagator) withRetry(ctx context.Context, op string, productID uint, fn func() error) {
	p.attempts.Add(1)

	var err error
	for attempt := 0; attempt <= p.Retries; attempt++ {
		if attempt > 0 && p.Backoff > 0 {
			select {
			case <-time.After(time.Duration(attempt) * p.Backoff):
			case <-ctx.Done():
				p.failures.Add(1)
				p.logger().Error("propagation aborted", "op", op, "productID", productID, "error", ctx.Err())
				return
			}
		}
		if err = fn(); err == nil {
			return
		}
	}

	p.failures.Add(1)
	p.logger().Error("propagation failed", "op", op, "productID", productID, "retries", p.Retries, "error", err)
}
