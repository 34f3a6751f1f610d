// Package scrape holds the read-through cache and list -> detail fan-out shared by
// every resource the api serves.
//
// For one resource a request goes
//
//	CHECK_CACHE -> hit: return
//	            -> miss: FETCH_LIST -> PARSE_LIST -> FETCH_DETAILS_PARALLEL -> MERGE -> WRITE_CACHE -> return
//
// Detail fetches are all-settled, a failed detail is reported and left out, it never
// fails the batch. Concurrent misses on the same key are not deduplicated, both
// requests scrape and the last write wins.
package scrape

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
	"unifeed-backend/lib/cache"
	"unifeed-backend/lib/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	report_cache_read  = "cache.read"
	report_cache_write = "cache.write"
	report_list        = "list"
	report_detail      = "detail"
	report_detail_skip = "detail-skip"
	report_collected   = "collected"
)

var tracer = otel.Tracer("unifeed.lib.scrape")

// ErrIncomplete is returned by a detail func when the page was fetched but lacks a
// field the record cannot do without. The record is dropped and nothing is cached.
var ErrIncomplete = errors.New("incomplete record")

// Target describes one resource type, it is built from configuration once.
type Target struct {
	ListURL   string
	KeyPrefix string
	TTL       time.Duration
}

// Key builds a cache key under the target's prefix.
func (t Target) Key(parts ...string) string {
	return cache.Key(append([]string{t.KeyPrefix}, parts...)...)
}

// ListKey is the key of an aggregate result.
func (t Target) ListKey(parts ...string) string {
	return t.Key(append([]string{"list"}, parts...)...)
}

// ItemKey is the key of a single detail record.
func (t Target) ItemKey(detailUrl string) string {
	return t.Key("item", cache.URLKey(detailUrl))
}

// Prefix matches every key (aggregate and item) that belongs to the target.
func (t Target) Prefix() string {
	return t.KeyPrefix + ":"
}

// ListEntry is one item parsed out of a list page. Aux carries whatever the list
// view shows besides the link (usually a date).
type ListEntry struct {
	DetailURL string
	Aux       string
}

// Aggregator carries the collaborators shared by every scrape of one resource.
type Aggregator struct {
	Store cache.Store
	Tel   telemetry.API
}

// Cached returns the value under key, building and storing it on a miss.
// A failing cache is reported and bypassed, only build errors are returned.
func Cached[T any](ctx context.Context, agg Aggregator, key string, ttl time.Duration, build func(ctx context.Context) (T, error)) (T, error) {
	ctx = context.WithoutCancel(ctx)

	cached, err := cache.GetJSON[T](ctx, agg.Store, key)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		agg.Tel.ReportBroken(report_cache_read, err, key)
	}

	value, err := build(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	err = cache.SetJSON(ctx, agg.Store, key, value, ttl)
	if err != nil {
		agg.Tel.ReportBroken(report_cache_write, err, key)
	}
	return value, nil
}

// Plan is everything Collect needs to know about one resource.
type Plan[T any] struct {
	Target Target
	// Key of the aggregate, defaults to Target.ListKey().
	Key    string
	List   func(ctx context.Context) ([]ListEntry, error)
	Detail func(ctx context.Context, entry ListEntry) (T, error)
	// Sort is applied (stably) after merging, nil keeps list order.
	Sort func(a, b T) int
}

// Collect runs a plan. It never fails: a broken list page yields an empty slice and
// broken detail pages are left out. Empty results are not cached.
func Collect[T any](ctx context.Context, agg Aggregator, plan Plan[T]) []T {
	ctx = context.WithoutCancel(ctx)

	key := plan.Key
	if key == "" {
		key = plan.Target.ListKey()
	}

	ctx, span := tracer.Start(ctx, "Collect")
	defer span.End()
	span.SetAttributes(attribute.String("cache_key", key))

	cached, err := cache.GetJSON[[]T](ctx, agg.Store, key)
	if err == nil {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached
	}
	if !errors.Is(err, cache.ErrNotFound) {
		agg.Tel.ReportBroken(report_cache_read, err, key)
	}

	entries, err := plan.List(ctx)
	if err != nil {
		agg.Tel.ReportBroken(report_list, err, plan.Target.ListURL)
		return []T{}
	}
	span.SetAttributes(attribute.Int("list_entries", len(entries)))

	merged := fetchDetails(ctx, agg, plan, entries)
	if plan.Sort != nil {
		slices.SortStableFunc(merged, plan.Sort)
	}
	agg.Tel.ReportCount(report_collected, int64(len(merged)))

	if len(merged) > 0 {
		err = cache.SetJSON(ctx, agg.Store, key, merged, plan.Target.TTL)
		if err != nil {
			agg.Tel.ReportBroken(report_cache_write, err, key)
		}
	}
	return merged
}

func fetchDetails[T any](ctx context.Context, agg Aggregator, plan Plan[T], entries []ListEntry) []T {
	type slot struct {
		value T
		ok    bool
	}
	slots := make([]slot, len(entries))

	wg := sync.WaitGroup{}
	for i, entry := range entries {
		wg.Add(1)
		go func() {
			defer wg.Done()

			value, err := Cached(
				ctx, agg,
				plan.Target.ItemKey(entry.DetailURL),
				plan.Target.TTL,
				func(ctx context.Context) (T, error) {
					return plan.Detail(ctx, entry)
				},
			)
			if errors.Is(err, ErrIncomplete) {
				agg.Tel.ReportWarning(report_detail_skip, err, entry.DetailURL)
				return
			}
			if err != nil {
				agg.Tel.ReportBroken(report_detail, err, entry.DetailURL)
				return
			}
			slots[i] = slot{value: value, ok: true}
		}()
	}
	wg.Wait()

	merged := make([]T, 0, len(entries))
	for _, s := range slots {
		if s.ok {
			merged = append(merged, s.value)
		}
	}
	return merged
}

// Clear removes every cached entry of a target, aggregate and items alike.
func Clear(ctx context.Context, agg Aggregator, target Target) (int, error) {
	return agg.Store.DeletePrefix(ctx, target.Prefix())
}
