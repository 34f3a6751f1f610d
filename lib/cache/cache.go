package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/purell"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

// Store maps string keys to serialized values with a time-to-live.
// Concurrent Set calls for the same key are last-write-wins.
//
// note: fault injection point
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes a key, deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix and returns how many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Close() error
}

// Sweeper is implemented by stores that keep expired entries around until they are
// read, Sweep removes them in bulk.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

var tracer = otel.Tracer("unifeed.lib.cache")
var meter = otel.Meter("unifeed.lib.cache")
var lookups, _ = meter.Int64Counter(
	"cache_lookups",
	metric.WithDescription("cache reads partitioned by result (hit, miss, error)"),
)

func recordLookup(ctx context.Context, driver string, err error) {
	result := "hit"
	if errors.Is(err, ErrNotFound) {
		result = "miss"
	} else if err != nil {
		result = "error"
	}
	lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("driver", driver),
		attribute.String("result", result),
	))
}

// GetJSON reads key and unmarshals it into a T.
func GetJSON[T any](ctx context.Context, store Store, key string) (T, error) {
	var out T
	raw, err := store.Get(ctx, key)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	if err != nil {
		return out, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return out, nil
}

// SetJSON marshals value and stores it under key.
func SetJSON(ctx context.Context, store Store, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return store.Set(ctx, key, raw, ttl)
}

// Key joins key parts with ':'.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// URLKey normalizes a url so that trivially different spellings of the same page
// (fragment, default port, query order, index.html) share a cache entry.
// Unparseable urls are used as is.
func URLKey(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return link
	}
	return purell.NormalizeURL(
		parsed,
		purell.FlagsSafe|
			purell.FlagRemoveDotSegments|
			purell.FlagRemoveDuplicateSlashes|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
}
