// Package rankcache provides a short-lived Redis cache for ranked search
// responses, keyed by coarse viewport geohash and filter set.
package rankcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"

	"github.com/accessmate/accessrank/internal/geo"
	"github.com/accessmate/accessrank/internal/rank"
)

// DefaultTTL is the cache entry lifetime. Ranked results go stale quickly
// (sponsorship windows, de-boosts), so entries are short-lived.
const DefaultTTL = 30 * time.Second

// keyPrefix namespaces ranking cache keys in Redis.
const keyPrefix = "rank:v1:"

// ErrMiss is returned when no cached entry exists for a key.
var ErrMiss = errors.New("rank cache miss")

// Cache stores CBOR-encoded ranked responses in Redis. All failures are
// soft: callers treat a cache error like a miss and recompute, so Redis
// outages degrade latency, not availability.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a Cache with the given TTL. A ttl <= 0 uses DefaultTTL.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// extentBandBase anchors the log-scaled extent bands. Searches whose extent
// falls in the same band (roughly a factor of two apart) share a key;
// order-of-magnitude differences never do.
const extentBandBase = 250.0 // meters

// metersPerDegree approximates one degree of latitude for extent bucketing.
const metersPerDegree = 111_000.0

// Key derives a deterministic cache key from a ranking request. The viewport
// contributes two components: a geohash of the scope center, coarsened for
// larger extents so adjacent map views share an entry, and a log-scaled
// extent band so a street-level search never serves a city-level one.
// Filters are normalized and sorted so token order does not split the cache.
func Key(req rank.Request) string {
	var lat, lng, extentMeters float64
	if req.Scope.Bounds != nil {
		b := req.Scope.Bounds
		lat, lng = b.Center()
		span := math.Max(b.MaxLat-b.MinLat, b.MaxLng-b.MinLng)
		extentMeters = span * metersPerDegree / 2
	} else {
		lat, lng = req.Scope.CenterLat, req.Scope.CenterLng
		extentMeters = req.Scope.RadiusMeters
	}
	band := extentBand(extentMeters)
	cell := geo.RoundGeohash(geo.Encode(lat, lng, geo.DefaultPrecision), cellPrecision(band))

	filters := make([]string, 0, len(req.AccessibilityFilters))
	for _, f := range req.AccessibilityFilters {
		filters = append(filters, strings.ToLower(strings.TrimSpace(f)))
	}
	sort.Strings(filters)

	return fmt.Sprintf("%s%s:e%d:%s:%s:%t:%d",
		keyPrefix, cell, band, req.Category, strings.Join(filters, ","), req.HideSponsored, req.Limit)
}

// extentBand buckets a search extent into doubling bands above the base.
func extentBand(meters float64) int {
	if meters <= extentBandBase {
		return 0
	}
	return int(math.Ceil(math.Log2(meters / extentBandBase)))
}

// cellPrecision coarsens the center geohash as the extent grows; a city-wide
// view should not fracture the cache across street-level cells.
func cellPrecision(band int) int {
	p := geo.DefaultPrecision - band/3
	if p < 3 {
		p = 3
	}
	return p
}

// cachedResponse is the CBOR envelope stored in Redis.
type cachedResponse struct {
	Results  []rank.RankedPlace `cbor:"results"`
	CachedAt time.Time          `cbor:"cached_at"`
}

// Get retrieves a cached ranked response. Returns ErrMiss when absent, and
// treats decode failures and Redis errors as misses after logging.
func (c *Cache) Get(ctx context.Context, key string) ([]rank.RankedPlace, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		c.logger.Warn("rank cache read failed", "key", key, "error", err)
		return nil, ErrMiss
	}

	var resp cachedResponse
	if err := cbor.Unmarshal(data, &resp); err != nil {
		// A corrupt entry is worse than a miss; drop it.
		c.logger.Warn("rank cache entry corrupt, deleting", "key", key, "error", err)
		if delErr := c.client.Del(ctx, key).Err(); delErr != nil {
			c.logger.Warn("failed to delete corrupt cache entry", "key", key, "error", delErr)
		}
		return nil, ErrMiss
	}
	return resp.Results, nil
}

// Set stores a ranked response under the key. Failures are logged and
// swallowed; caching is best-effort.
func (c *Cache) Set(ctx context.Context, key string, results []rank.RankedPlace) {
	data, err := cbor.Marshal(cachedResponse{
		Results:  results,
		CachedAt: time.Now().UTC(),
	})
	if err != nil {
		c.logger.Warn("rank cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("rank cache write failed", "key", key, "error", err)
	}
}

// Invalidate removes all cache entries. Used by admin flows after bulk
// sponsorship or verification changes.
func (c *Cache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return nil
}
