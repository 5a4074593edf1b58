// Package geodata loads national map geometry (grid network and settlement
// clusters) from the geometry file server, caching per country.
package geodata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/gridlume/electromap/internal/logging"
	"github.com/gridlume/electromap/model"
)

const (
	// DefaultTimeout bounds one geometry file download.
	DefaultTimeout = 30 * time.Second

	// DefaultCacheSize is the number of countries kept in process memory.
	// Geometry is immutable per deploy, so eviction only matters for
	// memory, not freshness.
	DefaultCacheSize = 16

	// defaultRedisTTL bounds shared-cache entries so a data redeploy is
	// picked up within a day.
	defaultRedisTTL = 24 * time.Hour
)

// CacheObserver receives cache hit/miss events. Optional.
type CacheObserver interface {
	ObserveGeometryCache(hit bool)
}

// Source fetches and caches country geometry. It satisfies
// explore.GeometrySource. Lookups go memory cache, then the shared Redis
// cache when configured, then the file server; concurrent misses for the
// same country collapse into one fetch.
type Source struct {
	base     string
	http     *http.Client
	cache    *lru.Cache[string, *model.CountryGeometry]
	group    singleflight.Group
	redis    *redis.Client
	redisTTL time.Duration
	observer CacheObserver
	log      logging.Logger
}

// Option customizes a Source.
type Option func(*Source)

// WithRedis adds a shared Redis cache layer between the in-process cache and
// the file server.
func WithRedis(client *redis.Client, ttl time.Duration) Option {
	return func(s *Source) {
		s.redis = client
		if ttl > 0 {
			s.redisTTL = ttl
		}
	}
}

// WithCacheObserver attaches hit/miss metrics.
func WithCacheObserver(o CacheObserver) Option {
	return func(s *Source) { s.observer = o }
}

// NewSource builds a geometry source against the given base URL, e.g.
// "http://geodata:8080/countries".
func NewSource(base string, timeout time.Duration, log logging.Logger, opts ...Option) (*Source, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logging.Noop()
	}
	cache, err := lru.New[string, *model.CountryGeometry](DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create geometry cache: %w", err)
	}
	s := &Source{
		base: base,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cache:    cache,
		redisTTL: defaultRedisTTL,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CountryGeometry returns the grid and cluster collections for a country.
func (s *Source) CountryGeometry(ctx context.Context, country string) (*model.CountryGeometry, error) {
	if geom, ok := s.cache.Get(country); ok {
		s.observe(true)
		return geom, nil
	}
	s.observe(false)

	v, err, _ := s.group.Do(country, func() (interface{}, error) {
		if geom, ok := s.cache.Get(country); ok {
			return geom, nil
		}
		geom, err := s.load(ctx, country)
		if err != nil {
			return nil, err
		}
		s.cache.Add(country, geom)
		return geom, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.CountryGeometry), nil
}

func (s *Source) load(ctx context.Context, country string) (*model.CountryGeometry, error) {
	if geom, ok := s.loadRedis(ctx, country); ok {
		return geom, nil
	}

	var grid, clusters *model.FeatureCollection
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fc, err := s.fetchCollection(ctx, country, "grid")
		grid = fc
		return err
	})
	g.Go(func() error {
		fc, err := s.fetchCollection(ctx, country, "clusters")
		clusters = fc
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	geom := &model.CountryGeometry{Grid: grid, Clusters: clusters}
	s.storeRedis(ctx, country, geom)
	s.log.Info(ctx, "loaded country geometry",
		logging.String("country", country),
		logging.Int("clusters", len(clusters.Features)),
	)
	return geom, nil
}

func (s *Source) fetchCollection(ctx context.Context, country, name string) (*model.FeatureCollection, error) {
	url := fmt.Sprintf("%s/%s/%s.geojson", s.base, country, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build geometry request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s geometry for %s: %w", name, country, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("geometry server returned status %d for %s/%s: %s",
			resp.StatusCode, country, name, body)
	}

	var fc model.FeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode %s geometry for %s: %w", name, country, err)
	}
	return &fc, nil
}

func (s *Source) loadRedis(ctx context.Context, country string) (*model.CountryGeometry, bool) {
	if s.redis == nil {
		return nil, false
	}
	raw, err := s.redis.Get(ctx, redisKey(country)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn(ctx, "redis geometry read failed",
				logging.String("country", country), logging.Err(err))
		}
		return nil, false
	}
	var geom model.CountryGeometry
	if err := json.Unmarshal(raw, &geom); err != nil {
		s.log.Warn(ctx, "corrupt redis geometry entry",
			logging.String("country", country), logging.Err(err))
		return nil, false
	}
	return &geom, true
}

func (s *Source) storeRedis(ctx context.Context, country string, geom *model.CountryGeometry) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(geom)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, redisKey(country), raw, s.redisTTL).Err(); err != nil {
		s.log.Warn(ctx, "redis geometry write failed",
			logging.String("country", country), logging.Err(err))
	}
}

func redisKey(country string) string { return "geometry:" + country }

func (s *Source) observe(hit bool) {
	if s.observer != nil {
		s.observer.ObserveGeometryCache(hit)
	}
}
