package provider

import (
	"context"
	"strconv"
	"time"

	"github.com/halluscan/halluscan/internal/cache"
)

// Cached wraps a backend so repeated score requests for the same input pair
// hit the cache instead of the model. Similarity keys are order-insensitive
// since Score is symmetric; entailment keys are not.
type Cached struct {
	backend Backend
	store   cache.Cache
	ttl     time.Duration
}

// NewCached creates a caching decorator around backend.
func NewCached(backend Backend, store cache.Cache, ttl time.Duration) *Cached {
	return &Cached{backend: backend, store: store, ttl: ttl}
}

// Name returns the wrapped backend's name.
func (c *Cached) Name() string {
	return c.backend.Name()
}

// Score returns the cached similarity when available.
func (c *Cached) Score(ctx context.Context, a, b string) (float64, error) {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	key := cache.Key("sim", c.backend.Name(), lo, hi)

	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	score, err := c.backend.Score(ctx, a, b)
	if err != nil {
		return 0, err
	}
	c.put(key, score)
	return score, nil
}

// Entail returns the cached entailment probability when available.
func (c *Cached) Entail(ctx context.Context, premise, hypothesis string) (float64, error) {
	key := cache.Key("entail", c.backend.Name(), premise, hypothesis)

	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	score, err := c.backend.Entail(ctx, premise, hypothesis)
	if err != nil {
		return 0, err
	}
	c.put(key, score)
	return score, nil
}

// Generate passes through uncached when the wrapped backend can generate;
// sampling is stochastic, so caching it would defeat self-consistency.
func (c *Cached) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	gen, ok := c.backend.(Generator)
	if !ok {
		return "", ErrUnavailable
	}
	return gen.Generate(ctx, prompt, opts)
}

// CanGenerate reports whether the wrapped backend supports generation.
func (c *Cached) CanGenerate() bool {
	_, ok := c.backend.(Generator)
	return ok
}

func (c *Cached) lookup(key string) (float64, bool) {
	data, ok := c.store.Get(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (c *Cached) put(key string, score float64) {
	_ = c.store.Set(key, []byte(strconv.FormatFloat(score, 'g', -1, 64)), c.ttl)
}
