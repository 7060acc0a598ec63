package provider

import (
	"context"

	"golang.org/x/time/rate"
)

// Limited gates every backend call through a token-bucket limiter so batch
// evaluation cannot stampede a remote API.
type Limited struct {
	backend Backend
	limiter *rate.Limiter
}

// NewLimited creates a rate-limited decorator around backend.
func NewLimited(backend Backend, perSecond float64, burst int) *Limited {
	if burst <= 0 {
		burst = 1
	}
	return &Limited{
		backend: backend,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Name returns the wrapped backend's name.
func (l *Limited) Name() string {
	return l.backend.Name()
}

// Score waits for limiter clearance, then delegates.
func (l *Limited) Score(ctx context.Context, a, b string) (float64, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return l.backend.Score(ctx, a, b)
}

// Entail waits for limiter clearance, then delegates.
func (l *Limited) Entail(ctx context.Context, premise, hypothesis string) (float64, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return l.backend.Entail(ctx, premise, hypothesis)
}

// CanGenerate reports whether the wrapped backend supports generation.
func (l *Limited) CanGenerate() bool {
	return CanGenerate(l.backend)
}

// Generate waits for limiter clearance, then delegates; ErrUnavailable when
// the wrapped backend cannot generate.
func (l *Limited) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	gen, ok := l.backend.(Generator)
	if !ok {
		return "", ErrUnavailable
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return gen.Generate(ctx, prompt, opts)
}
