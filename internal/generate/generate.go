// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate turns text chunks into training records with one model
// request per chunk. Transient failures are retried with backoff; malformed
// replies fail the chunk.
package generate

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/yitzshapiro/synthetic-data-generator/internal/httputil"
	"github.com/yitzshapiro/synthetic-data-generator/pkg/types"
)

// DefaultTimeout bounds one request attempt when none is configured.
const DefaultTimeout = 120 * time.Second

// Generator produces one record per chunk. It is safe for concurrent use;
// the rate limiter is shared by all callers.
type Generator struct {
	backend    Backend
	limiter    *rate.Limiter
	maxRetries int
	timeout    time.Duration
	maxTokens  int
	tempMin    float64
	tempMax    float64
	log        zerolog.Logger

	// randFloat returns a value in [0, 1). Tests replace it.
	randFloat func() float64
}

// New returns a Generator that sends requests through backend.
func New(backend Backend, cfg types.AIConfig, log zerolog.Logger) *Generator {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	lo, hi := cfg.TemperatureMin, cfg.TemperatureMax
	if lo > hi {
		lo, hi = hi, lo
	}
	return &Generator{
		backend:    backend,
		limiter:    rate.NewLimiter(limit, burst),
		maxRetries: cfg.MaxRetries,
		timeout:    timeout,
		maxTokens:  cfg.MaxTokens,
		tempMin:    lo,
		tempMax:    hi,
		log:        log,
		randFloat:  rand.Float64,
	}
}

// Generate asks the model for one record of the given mode grounded in
// chunk. A reply that does not contain every required field returns a
// *GenerationError; exhausted retries return the last transient error.
func (g *Generator) Generate(ctx context.Context, chunk types.Chunk, mode types.Mode) (types.Record, error) {
	req, err := buildRequest(mode, chunk.Text)
	if err != nil {
		return nil, err
	}
	req.Temperature = g.temperature()
	req.MaxTokens = g.maxTokens

	attempt := 0
	reply, err := httputil.Retry(ctx, g.maxRetries, func(ctx context.Context) (string, error) {
		attempt++
		if err := g.limiter.Wait(ctx); err != nil {
			return "", err
		}
		actx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		out, err := g.backend.Complete(actx, req)
		if err != nil && httputil.IsTransient(err) {
			g.log.Debug().Err(err).
				Str("chunk", chunk.SourceRef()).
				Int("attempt", attempt).
				Msg("transient model failure")
		}
		return out, err
	})
	if err != nil {
		var ge *GenerationError
		if errors.As(err, &ge) && ge.Mode == "" {
			ge.Mode = mode
		}
		return nil, err
	}
	return parseResponse(mode, reply, chunk)
}

func (g *Generator) temperature() float64 {
	return g.tempMin + g.randFloat()*(g.tempMax-g.tempMin)
}
