package janitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/homehaven/marketplace-api/internal/api/metrics"
	"github.com/homehaven/marketplace-api/internal/core/ports"
)

const (
	defaultInterval = time.Hour
	sweepTimeout    = 30 * time.Second
)

// Janitor periodically deletes expired refresh-token records. Expiry alone
// already makes a record unusable; this only keeps the collection from
// growing without bound.
type Janitor struct {
	tokens   ports.RefreshTokenRepository
	interval time.Duration
	log      zerolog.Logger
}

// New creates a Janitor sweeping at the given interval.
// If interval <= 0, defaultInterval is used.
func New(tokens ports.RefreshTokenRepository, interval time.Duration, log zerolog.Logger) *Janitor {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Janitor{tokens: tokens, interval: interval, log: log}
}

// Start launches the sweep loop. It stops when ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	go j.run(ctx)
}

func (j *Janitor) run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	n, err := j.tokens.DeleteExpired(sweepCtx)
	if err != nil {
		j.log.Warn().Err(err).Msg("refresh token sweep failed")
		return
	}
	if n > 0 {
		metrics.RefreshTokensSweptTotal.Add(float64(n))
		j.log.Debug().Int64("deleted", n).Msg("swept expired refresh tokens")
	}
}
