package telemetry

import (
	"context"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// Simulator emits Poisson-distributed count rates around a mean, for
// running the instrument without a detector.
type Simulator struct {
	Mean     float64
	Interval time.Duration
	Seed     uint64
}

// Run emits one frame per Interval until ctx is cancelled.
func (s Simulator) Run(ctx context.Context, frames chan<- string) error {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Second
	}
	counts := s.distribution()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			select {
			case frames <- Encode(int(counts.Rand())):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (s Simulator) distribution() distuv.Poisson {
	lambda := s.Mean
	if lambda <= 0 {
		// Poisson needs a positive rate; a near-zero mean yields zeros.
		lambda = 1e-9
	}
	return distuv.Poisson{
		Lambda: lambda,
		Src:    rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15),
	}
}
