package executor

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/besttest/besttest/pkg/types"
)

// DefaultPassRatio is the share of simulated runs that pass.
const DefaultPassRatio = 0.8

// Simulated stands in for a real backend: each case passes with probability
// PassRatio after Delay.
type Simulated struct {
	PassRatio float64
	Delay     time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSimulated returns a Simulated executor. A zero seed uses the clock.
func NewSimulated(passRatio float64, delay time.Duration, seed int64) *Simulated {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if passRatio < 0 || passRatio > 1 {
		passRatio = DefaultPassRatio
	}
	return &Simulated{
		PassRatio: passRatio,
		Delay:     delay,
		rnd:       rand.New(rand.NewSource(seed)),
	}
}

// Run waits for Delay and picks a verdict.
func (s *Simulated) Run(ctx context.Context, c types.CaseView) (Outcome, error) {
	start := time.Now()
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		case <-timer.C:
		}
	}

	s.mu.Lock()
	roll := s.rnd.Float64()
	s.mu.Unlock()

	out := Outcome{Duration: time.Since(start)}
	if roll < s.PassRatio {
		out.Verdict = types.VerdictPassed
		out.Message = fmt.Sprintf("Test '%s' passed successfully", c.Name)
	} else {
		out.Verdict = types.VerdictFailed
		out.Message = fmt.Sprintf("Test '%s' failed", c.Name)
	}
	return out, nil
}
