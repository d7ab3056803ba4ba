package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/besttest/besttest/internal/executor"
	"github.com/besttest/besttest/pkg/types"
)

// Progress is called after each case has been executed.
type Progress func(done, total int, c types.CaseView, out executor.Outcome)

// RunAll executes every case in order with exec and stores the outcome as
// the case's verdict, with its screenshots as evidence. Executor errors become a Failed verdict carrying the
// error text; cancelling ctx stops the run and leaves the remaining cases
// Not Tested.
func (s *Session) RunAll(ctx context.Context, exec executor.Executor, progress Progress, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if st := s.State(); st != InProgress {
		if st == Idle {
			return types.ErrSessionNotStarted
		}
		return types.ErrSessionFinished
	}

	cases := s.Cases()
	for i, c := range cases {
		if err := ctx.Err(); err != nil {
			logger.Warn("run cancelled", "done", i, "total", len(cases))
			return err
		}
		s.Seek(i)

		out, err := exec.Run(ctx, c)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			logger.Debug("executor error", "case", c.ID, "error", err)
			out = executor.Outcome{Verdict: types.VerdictFailed, Message: err.Error()}
		}
		if !out.Verdict.Valid() {
			out.Verdict = types.VerdictNotTested
		}
		if err := s.SetVerdict(c.Key, out.Verdict, out.Message); err != nil {
			return fmt.Errorf("record verdict for %s: %w", c.ID, err)
		}
		if len(out.Screenshots) > 0 {
			if err := s.SetEvidence(c.Key, out.Screenshots); err != nil {
				return fmt.Errorf("record evidence for %s: %w", c.ID, err)
			}
		}
		logger.Debug("case executed", "case", c.ID, "verdict", out.Verdict, "duration", out.Duration)
		if progress != nil {
			progress(i+1, len(cases), c, out)
		}
	}
	return nil
}
