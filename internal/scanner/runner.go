// internal/scanner/runner.go
package scanner

import (
	"context"
	"time"
)

// Run scans, then waits Interval, until ctx is done.
// One goroutine. No overlap. No retries within a cycle.
func (s *Scanner) Run(ctx context.Context) error {
	s.log.Info("scanner started", "blocks", len(s.cfg.Blocks), "interval", s.cfg.Interval)
	defer s.log.Info("scanner stopped")

	for {
		res := s.ScanOnce(ctx)
		if res.Interrupted || ctx.Err() != nil {
			return nil
		}

		wait := time.NewTimer(s.cfg.Interval)
		select {
		case <-ctx.Done():
			wait.Stop()
			return nil
		case <-wait.C:
		}
	}
}
