package usecase

import (
	"context"

	"github.com/shandysiswandi/bidwatch/internal/pkg/goerror"
)

// ReclaimStale reverts processing jobs whose worker crashed mid-delivery
// back to pending. The sweep runs periodically in the background; reclaimed
// jobs keep their retry count.
func (s *Usecase) ReclaimStale(ctx context.Context) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "ReclaimStale")
	defer func() { s.endSpan(span, err) }()

	staleAfter := s.cfg.GetMinute("modules.alert.stale_after_minutes")
	cutoff := s.clock.Now().Add(-staleAfter)

	count, err := s.repoDB.ReclaimStale(ctx, cutoff)
	if err != nil {
		return 0, goerror.NewServer(err)
	}

	return count, nil
}
