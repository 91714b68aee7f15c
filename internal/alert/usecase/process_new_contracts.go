package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/bidwatch/internal/alert/entity"
	"github.com/shandysiswandi/bidwatch/internal/alert/matching"
	"github.com/shandysiswandi/bidwatch/internal/pkg/goerror"
	"github.com/shandysiswandi/bidwatch/internal/pkg/idempotency"
)

type ProcessNewContractsInput struct {
	Since       *time.Time
	ContractIDs []int64
}

// ProcessNewContracts matches recently published announcements against every
// alertable preference profile and enqueues contract_match jobs. Overlapping
// runs are rejected through the idempotency guard.
func (s *Usecase) ProcessNewContracts(ctx context.Context, in ProcessNewContractsInput) (_ entity.MatchReport, err error) {
	ctx, span := s.startSpan(ctx, "ProcessNewContracts")
	defer func() { s.endSpan(span, err) }()

	var report entity.MatchReport
	err = s.idemp.Exec(ctx, "alert:process_new_contracts", func(ctx context.Context) error {
		contracts, cErr := s.loadContracts(ctx, in)
		if cErr != nil {
			return cErr
		}

		profiles, pErr := s.repoDB.ListAlertableProfiles(ctx)
		if pErr != nil {
			return pErr
		}

		report.ContractsScanned = len(contracts)
		report.ProfilesScanned = len(profiles)

		for _, contract := range contracts {
			outcome := s.matchAndEnqueue(ctx, contract, profiles)
			report.Matches += outcome.Matches
			report.Enqueued += outcome.Enqueued
			report.Deduplicated += outcome.Deduplicated
		}

		return nil
	}, idempotency.WithLockDuration(s.cfg.GetMinute("modules.alert.trigger_lock_minutes")))

	if err != nil {
		return entity.MatchReport{}, s.mapIdempotencyError(err)
	}

	return report, nil
}

func (s *Usecase) loadContracts(ctx context.Context, in ProcessNewContractsInput) ([]entity.ContractAnnouncement, error) {
	if len(in.ContractIDs) > 0 {
		contracts := make([]entity.ContractAnnouncement, 0, len(in.ContractIDs))
		for _, id := range in.ContractIDs {
			contract, err := s.repoDB.GetContract(ctx, id)
			if err != nil {
				return nil, err
			}
			contracts = append(contracts, *contract)
		}
		return contracts, nil
	}

	since := s.clock.Now().Add(-s.cfg.GetHour("modules.alert.match_window_hours"))
	if in.Since != nil {
		since = *in.Since
	}

	return s.repoDB.ListContractsPublishedSince(ctx, since)
}

// matchAndEnqueue runs the matcher for one contract across all profiles and
// enqueues a job per match. Enqueue failures are logged and counted, never
// fatal for the rest of the batch.
func (s *Usecase) matchAndEnqueue(ctx context.Context, contract entity.ContractAnnouncement, profiles []entity.UserPreferenceProfile) entity.MatchReport {
	var report entity.MatchReport

	for _, profile := range profiles {
		result, ok := matching.Match(profile, contract)
		if !ok {
			continue
		}
		report.Matches++

		created, err := s.repoDB.Enqueue(ctx, entity.EnqueueJob{
			ID:              s.uid.Generate(),
			UserID:          profile.UserID,
			ContractID:      contract.ID,
			ContractVersion: contract.Version,
			Type:            entity.JobTypeContractMatch,
			Priority:        priorityNormal,
			Payload:         contractPayload(contract, result.Reasons),
			ScheduledAt:     s.scheduleFor(profile),
			MaxRetries:      defaultMaxRetries,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to enqueue contract match job",
				"user_id", profile.UserID, "contract_id", contract.ID, "error", err)
			continue
		}

		if created {
			report.Enqueued++
		} else {
			report.Deduplicated++
		}
	}

	return report
}

func (s *Usecase) mapIdempotencyError(err error) error {
	switch err {
	case idempotency.ErrAlreadyInProgress:
		return goerror.NewBusiness("A run is already in progress", goerror.CodeConflict)
	case idempotency.ErrAlreadyCompleted, idempotency.ErrAlreadyFailed:
		return goerror.NewBusiness("A run finished moments ago, try again shortly", goerror.CodeConflict)
	default:
		return err
	}
}
