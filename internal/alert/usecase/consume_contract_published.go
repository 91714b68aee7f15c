package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/bidwatch/internal/pkg/goerror"
)

type ConsumeContractPublishedInput struct {
	ContractID int64 `validate:"required"`
	Version    int32
}

// ConsumeContractPublished handles the contract_published event: it matches
// the single announcement against every alertable profile and enqueues jobs.
// A missing contract is logged and dropped rather than requeued forever.
func (s *Usecase) ConsumeContractPublished(ctx context.Context, in ConsumeContractPublishedInput) (err error) {
	ctx, span := s.startSpan(ctx, "ConsumeContractPublished")
	defer func() { s.endSpan(span, err) }()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "invalid contract published payload", "error", err)
		return nil
	}

	contract, err := s.repoDB.GetContract(ctx, in.ContractID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "contract published event for unknown contract", "contract_id", in.ContractID)
		return nil
	}
	if err != nil {
		return err
	}

	profiles, err := s.repoDB.ListAlertableProfiles(ctx)
	if err != nil {
		return err
	}

	report := s.matchAndEnqueue(ctx, *contract, profiles)
	slog.InfoContext(ctx, "contract published event processed",
		"contract_id", in.ContractID,
		"matches", report.Matches,
		"enqueued", report.Enqueued,
		"deduplicated", report.Deduplicated,
	)

	return nil
}
