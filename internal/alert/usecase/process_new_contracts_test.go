package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/bidwatch/internal/alert/entity"
	"github.com/shandysiswandi/bidwatch/internal/pkg/goerror"
	"github.com/shandysiswandi/bidwatch/internal/pkg/idempotency"
)

func ictContract(id int64) entity.ContractAnnouncement {
	value := int64(50_000_000)
	return entity.ContractAnnouncement{
		ID:              id,
		Version:         1,
		Title:           "Supply of ICT Equipment",
		Agency:          "Ministry of Works",
		Category:        "Goods",
		Location:        "Kampala",
		ProcurementType: "Open Bidding",
		EstimatedValue:  &value,
	}
}

func TestProcessNewContracts(t *testing.T) {
	t.Run("matches_and_enqueues_per_profile", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			listContractsFn: func(context.Context, time.Time) ([]entity.ContractAnnouncement, error) {
				return []entity.ContractAnnouncement{ictContract(100)}, nil
			},
			listProfilesFn: func(context.Context) ([]entity.UserPreferenceProfile, error) {
				return []entity.UserPreferenceProfile{
					{UserID: 1, Industries: []string{"Information Technology"}, EmailAlerts: true},
					{UserID: 2, Industries: []string{"Healthcare"}, EmailAlerts: true},
					{UserID: 3, EmailAlerts: true},
				}, nil
			},
		}
		uc := newTestUsecase(&testDeps{repo: repo})

		// Act
		report, err := uc.ProcessNewContracts(context.Background(), ProcessNewContractsInput{})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.ContractsScanned != 1 || report.ProfilesScanned != 3 {
			t.Fatalf("unexpected scan counts: %+v", report)
		}
		// the IT profile and the empty profile match, healthcare does not
		if report.Matches != 2 || report.Enqueued != 2 {
			t.Fatalf("expected 2 matches enqueued, got %+v", report)
		}
		if len(repo.enqueued) != 2 {
			t.Fatalf("expected 2 enqueue calls, got %d", len(repo.enqueued))
		}
		if repo.enqueued[0].Type != entity.JobTypeContractMatch {
			t.Fatalf("expected contract_match jobs, got %s", repo.enqueued[0].Type)
		}
	})

	t.Run("digest_profile_defers_to_next_digest_hour", func(t *testing.T) {
		// Arrange: noon run, digest sends at 08:00, so the job waits for tomorrow
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		repo := &fakeRepo{
			listContractsFn: func(context.Context, time.Time) ([]entity.ContractAnnouncement, error) {
				return []entity.ContractAnnouncement{ictContract(100)}, nil
			},
			listProfilesFn: func(context.Context) ([]entity.UserPreferenceProfile, error) {
				return []entity.UserPreferenceProfile{
					{UserID: 1, EmailAlerts: true},
					{UserID: 2, EmailAlerts: true, Frequency: entity.FrequencyDailyDigest},
				}, nil
			},
		}
		uc := newTestUsecase(&testDeps{repo: repo, now: now})

		// Act
		_, err := uc.ProcessNewContracts(context.Background(), ProcessNewContractsInput{})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(repo.enqueued) != 2 {
			t.Fatalf("expected both profiles enqueued, got %d", len(repo.enqueued))
		}
		if !repo.enqueued[0].ScheduledAt.Equal(now) {
			t.Fatalf("expected real-time job due immediately, got %v", repo.enqueued[0].ScheduledAt)
		}
		wantDigest := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
		if !repo.enqueued[1].ScheduledAt.Equal(wantDigest) {
			t.Fatalf("expected digest job due at %v, got %v", wantDigest, repo.enqueued[1].ScheduledAt)
		}
	})

	t.Run("duplicate_jobs_count_as_deduplicated", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			listContractsFn: func(context.Context, time.Time) ([]entity.ContractAnnouncement, error) {
				return []entity.ContractAnnouncement{ictContract(100)}, nil
			},
			listProfilesFn: func(context.Context) ([]entity.UserPreferenceProfile, error) {
				return []entity.UserPreferenceProfile{{UserID: 1, EmailAlerts: true}}, nil
			},
			enqueueFn: func(context.Context, entity.EnqueueJob) (bool, error) {
				return false, nil
			},
		}
		uc := newTestUsecase(&testDeps{repo: repo})

		// Act
		report, err := uc.ProcessNewContracts(context.Background(), ProcessNewContractsInput{})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Matches != 1 || report.Enqueued != 0 || report.Deduplicated != 1 {
			t.Fatalf("expected one deduplicated match, got %+v", report)
		}
	})

	t.Run("explicit_contract_ids_bypass_window", func(t *testing.T) {
		// Arrange
		var requested []int64
		repo := &fakeRepo{
			getContractFn: func(_ context.Context, id int64) (*entity.ContractAnnouncement, error) {
				requested = append(requested, id)
				contract := ictContract(id)
				return &contract, nil
			},
			listContractsFn: func(context.Context, time.Time) ([]entity.ContractAnnouncement, error) {
				t.Fatalf("window scan must not run when contract IDs are given")
				return nil, nil
			},
			listProfilesFn: func(context.Context) ([]entity.UserPreferenceProfile, error) {
				return nil, nil
			},
		}
		uc := newTestUsecase(&testDeps{repo: repo})

		// Act
		report, err := uc.ProcessNewContracts(context.Background(), ProcessNewContractsInput{ContractIDs: []int64{100, 101}})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(requested) != 2 || report.ContractsScanned != 2 {
			t.Fatalf("expected both contracts loaded by ID, got %v", requested)
		}
	})

	t.Run("enqueue_error_does_not_abort_run", func(t *testing.T) {
		// Arrange
		calls := 0
		repo := &fakeRepo{
			listContractsFn: func(context.Context, time.Time) ([]entity.ContractAnnouncement, error) {
				return []entity.ContractAnnouncement{ictContract(100)}, nil
			},
			listProfilesFn: func(context.Context) ([]entity.UserPreferenceProfile, error) {
				return []entity.UserPreferenceProfile{
					{UserID: 1, EmailAlerts: true},
					{UserID: 2, EmailAlerts: true},
				}, nil
			},
			enqueueFn: func(_ context.Context, job entity.EnqueueJob) (bool, error) {
				calls++
				if job.UserID == 1 {
					return false, errors.New("insert failed")
				}
				return true, nil
			},
		}
		uc := newTestUsecase(&testDeps{repo: repo})

		// Act
		report, err := uc.ProcessNewContracts(context.Background(), ProcessNewContractsInput{})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 2 {
			t.Fatalf("expected the run to continue past the failed enqueue, got %d calls", calls)
		}
		if report.Matches != 2 || report.Enqueued != 1 {
			t.Fatalf("expected one successful enqueue out of two matches, got %+v", report)
		}
	})

	t.Run("concurrent_run_is_rejected", func(t *testing.T) {
		// Arrange
		idemp := &fakeIdempotency{execErr: idempotency.ErrAlreadyInProgress}
		uc := newTestUsecase(&testDeps{idemp: idemp})

		// Act
		_, err := uc.ProcessNewContracts(context.Background(), ProcessNewContractsInput{})

		// Assert
		if err == nil {
			t.Fatalf("expected a conflict error")
		}
		var gerr *goerror.Error
		if !errors.As(err, &gerr) {
			t.Fatalf("expected goerror.Error, got %T", err)
		}
		if gerr.StatusCode() != 409 {
			t.Fatalf("expected 409 conflict, got %d", gerr.StatusCode())
		}
	})
}

func TestConsumeContractPublished(t *testing.T) {
	t.Run("matches_single_contract", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			getContractFn: func(_ context.Context, id int64) (*entity.ContractAnnouncement, error) {
				contract := ictContract(id)
				return &contract, nil
			},
			listProfilesFn: func(context.Context) ([]entity.UserPreferenceProfile, error) {
				return []entity.UserPreferenceProfile{{UserID: 1, EmailAlerts: true}}, nil
			},
		}
		uc := newTestUsecase(&testDeps{repo: repo})

		// Act
		err := uc.ConsumeContractPublished(context.Background(), ConsumeContractPublishedInput{ContractID: 100, Version: 1})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(repo.enqueued) != 1 {
			t.Fatalf("expected one job enqueued, got %d", len(repo.enqueued))
		}
	})

	t.Run("unknown_contract_is_dropped", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			getContractFn: func(context.Context, int64) (*entity.ContractAnnouncement, error) {
				return nil, goerror.ErrNotFound
			},
		}
		uc := newTestUsecase(&testDeps{repo: repo})

		// Act
		err := uc.ConsumeContractPublished(context.Background(), ConsumeContractPublishedInput{ContractID: 999})

		// Assert
		if err != nil {
			t.Fatalf("expected unknown contract to be dropped without error, got %v", err)
		}
	})

	t.Run("transient_db_error_is_returned_for_redelivery", func(t *testing.T) {
		// Arrange
		dbErr := errors.New("connection reset")
		repo := &fakeRepo{
			getContractFn: func(context.Context, int64) (*entity.ContractAnnouncement, error) {
				return nil, dbErr
			},
		}
		uc := newTestUsecase(&testDeps{repo: repo})

		// Act
		err := uc.ConsumeContractPublished(context.Background(), ConsumeContractPublishedInput{ContractID: 100})

		// Assert
		if !errors.Is(err, dbErr) {
			t.Fatalf("expected the database error to propagate, got %v", err)
		}
	})
}
