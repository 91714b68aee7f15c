package inbound

import (
	"github.com/shandysiswandi/bidwatch/internal/alert/entity"
	"github.com/shandysiswandi/bidwatch/internal/alert/usecase"
	"github.com/shandysiswandi/bidwatch/internal/pkg/goerror"
	"github.com/shandysiswandi/bidwatch/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// ProcessNewContracts matches new announcements and enqueues notifications.
// @Summary Process new contracts
// @Description Matches recently published contract announcements against user preferences and enqueues notification jobs.
// @Tags Alert
// @Accept json
// @Param request body ProcessNewContractsRequest false "Optional matching window"
// @Success 200 {object} router.successResponse{data=MatchReportResponse} "Match report"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 409 {object} router.errorResponse "Run already in progress"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/alert/process-new-contracts [post]
func (h *HTTPEndpoint) ProcessNewContracts(r *router.Request) (any, error) {
	var req ProcessNewContractsRequest
	if r.ContentLength > 0 {
		if err := r.DecodeBody(&req); err != nil {
			return nil, err
		}
	}

	report, err := h.uc.ProcessNewContracts(r.Context(), usecase.ProcessNewContractsInput{
		Since:       req.Since,
		ContractIDs: req.ContractIDs,
	})
	if err != nil {
		return nil, err
	}

	return MatchReportResponse{
		ContractsScanned: report.ContractsScanned,
		ProfilesScanned:  report.ProfilesScanned,
		Matches:          report.Matches,
		Enqueued:         report.Enqueued,
		Deduplicated:     report.Deduplicated,
	}, nil
}

// SendDeadlineReminders enqueues reminders for approaching bid deadlines.
// @Summary Send deadline reminders
// @Description Scans active tracked deadlines and enqueues reminder jobs at the 7, 3 and 1 day marks.
// @Tags Alert
// @Success 200 {object} router.successResponse{data=ReminderReportResponse} "Reminder report"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 409 {object} router.errorResponse "Run already in progress"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/alert/deadline-reminders [post]
func (h *HTTPEndpoint) SendDeadlineReminders(r *router.Request) (any, error) {
	report, err := h.uc.SendDeadlineReminders(r.Context())
	if err != nil {
		return nil, err
	}

	return ReminderReportResponse{
		DeadlinesScanned: report.DeadlinesScanned,
		Enqueued:         report.Enqueued,
		Deduplicated:     report.Deduplicated,
	}, nil
}

// ProcessPending drains a batch of due notification jobs.
// @Summary Process pending notifications
// @Description Claims a batch of due jobs and delivers them over the user's enabled channels.
// @Tags Alert
// @Accept json
// @Param request body ProcessPendingRequest false "Optional batch size"
// @Success 200 {object} router.successResponse{data=ProcessReportResponse} "Process report"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/alert/notifications/process-pending [post]
func (h *HTTPEndpoint) ProcessPending(r *router.Request) (any, error) {
	var req ProcessPendingRequest
	if r.ContentLength > 0 {
		if err := r.DecodeBody(&req); err != nil {
			return nil, err
		}
	}

	report, err := h.uc.ProcessPending(r.Context(), usecase.ProcessPendingInput{BatchSize: req.BatchSize})
	if err != nil {
		return nil, err
	}

	return ProcessReportResponse{
		Claimed: report.Claimed,
		Sent:    report.Sent,
		Retried: report.Retried,
		Failed:  report.Failed,
		Errors:  report.Errors,
	}, nil
}

// QueueStats returns queue counts per status.
// @Summary Queue statistics
// @Description Returns job counts per status and the overall delivery success rate.
// @Tags Alert
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=QueueStatsResponse} "Queue statistics"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/alert/notifications/stats [get]
func (h *HTTPEndpoint) QueueStats(r *router.Request) (any, error) {
	stats, err := h.uc.QueueStats(r.Context())
	if err != nil {
		return nil, err
	}

	return QueueStatsResponse{
		Pending:     stats.Pending,
		Processing:  stats.Processing,
		Sent:        stats.Sent,
		Failed:      stats.Failed,
		Cancelled:   stats.Cancelled,
		SuccessRate: stats.SuccessRate,
	}, nil
}

// RetryNotification resets a failed notification job.
// @Summary Retry notification
// @Description Resets a failed job so the processor picks it up again.
// @Tags Alert
// @Security BearerAuth
// @Param id path int true "Notification job ID"
// @Success 204 "No Content"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Not retryable"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/alert/notifications/{id}/retry [post]
func (h *HTTPEndpoint) RetryNotification(r *router.Request) (any, error) {
	jobID, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.RetryNotification(r.Context(), jobID)
}

// CancelNotification cancels a pending or processing notification job.
// @Summary Cancel notification
// @Description Cancels a job that has not reached a terminal state yet.
// @Tags Alert
// @Security BearerAuth
// @Param id path int true "Notification job ID"
// @Success 204 "No Content"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Not cancellable"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/alert/notifications/{id}/cancel [post]
func (h *HTTPEndpoint) CancelNotification(r *router.Request) (any, error) {
	jobID, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.CancelNotification(r.Context(), jobID)
}

// RetryAllFailed resets failed jobs, optionally scoped by user or contract.
// @Summary Retry all failed notifications
// @Description Resets failed jobs. An empty body resets every failed job; user_id and contract_id narrow the scope.
// @Tags Alert
// @Security BearerAuth
// @Accept json
// @Param request body BulkFilterRequest false "Optional scope"
// @Success 200 {object} router.successResponse{data=BulkCountResponse} "Affected count"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/alert/notifications/retry-failed [post]
func (h *HTTPEndpoint) RetryAllFailed(r *router.Request) (any, error) {
	filter, err := decodeBulkFilter(r)
	if err != nil {
		return nil, err
	}

	count, err := h.uc.RetryAllFailed(r.Context(), filter)
	if err != nil {
		return nil, err
	}

	return BulkCountResponse{Affected: count}, nil
}

// CancelAllPending cancels pending jobs, optionally scoped by user or
// contract. A contract-only scope covers cross-user events such as a
// retracted announcement.
// @Summary Cancel all pending notifications
// @Description Cancels pending jobs. An empty body cancels every pending job; user_id and contract_id narrow the scope.
// @Tags Alert
// @Security BearerAuth
// @Accept json
// @Param request body BulkFilterRequest false "Optional scope"
// @Success 200 {object} router.successResponse{data=BulkCountResponse} "Affected count"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/alert/notifications/cancel-pending [post]
func (h *HTTPEndpoint) CancelAllPending(r *router.Request) (any, error) {
	filter, err := decodeBulkFilter(r)
	if err != nil {
		return nil, err
	}

	count, err := h.uc.CancelAllPending(r.Context(), filter)
	if err != nil {
		return nil, err
	}

	return BulkCountResponse{Affected: count}, nil
}

func decodeBulkFilter(r *router.Request) (entity.BulkFilter, error) {
	var req BulkFilterRequest
	if r.ContentLength > 0 {
		if err := r.DecodeBody(&req); err != nil {
			return entity.BulkFilter{}, err
		}
	}
	if req.UserID < 0 {
		return entity.BulkFilter{}, goerror.NewInvalidInput(nil, "user_id", "must not be negative")
	}
	if req.ContractID < 0 {
		return entity.BulkFilter{}, goerror.NewInvalidInput(nil, "contract_id", "must not be negative")
	}

	return entity.BulkFilter{UserID: req.UserID, ContractID: req.ContractID}, nil
}
