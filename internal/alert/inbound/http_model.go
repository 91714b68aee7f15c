package inbound

import "time"

type ProcessNewContractsRequest struct {
	Since       *time.Time `json:"since,omitempty"`
	ContractIDs []int64    `json:"contract_ids,omitempty"`
}

type MatchReportResponse struct {
	ContractsScanned int `json:"contracts_scanned"`
	ProfilesScanned  int `json:"profiles_scanned"`
	Matches          int `json:"matches"`
	Enqueued         int `json:"enqueued"`
	Deduplicated     int `json:"deduplicated"`
}

type ReminderReportResponse struct {
	DeadlinesScanned int `json:"deadlines_scanned"`
	Enqueued         int `json:"enqueued"`
	Deduplicated     int `json:"deduplicated"`
}

type ProcessPendingRequest struct {
	BatchSize int32 `json:"batch_size,omitempty"`
}

type ProcessReportResponse struct {
	Claimed int64    `json:"claimed"`
	Sent    int64    `json:"sent"`
	Retried int64    `json:"retried"`
	Failed  int64    `json:"failed"`
	Errors  []string `json:"errors"`
}

type QueueStatsResponse struct {
	Pending     int64   `json:"pending"`
	Processing  int64   `json:"processing"`
	Sent        int64   `json:"sent"`
	Failed      int64   `json:"failed"`
	Cancelled   int64   `json:"cancelled"`
	SuccessRate float64 `json:"success_rate"`
}

// BulkFilterRequest scopes a bulk action. All fields are optional; an empty
// body addresses the whole queue.
type BulkFilterRequest struct {
	UserID     int64 `json:"user_id,omitempty"`
	ContractID int64 `json:"contract_id,omitempty"`
}

type BulkCountResponse struct {
	Affected int64 `json:"affected"`
}
