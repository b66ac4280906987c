package dto

import "time"

// Sync run statuses.
const (
	SyncSuccess = "success"
	SyncPartial = "partial"
	SyncFailed  = "failed"
)

// SyncResult is the unified outcome of one reconciliation run for one entity.
// TotalSynced = Created + Updated + Unchanged.
type SyncResult struct {
	Entity       string    `json:"entity"`
	Status       string    `json:"status"`
	TotalFetched int       `json:"totalFetched"`
	TotalSynced  int       `json:"totalSynced"`
	Created      int       `json:"created"`
	Updated      int       `json:"updated"`
	Unchanged    int       `json:"unchanged"`
	Skipped      int       `json:"skipped"`
	Errors       int       `json:"errors"`
	Message      string    `json:"message,omitempty"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
}

type SyncAllResponse struct {
	Products     SyncResult `json:"products"`
	Distributors SyncResult `json:"distributors"`
}

type SyncStatusResponse struct {
	Running      bool        `json:"running"`
	Products     *SyncResult `json:"products"`
	Distributors *SyncResult `json:"distributors"`
}
