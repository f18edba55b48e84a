package models

import "time"

// Checkpoint marks how far the sync has progressed for one mailbox account.
// LastUID is monotonically non-decreasing across runs.
type Checkpoint struct {
	LastUID      uint32     `json:"last_uid"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
}

// SyncResult is the summary one sync cycle returns to its caller. It is the
// only output channel besides the activity log.
type SyncResult struct {
	Success               bool     `json:"success"`
	CountNewMessages      int      `json:"count_new_messages"`
	CountClassified       int      `json:"count_classified"`
	CountUnclassified     int      `json:"count_unclassified"`
	CountSkippedDuplicate int      `json:"count_skipped_duplicate"`
	Errors                []string `json:"errors"`
	DurationMS            int64    `json:"duration_ms"`
}
