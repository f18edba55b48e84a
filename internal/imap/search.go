package imap

import (
	"fmt"
	"time"

	"github.com/emersion/go-imap"

	"github.com/asegura/renomail/internal/models"
)

const (
	// searchOverlap is subtracted from the checkpoint timestamp to absorb
	// clock skew and server-side delivery latency. The dedup step makes the
	// resulting re-fetches harmless.
	searchOverlap = 5 * time.Minute

	// defaultLookback bounds the first-ever search window.
	defaultLookback = 24 * time.Hour
)

// SearchWindow computes the SINCE date for a sync cycle. With a prior
// checkpoint the window starts 5 minutes before the last sync; a fresh
// checkpoint defaults to the last 24 hours, never "all time".
func SearchWindow(checkpoint *models.Checkpoint, now time.Time) time.Time {
	if checkpoint != nil && checkpoint.LastSyncedAt != nil {
		return checkpoint.LastSyncedAt.Add(-searchOverlap)
	}
	return now.Add(-defaultLookback)
}

// LimitNewest keeps at most max UIDs, preferring the newest. UID SEARCH
// results are ascending, so truncation drops from the front.
func LimitNewest(uids []uint32, max int) []uint32 {
	if max <= 0 || len(uids) <= max {
		return uids
	}
	return uids[len(uids)-max:]
}

// SearchSince returns the UIDs of messages received on or after the given
// date in the selected folder.
func (s *Session) SearchSince(since time.Time) ([]uint32, error) {
	criteria := imap.NewSearchCriteria()
	criteria.Since = since

	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search since %s: %w", since.Format(time.RFC3339), err)
	}

	return uids, nil
}
