package imap

import (
	"testing"
	"time"

	"github.com/asegura/renomail/internal/models"
)

func TestSearchWindow(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("defaults to last 24 hours on first run", func(t *testing.T) {
		got := SearchWindow(&models.Checkpoint{}, now)
		want := now.Add(-24 * time.Hour)
		if !got.Equal(want) {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("nil checkpoint also defaults to last 24 hours", func(t *testing.T) {
		got := SearchWindow(nil, now)
		want := now.Add(-24 * time.Hour)
		if !got.Equal(want) {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("overlaps prior sync by 5 minutes", func(t *testing.T) {
		lastSynced := now.Add(-30 * time.Minute)
		checkpoint := &models.Checkpoint{LastUID: 42, LastSyncedAt: &lastSynced}

		got := SearchWindow(checkpoint, now)
		want := lastSynced.Add(-5 * time.Minute)
		if !got.Equal(want) {
			t.Errorf("expected %s, got %s", want, got)
		}
	})
}

func TestLimitNewest(t *testing.T) {
	t.Run("keeps short lists intact", func(t *testing.T) {
		uids := []uint32{1, 2, 3}
		got := LimitNewest(uids, 50)
		if len(got) != 3 {
			t.Fatalf("expected 3 uids, got %d", len(got))
		}
	})

	t.Run("keeps the newest uids", func(t *testing.T) {
		uids := []uint32{10, 20, 30, 40, 50}
		got := LimitNewest(uids, 2)
		if len(got) != 2 {
			t.Fatalf("expected 2 uids, got %d", len(got))
		}
		if got[0] != 40 || got[1] != 50 {
			t.Errorf("expected [40 50], got %v", got)
		}
	})

	t.Run("non-positive max keeps everything", func(t *testing.T) {
		uids := []uint32{1, 2, 3}
		if got := LimitNewest(uids, 0); len(got) != 3 {
			t.Errorf("expected 3 uids, got %d", len(got))
		}
	})
}
