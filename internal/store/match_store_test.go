package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/planmatch/planmatch/internal/models"
)

func activeMatch(id, counterpartID string) models.Match {
	return models.Match{
		ID:            id,
		CounterpartID: counterpartID,
		ActivityType:  "coffee",
		Status:        models.MatchStatusActive,
		UpdatedAt:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		LastMessageAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMatchStore_LoadSnapshotReplaces(t *testing.T) {
	s := NewMatchStore()
	s.LoadSnapshot([]models.Match{activeMatch("m-1", "u-2"), activeMatch("m-2", "u-3")})
	assert.Equal(t, 2, s.Len())

	// A new snapshot fully replaces the old collection, it is not merged.
	s.LoadSnapshot([]models.Match{activeMatch("m-3", "u-4")})
	assert.Equal(t, 1, s.Len())

	_, ok := s.Get("m-1")
	assert.False(t, ok)
	_, ok = s.Get("m-3")
	assert.True(t, ok)
}

func TestMatchStore_UpsertIgnoresExisting(t *testing.T) {
	s := NewMatchStore()

	m := activeMatch("m-1", "u-2")
	assert.True(t, s.Upsert(m))

	changed := m
	changed.MyConfirmed = true
	assert.False(t, s.Upsert(changed))

	got, ok := s.Get("m-1")
	assert.True(t, ok)
	assert.False(t, got.MyConfirmed, "existing record must not be overwritten")
}

func TestMatchStore_RemoveByIDs(t *testing.T) {
	s := NewMatchStore()
	s.LoadSnapshot([]models.Match{activeMatch("m-1", "u-2"), activeMatch("m-2", "u-3")})

	removed := s.RemoveByIDs([]string{"m-1", "m-9"})
	assert.Equal(t, []string{"m-1"}, removed)
	assert.Equal(t, 1, s.Len())

	// Removing ids that are not present leaves the store unchanged.
	removed = s.RemoveByIDs([]string{"m-9"})
	assert.Empty(t, removed)
	assert.Equal(t, 1, s.Len())
}

func TestMatchStore_PatchConfirmation(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rating := 4

	tests := []struct {
		name           string
		update         models.ConfirmationUpdate
		wantPatched    bool
		wantMy         bool
		wantTheir      bool
		wantStatus     models.MatchStatus
		wantTheirScore *int
	}{
		{
			name: "Counterpart on side A",
			update: models.ConfirmationUpdate{
				MatchID: "m-1", UserAID: "u-2", UserBID: "u-1",
				UserAConfirmed: true, UserBConfirmed: false,
				UserARating: &rating,
				Status:      models.MatchStatusActive,
				UpdatedAt:   base.Add(time.Minute),
			},
			wantPatched: true, wantMy: false, wantTheir: true,
			wantStatus: models.MatchStatusActive, wantTheirScore: &rating,
		},
		{
			name: "Counterpart on side B",
			update: models.ConfirmationUpdate{
				MatchID: "m-1", UserAID: "u-1", UserBID: "u-2",
				UserAConfirmed: true, UserBConfirmed: true,
				Status:    models.MatchStatusConfirmed,
				UpdatedAt: base.Add(time.Minute),
			},
			wantPatched: true, wantMy: true, wantTheir: true,
			wantStatus: models.MatchStatusConfirmed,
		},
		{
			name: "Neither participant is the counterpart",
			update: models.ConfirmationUpdate{
				MatchID: "m-1", UserAID: "u-8", UserBID: "u-9",
				UserAConfirmed: true,
				UpdatedAt:      base.Add(time.Minute),
			},
			wantPatched: false, wantStatus: models.MatchStatusActive,
		},
		{
			name: "Stale update is dropped",
			update: models.ConfirmationUpdate{
				MatchID: "m-1", UserAID: "u-2", UserBID: "u-1",
				UserAConfirmed: true,
				UpdatedAt:      base.Add(-time.Hour),
			},
			wantPatched: false, wantStatus: models.MatchStatusActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMatchStore()
			s.LoadSnapshot([]models.Match{activeMatch("m-1", "u-2")})

			patched := s.PatchConfirmation(tt.update)
			assert.Equal(t, tt.wantPatched, patched)

			got, ok := s.Get("m-1")
			assert.True(t, ok)
			assert.Equal(t, tt.wantStatus, got.Status)
			if tt.wantPatched {
				assert.Equal(t, tt.wantMy, got.MyConfirmed)
				assert.Equal(t, tt.wantTheir, got.TheirConfirmed)
				assert.Equal(t, tt.wantTheirScore, got.TheirRating)
			}
		})
	}
}

func TestMatchStore_PatchConfirmationAbsentMatch(t *testing.T) {
	s := NewMatchStore()
	s.LoadSnapshot([]models.Match{activeMatch("m-1", "u-2")})

	patched := s.PatchConfirmation(models.ConfirmationUpdate{
		MatchID: "m-gone", UserAID: "u-2", UserBID: "u-1",
		UserAConfirmed: true,
	})

	assert.False(t, patched)
	assert.Equal(t, 1, s.Len(), "a patch must never resurrect a removed match")
}

func TestMatchStore_PatchConfirmationStatusForwardOnly(t *testing.T) {
	s := NewMatchStore()
	m := activeMatch("m-1", "u-2")
	m.Status = models.MatchStatusConfirmed
	s.LoadSnapshot([]models.Match{m})

	s.PatchConfirmation(models.ConfirmationUpdate{
		MatchID: "m-1", UserAID: "u-2", UserBID: "u-1",
		Status:    models.MatchStatusActive,
		UpdatedAt: m.UpdatedAt.Add(time.Minute),
	})

	got, _ := s.Get("m-1")
	assert.Equal(t, models.MatchStatusConfirmed, got.Status, "status must not move backwards")
}

func TestMatchStore_PatchConfirmationZeroUpdatedAtKeepsTimestamp(t *testing.T) {
	s := NewMatchStore()
	m := activeMatch("m-1", "u-2")
	s.LoadSnapshot([]models.Match{m})

	// An update without a timestamp still applies but must not wipe the
	// stored UpdatedAt, or every later update would pass the staleness check.
	patched := s.PatchConfirmation(models.ConfirmationUpdate{
		MatchID: "m-1", UserAID: "u-2", UserBID: "u-1",
		UserAConfirmed: true,
		Status:         models.MatchStatusActive,
	})
	assert.True(t, patched)

	got, _ := s.Get("m-1")
	assert.True(t, got.TheirConfirmed)
	assert.Equal(t, m.UpdatedAt, got.UpdatedAt)

	patched = s.PatchConfirmation(models.ConfirmationUpdate{
		MatchID: "m-1", UserAID: "u-2", UserBID: "u-1",
		UpdatedAt: m.UpdatedAt.Add(-time.Hour),
	})
	assert.False(t, patched, "staleness check must survive a zero-timestamp update")
}

func TestMatchStore_MarkTrustedContactNotified(t *testing.T) {
	s := NewMatchStore()
	s.LoadSnapshot([]models.Match{activeMatch("m-1", "u-2")})

	assert.True(t, s.MarkTrustedContactNotified("m-1"))
	assert.False(t, s.MarkTrustedContactNotified("m-gone"))

	got, _ := s.Get("m-1")
	assert.True(t, got.TrustedContactNotified)
	assert.Equal(t, models.MatchStatusActive, got.Status, "only the flag is touched")
}

func TestMatchStore_ListOrderedByActivity(t *testing.T) {
	s := NewMatchStore()
	older := activeMatch("m-1", "u-2")
	newer := activeMatch("m-2", "u-3")
	newer.LastMessageAt = older.LastMessageAt.Add(time.Hour)
	s.LoadSnapshot([]models.Match{older, newer})

	list := s.List()
	assert.Len(t, list, 2)
	assert.Equal(t, "m-2", list[0].ID)
	assert.Equal(t, "m-1", list[1].ID)
}
