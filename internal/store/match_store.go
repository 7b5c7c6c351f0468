package store

import (
	"sort"
	"sync"

	"github.com/planmatch/planmatch/internal/models"
)

// statusRank orders the forward-only match lifecycle. Expired sorts with
// date_passed: both are terminal for negotiation purposes.
var statusRank = map[models.MatchStatus]int{
	models.MatchStatusActive:     0,
	models.MatchStatusConfirmed:  1,
	models.MatchStatusDatePassed: 2,
	models.MatchStatusExpired:    2,
}

// MatchStore is the authoritative per-session collection of match records.
// It is refreshed via full snapshot and patched incrementally by push events.
// All mutators are total: a missing id is an ignore, never an error, because
// network patches may race with local removal.
type MatchStore struct {
	mu      sync.RWMutex
	matches map[string]*models.Match
}

// NewMatchStore creates an empty match store.
func NewMatchStore() *MatchStore {
	return &MatchStore{matches: make(map[string]*models.Match)}
}

// LoadSnapshot replaces the entire collection. It deliberately does not merge
// field-by-field with prior state, so stale local patches cannot be
// resurrected by a refetch.
func (s *MatchStore) LoadSnapshot(matches []models.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.matches = make(map[string]*models.Match, len(matches))
	for i := range matches {
		m := matches[i]
		s.matches[m.ID] = &m
	}
}

// Upsert inserts the match if absent by id. An existing record is left
// untouched so fields already tracked locally are not overwritten.
func (s *MatchStore) Upsert(match models.Match) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[match.ID]; ok {
		return false
	}
	s.matches[match.ID] = &match
	return true
}

// RemoveByID removes a single match. Removing an absent id is a no-op.
func (s *MatchStore) RemoveByID(id string) bool {
	return len(s.RemoveByIDs([]string{id})) > 0
}

// RemoveByIDs removes the given matches and returns the ids that were
// actually present, so the caller can tear down dependent per-match
// subscriptions.
func (s *MatchStore) RemoveByIDs(ids []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.matches[id]; ok {
			delete(s.matches, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// PatchConfirmation copies confirmation-related fields from an
// externally-sourced update onto the stored match. The update carries
// absolute participant ids; the side that is "me" is resolved by comparing
// the stored counterpart id against them. A patch for an unknown match id is
// dropped so a removed or blocked match cannot be resurrected, and an update
// older than the stored record is treated as stale.
func (s *MatchStore) PatchConfirmation(update models.ConfirmationUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[update.MatchID]
	if !ok {
		return false
	}

	if !update.UpdatedAt.IsZero() && update.UpdatedAt.Before(m.UpdatedAt) {
		return false
	}

	switch m.CounterpartID {
	case update.UserAID:
		m.TheirConfirmed = update.UserAConfirmed
		m.TheirRating = update.UserARating
		m.MyConfirmed = update.UserBConfirmed
		m.MyRating = update.UserBRating
	case update.UserBID:
		m.TheirConfirmed = update.UserBConfirmed
		m.TheirRating = update.UserBRating
		m.MyConfirmed = update.UserAConfirmed
		m.MyRating = update.UserARating
	default:
		return false
	}

	// Status only moves forward.
	if statusRank[update.Status] >= statusRank[m.Status] {
		m.Status = update.Status
	}
	if !update.UpdatedAt.IsZero() {
		m.UpdatedAt = update.UpdatedAt
	}
	if !update.LastMessageAt.IsZero() {
		m.LastMessageAt = update.LastMessageAt
	}
	return true
}

// MarkTrustedContactNotified sets the notification flag. No other fields are
// touched.
func (s *MatchStore) MarkTrustedContactNotified(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[id]
	if !ok {
		return false
	}
	m.TrustedContactNotified = true
	return true
}

// Get returns a copy of the match with the given id.
func (s *MatchStore) Get(id string) (models.Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	if !ok {
		return models.Match{}, false
	}
	return *m, true
}

// List returns copies of all matches ordered by most recent activity.
func (s *MatchStore) List() []models.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]models.Match, 0, len(s.matches))
	for _, m := range s.matches {
		matches = append(matches, *m)
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].LastMessageAt.Equal(matches[j].LastMessageAt) {
			return matches[i].LastMessageAt.After(matches[j].LastMessageAt)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches
}

// Len returns the number of stored matches.
func (s *MatchStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}
