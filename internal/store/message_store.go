package store

import (
	"sort"
	"sync"
	"time"

	"github.com/planmatch/planmatch/internal/models"
)

// TrustedContactNoticeText is the content injected when a match record says a
// trusted contact was notified but the notification event itself was missed.
const TrustedContactNoticeText = "A trusted contact has been notified about this date."

// MessageStore holds the per-match ordered, append-only negotiation logs.
// Dedupe by message id is the sole concurrency-safety mechanism against
// duplicate delivery from overlapping REST-fetch and push-event sources.
type MessageStore struct {
	mu   sync.RWMutex
	logs map[string][]models.Message
}

// NewMessageStore creates an empty message store.
func NewMessageStore() *MessageStore {
	return &MessageStore{logs: make(map[string][]models.Message)}
}

// AppendIfAbsent appends the message to the match's log unless a message with
// the same id is already stored. Re-delivery of a stored id is a no-op.
func (s *MessageStore) AppendIfAbsent(matchID string, msg models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.logs[matchID] {
		if existing.ID == msg.ID {
			return false
		}
	}
	s.logs[matchID] = append(s.logs[matchID], msg)
	return true
}

// UpsertSystemMessage appends the synthetic message, or replaces the stored
// entry in place when its deterministic id is already present. Repeated
// trusted-contact notifications collapse to a single, latest message.
func (s *MessageStore) UpsertSystemMessage(matchID string, msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.logs[matchID]
	for i, existing := range log {
		if existing.ID == msg.ID {
			log[i] = msg
			return
		}
	}
	s.logs[matchID] = append(log, msg)
}

// ReplaceAll replaces the match's log with a freshly fetched history, ordered
// by creation time. When trustedContactNotified is set on the match record, a
// synthetic system message is injected if the fetched history does not
// already carry one, so the log stays consistent even if the notification
// event itself was missed.
func (s *MessageStore) ReplaceAll(matchID string, messages []models.Message, trustedContactNotified bool) {
	log := make([]models.Message, len(messages))
	copy(log, messages)
	sort.SliceStable(log, func(i, j int) bool {
		return log[i].CreatedAt.Before(log[j].CreatedAt)
	})

	if trustedContactNotified {
		syntheticID := models.TrustedContactMessageID(matchID)
		present := false
		for _, msg := range log {
			if msg.ID == syntheticID {
				present = true
				break
			}
		}
		if !present {
			at := time.Now()
			if n := len(log); n > 0 {
				at = log[n-1].CreatedAt
			}
			log = append(log, models.NewTrustedContactMessage(matchID, TrustedContactNoticeText, at))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[matchID] = log
}

// Get returns a copy of the match's log in order.
func (s *MessageStore) Get(matchID string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.logs[matchID]
	out := make([]models.Message, len(log))
	copy(out, log)
	return out
}

// Remove drops the log for a match, used when the match itself is removed.
func (s *MessageStore) Remove(matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, matchID)
}

// RemoveAll drops the logs for the given matches.
func (s *MessageStore) RemoveAll(matchIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range matchIDs {
		delete(s.logs, id)
	}
}

// Len returns the number of messages stored for a match.
func (s *MessageStore) Len(matchID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs[matchID])
}
