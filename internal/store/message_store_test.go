package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/planmatch/planmatch/internal/models"
)

func chatMsg(id, sender string, at time.Time) models.Message {
	return models.Message{
		ID:        id,
		MatchID:   "m-1",
		SenderID:  sender,
		Type:      models.MessageTypeText,
		Content:   "hi",
		CreatedAt: at,
	}
}

func TestMessageStore_AppendIfAbsentIdempotent(t *testing.T) {
	s := NewMessageStore()
	at := time.Now()

	assert.True(t, s.AppendIfAbsent("m-1", chatMsg("msg-1", "u-1", at)))
	assert.Equal(t, 1, s.Len("m-1"))

	// Re-delivery of the same id is absorbed.
	assert.False(t, s.AppendIfAbsent("m-1", chatMsg("msg-1", "u-1", at)))
	assert.Equal(t, 1, s.Len("m-1"))

	assert.True(t, s.AppendIfAbsent("m-1", chatMsg("msg-2", "u-2", at.Add(time.Second))))
	assert.Equal(t, 2, s.Len("m-1"))
}

func TestMessageStore_UpsertSystemMessageCollapses(t *testing.T) {
	s := NewMessageStore()
	at := time.Now()

	first := models.NewTrustedContactMessage("m-1", "notified", at)
	s.UpsertSystemMessage("m-1", first)
	assert.Equal(t, 1, s.Len("m-1"))

	// A repeated notification replaces the entry instead of accumulating.
	second := models.NewTrustedContactMessage("m-1", "notified again", at.Add(time.Minute))
	s.UpsertSystemMessage("m-1", second)
	assert.Equal(t, 1, s.Len("m-1"))

	log := s.Get("m-1")
	assert.Equal(t, "notified again", log[0].Content)
}

func TestMessageStore_ReplaceAllOrdersByCreation(t *testing.T) {
	s := NewMessageStore()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	s.AppendIfAbsent("m-1", chatMsg("old", "u-1", base))
	s.ReplaceAll("m-1", []models.Message{
		chatMsg("b", "u-2", base.Add(2*time.Minute)),
		chatMsg("a", "u-1", base.Add(time.Minute)),
	}, false)

	log := s.Get("m-1")
	assert.Len(t, log, 2)
	assert.Equal(t, "a", log[0].ID)
	assert.Equal(t, "b", log[1].ID)
}

func TestMessageStore_ReplaceAllInjectsTrustedContactNotice(t *testing.T) {
	s := NewMessageStore()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	s.ReplaceAll("m-1", []models.Message{chatMsg("a", "u-1", base)}, true)

	log := s.Get("m-1")
	assert.Len(t, log, 2)
	assert.Equal(t, models.TrustedContactMessageID("m-1"), log[1].ID)
	assert.Equal(t, models.SystemSenderID, log[1].SenderID)
	assert.Equal(t, TrustedContactNoticeText, log[1].Content)

	// If the fetched history already carries the synthetic entry, nothing is
	// injected a second time.
	s.ReplaceAll("m-1", log, true)
	assert.Equal(t, 2, s.Len("m-1"))
}

func TestMessageStore_RemoveInvalidatesLog(t *testing.T) {
	s := NewMessageStore()
	s.AppendIfAbsent("m-1", chatMsg("msg-1", "u-1", time.Now()))
	s.AppendIfAbsent("m-2", models.Message{ID: "msg-2", MatchID: "m-2", SenderID: "u-1", Type: models.MessageTypeText, CreatedAt: time.Now()})

	s.RemoveAll([]string{"m-1", "m-gone"})
	assert.Equal(t, 0, s.Len("m-1"))
	assert.Equal(t, 1, s.Len("m-2"))
}

func TestMessageStore_GetReturnsCopy(t *testing.T) {
	s := NewMessageStore()
	s.AppendIfAbsent("m-1", chatMsg("msg-1", "u-1", time.Now()))

	log := s.Get("m-1")
	log[0].Content = "mutated"

	assert.Equal(t, "hi", s.Get("m-1")[0].Content)
}
