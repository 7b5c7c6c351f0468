// Package session ties one user's stores, policy views, and realtime
// consumer together. A session is created at connect time and torn down at
// disconnect; nothing here is a process-wide singleton, and the current user
// id is carried explicitly rather than re-derived downstream.
package session

import (
	"context"

	"github.com/planmatch/planmatch/internal/coreapi"
	"github.com/planmatch/planmatch/internal/errors"
	"github.com/planmatch/planmatch/internal/interfaces"
	"github.com/planmatch/planmatch/internal/models"
	"github.com/planmatch/planmatch/internal/policy"
	"github.com/planmatch/planmatch/internal/realtime"
	"github.com/planmatch/planmatch/internal/store"
	"github.com/planmatch/planmatch/internal/telemetry"
)

// messagePageSize is the page size used for the initial history fetch of a
// selected match.
const messagePageSize = 100

// Session is one user's live view of their matches and negotiations.
type Session struct {
	userID   string
	matches  *store.MatchStore
	messages *store.MessageStore
	sync     *realtime.Sync
	api      interfaces.CoreAPI
	cache    interfaces.SnapshotCache
}

// New creates a session. cache may be nil; the warm-start step is then
// skipped.
func New(userID string, api interfaces.CoreAPI, cache interfaces.SnapshotCache, transport realtime.Transport) *Session {
	matches := store.NewMatchStore()
	messages := store.NewMessageStore()
	return &Session{
		userID:   userID,
		matches:  matches,
		messages: messages,
		sync:     realtime.NewSync(userID, matches, messages, transport),
		api:      api,
		cache:    cache,
	}
}

// UserID returns the session owner's id.
func (s *Session) UserID() string { return s.userID }

// Start loads the match snapshot and subscribes to the push stream. A cached
// snapshot, when present, serves as warm-start state; if the fresh fetch then
// fails the session keeps serving the stale snapshot rather than failing
// outright.
func (s *Session) Start(ctx context.Context) error {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"user_id":   s.userID,
		"operation": "session_start",
	})

	warmStarted := false
	if s.cache != nil {
		cached, hit, err := s.cache.GetMatches(ctx, s.userID)
		if err != nil {
			logger.WithError(err).Warn("Snapshot cache read failed")
		} else if hit {
			s.matches.LoadSnapshot(cached)
			warmStarted = true
			logger.WithField("count", len(cached)).Debug("Warm-started from cached snapshot")
		}
	}

	fresh, err := s.api.FetchMatches(ctx, s.userID, "")
	if err != nil {
		if warmStarted {
			logger.WithError(err).Warn("Snapshot refresh failed, serving cached state")
		} else {
			logger.WithError(err).Error("Failed to load match snapshot")
			return err
		}
	} else {
		s.matches.LoadSnapshot(fresh)
		if s.cache != nil {
			if err := s.cache.PutMatches(ctx, s.userID, fresh); err != nil {
				logger.WithError(err).Warn("Snapshot cache write failed")
			}
		}
		logger.WithField("count", len(fresh)).Info("Loaded match snapshot")
	}

	return s.sync.Start(ctx)
}

// MatchView is a match together with its projected display status.
type MatchView struct {
	models.Match
	ProjectedStatus policy.ProjectedStatus `json:"projected_status"`
}

// Matches returns the session's matches, most recent activity first, with
// projected status.
func (s *Session) Matches() []MatchView {
	matches := s.matches.List()
	views := make([]MatchView, len(matches))
	for i, m := range matches {
		views[i] = MatchView{Match: m, ProjectedStatus: policy.ProjectStatus(m)}
	}
	return views
}

// Match returns one match with its projected status.
func (s *Session) Match(matchID string) (MatchView, bool) {
	m, ok := s.matches.Get(matchID)
	if !ok {
		return MatchView{}, false
	}
	return MatchView{Match: m, ProjectedStatus: policy.ProjectStatus(m)}, true
}

// MessageView is a message with contact details decoded when possible. When
// the content does not parse, ContactInfo stays nil and the raw content is
// displayed literally.
type MessageView struct {
	models.Message
	ContactInfo *models.ContactInfo `json:"contact_info,omitempty"`
}

// ConversationView is the derived state of one match's negotiation.
type ConversationView struct {
	Messages        []MessageView   `json:"messages"`
	AllowedActions  []policy.Action `json:"allowed_actions"`
	Done            bool            `json:"done"`
	ReadyToFinalize bool            `json:"ready_to_finalize"`
	JustSent        bool            `json:"just_sent"`
}

// Conversation computes the derived view of a match's negotiation log. Pure
// over the stores; recomputed by the caller whenever the log changes.
func (s *Session) Conversation(matchID string) ConversationView {
	log := s.messages.Get(matchID)

	views := make([]MessageView, len(log))
	for i, msg := range log {
		views[i] = MessageView{Message: msg}
		if msg.Type == models.MessageTypeContactInfo {
			if info, ok := models.ParseContactInfo(msg.Content); ok {
				views[i].ContactInfo = &info
			}
		}
	}

	return ConversationView{
		Messages:        views,
		AllowedActions:  policy.AllowedNextActions(log),
		Done:            policy.IsConversationDone(log),
		ReadyToFinalize: policy.HasTwoConfirmations(log),
		JustSent:        policy.UserJustSent(log, s.userID),
	}
}

// SelectMatch loads the match's message history and joins its room for live
// delivery.
func (s *Session) SelectMatch(ctx context.Context, matchID string) error {
	match, ok := s.matches.Get(matchID)
	if !ok {
		return errors.NewNotFoundError("match")
	}

	history, err := s.api.FetchMessages(ctx, s.userID, matchID, messagePageSize, 0)
	if err != nil {
		return err
	}
	s.messages.ReplaceAll(matchID, history, match.TrustedContactNotified)

	return s.sync.JoinRoom(ctx, matchID)
}

// DeselectMatch leaves the match's room. Buffered messages are kept.
func (s *Session) DeselectMatch(ctx context.Context, matchID string) {
	s.sync.LeaveRoom(ctx, matchID)
}

// SendMessage validates the action against the conversation policy, proxies
// it to the core API, and echoes the stored record into the local log. The
// push stream may redeliver it; the id-based append absorbs that.
func (s *Session) SendMessage(ctx context.Context, matchID, content string, msgType models.MessageType) (*models.Message, error) {
	if !models.ValidMessageType(msgType) {
		return nil, errors.NewValidationError("message_type", "unknown message type")
	}
	if msgType == models.MessageTypeSystem {
		return nil, errors.NewValidationError("message_type", "system messages cannot be sent by users")
	}
	if _, ok := s.matches.Get(matchID); !ok {
		return nil, errors.NewNotFoundError("match")
	}

	log := s.messages.Get(matchID)

	switch msgType {
	case models.MessageTypePlans, models.MessageTypeConfirmation, models.MessageTypeCancellation:
		action := policy.Action(msgType)
		if !policy.ActionAllowed(log, action) {
			return nil, errors.NewConflictError("action not allowed in the conversation's current state").
				WithMetadata("action", string(action))
		}
	case models.MessageTypeContactInfo:
		if policy.HasSentContactInfo(log, s.userID) {
			return nil, errors.NewConflictError("contact details were already shared for this match")
		}
	}

	msg, err := s.api.SendMessage(ctx, s.userID, matchID, coreapi.SendMessageRequest{
		Content:     content,
		MessageType: msgType,
	})
	if err != nil {
		return nil, err
	}

	s.messages.AppendIfAbsent(matchID, *msg)
	return msg, nil
}

// ConfirmPlan confirms the current plan for a match via the core API. The
// resulting state change arrives as a me-confirmed or date-finalized push
// event.
func (s *Session) ConfirmPlan(ctx context.Context, matchID string) error {
	match, ok := s.matches.Get(matchID)
	if !ok {
		return errors.NewNotFoundError("match")
	}
	switch policy.ProjectStatus(match) {
	case policy.StatusFinalized:
		return errors.NewConflictError("date is already finalized")
	case policy.StatusDatePassed:
		return errors.NewConflictError("date has already passed")
	}
	if match.MyConfirmed {
		return errors.NewConflictError("plan is already confirmed")
	}

	return s.api.ConfirmPlan(ctx, s.userID, matchID)
}

// RatingBlocked reports whether starting a new match session is blocked by an
// unrated elapsed date.
func (s *Session) RatingBlocked() (bool, []string) {
	matches := s.matches.List()
	return policy.HasBlockingUnratedMatch(matches), policy.UnratedMatchIDs(matches)
}

// Close tears down the session's push subscriptions.
func (s *Session) Close() {
	s.sync.Close()
}
