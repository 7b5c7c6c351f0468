package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/planmatch/planmatch/internal/errors"
	"github.com/planmatch/planmatch/internal/models"
	"github.com/planmatch/planmatch/internal/store"
	"github.com/planmatch/planmatch/internal/telemetry"
)

// Sync consumes a user's push stream and applies events to the session's
// stores. Correctness rests on idempotence (append-by-id, patch-by-presence,
// remove-then-ignore), not on delivery sequencing: push callbacks may
// interleave arbitrarily with REST response callbacks.
type Sync struct {
	userID    string
	matches   *store.MatchStore
	messages  *store.MessageStore
	transport Transport

	mu         sync.Mutex
	sessionSub Subscription
	roomSubs   map[string]Subscription
}

// NewSync creates a sync consumer for one user's session.
func NewSync(userID string, matches *store.MatchStore, messages *store.MessageStore, transport Transport) *Sync {
	return &Sync{
		userID:    userID,
		matches:   matches,
		messages:  messages,
		transport: transport,
		roomSubs:  make(map[string]Subscription),
	}
}

// Start subscribes to the session-scoped push subject.
func (s *Sync) Start(ctx context.Context) error {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"user_id":   s.userID,
		"operation": "realtime_start",
	})

	sub, err := s.transport.Subscribe(SessionSubject(s.userID), func(data []byte) {
		s.handle(context.Background(), data)
	})
	if err != nil {
		logger.WithError(err).Error("Failed to subscribe to session subject")
		return errors.NewTransportError("subscribe_session", err)
	}

	s.mu.Lock()
	s.sessionSub = sub
	s.mu.Unlock()

	logger.Info("Subscribed to session push stream")
	return nil
}

func (s *Sync) handle(ctx context.Context, data []byte) {
	ctx = telemetry.WithCorrelationID(ctx, telemetry.NewCorrelationID())

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
			"user_id":   s.userID,
			"operation": "realtime_handle",
		}).WithError(err).Warn("Dropping undecodable push event")
		return
	}

	if err := s.Apply(ctx, env); err != nil {
		telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
			"user_id":   s.userID,
			"event":     string(env.Event),
			"operation": "realtime_apply",
		}).WithError(err).Warn("Failed to apply push event")
	}
}

// Apply dispatches one decoded push event to the stores. Events referencing
// an unknown or removed match are dropped silently: that is the designed
// defense against races between a block/removal and in-flight patches.
func (s *Sync) Apply(ctx context.Context, env Envelope) error {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"user_id":   s.userID,
		"event":     string(env.Event),
		"operation": "realtime_apply",
	})

	switch env.Event {
	case EventMatchesBlocked:
		var payload MatchesBlockedPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return errors.NewDecodeError("matches-blocked payload", err)
		}
		removed := s.matches.RemoveByIDs(payload.MatchIDs)
		s.messages.RemoveAll(removed)
		for _, id := range removed {
			s.leaveRoom(id)
		}
		logger.WithField("removed", len(removed)).Info("Applied match block")

	case EventDateFinalized, EventMeConfirmed:
		var update models.ConfirmationUpdate
		if err := json.Unmarshal(env.Data, &update); err != nil {
			return errors.NewDecodeError("confirmation update payload", err)
		}
		if !s.matches.PatchConfirmation(update) {
			logger.WithField("match_id", update.MatchID).Debug("Dropped confirmation patch for unknown or stale match")
			return nil
		}
		logger.WithField("match_id", update.MatchID).Info("Applied confirmation update")

	case EventTrustedContactNotified:
		var payload TrustedContactPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return errors.NewDecodeError("trusted-contact payload", err)
		}
		match, ok := s.matches.Get(payload.MatchID)
		if !ok {
			logger.WithField("match_id", payload.MatchID).Debug("Dropped trusted-contact notice for unknown match")
			return nil
		}
		s.messages.UpsertSystemMessage(payload.MatchID,
			models.NewTrustedContactMessage(payload.MatchID, payload.Text, match.UpdatedAt))
		s.matches.MarkTrustedContactNotified(payload.MatchID)
		logger.WithField("match_id", payload.MatchID).Info("Applied trusted-contact notice")

	case EventChatMessage:
		var msg models.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return errors.NewDecodeError("chat message payload", err)
		}
		if _, ok := s.matches.Get(msg.MatchID); !ok {
			logger.WithField("match_id", msg.MatchID).Debug("Dropped chat message for unknown match")
			return nil
		}
		if !s.messages.AppendIfAbsent(msg.MatchID, msg) {
			logger.WithField("message_id", msg.ID).Debug("Absorbed duplicate chat message")
		}

	default:
		logger.Debug("Dropped unknown push event")
	}

	return nil
}

// JoinRoom starts delivery for a match's chat stream and announces the join
// upstream.
func (s *Sync) JoinRoom(ctx context.Context, matchID string) error {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"user_id":   s.userID,
		"match_id":  matchID,
		"operation": "join_room",
	})

	s.mu.Lock()
	_, joined := s.roomSubs[matchID]
	s.mu.Unlock()
	if joined {
		return nil
	}

	sub, err := s.transport.Subscribe(RoomSubject(matchID), func(data []byte) {
		s.handle(context.Background(), data)
	})
	if err != nil {
		logger.WithError(err).Error("Failed to join room")
		return errors.NewTransportError("join_room", err)
	}

	s.mu.Lock()
	s.roomSubs[matchID] = sub
	s.mu.Unlock()

	s.publishControl(ctx, EventJoinRoom, matchID)
	logger.Debug("Joined match room")
	return nil
}

// LeaveRoom stops new delivery for a match's chat stream. Already-buffered
// messages are kept.
func (s *Sync) LeaveRoom(ctx context.Context, matchID string) {
	if s.leaveRoom(matchID) {
		s.publishControl(ctx, EventLeaveRoom, matchID)
		telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
			"user_id":   s.userID,
			"match_id":  matchID,
			"operation": "leave_room",
		}).Debug("Left match room")
	}
}

func (s *Sync) leaveRoom(matchID string) bool {
	s.mu.Lock()
	sub, ok := s.roomSubs[matchID]
	if ok {
		delete(s.roomSubs, matchID)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	_ = sub.Unsubscribe()
	return true
}

func (s *Sync) publishControl(ctx context.Context, event EventType, matchID string) {
	data, err := json.Marshal(RoomPayload{MatchID: matchID})
	if err != nil {
		return
	}
	envelope, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return
	}
	if err := s.transport.Publish(ControlSubject, envelope); err != nil {
		telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
			"user_id":   s.userID,
			"match_id":  matchID,
			"event":     string(event),
			"operation": "publish_control",
		}).WithError(err).Warn("Failed to publish room control event")
	}
}

// Close tears down the session subscription and all room subscriptions.
func (s *Sync) Close() {
	s.mu.Lock()
	session := s.sessionSub
	s.sessionSub = nil
	rooms := s.roomSubs
	s.roomSubs = make(map[string]Subscription)
	s.mu.Unlock()

	if session != nil {
		_ = session.Unsubscribe()
	}
	for _, sub := range rooms {
		_ = sub.Unsubscribe()
	}
}
