package realtime

import "encoding/json"

// EventType names a push event class.
type EventType string

const (
	EventMatchesBlocked         EventType = "matches-blocked"
	EventDateFinalized          EventType = "date-finalized"
	EventMeConfirmed            EventType = "me-confirmed"
	EventTrustedContactNotified EventType = "trusted-contact-notified"
	EventChatMessage            EventType = "chat-message"

	// Control events emitted back to the platform on room selection.
	EventJoinRoom  EventType = "join-room"
	EventLeaveRoom EventType = "leave-room"
)

// Envelope is the wire form of every push event.
type Envelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// MatchesBlockedPayload carries the ids of matches that became blocked.
type MatchesBlockedPayload struct {
	MatchIDs []string `json:"match_ids"`
}

// TrustedContactPayload carries the human-readable trusted-contact notice.
type TrustedContactPayload struct {
	MatchID string `json:"match_id"`
	Text    string `json:"text"`
}

// RoomPayload carries a room control event's match id.
type RoomPayload struct {
	MatchID string `json:"match_id"`
}

// SessionSubject is the push subject scoped to one user's session.
func SessionSubject(userID string) string {
	return "push.session." + userID
}

// RoomSubject is the push subject carrying one match's chat stream.
func RoomSubject(matchID string) string {
	return "push.match." + matchID
}

// ControlSubject receives join-room / leave-room events from sessions.
const ControlSubject = "push.rooms"
