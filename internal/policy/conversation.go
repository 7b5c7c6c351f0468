// Package policy holds the pure decision functions of the negotiation
// protocol. Everything here is a deterministic computation over
// already-materialized state: any client replaying the same ordered log
// reaches the same decision, which is what keeps REST snapshots and
// incremental push consistent with each other.
package policy

import "github.com/planmatch/planmatch/internal/models"

// Action is a negotiation step a user may take next.
type Action string

const (
	ActionPlans        Action = "plans"
	ActionConfirmation Action = "confirmation"
	ActionCancellation Action = "cancellation"
)

// AllowedNextActions returns the set of negotiation actions permitted after
// the given ordered message log.
//
// An empty log opens with a plan proposal. A cancellation closes the
// conversation. Once one side has confirmed, the other side must accept or
// decline; they may not restate plans. Once both sides have confirmed there
// is nothing more to send.
func AllowedNextActions(messages []models.Message) []Action {
	if len(messages) == 0 {
		return []Action{ActionPlans}
	}

	if messages[len(messages)-1].Type == models.MessageTypeCancellation {
		return nil
	}

	confirmations := 0
	senders := map[string]struct{}{}
	for _, msg := range messages {
		if msg.Type == models.MessageTypeConfirmation {
			confirmations++
			senders[msg.SenderID] = struct{}{}
		}
	}

	if len(senders) == 2 {
		return nil
	}
	if confirmations == 1 {
		return []Action{ActionConfirmation, ActionCancellation}
	}
	return []Action{ActionPlans, ActionConfirmation, ActionCancellation}
}

// ActionAllowed reports whether the given action is in the allowed set.
func ActionAllowed(messages []models.Message, action Action) bool {
	for _, allowed := range AllowedNextActions(messages) {
		if allowed == action {
			return true
		}
	}
	return false
}

// IsConversationDone reports whether the negotiation is closed: the last
// message is a cancellation, or two distinct senders have each sent a
// confirmation.
func IsConversationDone(messages []models.Message) bool {
	if len(messages) == 0 {
		return false
	}
	if messages[len(messages)-1].Type == models.MessageTypeCancellation {
		return true
	}

	senders := map[string]struct{}{}
	for _, msg := range messages {
		if msg.Type == models.MessageTypeConfirmation {
			senders[msg.SenderID] = struct{}{}
		}
	}
	return len(senders) == 2
}

// UserJustSent reports whether the last message in the log was sent by the
// given user. Used to suppress duplicate action prompts while awaiting the
// counterpart.
func UserJustSent(messages []models.Message, userID string) bool {
	if len(messages) == 0 {
		return false
	}
	return messages[len(messages)-1].SenderID == userID
}

// HasTwoConfirmations reports whether the last two messages are both
// confirmations from two distinct senders. Stricter than IsConversationDone:
// the two confirmations must be the most recent two messages, so a user
// replying to current plans is unambiguously confirming the current plan
// rather than a stale one. Gates the explicit finalize prompt.
func HasTwoConfirmations(messages []models.Message) bool {
	if len(messages) < 2 {
		return false
	}
	last := messages[len(messages)-1]
	prev := messages[len(messages)-2]
	return last.Type == models.MessageTypeConfirmation &&
		prev.Type == models.MessageTypeConfirmation &&
		last.SenderID != prev.SenderID
}

// HasSentContactInfo reports whether the given user already shared contact
// details in this match. Enforced by history scan at send time; not
// transactionally guaranteed across concurrent sessions.
func HasSentContactInfo(messages []models.Message, userID string) bool {
	for _, msg := range messages {
		if msg.Type == models.MessageTypeContactInfo && msg.SenderID == userID {
			return true
		}
	}
	return false
}
