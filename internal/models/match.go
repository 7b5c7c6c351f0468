package models

import "time"

// MatchStatus is the server-owned lifecycle status of a match. It only moves
// forward: active -> confirmed -> date_passed, with expired reachable from
// active or confirmed on upstream timeout.
type MatchStatus string

const (
	MatchStatusActive     MatchStatus = "active"
	MatchStatusConfirmed  MatchStatus = "confirmed"
	MatchStatusDatePassed MatchStatus = "date_passed"
	MatchStatusExpired    MatchStatus = "expired"
)

// Match is one side's view of a pairing with another user under a shared
// activity.
type Match struct {
	ID                     string      `json:"id"`
	CounterpartID          string      `json:"counterpart_id"`
	CounterpartName        string      `json:"counterpart_name"`
	ActivityType           string      `json:"activity_type"`
	Location               string      `json:"location"`
	CandidateTimes         []time.Time `json:"candidate_times"`
	Status                 MatchStatus `json:"status"`
	MyConfirmed            bool        `json:"my_confirmed"`
	TheirConfirmed         bool        `json:"their_confirmed"`
	MyRating               *int        `json:"my_rating"`
	TheirRating            *int        `json:"their_rating"`
	TrustedContactNotified bool        `json:"trusted_contact_notified"`
	UpdatedAt              time.Time   `json:"updated_at"`
	LastMessageAt          time.Time   `json:"last_message_at"`
}

// ConfirmationUpdate is the confirmation/rating record pushed by the platform
// when either side confirms or a date is finalized. Participant ids are
// absolute; the receiving session resolves which side is "me" by comparing
// the stored match's counterpart id.
type ConfirmationUpdate struct {
	MatchID        string      `json:"match_id"`
	UserAID        string      `json:"user_a_id"`
	UserBID        string      `json:"user_b_id"`
	UserAConfirmed bool        `json:"user_a_confirmed"`
	UserBConfirmed bool        `json:"user_b_confirmed"`
	UserARating    *int        `json:"user_a_rating"`
	UserBRating    *int        `json:"user_b_rating"`
	Status         MatchStatus `json:"status"`
	UpdatedAt      time.Time   `json:"updated_at"`
	LastMessageAt  time.Time   `json:"last_message_at"`
}
