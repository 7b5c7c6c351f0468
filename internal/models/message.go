package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SystemSenderID is the reserved sender for synthesized notifications.
const SystemSenderID = "system"

// MessageType classifies a negotiation message.
type MessageType string

const (
	MessageTypePlans        MessageType = "plans"
	MessageTypeConfirmation MessageType = "confirmation"
	MessageTypeCancellation MessageType = "cancellation"
	MessageTypeContactInfo  MessageType = "contact_info"
	MessageTypeSystem       MessageType = "system"
	MessageTypeText         MessageType = "text"
)

// ValidMessageType reports whether t is a known message type.
func ValidMessageType(t MessageType) bool {
	switch t {
	case MessageTypePlans, MessageTypeConfirmation, MessageTypeCancellation,
		MessageTypeContactInfo, MessageTypeSystem, MessageTypeText:
		return true
	}
	return false
}

// Message is one entry in a match's append-only negotiation log.
type Message struct {
	ID        string      `json:"id"`
	MatchID   string      `json:"match_id"`
	SenderID  string      `json:"sender_id"`
	Type      MessageType `json:"message_type"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// ContactInfo is the decoded content of a contact_info message. Both fields
// are optional on the wire.
type ContactInfo struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ParseContactInfo decodes a contact_info message's content. A parse failure
// is not an error condition: the raw string is returned for literal display.
func ParseContactInfo(content string) (ContactInfo, bool) {
	var info ContactInfo
	if err := json.Unmarshal([]byte(content), &info); err != nil {
		return ContactInfo{}, false
	}
	return info, true
}

// EncodeContactInfo encodes contact details for the wire.
func EncodeContactInfo(info ContactInfo) (string, error) {
	data, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("failed to encode contact info: %w", err)
	}
	return string(data), nil
}

// TrustedContactMessageID returns the deterministic, match-scoped id used for
// synthetic trusted-contact system messages. Repeated notifications for the
// same match collapse onto a single log entry instead of accumulating.
func TrustedContactMessageID(matchID string) string {
	return "trusted-contact:" + matchID
}

// NewTrustedContactMessage builds the synthetic system message recording that
// a trusted contact was notified for the match.
func NewTrustedContactMessage(matchID, text string, at time.Time) Message {
	return Message{
		ID:        TrustedContactMessageID(matchID),
		MatchID:   matchID,
		SenderID:  SystemSenderID,
		Type:      MessageTypeSystem,
		Content:   text,
		CreatedAt: at,
	}
}
