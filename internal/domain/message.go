package domain

import (
	"encoding/json"
	"time"
)

// MessageType - тип сообщения между хабом и клиентом.
type MessageType string

const (
	// Хаб -> клиент
	MsgWelcome    MessageType = "welcome"
	MsgAssignment MessageType = "assignment"
	MsgCancel     MessageType = "cancel"

	// Клиент -> хаб
	MsgHeartbeat MessageType = "heartbeat"
	MsgOutcome   MessageType = "outcome"
)

// OutboundMessage отправляется клиенту по его каналу.
type OutboundMessage struct {
	Type     MessageType     `json:"type"`
	ClientID string          `json:"client_id,omitempty"`
	Capacity int             `json:"capacity,omitempty"`
	ReviewID string          `json:"review_id,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Deadline *time.Time      `json:"deadline,omitempty"`
}

// InboundMessage приходит от клиента.
type InboundMessage struct {
	Type     MessageType `json:"type"`
	ReviewID string      `json:"review_id,omitempty"`
	Outcome  Outcome     `json:"outcome,omitempty"`
}
