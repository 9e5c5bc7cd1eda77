package domain

import (
	"context"
	"encoding/json"
	"time"
)

// ReviewStatus описывает состояние запроса на ревью.
type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "pending"
	ReviewAssigned  ReviewStatus = "assigned"
	ReviewRequeued  ReviewStatus = "requeued"
	ReviewCompleted ReviewStatus = "completed"
	ReviewWithdrawn ReviewStatus = "withdrawn"
)

// IsTerminal возвращает true для финальных состояний.
func (s ReviewStatus) IsTerminal() bool {
	return s == ReviewCompleted || s == ReviewWithdrawn
}

// Outcome - результат обработки ревью, который сообщает клиент.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// Valid проверяет, что outcome входит в допустимый набор.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeCompleted, OutcomeFailed, OutcomeCancelled:
		return true
	}
	return false
}

// ReviewRequest представляет запрос на human-supervision ревью.
// Payload непрозрачен для хаба и передается клиенту как есть.
type ReviewRequest struct {
	ID          string
	Payload     json.RawMessage
	Status      ReviewStatus
	SubmittedAt time.Time
	Attempts    int
}

// StatusChange - событие смены статуса ревью, публикуемое хабом.
type StatusChange struct {
	ReviewID string
	Status   ReviewStatus
	ClientID string
	Attempts int
	Reason   string
	At       time.Time
}

// ReviewRecord - сохраненное состояние ревью для внешнего API.
type ReviewRecord struct {
	ID        string          `json:"review_id"`
	Payload   json.RawMessage `json:"payload"`
	Status    ReviewStatus    `json:"status"`
	ClientID  string          `json:"client_id,omitempty"`
	Attempts  int             `json:"attempts"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ReviewRepository определяет контракт для хранилища статусов ревью.
type ReviewRepository interface {
	Create(ctx context.Context, record *ReviewRecord) error
	UpdateStatus(ctx context.Context, change StatusChange) error
	GetByID(ctx context.Context, reviewID string) (*ReviewRecord, error)
}
