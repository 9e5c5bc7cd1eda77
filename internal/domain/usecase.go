package domain

import (
	"context"
	"encoding/json"
)

// ReviewUseCase определяет бизнес-логику для работы с запросами на ревью.
type ReviewUseCase interface {
	SubmitReview(ctx context.Context, payload json.RawMessage) (*ReviewRecord, error)
	GetReview(ctx context.Context, reviewID string) (*ReviewRecord, error)
	WithdrawReview(ctx context.Context, reviewID string) error
}
