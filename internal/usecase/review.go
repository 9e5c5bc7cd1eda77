package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"review-hub/internal/domain"

	"github.com/google/uuid"
)

// ReviewUseCase реализует бизнес-логику для работы с запросами на ревью.
type ReviewUseCase struct {
	hub        domain.ReviewHub
	reviewRepo domain.ReviewRepository
}

// NewReviewUseCase создает новый экземпляр ReviewUseCase.
func NewReviewUseCase(hub domain.ReviewHub, reviewRepo domain.ReviewRepository) domain.ReviewUseCase {
	return &ReviewUseCase{
		hub:        hub,
		reviewRepo: reviewRepo,
	}
}

// SubmitReview сохраняет ревью и ставит его в очередь хаба.
func (uc *ReviewUseCase) SubmitReview(ctx context.Context, payload json.RawMessage) (*domain.ReviewRecord, error) {
	if len(payload) == 0 || !json.Valid(payload) {
		return nil, domain.ErrInvalidPayload
	}

	now := time.Now().UTC()
	record := &domain.ReviewRecord{
		ID:        uuid.NewString(),
		Payload:   payload,
		Status:    domain.ReviewPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// 1. Запись должна существовать до того, как хаб начнет публиковать статусы
	if err := uc.reviewRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	// 2. Ставим в очередь
	_, err := uc.hub.Submit(&domain.ReviewRequest{
		ID:          record.ID,
		Payload:     payload,
		SubmittedAt: now,
	})
	if err != nil {
		_ = uc.reviewRepo.UpdateStatus(ctx, domain.StatusChange{
			ReviewID: record.ID,
			Status:   domain.ReviewWithdrawn,
			Reason:   "rejected",
			At:       time.Now().UTC(),
		})
		return nil, err
	}

	return record, nil
}

// GetReview возвращает сохраненное состояние ревью.
func (uc *ReviewUseCase) GetReview(ctx context.Context, reviewID string) (*domain.ReviewRecord, error) {
	if _, err := uuid.Parse(reviewID); err != nil {
		return nil, domain.ErrInvalidReviewID
	}
	return uc.reviewRepo.GetByID(ctx, reviewID)
}

// WithdrawReview отзывает ревью. Отзыв неизвестного или завершенного
// ревью - no-op.
func (uc *ReviewUseCase) WithdrawReview(ctx context.Context, reviewID string) error {
	if _, err := uuid.Parse(reviewID); err != nil {
		return domain.ErrInvalidReviewID
	}

	record, err := uc.reviewRepo.GetByID(ctx, reviewID)
	if errors.Is(err, domain.ErrReviewNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if record.Status.IsTerminal() {
		return nil
	}

	return uc.hub.Withdraw(reviewID)
}
