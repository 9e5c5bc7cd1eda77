package usecase

import (
	"context"
	"time"

	"review-hub/internal/domain"

	"github.com/sirupsen/logrus"
)

const defaultStatusWriteTimeout = 3 * time.Second

// StatusRecorder сохраняет смены статусов, которые публикует хаб.
// Ошибка записи не влияет на распределение: хаб остается источником истины.
type StatusRecorder struct {
	reviewRepo domain.ReviewRepository
	logger     *logrus.Logger
	timeout    time.Duration
}

// NewStatusRecorder создает новый экземпляр StatusRecorder.
func NewStatusRecorder(reviewRepo domain.ReviewRepository, logger *logrus.Logger) *StatusRecorder {
	return &StatusRecorder{
		reviewRepo: reviewRepo,
		logger:     logger,
		timeout:    defaultStatusWriteTimeout,
	}
}

// OnStatusChange записывает смену статуса в хранилище.
func (r *StatusRecorder) OnStatusChange(change domain.StatusChange) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.reviewRepo.UpdateStatus(ctx, change); err != nil {
		r.logger.WithFields(logrus.Fields{
			"review_id": change.ReviewID,
			"status":    change.Status,
			"client_id": change.ClientID,
		}).WithError(err).Error("Failed to persist review status")
	}
}
