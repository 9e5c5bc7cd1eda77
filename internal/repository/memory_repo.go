package repository

import (
	"context"
	"sync"

	"review-hub/internal/domain"
)

// MemoryReviewRepository хранит статусы ревью в памяти процесса.
// Используется без PostgreSQL (REVIEW_STORE=memory).
type MemoryReviewRepository struct {
	mu      sync.RWMutex
	reviews map[string]domain.ReviewRecord
}

// NewMemoryReviewRepository создает новый экземпляр MemoryReviewRepository.
func NewMemoryReviewRepository() domain.ReviewRepository {
	return &MemoryReviewRepository{
		reviews: make(map[string]domain.ReviewRecord),
	}
}

func (r *MemoryReviewRepository) Create(_ context.Context, record *domain.ReviewRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reviews[record.ID]; exists {
		return domain.ErrDuplicateReview
	}
	r.reviews[record.ID] = *record
	return nil
}

func (r *MemoryReviewRepository) UpdateStatus(_ context.Context, change domain.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.reviews[change.ReviewID]
	if !ok {
		return domain.ErrReviewNotFound
	}
	record.Status = change.Status
	record.ClientID = change.ClientID
	if change.Attempts > record.Attempts {
		record.Attempts = change.Attempts
	}
	record.UpdatedAt = change.At
	r.reviews[change.ReviewID] = record
	return nil
}

func (r *MemoryReviewRepository) GetByID(_ context.Context, reviewID string) (*domain.ReviewRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.reviews[reviewID]
	if !ok {
		return nil, domain.ErrReviewNotFound
	}
	return &record, nil
}
