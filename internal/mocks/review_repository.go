package mocks

import (
	"context"

	"review-hub/internal/domain"

	"github.com/stretchr/testify/mock"
)

// ReviewRepository - мок domain.ReviewRepository.
type ReviewRepository struct {
	mock.Mock
}

func (m *ReviewRepository) Create(ctx context.Context, record *domain.ReviewRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *ReviewRepository) UpdateStatus(ctx context.Context, change domain.StatusChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

func (m *ReviewRepository) GetByID(ctx context.Context, reviewID string) (*domain.ReviewRecord, error) {
	args := m.Called(ctx, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewRecord), args.Error(1)
}
