package mocks

import (
	"context"
	"encoding/json"

	"review-hub/internal/domain"

	"github.com/stretchr/testify/mock"
)

// ReviewUseCase - мок domain.ReviewUseCase.
type ReviewUseCase struct {
	mock.Mock
}

func (m *ReviewUseCase) SubmitReview(ctx context.Context, payload json.RawMessage) (*domain.ReviewRecord, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewRecord), args.Error(1)
}

func (m *ReviewUseCase) GetReview(ctx context.Context, reviewID string) (*domain.ReviewRecord, error) {
	args := m.Called(ctx, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewRecord), args.Error(1)
}

func (m *ReviewUseCase) WithdrawReview(ctx context.Context, reviewID string) error {
	args := m.Called(ctx, reviewID)
	return args.Error(0)
}

// StatsUseCase - мок domain.StatsUseCase.
type StatsUseCase struct {
	mock.Mock
}

func (m *StatsUseCase) GetHubStats(ctx context.Context) (domain.HubStatsSnapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.HubStatsSnapshot), args.Error(1)
}

func (m *StatsUseCase) GetClients(ctx context.Context) ([]domain.ReviewerClient, []string, error) {
	args := m.Called(ctx)
	var clients []domain.ReviewerClient
	if c := args.Get(0); c != nil {
		clients = c.([]domain.ReviewerClient)
	}
	var free []string
	if f := args.Get(1); f != nil {
		free = f.([]string)
	}
	return clients, free, args.Error(2)
}
