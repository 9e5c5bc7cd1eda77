package mocks

import (
	"review-hub/internal/domain"

	"github.com/stretchr/testify/mock"
)

// ReviewHub - мок domain.ReviewHub.
type ReviewHub struct {
	mock.Mock
}

func (m *ReviewHub) Submit(review *domain.ReviewRequest) (int, error) {
	args := m.Called(review)
	return args.Int(0), args.Error(1)
}

func (m *ReviewHub) Withdraw(reviewID string) error {
	args := m.Called(reviewID)
	return args.Error(0)
}

func (m *ReviewHub) Snapshot() domain.HubStatsSnapshot {
	args := m.Called()
	return args.Get(0).(domain.HubStatsSnapshot)
}

func (m *ReviewHub) Clients() []domain.ReviewerClient {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.ReviewerClient)
}

func (m *ReviewHub) ListFreeClients() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}
