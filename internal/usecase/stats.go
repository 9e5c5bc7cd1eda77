package usecase

import (
	"context"

	"review-hub/internal/domain"
)

// StatsUseCase реализует бизнес-логику для работы со статистикой хаба.
type StatsUseCase struct {
	hub domain.ReviewHub
}

// NewStatsUseCase создает новый экземпляр StatsUseCase.
func NewStatsUseCase(hub domain.ReviewHub) domain.StatsUseCase {
	return &StatsUseCase{
		hub: hub,
	}
}

// GetHubStats возвращает согласованный срез статистики хаба.
func (uc *StatsUseCase) GetHubStats(ctx context.Context) (domain.HubStatsSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.HubStatsSnapshot{}, err
	}
	return uc.hub.Snapshot(), nil
}

// GetClients возвращает подключенных клиентов и свободных среди них.
func (uc *StatsUseCase) GetClients(ctx context.Context) ([]domain.ReviewerClient, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return uc.hub.Clients(), uc.hub.ListFreeClients(), nil
}
