package domain

import "context"

// HubStatsSnapshot - согласованный срез статистики хаба на один момент времени.
// Все поля вычисляются из очереди, реестра и трекера, кроме монотонного
// счетчика завершенных ревью.
type HubStatsSnapshot struct {
	PendingReviewsCount   int            `json:"pending_reviews_count"`
	AssignedReviewsCount  int            `json:"assigned_reviews_count"`
	CompletedReviewsCount uint64         `json:"completed_reviews_count"`
	ConnectedClients      int            `json:"connected_clients"`
	FreeClients           int            `json:"free_clients"`
	BusyClients           int            `json:"busy_clients"`
	AssignedReviews       map[string]int `json:"assigned_reviews"`
	ReviewDistribution    map[int]int    `json:"review_distribution"`
}

// ReviewHub определяет контракт хаба, который используют use case'ы.
type ReviewHub interface {
	Submit(review *ReviewRequest) (int, error)
	Withdraw(reviewID string) error
	Snapshot() HubStatsSnapshot
	Clients() []ReviewerClient
	ListFreeClients() []string
}

// StatsUseCase определяет бизнес-логику для работы со статистикой хаба.
type StatsUseCase interface {
	GetHubStats(ctx context.Context) (HubStatsSnapshot, error)
	GetClients(ctx context.Context) ([]ReviewerClient, []string, error)
}
