package handler

import (
	"errors"
	"net/http"
	"strconv"

	"review-hub/api"
	"review-hub/internal/domain"

	"github.com/google/uuid"
)

// Вспомогательные функции преобразования доменных моделей в API модели

func toAPIReview(record *domain.ReviewRecord) api.Review {
	var clientID *string
	if record.ClientID != "" {
		id := record.ClientID
		clientID = &id
	}

	// ID приходит из хранилища, где он уже проверен как UUID
	reviewID, _ := uuid.Parse(record.ID)

	return api.Review{
		ReviewId:  reviewID,
		Payload:   record.Payload,
		Status:    api.ReviewStatus(record.Status),
		ClientId:  clientID,
		Attempts:  record.Attempts,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func toAPIHubStats(snap domain.HubStatsSnapshot) api.HubStats {
	distribution := make(map[string]int, len(snap.ReviewDistribution))
	for load, clients := range snap.ReviewDistribution {
		distribution[strconv.Itoa(load)] = clients
	}
	assigned := snap.AssignedReviews
	if assigned == nil {
		assigned = map[string]int{}
	}

	return api.HubStats{
		PendingReviewsCount:   snap.PendingReviewsCount,
		AssignedReviewsCount:  snap.AssignedReviewsCount,
		CompletedReviewsCount: int64(snap.CompletedReviewsCount),
		ConnectedClients:      snap.ConnectedClients,
		FreeClients:           snap.FreeClients,
		BusyClients:           snap.BusyClients,
		AssignedReviews:       assigned,
		ReviewDistribution:    distribution,
	}
}

func toAPIClients(clients []domain.ReviewerClient, free []string) api.HubClients {
	result := api.HubClients{
		Clients:     make([]api.ReviewerClient, len(clients)),
		FreeClients: free,
	}
	for i, c := range clients {
		result.Clients[i] = api.ReviewerClient{
			ClientId:    c.ID,
			Capacity:    c.Capacity,
			Load:        c.Load,
			ConnectedAt: c.ConnectedAt,
		}
	}
	if result.FreeClients == nil {
		result.FreeClients = []string{}
	}
	return result
}

func toErrorResponse(code, message string) api.ErrorResponse {
	var resp api.ErrorResponse
	resp.Error.Code = api.ErrorResponseErrorCode(code)
	resp.Error.Message = message
	return resp
}

func toAPIErrorResponse(httpErr domain.HTTPError) api.ErrorResponse {
	return toErrorResponse(httpErr.Code, httpErr.Message)
}

func getHTTPStatusCode(err error) int {
	switch {
	// Conflict errors (409)
	case errors.Is(err, domain.ErrDuplicateReview), errors.Is(err, domain.ErrDuplicateClient),
		errors.Is(err, domain.ErrReviewNotAssigned):
		return http.StatusConflict

	// Not Found errors (404)
	case errors.Is(err, domain.ErrReviewNotFound), errors.Is(err, domain.ErrClientNotFound):
		return http.StatusNotFound

	// Bad Request errors (400) - валидация
	case errors.Is(err, domain.ErrInvalidReviewID), errors.Is(err, domain.ErrInvalidPayload),
		errors.Is(err, domain.ErrInvalidClientID), errors.Is(err, domain.ErrInvalidCapacity),
		errors.Is(err, domain.ErrInvalidOutcome):
		return http.StatusBadRequest

	// Хаб останавливается (503)
	case errors.Is(err, domain.ErrHubStopped):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
