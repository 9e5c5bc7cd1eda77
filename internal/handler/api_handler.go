package handler

import (
	"review-hub/api"
	"review-hub/internal/domain"

	"github.com/sirupsen/logrus"
)

type APIHandler struct {
	*ReviewHandler
	*StatsHandler
	*WSHandler
}

func NewAPIHandler(
	reviewUseCase domain.ReviewUseCase,
	statsUseCase domain.StatsUseCase,
	clientServer ClientServer,
	logger *logrus.Logger,
) api.ServerInterface {
	base := NewBaseHandler(logger)

	return &APIHandler{
		ReviewHandler: NewReviewHandler(reviewUseCase, base),
		StatsHandler:  NewStatsHandler(statsUseCase, base),
		WSHandler:     NewWSHandler(clientServer, base),
	}
}
