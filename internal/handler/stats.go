package handler

import (
	"net/http"

	"review-hub/internal/domain"

	"github.com/labstack/echo/v4"
)

// StatsHandler обрабатывает HTTP-запросы для получения статистики хаба.
type StatsHandler struct {
	*BaseHandler
	statsUseCase domain.StatsUseCase
}

// NewStatsHandler создает новый экземпляр StatsHandler.
func NewStatsHandler(statsUseCase domain.StatsUseCase, base *BaseHandler) *StatsHandler {
	return &StatsHandler{
		BaseHandler:  base,
		statsUseCase: statsUseCase,
	}
}

// GetHubStats возвращает согласованный срез статистики хаба.
// Панель статистики опрашивает его раз в секунду, поэтому лог - на уровне Debug.
func (h *StatsHandler) GetHubStats(c echo.Context) error {
	logEntry := h.logRequest(c, "get_hub_stats")

	snap, err := h.statsUseCase.GetHubStats(c.Request().Context())
	if err != nil {
		logEntry.WithError(err).Error("Failed to get hub stats")
		return c.JSON(http.StatusInternalServerError, toErrorResponse("INTERNAL_ERROR", err.Error()))
	}

	logEntry.WithField("connected_clients", snap.ConnectedClients).Debug("Hub stats retrieved")
	return c.JSON(http.StatusOK, toAPIHubStats(snap))
}

// GetHubClients возвращает подключенных клиентов и свободных среди них.
func (h *StatsHandler) GetHubClients(c echo.Context) error {
	logEntry := h.logRequest(c, "get_hub_clients")
	logEntry.Info("Getting hub clients")

	clients, free, err := h.statsUseCase.GetClients(c.Request().Context())
	if err != nil {
		logEntry.WithError(err).Error("Failed to get hub clients")
		return c.JSON(http.StatusInternalServerError, toErrorResponse("INTERNAL_ERROR", err.Error()))
	}

	logEntry.WithField("clients_count", len(clients)).Info("Hub clients retrieved")
	return c.JSON(http.StatusOK, toAPIClients(clients, free))
}
