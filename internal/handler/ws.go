package handler

import (
	"context"
	"net/http"

	"review-hub/api"
	"review-hub/internal/domain"
	"review-hub/internal/hub"
	"review-hub/internal/transport"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ClientServer обслуживает канал клиента-ревьювера до его отключения.
type ClientServer interface {
	Serve(ctx context.Context, clientID string, capacity int, ch hub.Channel) error
}

// WSHandler принимает websocket-подключения клиентов-ревьюверов.
type WSHandler struct {
	*BaseHandler
	server   ClientServer
	upgrader websocket.Upgrader
}

// NewWSHandler создает новый экземпляр WSHandler.
func NewWSHandler(server ClientServer, base *BaseHandler) *WSHandler {
	return &WSHandler{
		BaseHandler: base,
		server:      server,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// GetWs переводит соединение на websocket и передает его хабу.
// Блокирует до отключения клиента.
func (h *WSHandler) GetWs(c echo.Context, params api.GetWsParams) error {
	capacity := 0
	if params.Capacity != nil {
		capacity = *params.Capacity
	}

	logEntry := h.logRequest(c, "connect_reviewer").WithFields(logrus.Fields{
		"client_id": params.ClientId,
		"capacity":  capacity,
	})

	if params.ClientId == "" {
		return h.respondError(c, domain.ErrInvalidClientID)
	}
	if capacity < 0 {
		return h.respondError(c, domain.ErrInvalidCapacity)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrader уже ответил клиенту
		logEntry.WithError(err).Warn("Websocket upgrade failed")
		return nil
	}

	if err := h.server.Serve(c.Request().Context(), params.ClientId, capacity, transport.NewWebSocketChannel(conn)); err != nil {
		logEntry.WithError(err).Warn("Reviewer client rejected")
		return nil
	}

	logEntry.Info("Reviewer connection closed")
	return nil
}
