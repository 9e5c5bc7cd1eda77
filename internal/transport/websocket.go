// Package transport связывает хаб с websocket-подключениями клиентов-ревьюверов.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"review-hub/internal/domain"

	"github.com/gorilla/websocket"
)

const (
	maxMessageSize = 64 * 1024
	closeWait      = time.Second
)

// WebSocketChannel - hub.Channel поверх gorilla/websocket. Сообщения
// кодируются как JSON-кадры. Send вызывается только из одной горутины
// записи, Receive только из одной горутины чтения; Close безопасен
// для конкурентного вызова.
type WebSocketChannel struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

// NewWebSocketChannel оборачивает установленное websocket-соединение.
func NewWebSocketChannel(conn *websocket.Conn) *WebSocketChannel {
	conn.SetReadLimit(maxMessageSize)
	return &WebSocketChannel{conn: conn}
}

// Send пишет сообщение с дедлайном из ctx.
func (c *WebSocketChannel) Send(ctx context.Context, msg domain.OutboundMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return asContextError(c.conn.WriteJSON(msg))
}

// Receive читает следующее сообщение клиента. Истечение дедлайна ctx
// возвращается как context.DeadlineExceeded.
func (c *WebSocketChannel) Receive(ctx context.Context) (domain.InboundMessage, error) {
	var msg domain.InboundMessage
	if err := ctx.Err(); err != nil {
		return msg, err
	}
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return msg, err
	}
	_, r, err := c.conn.NextReader()
	if err != nil {
		return msg, asContextError(err)
	}
	if err := json.NewDecoder(r).Decode(&msg); err != nil {
		if isMalformed(err) {
			// Кадр получен, соединение пригодно: отдаем пустое сообщение,
			// чтобы читатель отбросил его как неизвестное. Остаток кадра
			// пропустит следующий NextReader.
			return domain.InboundMessage{}, nil
		}
		return msg, asContextError(err)
	}
	return msg, nil
}

// isMalformed отличает испорченное содержимое кадра от ошибки транспорта.
// Обрыв соединения посреди кадра gorilla отдает как *websocket.CloseError,
// а не io.ErrUnexpectedEOF, поэтому он сюда не попадает.
func isMalformed(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}

// Close отправляет кадр закрытия и разрывает соединение.
func (c *WebSocketChannel) Close() error {
	c.closeOnce.Do(func() {
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWait),
		)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func asContextError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}
