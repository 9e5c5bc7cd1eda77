package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"review-hub/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pair поднимает сервер и возвращает серверный канал и клиентское соединение.
func pair(t *testing.T) (*WebSocketChannel, *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	serverCh := make(chan *WebSocketChannel, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverCh <- NewWebSocketChannel(conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case ch := <-serverCh:
		t.Cleanup(func() { ch.Close() })
		return ch, client
	case <-time.After(time.Second):
		t.Fatal("server side not upgraded")
		return nil, nil
	}
}

func TestWebSocketChannel_SendReceive(t *testing.T) {
	ch, client := pair(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, ch.Send(ctx, domain.OutboundMessage{
		Type:     domain.MsgAssignment,
		ReviewID: "r1",
		Payload:  []byte(`{"tool":"bash"}`),
	}))

	var got map[string]interface{}
	require.NoError(t, client.ReadJSON(&got))
	assert.Equal(t, "assignment", got["type"])
	assert.Equal(t, "r1", got["review_id"])
	assert.NotContains(t, got, "deadline")

	require.NoError(t, client.WriteJSON(map[string]string{
		"type":      "outcome",
		"review_id": "r1",
		"outcome":   "completed",
	}))

	msg, err := ch.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.MsgOutcome, msg.Type)
	assert.Equal(t, "r1", msg.ReviewID)
	assert.Equal(t, domain.OutcomeCompleted, msg.Outcome)
}

func TestWebSocketChannel_ReceiveDeadline(t *testing.T) {
	ch, _ := pair(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := ch.Receive(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWebSocketChannel_MalformedMessageSkipped(t *testing.T) {
	testCases := []struct {
		name  string
		frame string
	}{
		{"Truncated JSON", `{"type":`},
		{"Empty Frame", ``},
		{"Not JSON", `hello`},
		{"Wrong Field Type", `{"type":5}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ch, client := pair(t)
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(tc.frame)))
			require.NoError(t, client.WriteJSON(map[string]string{"type": "heartbeat"}))

			msg, err := ch.Receive(ctx)
			require.NoError(t, err)
			assert.Empty(t, msg.Type)

			msg, err = ch.Receive(ctx)
			require.NoError(t, err)
			assert.Equal(t, domain.MsgHeartbeat, msg.Type)
		})
	}
}

func TestWebSocketChannel_DroppedConnectionIsError(t *testing.T) {
	ch, client := pair(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, client.UnderlyingConn().Close())

	_, err := ch.Receive(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
}

func TestWebSocketChannel_Close(t *testing.T) {
	ch, client := pair(t)

	require.NoError(t, ch.Close())
	assert.NoError(t, ch.Close())

	_, _, err := client.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))

	_, err = ch.Receive(context.Background())
	assert.Error(t, err)
}
