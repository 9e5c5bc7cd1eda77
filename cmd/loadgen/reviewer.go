package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"time"

	"review-hub/internal/domain"

	"github.com/gorilla/websocket"
)

const heartbeatInterval = 10 * time.Second

// reviewer - клиент-ревьювер: берет назначения, "работает" случайное время
// и сообщает результат. На отмену отвечает cancelled.
type reviewer struct {
	id   string
	opts options
	conn *websocket.Conn

	writeMu sync.Mutex
	mu      sync.Mutex
	active  map[string]context.CancelFunc

	completed int
	failed    int
}

func newReviewer(id string, opts options) *reviewer {
	return &reviewer{
		id:     id,
		opts:   opts,
		active: make(map[string]context.CancelFunc),
	}
}

func (r *reviewer) connect(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return err
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/ws"
	u.RawQuery = url.Values{
		"client_id": {r.id},
		"capacity":  {fmt.Sprint(r.opts.capacity)},
	}.Encode()

	r.conn, _, err = websocket.DefaultDialer.Dial(u.String(), nil)
	return err
}

func (r *reviewer) send(msg domain.InboundMessage) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.conn.WriteJSON(msg)
}

func (r *reviewer) run(ctx context.Context) {
	defer r.conn.Close()

	go func() {
		<-ctx.Done()
		r.conn.Close()
	}()
	go r.heartbeat(ctx)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		var msg domain.OutboundMessage
		if err := r.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case domain.MsgAssignment:
			workCtx, cancel := context.WithCancel(ctx)
			r.mu.Lock()
			r.active[msg.ReviewID] = cancel
			r.mu.Unlock()

			wg.Add(1)
			go func(reviewID string) {
				defer wg.Done()
				r.work(workCtx, reviewID)
			}(msg.ReviewID)
		case domain.MsgCancel:
			r.mu.Lock()
			if cancel, ok := r.active[msg.ReviewID]; ok {
				cancel()
			}
			r.mu.Unlock()
		}
	}
}

func (r *reviewer) work(ctx context.Context, reviewID string) {
	defer func() {
		r.mu.Lock()
		delete(r.active, reviewID)
		r.mu.Unlock()
	}()

	d := time.Duration(rand.Int63n(int64(2*r.opts.workTime) + 1))
	select {
	case <-time.After(d):
	case <-ctx.Done():
		_ = r.send(domain.InboundMessage{Type: domain.MsgOutcome, ReviewID: reviewID, Outcome: domain.OutcomeCancelled})
		return
	}

	outcome := domain.OutcomeCompleted
	if rand.Float64() < r.opts.failRate {
		outcome = domain.OutcomeFailed
	}
	if err := r.send(domain.InboundMessage{Type: domain.MsgOutcome, ReviewID: reviewID, Outcome: outcome}); err != nil {
		return
	}

	r.mu.Lock()
	if outcome == domain.OutcomeCompleted {
		r.completed++
	} else {
		r.failed++
	}
	r.mu.Unlock()
}

func (r *reviewer) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.send(domain.InboundMessage{Type: domain.MsgHeartbeat}); err != nil {
				return
			}
		}
	}
}
