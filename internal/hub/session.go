package hub

import (
	"sync"

	"review-hub/internal/domain"
)

// Session - исходящая сторона подключения клиента: ограниченный буфер
// сообщений и сигнал закрытия. Хаб пишет в буфер без блокировки,
// переполнение буфера трактуется как отключение клиента.
type Session struct {
	clientID string
	capacity int
	outbox   chan domain.OutboundMessage
	done     chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	reason    string
}

func newSession(clientID string, capacity, outboxSize int) *Session {
	return &Session{
		clientID: clientID,
		capacity: capacity,
		outbox:   make(chan domain.OutboundMessage, outboxSize),
		done:     make(chan struct{}),
	}
}

func (s *Session) ClientID() string { return s.clientID }

func (s *Session) Capacity() int { return s.capacity }

// Outbox возвращает сообщения, ожидающие отправки клиенту.
func (s *Session) Outbox() <-chan domain.OutboundMessage { return s.outbox }

// Done закрывается, когда хаб снял клиента с учета.
func (s *Session) Done() <-chan struct{} { return s.done }

// Reason возвращает причину закрытия сессии.
func (s *Session) Reason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// offer кладет сообщение в буфер без блокировки.
func (s *Session) offer(msg domain.OutboundMessage) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.outbox <- msg:
		return true
	default:
		return false
	}
}

func (s *Session) close(reason string) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.reason = reason
		s.mu.Unlock()
		close(s.done)
	})
}
