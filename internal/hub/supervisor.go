package hub

import (
	"context"
	"errors"

	"review-hub/internal/domain"

	"github.com/sirupsen/logrus"
)

// Channel - уже установленный двунаправленный канал сообщений с клиентом.
// Кадрирование и сериализация - забота транспорта.
type Channel interface {
	Send(ctx context.Context, msg domain.OutboundMessage) error
	Receive(ctx context.Context) (domain.InboundMessage, error)
	Close() error
}

// Supervisor владеет жизненным циклом канала клиента: регистрирует клиента,
// передает его результаты в хаб и при обрыве, таймауте heartbeat или ошибке
// записи снимает клиента, возвращая его ревью в очередь.
type Supervisor struct {
	hub    *Hub
	logger *logrus.Logger
}

// NewSupervisor создает новый экземпляр Supervisor.
func NewSupervisor(hub *Hub, logger *logrus.Logger) *Supervisor {
	return &Supervisor{
		hub:    hub,
		logger: logger,
	}
}

// Serve обслуживает канал клиента до отключения. Блокирует вызывающего.
// Ошибка возвращается только если клиента не удалось зарегистрировать.
func (s *Supervisor) Serve(ctx context.Context, clientID string, capacity int, ch Channel) error {
	session, err := s.hub.Connect(clientID, capacity)
	if err != nil {
		_ = ch.Close()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(ctx, session, ch)
	}()

	reason := s.readLoop(ctx, session, ch)
	s.hub.disconnectSession(session, reason)

	cancel()
	_ = ch.Close()
	<-writerDone
	return nil
}

// writeLoop отправляет сообщения из буфера сессии в канал.
// Ошибка или таймаут записи равносильны отключению.
func (s *Supervisor) writeLoop(ctx context.Context, session *Session, ch Channel) {
	welcome := domain.OutboundMessage{
		Type:     domain.MsgWelcome,
		ClientID: session.ClientID(),
		Capacity: session.Capacity(),
	}
	if err := s.send(ctx, ch, welcome); err != nil {
		s.writeFailed(session, ch, err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-session.Done():
			// Хаб снял клиента сам (переполнение буфера, остановка): рвем канал,
			// чтобы readLoop завершился.
			_ = ch.Close()
			return
		case msg := <-session.Outbox():
			if err := s.send(ctx, ch, msg); err != nil {
				s.writeFailed(session, ch, err)
				return
			}
		}
	}
}

func (s *Supervisor) send(ctx context.Context, ch Channel, msg domain.OutboundMessage) error {
	sendCtx, cancel := context.WithTimeout(ctx, s.hub.cfg.WriteTimeout)
	defer cancel()
	return ch.Send(sendCtx, msg)
}

func (s *Supervisor) writeFailed(session *Session, ch Channel, err error) {
	s.logger.WithFields(logrus.Fields{
		"client_id": session.ClientID(),
	}).WithError(err).Warn("Failed to deliver message to client")

	s.hub.recorder.ClientUnresponsive()
	s.hub.disconnectSession(session, reasonWriteFailed)
	_ = ch.Close()
}

// readLoop принимает сообщения клиента. Любое сообщение продлевает heartbeat.
// Возвращает причину отключения.
func (s *Supervisor) readLoop(ctx context.Context, session *Session, ch Channel) string {
	clientID := session.ClientID()
	for {
		readCtx, cancel := context.WithTimeout(ctx, s.hub.cfg.HeartbeatTimeout)
		msg, err := ch.Receive(readCtx)
		heartbeatExpired := errors.Is(readCtx.Err(), context.DeadlineExceeded)
		cancel()

		if err != nil {
			select {
			case <-session.Done():
				return session.Reason()
			default:
			}
			if ctx.Err() != nil {
				return reasonHubStopped
			}
			if heartbeatExpired || errors.Is(err, context.DeadlineExceeded) {
				s.hub.recorder.ClientUnresponsive()
				s.logger.WithField("client_id", clientID).
					WithError(domain.ErrClientUnresponsive).
					Warn("Heartbeat timeout")
				return reasonHeartbeatTimeout
			}
			return reasonClientDisconnected
		}

		switch msg.Type {
		case domain.MsgHeartbeat:
		case domain.MsgOutcome:
			if err := s.hub.ReportOutcome(clientID, msg.ReviewID, msg.Outcome); err != nil {
				s.logger.WithFields(logrus.Fields{
					"client_id": clientID,
					"review_id": msg.ReviewID,
					"outcome":   msg.Outcome,
				}).WithError(err).Warn("Failed to apply outcome")
			}
		default:
			s.logger.WithFields(logrus.Fields{
				"client_id": clientID,
				"type":      msg.Type,
			}).Warn("Unknown message type")
		}
	}
}
