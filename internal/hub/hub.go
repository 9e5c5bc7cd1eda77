// Package hub распределяет запросы на ревью между подключенными клиентами-ревьюверами.
//
// Очередь, реестр клиентов и трекер назначений образуют единую область
// согласованности под одним мьютексом. Все многошаговые изменения
// (извлечь и назначить, снять клиента и вернуть его ревью в очередь)
// выполняются в одной критической секции без ввода-вывода.
package hub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"review-hub/internal/domain"

	"github.com/sirupsen/logrus"
)

// Config задает параметры хаба.
type Config struct {
	DefaultCapacity   int
	OutboxSize        int
	HeartbeatTimeout  time.Duration
	WriteTimeout      time.Duration
	AssignmentTimeout time.Duration // 0 - без дедлайна
	CancelAckTimeout  time.Duration
	StatusBuffer      int
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() Config {
	return Config{
		DefaultCapacity:  1,
		OutboxSize:       16,
		HeartbeatTimeout: 30 * time.Second,
		WriteTimeout:     5 * time.Second,
		CancelAckTimeout: 10 * time.Second,
		StatusBuffer:     1024,
	}
}

// Option настраивает Hub.
type Option func(*Hub)

// WithRecorder подключает приемник метрик.
func WithRecorder(r Recorder) Option {
	return func(h *Hub) {
		if r != nil {
			h.recorder = r
		}
	}
}

// WithStatusListener подключает получателя смен статусов ревью.
func WithStatusListener(l StatusListener) Option {
	return func(h *Hub) {
		h.listener = l
	}
}

// Hub - хаб назначения ревью.
type Hub struct {
	cfg      Config
	logger   *logrus.Logger
	recorder Recorder
	listener StatusListener

	// nowFunc allows tests to control time.
	nowFunc func() time.Time

	mu        sync.RWMutex
	queue     *reviewQueue
	tracker   *assignmentTracker
	registry  *clientRegistry
	completed uint64
	stopped   bool

	kick     chan struct{}
	statusCh chan domain.StatusChange

	startMu sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New создает хаб. Цикл диспетчера запускается вызовом Start.
func New(cfg Config, logger *logrus.Logger, opts ...Option) *Hub {
	defaults := DefaultConfig()
	if cfg.DefaultCapacity <= 0 {
		cfg.DefaultCapacity = defaults.DefaultCapacity
	}
	if cfg.OutboxSize <= 0 {
		cfg.OutboxSize = defaults.OutboxSize
	}
	if cfg.HeartbeatTimeout <= 0 {
		cfg.HeartbeatTimeout = defaults.HeartbeatTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.CancelAckTimeout <= 0 {
		cfg.CancelAckTimeout = defaults.CancelAckTimeout
	}
	if cfg.StatusBuffer <= 0 {
		cfg.StatusBuffer = defaults.StatusBuffer
	}

	queue := newReviewQueue()
	tracker := newAssignmentTracker(queue)
	h := &Hub{
		cfg:      cfg,
		logger:   logger,
		recorder: nopRecorder{},
		nowFunc:  time.Now,
		queue:    queue,
		tracker:  tracker,
		registry: newClientRegistry(tracker),
		kick:     make(chan struct{}, 1),
		statusCh: make(chan domain.StatusChange, cfg.StatusBuffer),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Config возвращает действующую конфигурацию.
func (h *Hub) Config() Config {
	return h.cfg
}

// Start запускает цикл диспетчера и доставку статусов.
func (h *Hub) Start(ctx context.Context) error {
	h.startMu.Lock()
	defer h.startMu.Unlock()

	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		return domain.ErrHubStopped
	}
	if h.started {
		return fmt.Errorf("review hub already started")
	}
	h.ctx, h.cancel = context.WithCancel(ctx)
	h.started = true

	h.wg.Add(1)
	go h.dispatchLoop()

	if h.listener != nil {
		h.wg.Add(1)
		go h.notifyLoop()
	}

	// Очередь могла наполниться до запуска.
	h.trigger()
	return nil
}

// Stop останавливает хаб и закрывает все сессии. Повторный вызов - no-op.
func (h *Hub) Stop() error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil
	}
	h.stopped = true
	h.tracker.stopAllTimers()
	for _, e := range h.registry.clients {
		e.session.close(reasonHubStopped)
	}
	pending, assigned := h.queue.Len(), h.tracker.Len()
	h.mu.Unlock()

	h.startMu.Lock()
	if h.cancel != nil {
		h.cancel()
	}
	h.startMu.Unlock()
	h.wg.Wait()

	h.logger.WithFields(logrus.Fields{
		"pending_reviews":  pending,
		"assigned_reviews": assigned,
	}).Info("Review hub stopped")
	return nil
}

// Submit ставит ревью в очередь и возвращает его позицию.
func (h *Hub) Submit(review *domain.ReviewRequest) (int, error) {
	if review == nil || review.ID == "" {
		return 0, domain.ErrInvalidReviewID
	}

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return 0, domain.ErrHubStopped
	}
	if _, inFlight := h.tracker.Get(review.ID); inFlight {
		h.mu.Unlock()
		return 0, fmt.Errorf("%w: %s", domain.ErrDuplicateReview, review.ID)
	}
	if review.SubmittedAt.IsZero() {
		review.SubmittedAt = h.nowFunc()
	}
	position, err := h.queue.Enqueue(review)
	if err != nil {
		h.mu.Unlock()
		return 0, err
	}
	h.emitLocked(review, domain.ReviewPending, "", "")
	h.mu.Unlock()

	h.logger.WithFields(logrus.Fields{
		"review_id": review.ID,
		"position":  position,
	}).Debug("Review queued")

	h.trigger()
	return position, nil
}

// Connect регистрирует клиента и возвращает его сессию.
// Нулевая емкость заменяется емкостью по умолчанию.
func (h *Hub) Connect(clientID string, capacity int) (*Session, error) {
	if clientID == "" {
		return nil, domain.ErrInvalidClientID
	}
	if capacity < 0 {
		return nil, domain.ErrInvalidCapacity
	}
	if capacity == 0 {
		capacity = h.cfg.DefaultCapacity
	}

	outboxSize := h.cfg.OutboxSize
	if outboxSize < capacity*2 {
		outboxSize = capacity * 2
	}
	session := newSession(clientID, capacity, outboxSize)

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil, domain.ErrHubStopped
	}
	err := h.registry.Register(clientID, capacity, h.nowFunc(), session)
	h.mu.Unlock()
	if err != nil {
		return nil, err
	}

	h.logger.WithFields(logrus.Fields{
		"client_id": clientID,
		"capacity":  capacity,
	}).Info("Reviewer client connected")

	h.trigger()
	return session, nil
}

// Disconnect снимает клиента с учета и возвращает его ревью в начало очереди.
// Для неизвестного клиента - no-op.
func (h *Hub) Disconnect(clientID, reason string) {
	h.disconnect(clientID, nil, reason)
}

// disconnectSession снимает клиента, только если он все еще владеет этой сессией.
func (h *Hub) disconnectSession(session *Session, reason string) {
	h.disconnect(session.clientID, session, reason)
}

func (h *Hub) disconnect(clientID string, session *Session, reason string) {
	if reason == "" {
		reason = reasonClientDisconnected
	}

	h.mu.Lock()
	entry, ok := h.registry.Get(clientID)
	if !ok || (session != nil && entry.session != session) {
		h.mu.Unlock()
		return
	}
	released, err := h.dropClientLocked(entry, reason)
	h.mu.Unlock()

	entryLog := h.logger.WithFields(logrus.Fields{
		"client_id":        clientID,
		"reason":           reason,
		"requeued_reviews": len(released),
	})
	if err != nil {
		entryLog.WithError(err).WithField("alarm", true).Error("Client registry invariant violated")
	}
	entryLog.Info("Reviewer client disconnected")

	h.trigger()
}

// dropClientLocked снимает клиента и возвращает его ревью в очередь.
// Вызывающий должен держать h.mu.
func (h *Hub) dropClientLocked(entry *clientEntry, reason string) ([]*domain.ReviewRequest, error) {
	heldIDs, _ := h.registry.Deregister(entry.id)
	released := h.tracker.ReleaseForClient(entry.id)

	var err error
	if len(heldIDs) != len(released) {
		h.recorder.InvariantViolation("registry_corrupted")
		err = fmt.Errorf("%w: client %s held %d reviews, released %d",
			domain.ErrRegistryCorrupted, entry.id, len(heldIDs), len(released))
	}

	for _, review := range released {
		h.recorder.ReviewRequeued(reason)
		h.emitLocked(review, domain.ReviewRequeued, entry.id, reason)
	}
	entry.session.close(reason)
	return released, err
}

// ReportOutcome применяет результат, присланный клиентом.
// Повторный отчет по уже снятому назначению - no-op.
func (h *Hub) ReportOutcome(clientID, reviewID string, outcome domain.Outcome) error {
	if !outcome.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidOutcome, outcome)
	}

	h.mu.Lock()
	a, ok := h.tracker.Get(reviewID)
	if !ok {
		h.mu.Unlock()
		h.logger.WithFields(logrus.Fields{
			"client_id": clientID,
			"review_id": reviewID,
			"outcome":   outcome,
		}).Debug("Outcome for inactive review ignored")
		return nil
	}
	if a.ClientID != clientID {
		holder := a.ClientID
		h.mu.Unlock()
		return fmt.Errorf("%w: review %s held by %s", domain.ErrReviewNotAssigned, reviewID, holder)
	}

	applied := outcome
	switch {
	case outcome == domain.OutcomeCompleted:
		_, _ = h.tracker.Resolve(reviewID, domain.OutcomeCompleted)
		h.completed++
		h.emitLocked(a.review, domain.ReviewCompleted, clientID, "")
	case outcome == domain.OutcomeCancelled && a.cancelling:
		_, _ = h.tracker.Resolve(reviewID, domain.OutcomeCancelled)
		h.emitLocked(a.review, domain.ReviewWithdrawn, clientID, "")
	default:
		reason := reasonFailed
		if outcome == domain.OutcomeCancelled {
			reason = reasonDeclined
		}
		applied = domain.OutcomeFailed
		_, _ = h.tracker.Resolve(reviewID, domain.OutcomeFailed)
		h.recorder.ReviewRequeued(reason)
		h.emitLocked(a.review, domain.ReviewRequeued, clientID, reason)
	}
	h.mu.Unlock()

	h.logger.WithFields(logrus.Fields{
		"client_id": clientID,
		"review_id": reviewID,
		"outcome":   applied,
	}).Info("Review outcome applied")

	h.trigger()
	return nil
}

// Withdraw отзывает ревью. Ожидающее ревью удаляется из очереди, назначенному
// клиенту отправляется отмена. Без подтверждения в течение CancelAckTimeout
// назначение считается проваленным и ревью возвращается в очередь.
// Для неизвестного ревью - no-op.
func (h *Hub) Withdraw(reviewID string) error {
	if reviewID == "" {
		return domain.ErrInvalidReviewID
	}

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return domain.ErrHubStopped
	}

	if el, queued := h.queue.index[reviewID]; queued {
		review := el.Value.(*domain.ReviewRequest)
		h.queue.Remove(reviewID)
		review.Status = domain.ReviewWithdrawn
		h.emitLocked(review, domain.ReviewWithdrawn, "", "")
		h.mu.Unlock()

		h.logger.WithField("review_id", reviewID).Info("Pending review withdrawn")
		return nil
	}

	a, ok := h.tracker.Get(reviewID)
	if !ok || a.cancelling {
		h.mu.Unlock()
		return nil
	}

	a.cancelling = true
	clientID := a.ClientID
	entry, _ := h.registry.Get(clientID)
	delivered := entry != nil && entry.session.offer(domain.OutboundMessage{
		Type:     domain.MsgCancel,
		ReviewID: reviewID,
	})
	var dropErr error
	if delivered {
		seq := a.seq
		a.cancelTimer = time.AfterFunc(h.cfg.CancelAckTimeout, func() {
			h.expireCancel(reviewID, seq)
		})
	} else if entry != nil {
		h.recorder.ClientUnresponsive()
		_, dropErr = h.dropClientLocked(entry, reasonOutboxFull)
	}
	h.mu.Unlock()

	entryLog := h.logger.WithFields(logrus.Fields{
		"review_id": reviewID,
		"client_id": clientID,
	})
	if dropErr != nil {
		entryLog.WithError(dropErr).WithField("alarm", true).Error("Client registry invariant violated")
	}
	if !delivered {
		entryLog.WithError(domain.ErrClientUnresponsive).Warn("Cancel not delivered, client dropped")
		h.trigger()
		return nil
	}
	entryLog.Info("Cancel sent to client")
	return nil
}

// expireCancel срабатывает, если клиент не подтвердил отмену.
func (h *Hub) expireCancel(reviewID string, seq uint64) {
	h.expire(reviewID, seq, reasonCancelUnacknowledged, func(a *activeAssignment) bool {
		a.cancelTimer = nil
		return a.cancelling
	})
}

// expireAssignment срабатывает по дедлайну назначения.
func (h *Hub) expireAssignment(reviewID string, seq uint64) {
	h.expire(reviewID, seq, reasonDeadlineExceeded, func(a *activeAssignment) bool {
		a.deadlineTimer = nil
		return true
	})
}

func (h *Hub) expire(reviewID string, seq uint64, reason string, applies func(*activeAssignment) bool) {
	h.mu.Lock()
	a, ok := h.tracker.Get(reviewID)
	if h.stopped || !ok || a.seq != seq || !applies(a) {
		h.mu.Unlock()
		return
	}
	clientID := a.ClientID
	if entry, ok := h.registry.Get(clientID); ok && reason == reasonDeadlineExceeded {
		// Клиенту сообщаем, что работа больше не нужна; если буфер полон, клиента снимет следующий цикл доставки.
		entry.session.offer(domain.OutboundMessage{Type: domain.MsgCancel, ReviewID: reviewID})
	}
	_, _ = h.tracker.Resolve(reviewID, domain.OutcomeFailed)
	h.recorder.ReviewRequeued(reason)
	h.emitLocked(a.review, domain.ReviewRequeued, clientID, reason)
	h.mu.Unlock()

	h.logger.WithFields(logrus.Fields{
		"review_id": reviewID,
		"client_id": clientID,
		"reason":    reason,
	}).Warn("Assignment expired, review requeued")

	h.trigger()
}

// emitLocked публикует смену статуса без блокировки. Вызывающий держит h.mu,
// поэтому порядок событий совпадает с порядком изменений.
func (h *Hub) emitLocked(review *domain.ReviewRequest, status domain.ReviewStatus, clientID, reason string) {
	if h.listener == nil {
		return
	}
	change := domain.StatusChange{
		ReviewID: review.ID,
		Status:   status,
		ClientID: clientID,
		Attempts: review.Attempts,
		Reason:   reason,
		At:       h.nowFunc(),
	}
	select {
	case h.statusCh <- change:
	default:
		h.recorder.StatusDropped()
	}
}

// notifyLoop доставляет смены статусов получателю вне мьютекса хаба.
func (h *Hub) notifyLoop() {
	defer h.wg.Done()

	for {
		select {
		case change := <-h.statusCh:
			h.listener(change)
		case <-h.ctx.Done():
			for {
				select {
				case change := <-h.statusCh:
					h.listener(change)
				default:
					return
				}
			}
		}
	}
}

// IsInvariantViolation сообщает, что ошибка означает нарушение согласованности хаба.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, domain.ErrAssignmentConflict) || errors.Is(err, domain.ErrRegistryCorrupted)
}
