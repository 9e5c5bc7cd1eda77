package hub

import (
	"time"

	"review-hub/internal/domain"

	"github.com/sirupsen/logrus"
)

// dispatchResult собирает итог одного цикла для логирования вне мьютекса.
type dispatchResult struct {
	assigned     []domain.Assignment
	unresponsive []string
	conflicts    []error
	corrupted    []error
}

// trigger будит диспетчер. Сигналы схлопываются: если цикл уже ожидает
// запуска, повторный сигнал ничего не добавляет.
func (h *Hub) trigger() {
	select {
	case h.kick <- struct{}{}:
	default:
	}
}

// dispatchLoop - единственный потребитель сигналов. Цикл реагирует на
// поступление ревью, подключение клиента и снятие назначений, опроса нет.
func (h *Hub) dispatchLoop() {
	defer h.wg.Done()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.kick:
			h.dispatch()
		}
	}
}

// dispatch выполняет один цикл сопоставления очереди и свободных клиентов.
func (h *Hub) dispatch() dispatchResult {
	h.mu.Lock()
	res := h.dispatchLocked()
	h.mu.Unlock()

	h.logDispatch(res)
	return res
}

// dispatchLocked жадно назначает ревью из начала очереди наименее
// загруженным клиентам, пока есть и ревью, и свободная емкость.
// Вызывающий должен держать h.mu.
func (h *Hub) dispatchLocked() dispatchResult {
	var res dispatchResult
	if h.stopped {
		return res
	}

	for h.queue.Len() > 0 {
		entry, ok := h.registry.LeastLoaded()
		if !ok {
			return res
		}
		review, _ := h.queue.Dequeue()

		now := h.nowFunc()
		var deadline time.Time
		if h.cfg.AssignmentTimeout > 0 {
			deadline = now.Add(h.cfg.AssignmentTimeout)
		}

		a, err := h.tracker.CreateAssignment(review, entry.id, now, deadline)
		if err != nil {
			// Ревью одновременно в очереди и в работе: единая область согласованности нарушена.
			h.queue.Requeue(review)
			h.recorder.InvariantViolation("assignment_conflict")
			res.conflicts = append(res.conflicts, err)
			return res
		}

		msg := domain.OutboundMessage{
			Type:     domain.MsgAssignment,
			ReviewID: review.ID,
			Payload:  review.Payload,
		}
		if a.HasDeadline() {
			d := a.Deadline
			msg.Deadline = &d
		}

		if !entry.session.offer(msg) {
			h.recorder.ClientUnresponsive()
			res.unresponsive = append(res.unresponsive, entry.id)
			if _, err := h.dropClientLocked(entry, reasonOutboxFull); err != nil {
				res.corrupted = append(res.corrupted, err)
			}
			continue
		}

		if a.HasDeadline() {
			reviewID, seq := review.ID, a.seq
			a.deadlineTimer = time.AfterFunc(deadline.Sub(now), func() {
				h.expireAssignment(reviewID, seq)
			})
		}

		h.recorder.ReviewDispatched()
		h.emitLocked(review, domain.ReviewAssigned, entry.id, "")
		res.assigned = append(res.assigned, a.Assignment)
	}
	return res
}

func (h *Hub) logDispatch(res dispatchResult) {
	for _, a := range res.assigned {
		h.logger.WithFields(logrus.Fields{
			"review_id": a.ReviewID,
			"client_id": a.ClientID,
		}).Debug("Review assigned")
	}
	for _, clientID := range res.unresponsive {
		h.logger.WithFields(logrus.Fields{
			"client_id": clientID,
			"reason":    reasonOutboxFull,
		}).WithError(domain.ErrClientUnresponsive).Warn("Client outbox full, client dropped")
	}
	for _, err := range res.conflicts {
		h.logger.WithError(err).WithField("alarm", true).Error("Assignment invariant violated")
	}
	for _, err := range res.corrupted {
		h.logger.WithError(err).WithField("alarm", true).Error("Client registry invariant violated")
	}
}
