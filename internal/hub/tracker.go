package hub

import (
	"fmt"
	"sort"
	"time"

	"review-hub/internal/domain"
)

// activeAssignment - назначение, которое сейчас находится в работе у клиента.
type activeAssignment struct {
	domain.Assignment
	review *domain.ReviewRequest
	seq    uint64 // отличает повторное назначение того же ревью

	deadlineTimer *time.Timer
	cancelTimer   *time.Timer
	cancelling    bool
}

func (a *activeAssignment) stopTimers() {
	if a.deadlineTimer != nil {
		a.deadlineTimer.Stop()
		a.deadlineTimer = nil
	}
	if a.cancelTimer != nil {
		a.cancelTimer.Stop()
		a.cancelTimer = nil
	}
}

// assignmentTracker - единственное место, где меняется факт
// "ревью находится в работе". Для каждого ревью существует не более
// одного активного назначения. Связь клиент -> ревью хранится только здесь,
// как невладеющий индекс по ID.
type assignmentTracker struct {
	queue    *reviewQueue
	byReview map[string]*activeAssignment            // reviewID -> назначение
	byClient map[string]map[string]*activeAssignment // clientID -> reviewID -> назначение
	nextSeq  uint64
}

func newAssignmentTracker(queue *reviewQueue) *assignmentTracker {
	return &assignmentTracker{
		queue:    queue,
		byReview: make(map[string]*activeAssignment),
		byClient: make(map[string]map[string]*activeAssignment),
	}
}

// CreateAssignment привязывает ревью к клиенту.
// Возвращает ErrAssignmentConflict, если у ревью уже есть активное назначение.
func (t *assignmentTracker) CreateAssignment(review *domain.ReviewRequest, clientID string, now, deadline time.Time) (*activeAssignment, error) {
	if existing, exists := t.byReview[review.ID]; exists {
		return nil, fmt.Errorf("%w: review %s held by %s", domain.ErrAssignmentConflict, review.ID, existing.ClientID)
	}

	t.nextSeq++
	a := &activeAssignment{
		Assignment: domain.Assignment{
			ReviewID:  review.ID,
			ClientID:  clientID,
			CreatedAt: now,
			Deadline:  deadline,
		},
		review: review,
		seq:    t.nextSeq,
	}

	review.Status = domain.ReviewAssigned
	review.Attempts++

	t.byReview[review.ID] = a
	held, ok := t.byClient[clientID]
	if !ok {
		held = make(map[string]*activeAssignment)
		t.byClient[clientID] = held
	}
	held[review.ID] = a
	return a, nil
}

// Get возвращает активное назначение ревью.
func (t *assignmentTracker) Get(reviewID string) (*activeAssignment, bool) {
	a, ok := t.byReview[reviewID]
	return a, ok
}

// Resolve снимает назначение. При OutcomeFailed ревью возвращается в начало очереди.
func (t *assignmentTracker) Resolve(reviewID string, outcome domain.Outcome) (*activeAssignment, error) {
	a, ok := t.byReview[reviewID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrReviewNotFound, reviewID)
	}
	t.remove(a)

	switch outcome {
	case domain.OutcomeCompleted:
		a.review.Status = domain.ReviewCompleted
	case domain.OutcomeCancelled:
		a.review.Status = domain.ReviewWithdrawn
	default:
		t.queue.Requeue(a.review)
	}
	return a, nil
}

// ReleaseForClient снимает все назначения клиента и возвращает ревью в очередь.
// Самое раннее назначение оказывается в начале очереди.
func (t *assignmentTracker) ReleaseForClient(clientID string) []*domain.ReviewRequest {
	held := t.sortedFor(clientID)
	released := make([]*domain.ReviewRequest, 0, len(held))
	for i := len(held) - 1; i >= 0; i-- {
		a := held[i]
		t.remove(a)
		t.queue.Requeue(a.review)
	}
	for _, a := range held {
		released = append(released, a.review)
	}
	return released
}

// CountFor возвращает число активных назначений клиента.
func (t *assignmentTracker) CountFor(clientID string) int {
	return len(t.byClient[clientID])
}

// ReviewIDsFor возвращает ревью клиента в порядке назначения.
func (t *assignmentTracker) ReviewIDsFor(clientID string) []string {
	held := t.sortedFor(clientID)
	ids := make([]string, len(held))
	for i, a := range held {
		ids[i] = a.ReviewID
	}
	return ids
}

func (t *assignmentTracker) Len() int {
	return len(t.byReview)
}

func (t *assignmentTracker) stopAllTimers() {
	for _, a := range t.byReview {
		a.stopTimers()
	}
}

func (t *assignmentTracker) sortedFor(clientID string) []*activeAssignment {
	held := make([]*activeAssignment, 0, len(t.byClient[clientID]))
	for _, a := range t.byClient[clientID] {
		held = append(held, a)
	}
	sort.Slice(held, func(i, j int) bool { return held[i].seq < held[j].seq })
	return held
}

func (t *assignmentTracker) remove(a *activeAssignment) {
	a.stopTimers()
	delete(t.byReview, a.ReviewID)
	if held, ok := t.byClient[a.ClientID]; ok {
		delete(held, a.ReviewID)
		if len(held) == 0 {
			delete(t.byClient, a.ClientID)
		}
	}
}
