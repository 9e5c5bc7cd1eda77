package hub

import (
	"container/list"
	"fmt"

	"review-hub/internal/domain"
)

// reviewQueue хранит ожидающие назначения ревью в порядке поступления.
// Возвращенные после сбоя ревью встают в начало очереди.
// Синхронизация обеспечивается мьютексом Hub.
type reviewQueue struct {
	items *list.List               // *domain.ReviewRequest, front = следующий на выдачу
	index map[string]*list.Element // reviewID -> элемент списка
}

func newReviewQueue() *reviewQueue {
	return &reviewQueue{
		items: list.New(),
		index: make(map[string]*list.Element),
	}
}

// Enqueue добавляет ревью в конец очереди и возвращает его позицию (с 1).
func (q *reviewQueue) Enqueue(review *domain.ReviewRequest) (int, error) {
	if _, exists := q.index[review.ID]; exists {
		return 0, fmt.Errorf("%w: %s", domain.ErrDuplicateReview, review.ID)
	}
	review.Status = domain.ReviewPending
	q.index[review.ID] = q.items.PushBack(review)
	return q.items.Len(), nil
}

// Dequeue извлекает ревью из начала очереди. false означает пустую очередь.
func (q *reviewQueue) Dequeue() (*domain.ReviewRequest, bool) {
	front := q.items.Front()
	if front == nil {
		return nil, false
	}
	review := q.items.Remove(front).(*domain.ReviewRequest)
	delete(q.index, review.ID)
	return review, true
}

// Requeue возвращает ревью в начало очереди, чтобы оно было выдано раньше новых.
func (q *reviewQueue) Requeue(review *domain.ReviewRequest) {
	if el, exists := q.index[review.ID]; exists {
		q.items.MoveToFront(el)
		return
	}
	review.Status = domain.ReviewRequeued
	q.index[review.ID] = q.items.PushFront(review)
}

// Remove убирает ревью из очереди. false, если его там нет.
func (q *reviewQueue) Remove(reviewID string) bool {
	el, exists := q.index[reviewID]
	if !exists {
		return false
	}
	q.items.Remove(el)
	delete(q.index, reviewID)
	return true
}

func (q *reviewQueue) Contains(reviewID string) bool {
	_, exists := q.index[reviewID]
	return exists
}

func (q *reviewQueue) Len() int {
	return q.items.Len()
}

// IDs возвращает идентификаторы в порядке выдачи.
func (q *reviewQueue) IDs() []string {
	ids := make([]string, 0, q.items.Len())
	for el := q.items.Front(); el != nil; el = el.Next() {
		ids = append(ids, el.Value.(*domain.ReviewRequest).ID)
	}
	return ids
}
