package hub

import "review-hub/internal/domain"

// Snapshot возвращает согласованный срез статистики.
//
// Срез вычисляется под разделяемой блокировкой за O(число клиентов) и
// никогда не хранится отдельно, поэтому не может разойтись с очередью,
// реестром и трекером: assigned_reviews_count всегда равен сумме
// assigned_reviews, pending_reviews_count - длине очереди.
func (h *Hub) Snapshot() domain.HubStatsSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	snap := domain.HubStatsSnapshot{
		PendingReviewsCount:   h.queue.Len(),
		AssignedReviewsCount:  h.tracker.Len(),
		CompletedReviewsCount: h.completed,
		ConnectedClients:      h.registry.Len(),
		AssignedReviews:       make(map[string]int, h.registry.Len()),
		ReviewDistribution:    make(map[int]int),
	}

	for id, e := range h.registry.clients {
		load := h.tracker.CountFor(id)
		if load < e.capacity {
			snap.FreeClients++
		} else {
			snap.BusyClients++
		}
		snap.AssignedReviews[id] = load
		snap.ReviewDistribution[load]++
	}
	return snap
}

// Clients возвращает подключенных клиентов с текущей нагрузкой.
func (h *Hub) Clients() []domain.ReviewerClient {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.registry.Clients()
}

// ListFreeClients возвращает клиентов со свободной емкостью, наименее загруженные первыми.
func (h *Hub) ListFreeClients() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.registry.ListFreeClients()
}

// PendingReviews возвращает идентификаторы ожидающих ревью в порядке выдачи.
func (h *Hub) PendingReviews() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.queue.IDs()
}

// AssignmentFor возвращает активное назначение ревью.
func (h *Hub) AssignmentFor(reviewID string) (domain.Assignment, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	a, ok := h.tracker.Get(reviewID)
	if !ok {
		return domain.Assignment{}, false
	}
	return a.Assignment, true
}
