package hub

import (
	"fmt"
	"sort"
	"time"

	"review-hub/internal/domain"
)

// clientEntry - зарегистрированный клиент и его сессия.
type clientEntry struct {
	id          string
	capacity    int
	seq         uint64 // порядок подключения, разрешает ничьи по нагрузке
	connectedAt time.Time
	session     *Session
}

// clientRegistry отслеживает подключенных клиентов. Нагрузка клиента не хранится
// здесь, а вычисляется по трекеру назначений, поэтому состояния free/busy
// не могут разойтись с фактическими назначениями.
type clientRegistry struct {
	tracker *assignmentTracker
	clients map[string]*clientEntry
	nextSeq uint64
}

func newClientRegistry(tracker *assignmentTracker) *clientRegistry {
	return &clientRegistry{
		tracker: tracker,
		clients: make(map[string]*clientEntry),
	}
}

// Register добавляет клиента с заданной емкостью.
func (r *clientRegistry) Register(clientID string, capacity int, now time.Time, session *Session) error {
	if _, exists := r.clients[clientID]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateClient, clientID)
	}
	r.nextSeq++
	r.clients[clientID] = &clientEntry{
		id:          clientID,
		capacity:    capacity,
		seq:         r.nextSeq,
		connectedAt: now,
		session:     session,
	}
	return nil
}

// Deregister удаляет клиента и возвращает ревью, которые были за ним закреплены,
// чтобы вызывающий мог вернуть их в очередь.
func (r *clientRegistry) Deregister(clientID string) ([]string, error) {
	if _, exists := r.clients[clientID]; !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrClientNotFound, clientID)
	}
	delete(r.clients, clientID)
	return r.tracker.ReviewIDsFor(clientID), nil
}

func (r *clientRegistry) Get(clientID string) (*clientEntry, bool) {
	e, ok := r.clients[clientID]
	return e, ok
}

func (r *clientRegistry) Len() int {
	return len(r.clients)
}

func (r *clientRegistry) load(e *clientEntry) int {
	return r.tracker.CountFor(e.id)
}

// LeastLoaded выбирает клиента со свободной емкостью и минимальной нагрузкой.
// При равной нагрузке выигрывает клиент, подключившийся раньше.
func (r *clientRegistry) LeastLoaded() (*clientEntry, bool) {
	var (
		best     *clientEntry
		bestLoad int
	)
	for _, e := range r.clients {
		load := r.load(e)
		if load >= e.capacity {
			continue
		}
		if best == nil || load < bestLoad || (load == bestLoad && e.seq < best.seq) {
			best, bestLoad = e, load
		}
	}
	return best, best != nil
}

// ListFreeClients возвращает клиентов со свободной емкостью
// по возрастанию нагрузки, затем по порядку подключения.
func (r *clientRegistry) ListFreeClients() []string {
	type candidate struct {
		entry *clientEntry
		load  int
	}
	free := make([]candidate, 0, len(r.clients))
	for _, e := range r.clients {
		if load := r.load(e); load < e.capacity {
			free = append(free, candidate{entry: e, load: load})
		}
	}
	sort.Slice(free, func(i, j int) bool {
		if free[i].load != free[j].load {
			return free[i].load < free[j].load
		}
		return free[i].entry.seq < free[j].entry.seq
	})

	ids := make([]string, len(free))
	for i, c := range free {
		ids[i] = c.entry.id
	}
	return ids
}

// Clients возвращает всех клиентов в порядке подключения.
func (r *clientRegistry) Clients() []domain.ReviewerClient {
	entries := make([]*clientEntry, 0, len(r.clients))
	for _, e := range r.clients {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	clients := make([]domain.ReviewerClient, len(entries))
	for i, e := range entries {
		clients[i] = domain.ReviewerClient{
			ID:          e.id,
			Capacity:    e.capacity,
			Load:        r.load(e),
			ConnectedAt: e.connectedAt,
		}
	}
	return clients
}
