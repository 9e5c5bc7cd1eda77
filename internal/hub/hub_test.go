package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"review-hub/internal/domain"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestHub(t *testing.T, cfg Config, opts ...Option) *Hub {
	t.Helper()
	h := New(cfg, newTestLogger(), opts...)
	t.Cleanup(func() { _ = h.Stop() })
	return h
}

func submit(t *testing.T, h *Hub, id string) {
	t.Helper()
	_, err := h.Submit(&domain.ReviewRequest{ID: id, Payload: json.RawMessage(`{"tool":"bash"}`)})
	require.NoError(t, err)
}

func connect(t *testing.T, h *Hub, id string, capacity int) *Session {
	t.Helper()
	s, err := h.Connect(id, capacity)
	require.NoError(t, err)
	return s
}

func holder(t *testing.T, h *Hub, reviewID string) string {
	t.Helper()
	a, ok := h.AssignmentFor(reviewID)
	require.True(t, ok, "review %s is not assigned", reviewID)
	return a.ClientID
}

func assertSnapshotConsistent(t *testing.T, snap domain.HubStatsSnapshot) {
	t.Helper()
	sum := 0
	for _, n := range snap.AssignedReviews {
		sum += n
	}
	assert.Equal(t, snap.AssignedReviewsCount, sum)
	assert.Equal(t, snap.ConnectedClients, snap.FreeClients+snap.BusyClients)
	assert.Len(t, snap.AssignedReviews, snap.ConnectedClients)

	clients := 0
	for _, n := range snap.ReviewDistribution {
		clients += n
	}
	assert.Equal(t, snap.ConnectedClients, clients)
}

func TestHub_TwoClientsDisconnectRequeuesToRemaining(t *testing.T) {
	h := newTestHub(t, DefaultConfig())
	connect(t, h, "A", 1)
	connect(t, h, "B", 1)
	submit(t, h, "R1")
	submit(t, h, "R2")

	h.dispatch()
	assert.Equal(t, "A", holder(t, h, "R1"))
	assert.Equal(t, "B", holder(t, h, "R2"))

	h.Disconnect("A", "")
	assert.Equal(t, []string{"R1"}, h.PendingReviews())

	// B насыщен: R1 ждет
	h.dispatch()
	_, assigned := h.AssignmentFor("R1")
	assert.False(t, assigned)

	require.NoError(t, h.ReportOutcome("B", "R2", domain.OutcomeCompleted))
	h.dispatch()
	assert.Equal(t, "B", holder(t, h, "R1"))

	snap := h.Snapshot()
	assert.Equal(t, uint64(1), snap.CompletedReviewsCount)
	assertSnapshotConsistent(t, snap)
}

func TestHub_DisconnectRequeuesToNewClient(t *testing.T) {
	h := newTestHub(t, DefaultConfig())
	connect(t, h, "A", 1)
	connect(t, h, "B", 1)
	submit(t, h, "R1")
	submit(t, h, "R2")
	h.dispatch()

	h.Disconnect("A", "")
	connect(t, h, "C", 1)
	h.dispatch()

	assert.Equal(t, "C", holder(t, h, "R1"))
	assert.Equal(t, "B", holder(t, h, "R2"))
}

func TestHub_PendingUntilClientConnects(t *testing.T) {
	h := newTestHub(t, DefaultConfig())
	submit(t, h, "R1")
	h.dispatch()

	snap := h.Snapshot()
	assert.Equal(t, 1, snap.PendingReviewsCount)
	assert.Equal(t, 0, snap.ConnectedClients)

	connect(t, h, "A", 1)
	h.dispatch()

	snap = h.Snapshot()
	assert.Equal(t, 0, snap.PendingReviewsCount)
	assert.Equal(t, 1, snap.AssignedReviewsCount)
	assert.Equal(t, map[string]int{"A": 1}, snap.AssignedReviews)
	assert.Equal(t, 1, snap.BusyClients)
	assert.Equal(t, 0, snap.FreeClients)
	assert.Equal(t, map[int]int{1: 1}, snap.ReviewDistribution)
}

func TestHub_LeastLoadedWithSpareCapacityWins(t *testing.T) {
	h := newTestHub(t, DefaultConfig())
	connect(t, h, "A", 2)
	submit(t, h, "R1")
	submit(t, h, "R2")
	h.dispatch()
	require.Equal(t, "A", holder(t, h, "R1"))
	require.Equal(t, "A", holder(t, h, "R2"))

	connect(t, h, "B", 1)
	submit(t, h, "R3")
	h.dispatch()

	assert.Equal(t, "B", holder(t, h, "R3"))
	snap := h.Snapshot()
	assert.Equal(t, map[string]int{"A": 2, "B": 1}, snap.AssignedReviews)
	assert.Equal(t, map[int]int{1: 1, 2: 1}, snap.ReviewDistribution)
}

func TestHub_RequeuedDispatchedBeforeNewer(t *testing.T) {
	h := newTestHub(t, DefaultConfig())
	connect(t, h, "A", 1)
	submit(t, h, "R1")
	h.dispatch()
	submit(t, h, "R2")

	h.Disconnect("A", "")
	assert.Equal(t, []string{"R1", "R2"}, h.PendingReviews())

	connect(t, h, "C", 1)
	h.dispatch()

	assert.Equal(t, "C", holder(t, h, "R1"))
	assert.Equal(t, []string{"R2"}, h.PendingReviews())
}

func TestHub_FailedOutcomeRequeuesAtFront(t *testing.T) {
	h := newTestHub(t, DefaultConfig())
	connect(t, h, "A", 1)
	submit(t, h, "R1")
	h.dispatch()
	submit(t, h, "R2")

	require.NoError(t, h.ReportOutcome("A", "R1", domain.OutcomeFailed))
	assert.Equal(t, []string{"R1", "R2"}, h.PendingReviews())

	h.dispatch()
	assert.Equal(t, "A", holder(t, h, "R1"))
}

func TestHub_CompletedTwiceIsNoop(t *testing.T) {
	h := newTestHub(t, DefaultConfig())
	connect(t, h, "A", 1)
	submit(t, h, "R1")
	h.dispatch()

	require.NoError(t, h.ReportOutcome("A", "R1", domain.OutcomeCompleted))
	require.NoError(t, h.ReportOutcome("A", "R1", domain.OutcomeCompleted))

	snap := h.Snapshot()
	assert.Equal(t, uint64(1), snap.CompletedReviewsCount)
	assert.Equal(t, 0, snap.AssignedReviewsCount)
}

func TestHub_ReportOutcomeValidation(t *testing.T) {
	h := newTestHub(t, DefaultConfig())
	connect(t, h, "A", 1)
	connect(t, h, "B", 1)
	submit(t, h, "R1")
	h.dispatch()
	require.Equal(t, "A", holder(t, h, "R1"))

	err := h.ReportOutcome("B", "R1", domain.OutcomeCompleted)
	assert.ErrorIs(t, err, domain.ErrReviewNotAssigned)

	err = h.ReportOutcome("A", "R1", domain.Outcome("approved"))
	assert.ErrorIs(t, err, domain.ErrInvalidOutcome)

	assert.Equal(t, "A", holder(t, h, "R1"))
}

func TestHub_DuplicateReviewAndClient(t *testing.T) {
	h := newTestHub(t, DefaultConfig())
	submit(t, h, "R1")

	_, err := h.Submit(&domain.ReviewRequest{ID: "R1"})
	assert.ErrorIs(t, err, domain.ErrDuplicateReview)

	connect(t, h, "A", 1)
	h.dispatch()

	// в работе - тоже дубликат
	_, err = h.Submit(&domain.ReviewRequest{ID: "R1"})
	assert.ErrorIs(t, err, domain.ErrDuplicateReview)

	_, err = h.Connect("A", 1)
	assert.ErrorIs(t, err, domain.ErrDuplicateClient)
}

func TestHub_ConnectValidation(t *testing.T) {
	h := newTestHub(t, Config{DefaultCapacity: 3})

	_, err := h.Connect("", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidClientID)

	_, err = h.Connect("A", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidCapacity)

	s := connect(t, h, "A", 0)
	assert.Equal(t, 3, s.Capacity())
}

func TestHub_OutboxFullDropsClient(t *testing.T) {
	h := newTestHub(t, Config{OutboxSize: 1})
	s := connect(t, h, "A", 1) // буфер = 2 сообщения, никто не читает

	for _, id := range []string{"R1", "R2"} {
		submit(t, h, id)
		h.dispatch()
		require.NoError(t, h.ReportOutcome("A", id, domain.OutcomeCompleted))
	}

	submit(t, h, "R3")
	res := h.dispatch()

	assert.Equal(t, []string{"A"}, res.unresponsive)
	assert.Empty(t, res.assigned)
	assert.Equal(t, []string{"R3"}, h.PendingReviews())
	assert.Equal(t, 0, h.Snapshot().ConnectedClients)

	select {
	case <-s.Done():
		assert.Equal(t, reasonOutboxFull, s.Reason())
	default:
		t.Fatal("session not closed")
	}
}

func TestHub_AssignmentDeliveredToOutbox(t *testing.T) {
	h := newTestHub(t, Config{AssignmentTimeout: time.Minute})
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	h.nowFunc = func() time.Time { return fixed }

	s := connect(t, h, "A", 1)
	submit(t, h, "R1")
	h.dispatch()

	select {
	case msg := <-s.Outbox():
		assert.Equal(t, domain.MsgAssignment, msg.Type)
		assert.Equal(t, "R1", msg.ReviewID)
		assert.JSONEq(t, `{"tool":"bash"}`, string(msg.Payload))
		require.NotNil(t, msg.Deadline)
		assert.Equal(t, fixed.Add(time.Minute), *msg.Deadline)
	default:
		t.Fatal("no assignment delivered")
	}
}

func TestHub_WithdrawPending(t *testing.T) {
	h := newTestHub(t, DefaultConfig())
	submit(t, h, "R1")

	require.NoError(t, h.Withdraw("R1"))
	assert.Empty(t, h.PendingReviews())

	// повторно и для неизвестного - no-op
	require.NoError(t, h.Withdraw("R1"))
	require.NoError(t, h.Withdraw("unknown"))
	assert.ErrorIs(t, h.Withdraw(""), domain.ErrInvalidReviewID)
}

func TestHub_WithdrawAssignedAcknowledged(t *testing.T) {
	h := newTestHub(t, DefaultConfig())
	s := connect(t, h, "A", 1)
	submit(t, h, "R1")
	h.dispatch()
	<-s.Outbox()

	require.NoError(t, h.Withdraw("R1"))
	msg := <-s.Outbox()
	assert.Equal(t, domain.MsgCancel, msg.Type)
	assert.Equal(t, "R1", msg.ReviewID)

	require.NoError(t, h.ReportOutcome("A", "R1", domain.OutcomeCancelled))

	snap := h.Snapshot()
	assert.Equal(t, 0, snap.AssignedReviewsCount)
	assert.Equal(t, 0, snap.PendingReviewsCount)
	assert.Equal(t, uint64(0), snap.CompletedReviewsCount)
}

func TestHub_WithdrawAssignedWithoutAckRequeues(t *testing.T) {
	h := newTestHub(t, Config{CancelAckTimeout: 20 * time.Millisecond})
	connect(t, h, "A", 1)
	submit(t, h, "R1")
	h.dispatch()

	require.NoError(t, h.Withdraw("R1"))

	require.Eventually(t, func() bool {
		_, assigned := h.AssignmentFor("R1")
		return !assigned && h.Snapshot().PendingReviewsCount == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"R1"}, h.PendingReviews())
}

func TestHub_CancelledWithoutWithdrawIsDecline(t *testing.T) {
	h := newTestHub(t, DefaultConfig())
	connect(t, h, "A", 1)
	submit(t, h, "R1")
	h.dispatch()

	require.NoError(t, h.ReportOutcome("A", "R1", domain.OutcomeCancelled))
	assert.Equal(t, []string{"R1"}, h.PendingReviews())
}

func TestHub_AssignmentDeadlineRequeues(t *testing.T) {
	h := newTestHub(t, Config{AssignmentTimeout: 20 * time.Millisecond})
	connect(t, h, "A", 1)
	submit(t, h, "R1")
	h.dispatch()
	require.Equal(t, "A", holder(t, h, "R1"))

	require.Eventually(t, func() bool {
		return h.Snapshot().PendingReviewsCount == 1
	}, time.Second, 5*time.Millisecond)

	snap := h.Snapshot()
	assert.Equal(t, 0, snap.AssignedReviewsCount)
	assert.Equal(t, 1, snap.ConnectedClients)
}

func TestHub_StatusListenerOrder(t *testing.T) {
	var (
		mu      sync.Mutex
		changes []domain.ReviewStatus
	)
	listener := func(c domain.StatusChange) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, c.Status)
	}

	h := newTestHub(t, DefaultConfig(), WithStatusListener(listener))
	require.NoError(t, h.Start(context.Background()))

	connect(t, h, "A", 1)
	submit(t, h, "R1")
	require.Eventually(t, func() bool {
		_, ok := h.AssignmentFor("R1")
		return ok
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, h.ReportOutcome("A", "R1", domain.OutcomeCompleted))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changes) == 3
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.ReviewStatus{
		domain.ReviewPending,
		domain.ReviewAssigned,
		domain.ReviewCompleted,
	}, changes)
}

func TestHub_StopRejectsNewWork(t *testing.T) {
	h := newTestHub(t, DefaultConfig())
	require.NoError(t, h.Start(context.Background()))
	s := connect(t, h, "A", 1)

	require.NoError(t, h.Stop())
	require.NoError(t, h.Stop())

	_, err := h.Submit(&domain.ReviewRequest{ID: "R1"})
	assert.ErrorIs(t, err, domain.ErrHubStopped)
	_, err = h.Connect("B", 1)
	assert.ErrorIs(t, err, domain.ErrHubStopped)
	assert.ErrorIs(t, h.Start(context.Background()), domain.ErrHubStopped)

	select {
	case <-s.Done():
	default:
		t.Fatal("session not closed on stop")
	}
}

func TestHub_ConcurrentOperationsKeepInvariants(t *testing.T) {
	h := newTestHub(t, Config{OutboxSize: 1024})
	require.NoError(t, h.Start(context.Background()))

	const workers = 8
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(int64(w)))
			clientID := fmt.Sprintf("client-%d", w)
			_, _ = h.Connect(clientID, 1+rnd.Intn(3))

			for i := 0; i < 200; i++ {
				switch rnd.Intn(5) {
				case 0, 1:
					_, _ = h.Submit(&domain.ReviewRequest{ID: fmt.Sprintf("r-%d-%d", w, i)})
				case 2:
					h.mu.RLock()
					ids := h.tracker.ReviewIDsFor(clientID)
					h.mu.RUnlock()
					for _, id := range ids {
						_ = h.ReportOutcome(clientID, id, domain.OutcomeCompleted)
					}
				case 3:
					h.Disconnect(clientID, "")
					_, _ = h.Connect(clientID, 1+rnd.Intn(3))
				case 4:
					assertSnapshotConsistent(t, h.Snapshot())
				}
			}
		}(w)
	}
	wg.Wait()

	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for clientID, held := range h.tracker.byClient {
		_, registered := h.registry.clients[clientID]
		assert.True(t, registered, "assignments held by unregistered client %s", clientID)
		for reviewID := range held {
			assert.False(t, h.queue.Contains(reviewID), "review %s both queued and assigned", reviewID)
		}
		total += len(held)
	}
	assert.Equal(t, h.tracker.Len(), total)
}
