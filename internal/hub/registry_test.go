package hub

import (
	"testing"
	"time"

	"review-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() (*clientRegistry, *assignmentTracker) {
	tr := newAssignmentTracker(newReviewQueue())
	return newClientRegistry(tr), tr
}

func register(t *testing.T, r *clientRegistry, id string, capacity int) {
	t.Helper()
	require.NoError(t, r.Register(id, capacity, time.Now(), newSession(id, capacity, 4)))
}

func TestClientRegistry_DuplicateClient(t *testing.T) {
	r, _ := newTestRegistry()
	register(t, r, "A", 1)

	err := r.Register("A", 2, time.Now(), newSession("A", 2, 4))
	assert.ErrorIs(t, err, domain.ErrDuplicateClient)
	assert.Equal(t, 1, r.Len())
}

func TestClientRegistry_LeastLoadedTieBreaksByConnectionOrder(t *testing.T) {
	r, _ := newTestRegistry()
	register(t, r, "B", 1)
	register(t, r, "A", 1)

	e, ok := r.LeastLoaded()
	require.True(t, ok)
	assert.Equal(t, "B", e.id)
}

func TestClientRegistry_ListFreeClientsByLoad(t *testing.T) {
	r, tr := newTestRegistry()
	register(t, r, "A", 3)
	register(t, r, "B", 1)
	register(t, r, "C", 2)
	register(t, r, "D", 2)

	now := time.Now()
	_, _ = tr.CreateAssignment(&domain.ReviewRequest{ID: "r1"}, "A", now, time.Time{})
	_, _ = tr.CreateAssignment(&domain.ReviewRequest{ID: "r2"}, "A", now, time.Time{})
	_, _ = tr.CreateAssignment(&domain.ReviewRequest{ID: "r3"}, "B", now, time.Time{})
	_, _ = tr.CreateAssignment(&domain.ReviewRequest{ID: "r4"}, "D", now, time.Time{})

	// B насыщен, C свободен полностью, D и A частично
	assert.Equal(t, []string{"C", "D", "A"}, r.ListFreeClients())

	e, ok := r.LeastLoaded()
	require.True(t, ok)
	assert.Equal(t, "C", e.id)
}

func TestClientRegistry_NoFreeClient(t *testing.T) {
	r, tr := newTestRegistry()
	register(t, r, "A", 1)
	_, _ = tr.CreateAssignment(&domain.ReviewRequest{ID: "r1"}, "A", time.Now(), time.Time{})

	_, ok := r.LeastLoaded()
	assert.False(t, ok)
	assert.Empty(t, r.ListFreeClients())
}

func TestClientRegistry_DeregisterReturnsHeldReviews(t *testing.T) {
	r, tr := newTestRegistry()
	register(t, r, "A", 2)
	now := time.Now()
	_, _ = tr.CreateAssignment(&domain.ReviewRequest{ID: "r1"}, "A", now, time.Time{})
	_, _ = tr.CreateAssignment(&domain.ReviewRequest{ID: "r2"}, "A", now, time.Time{})

	held, err := r.Deregister("A")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, held)
	assert.Equal(t, 0, r.Len())

	_, err = r.Deregister("A")
	assert.ErrorIs(t, err, domain.ErrClientNotFound)
}
