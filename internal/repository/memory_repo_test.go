package repository_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"review-hub/internal/domain"
	"review-hub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryReviewRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryReviewRepository()
	created := time.Now().UTC()

	record := &domain.ReviewRecord{
		ID:        "r1",
		Payload:   json.RawMessage(`{"a":1}`),
		Status:    domain.ReviewPending,
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, repo.Create(ctx, record))
	assert.ErrorIs(t, repo.Create(ctx, record), domain.ErrDuplicateReview)

	at := created.Add(time.Second)
	require.NoError(t, repo.UpdateStatus(ctx, domain.StatusChange{
		ReviewID: "r1", Status: domain.ReviewAssigned, ClientID: "A", Attempts: 1, At: at,
	}))

	got, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewAssigned, got.Status)
	assert.Equal(t, "A", got.ClientID)
	assert.Equal(t, 1, got.Attempts)
	assert.Equal(t, at, got.UpdatedAt)

	// requeue снимает клиента, но не уменьшает число попыток
	require.NoError(t, repo.UpdateStatus(ctx, domain.StatusChange{
		ReviewID: "r1", Status: domain.ReviewRequeued, Attempts: 1, At: at,
	}))
	got, err = repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewRequeued, got.Status)
	assert.Empty(t, got.ClientID)
	assert.Equal(t, 1, got.Attempts)
}

func TestMemoryReviewRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryReviewRepository()

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrReviewNotFound)

	err = repo.UpdateStatus(ctx, domain.StatusChange{ReviewID: "missing", Status: domain.ReviewCompleted})
	assert.ErrorIs(t, err, domain.ErrReviewNotFound)
}
