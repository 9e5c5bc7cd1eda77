package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"review-hub/api"
	"review-hub/internal/handler"
	"review-hub/internal/hub"
	"review-hub/internal/repository"
	"review-hub/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHubServer(t *testing.T) (*httptest.Server, *hub.Hub) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := repository.NewMemoryReviewRepository()
	h := hub.New(hub.DefaultConfig(), logger,
		hub.WithStatusListener(usecase.NewStatusRecorder(repo, logger).OnStatusChange))
	require.NoError(t, h.Start(context.Background()))

	e := echo.New()
	api.RegisterHandlers(e, handler.NewAPIHandler(
		usecase.NewReviewUseCase(h, repo),
		usecase.NewStatsUseCase(h),
		hub.NewSupervisor(h, logger),
		logger,
	))
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		_ = h.Stop()
		srv.Close()
	})
	return srv, h
}

func TestRun_DrainsAllReviews(t *testing.T) {
	srv, h := newHubServer(t)
	var out bytes.Buffer

	err := run(context.Background(), &out, options{
		target:    srv.URL,
		rate:      10,
		duration:  time.Second,
		reviewers: 2,
		capacity:  2,
		failRate:  0.2,
		workTime:  10 * time.Millisecond,
		drainWait: 10 * time.Second,
	})

	require.NoError(t, err, out.String())
	assert.Contains(t, out.String(), "Snapshot violations: 0")

	snap := h.Snapshot()
	assert.Equal(t, 0, snap.PendingReviewsCount)
	assert.Equal(t, 0, snap.AssignedReviewsCount)
	assert.Equal(t, uint64(10), snap.CompletedReviewsCount)
}

func TestConsistent(t *testing.T) {
	testCases := []struct {
		name  string
		stats api.HubStats
		want  bool
	}{
		{"Empty", api.HubStats{}, true},
		{"Consistent", api.HubStats{
			AssignedReviewsCount: 3,
			AssignedReviews:      map[string]int{"A": 2, "B": 1},
			ConnectedClients:     2,
			FreeClients:          1,
			BusyClients:          1,
		}, true},
		{"Assigned mismatch", api.HubStats{
			AssignedReviewsCount: 2,
			AssignedReviews:      map[string]int{"A": 2, "B": 1},
			ConnectedClients:     2,
			BusyClients:          2,
		}, false},
		{"Clients mismatch", api.HubStats{
			ConnectedClients: 3,
			FreeClients:      1,
		}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, consistent(tc.stats))
		})
	}
}

func TestRootCmd_Defaults(t *testing.T) {
	cmd := newRootCmd()

	target, err := cmd.Flags().GetString("target")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", target)

	rate, err := cmd.Flags().GetInt("rate")
	require.NoError(t, err)
	assert.Equal(t, 20, rate)
}
