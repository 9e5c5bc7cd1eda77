package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"review-hub/api"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

var httpc = &http.Client{Timeout: 10 * time.Second}

func run(ctx context.Context, w io.Writer, opts options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	reviewers := make([]*reviewer, opts.reviewers)
	for i := range reviewers {
		r := newReviewer(fmt.Sprintf("load-reviewer-%02d", i+1), opts)
		if err := r.connect(opts.target); err != nil {
			return fmt.Errorf("connect %s: %w", r.id, err)
		}
		reviewers[i] = r
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.run(ctx)
		}()
	}

	metrics := attack(opts)
	fmt.Fprintln(w, "=== Submissions ===")
	fmt.Fprintf(w, "Requests: %d\n", metrics.Requests)
	fmt.Fprintf(w, "Success rate: %.4f%%\n", metrics.Success*100)
	fmt.Fprintf(w, "Latency mean: %s\n", metrics.Latencies.Mean)
	fmt.Fprintf(w, "Latency P95: %s\n", metrics.Latencies.P95)
	fmt.Fprintf(w, "Latency P99: %s\n", metrics.Latencies.P99)

	stats, violations, err := waitDrained(opts)

	cancel()
	wg.Wait()

	if err != nil {
		return err
	}

	var handled, failed int
	for _, r := range reviewers {
		handled += r.completed
		failed += r.failed
	}

	fmt.Fprintln(w, "=== Hub ===")
	fmt.Fprintf(w, "Completed reviews: %d\n", stats.CompletedReviewsCount)
	fmt.Fprintf(w, "Pending reviews: %d\n", stats.PendingReviewsCount)
	fmt.Fprintf(w, "Assigned reviews: %d\n", stats.AssignedReviewsCount)
	fmt.Fprintf(w, "Reviewer outcomes: %d completed, %d failed\n", handled, failed)
	fmt.Fprintf(w, "Snapshot violations: %d\n", violations)

	if violations > 0 {
		return fmt.Errorf("%d inconsistent stats snapshots", violations)
	}
	return nil
}

// attack отправляет ревью с постоянной частотой.
func attack(opts options) vegeta.Metrics {
	rate := vegeta.Rate{Freq: opts.rate, Per: time.Second}
	attacker := vegeta.NewAttacker()
	targeter := func(t *vegeta.Target) error {
		body, err := json.Marshal(api.PostReviewsJSONBody{
			Payload: json.RawMessage(fmt.Sprintf(`{"tool":"bash","command":"make test","seq":%d}`, rand.Int())),
		})
		if err != nil {
			return err
		}
		t.Method = http.MethodPost
		t.URL = opts.target + "/reviews"
		t.Body = body
		t.Header = map[string][]string{"Content-Type": {"application/json"}}
		return nil
	}

	var metrics vegeta.Metrics
	for res := range attacker.Attack(targeter, rate, opts.duration, "submit-reviews") {
		metrics.Add(res)
	}
	metrics.Close()
	return metrics
}

// waitDrained опрашивает статистику раз в секунду, как панель статистики,
// пока очередь и назначения не опустеют.
func waitDrained(opts options) (api.HubStats, int, error) {
	deadline := time.Now().Add(opts.drainWait)
	violations := 0

	for {
		stats, err := fetchStats(opts.target)
		if err != nil {
			return stats, violations, err
		}
		if !consistent(stats) {
			violations++
		}
		if stats.PendingReviewsCount == 0 && stats.AssignedReviewsCount == 0 {
			return stats, violations, nil
		}
		if time.Now().After(deadline) {
			return stats, violations, fmt.Errorf("queue not drained: %d pending, %d assigned",
				stats.PendingReviewsCount, stats.AssignedReviewsCount)
		}
		time.Sleep(time.Second)
	}
}

func fetchStats(target string) (api.HubStats, error) {
	var stats api.HubStats
	resp, err := httpc.Get(target + "/hub/stats")
	if err != nil {
		return stats, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return stats, fmt.Errorf("hub/stats returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return stats, json.NewDecoder(resp.Body).Decode(&stats)
}

func consistent(stats api.HubStats) bool {
	sum := 0
	for _, n := range stats.AssignedReviews {
		sum += n
	}
	return sum == stats.AssignedReviewsCount &&
		stats.FreeClients+stats.BusyClients == stats.ConnectedClients
}
