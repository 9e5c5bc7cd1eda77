package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type options struct {
	target    string
	rate      int
	duration  time.Duration
	reviewers int
	capacity  int
	failRate  float64
	workTime  time.Duration
	drainWait time.Duration
}

func newRootCmd() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Load test the review hub",
		Long: `Connects fake reviewer clients over websocket, submits reviews at a fixed
rate with vegeta and polls /hub/stats until the queue drains.

Every stats poll checks that assigned_reviews_count equals the sum of
assigned_reviews and that connected_clients equals free_clients + busy_clients.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.target, "target", "http://localhost:8080", "hub base URL")
	cmd.Flags().IntVar(&opts.rate, "rate", 20, "review submissions per second")
	cmd.Flags().DurationVar(&opts.duration, "duration", time.Minute, "attack duration")
	cmd.Flags().IntVar(&opts.reviewers, "reviewers", 4, "number of fake reviewer clients")
	cmd.Flags().IntVar(&opts.capacity, "capacity", 2, "capacity of each reviewer")
	cmd.Flags().Float64Var(&opts.failRate, "fail-rate", 0.05, "share of reviews reported as failed")
	cmd.Flags().DurationVar(&opts.workTime, "work-time", 200*time.Millisecond, "mean time a reviewer spends on a review")
	cmd.Flags().DurationVar(&opts.drainWait, "drain-wait", 30*time.Second, "how long to wait for the queue to drain")

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
