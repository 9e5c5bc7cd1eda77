package metrics

import (
	"review-hub/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder считает события хаба. Счетчики prometheus не блокируют,
// поэтому Recorder можно вызывать под мьютексом хаба.
type Recorder struct {
	dispatched    prometheus.Counter
	requeued      *prometheus.CounterVec
	unresponsive  prometheus.Counter
	violations    *prometheus.CounterVec
	statusDropped prometheus.Counter
}

// NewRecorder регистрирует счетчики хаба в reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		dispatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "hub_reviews_dispatched_total",
			Help: "Total number of reviews assigned to clients",
		}),
		requeued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_reviews_requeued_total",
			Help: "Total number of reviews returned to the queue",
		}, []string{"reason"}),
		unresponsive: factory.NewCounter(prometheus.CounterOpts{
			Name: "hub_clients_unresponsive_total",
			Help: "Total number of clients dropped as unresponsive",
		}),
		violations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_invariant_violations_total",
			Help: "Total number of detected hub consistency violations",
		}, []string{"kind"}),
		statusDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "hub_status_changes_dropped_total",
			Help: "Total number of status changes dropped because the listener lagged",
		}),
	}
}

func (r *Recorder) ReviewDispatched() { r.dispatched.Inc() }

func (r *Recorder) ReviewRequeued(reason string) { r.requeued.WithLabelValues(reason).Inc() }

func (r *Recorder) ClientUnresponsive() { r.unresponsive.Inc() }

func (r *Recorder) InvariantViolation(kind string) { r.violations.WithLabelValues(kind).Inc() }

func (r *Recorder) StatusDropped() { r.statusDropped.Inc() }

// SnapshotSource отдает согласованный срез статистики хаба.
type SnapshotSource interface {
	Snapshot() domain.HubStatsSnapshot
}

var (
	pendingDesc = prometheus.NewDesc("hub_pending_reviews",
		"Reviews waiting in the queue", nil, nil)
	assignedDesc = prometheus.NewDesc("hub_assigned_reviews",
		"Reviews currently assigned to clients", nil, nil)
	completedDesc = prometheus.NewDesc("hub_completed_reviews_total",
		"Reviews completed since start", nil, nil)
	clientsDesc = prometheus.NewDesc("hub_clients",
		"Connected clients by state", []string{"state"}, nil)
	clientLoadDesc = prometheus.NewDesc("hub_client_assigned_reviews",
		"Reviews assigned to a connected client", []string{"client_id"}, nil)
)

// hubCollector снимает все метрики состояния из одного Snapshot,
// так что значения одного scrape согласованы между собой.
type hubCollector struct {
	source SnapshotSource
}

// RegisterHubCollector регистрирует метрики состояния хаба.
func RegisterHubCollector(reg prometheus.Registerer, source SnapshotSource) error {
	return reg.Register(&hubCollector{source: source})
}

func (c *hubCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- pendingDesc
	ch <- assignedDesc
	ch <- completedDesc
	ch <- clientsDesc
	ch <- clientLoadDesc
}

func (c *hubCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.source.Snapshot()

	ch <- prometheus.MustNewConstMetric(pendingDesc, prometheus.GaugeValue, float64(snap.PendingReviewsCount))
	ch <- prometheus.MustNewConstMetric(assignedDesc, prometheus.GaugeValue, float64(snap.AssignedReviewsCount))
	ch <- prometheus.MustNewConstMetric(completedDesc, prometheus.CounterValue, float64(snap.CompletedReviewsCount))
	ch <- prometheus.MustNewConstMetric(clientsDesc, prometheus.GaugeValue, float64(snap.ConnectedClients), "connected")
	ch <- prometheus.MustNewConstMetric(clientsDesc, prometheus.GaugeValue, float64(snap.FreeClients), "free")
	ch <- prometheus.MustNewConstMetric(clientsDesc, prometheus.GaugeValue, float64(snap.BusyClients), "busy")

	for clientID, load := range snap.AssignedReviews {
		ch <- prometheus.MustNewConstMetric(clientLoadDesc, prometheus.GaugeValue, float64(load), clientID)
	}
}
