package pipeline

import (
	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts the work of a run on its own registry so a batch process can
// write it out once with WriteTextfile.
type Metrics struct {
	registry    *prometheus.Registry
	uploads     prometheus.Counter
	mints       *prometheus.CounterVec
	failures    *prometheus.CounterVec
	retries     prometheus.Counter
	lastID      prometheus.Gauge
	runDuration *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		uploads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "nftminter",
			Name:      "uploads_total",
			Help:      "Files uploaded to the pinning service.",
		}),
		mints: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nftminter",
			Name:      "mints_total",
			Help:      "Items minted.",
		}, []string{"compressed"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nftminter",
			Name:      "failures_total",
			Help:      "Fatal item failures by error kind.",
		}, []string{"kind"}),
		retries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "nftminter",
			Name:      "upload_retries_total",
			Help:      "Upload attempts repeated after a transient failure.",
		}),
		lastID: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "nftminter",
			Name:      "last_recorded_id",
			Help:      "Last id recorded by the cursor in this run.",
		}),
		runDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "nftminter",
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}, []string{"mode"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the registry in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) upload() {
	if m != nil {
		m.uploads.Inc()
	}
}

func (m *Metrics) retry() {
	if m != nil {
		m.retries.Inc()
	}
}

func (m *Metrics) mint(compressed bool) {
	if m == nil {
		return
	}
	label := "false"
	if compressed {
		label = "true"
	}
	m.mints.WithLabelValues(label).Inc()
}

func (m *Metrics) recorded(id int) {
	if m != nil {
		m.lastID.Set(float64(id))
	}
}

func (m *Metrics) failure(err error) {
	if m == nil || err == nil {
		return
	}
	kind, ok := minterr.KindOf(err)
	if !ok {
		kind = "unknown"
	}
	m.failures.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) run(mode string, seconds float64) {
	if m != nil {
		m.runDuration.WithLabelValues(mode).Set(seconds)
	}
}
