package metrics

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Recorder collects simulation run metrics on a private Prometheus registry.
// The simulator has no network surface, so exposition is file-based: call
// WriteTextfile at the end of a run to dump the registry in the Prometheus
// text format (node_exporter textfile-collector compatible).
type Recorder struct {
	registry *prometheus.Registry

	stepsTotal  *prometheus.CounterVec
	jumpsTotal  *prometheus.CounterVec
	haltsTotal  *prometheus.CounterVec
	regimeFlips *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	volatility  *prometheus.GaugeVec
	shockMag    *prometheus.HistogramVec
}

// New creates a metrics recorder with its own registry.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.stepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jumpsim_steps_total",
			Help: "Total number of simulation steps executed",
		},
		[]string{"run"},
	)
	r.jumpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jumpsim_jumps_total",
			Help: "Total number of detected price jumps",
		},
		[]string{"run"},
	)
	r.haltsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jumpsim_halts_total",
			Help: "Total number of circuit breaker activations",
		},
		[]string{"run"},
	)
	r.regimeFlips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jumpsim_regime_flips_total",
			Help: "Total number of news regime transitions",
		},
		[]string{"run"},
	)
	r.lastPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jumpsim_last_price",
			Help: "Last cleared market price",
		},
		[]string{"run"},
	)
	r.volatility = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jumpsim_volatility",
			Help: "Current EWMA volatility proxy",
		},
		[]string{"run"},
	)
	r.shockMag = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jumpsim_shock_magnitude",
			Help:    "Absolute magnitude of nonzero news shocks",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"run"},
	)

	r.registry.MustRegister(r.stepsTotal, r.jumpsTotal, r.haltsTotal, r.regimeFlips, r.lastPrice, r.volatility, r.shockMag)
	return r
}

// RecordStep records one executed simulation step.
func (r *Recorder) RecordStep(run string) {
	r.stepsTotal.WithLabelValues(run).Inc()
}

// RecordJump records a detected price jump.
func (r *Recorder) RecordJump(run string) {
	r.jumpsTotal.WithLabelValues(run).Inc()
}

// RecordHalt records a circuit breaker activation.
func (r *Recorder) RecordHalt(run string) {
	r.haltsTotal.WithLabelValues(run).Inc()
}

// RecordRegimeFlip records a news regime transition.
func (r *Recorder) RecordRegimeFlip(run string) {
	r.regimeFlips.WithLabelValues(run).Inc()
}

// RecordPrice records the latest cleared price and volatility.
func (r *Recorder) RecordPrice(run string, price, volatility float64) {
	r.lastPrice.WithLabelValues(run).Set(price)
	r.volatility.WithLabelValues(run).Set(volatility)
}

// RecordShock records the magnitude of a nonzero news shock.
func (r *Recorder) RecordShock(run string, magnitude float64) {
	if magnitude < 0 {
		magnitude = -magnitude
	}
	r.shockMag.WithLabelValues(run).Observe(magnitude)
}

// WriteTextfile dumps the registry to path in Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	mfs, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	defer f.Close()

	enc := expfmt.NewEncoder(f, expfmt.FmtText)
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}
