// Package metrics records per-set run results and writes them in Prometheus
// text format for the node_exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the gauges of one snaprotate invocation.
type Recorder struct {
	reg       *prometheus.Registry
	success   *prometheus.GaugeVec
	timestamp *prometheus.GaugeVec
	duration  *prometheus.GaugeVec
	size      *prometheus.GaugeVec
}

func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		success: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "snaprotate_last_run_success",
			Help: "1 if the last run of the set completed, 0 if it failed.",
		}, []string{"set"}),
		timestamp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "snaprotate_last_run_timestamp_seconds",
			Help: "Unix time the last run of the set finished.",
		}, []string{"set"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "snaprotate_last_run_duration_seconds",
			Help: "Wall time of the last run of the set.",
		}, []string{"set"}),
		size: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "snaprotate_generation_size_bytes",
			Help: "Disk usage of the newest generation after the last successful run.",
		}, []string{"set"}),
	}
	r.reg.MustRegister(r.success, r.timestamp, r.duration, r.size)
	return r
}

// Observe records one finished run. size < 0 means unknown and leaves the
// size gauge unset.
func (r *Recorder) Observe(set string, ok bool, finished time.Time, took time.Duration, size int64) {
	v := 0.0
	if ok {
		v = 1
	}
	r.success.WithLabelValues(set).Set(v)
	r.timestamp.WithLabelValues(set).Set(float64(finished.Unix()))
	r.duration.WithLabelValues(set).Set(took.Seconds())
	if size >= 0 {
		r.size.WithLabelValues(set).Set(float64(size))
	}
}

// WriteTextfile atomically writes all gauges to path.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.reg
}
