// Package metrics exports run outcomes in the prometheus textfile
// format, for collection by a node-exporter textfile collector on the
// CI host.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Snapshot is the per-run data exported as metrics.
type Snapshot struct {
	DurationSeconds float64
	PrecheckErrors  int
	BuildErrors     int
	Success         bool
}

// WriteTextfile writes the snapshot to path atomically in the
// prometheus exposition format.
func WriteTextfile(path string, snap Snapshot) error {
	reg := prometheus.NewRegistry()

	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "docsci_build_duration_seconds",
		Help: "Wall-clock duration of the last docsci run.",
	})
	precheck := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "docsci_precheck_errors",
		Help: "Findings produced by the precheck phase of the last run.",
	})
	build := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "docsci_build_errors",
		Help: "Findings produced by the build phase of the last run.",
	})
	success := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "docsci_build_success",
		Help: "1 when the last run exited zero, 0 otherwise.",
	})
	reg.MustRegister(duration, precheck, build, success)

	duration.Set(snap.DurationSeconds)
	precheck.Set(float64(snap.PrecheckErrors))
	build.Set(float64(snap.BuildErrors))
	if snap.Success {
		success.Set(1)
	}

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
