package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of one generator run
type Metrics struct {
	registry *prometheus.Registry

	Rounds                 prometheus.Counter
	DeclarationsScanned    prometheus.Counter
	ImplementorsRegistered *prometheus.CounterVec
	Unresolvable           prometheus.Counter
	FilesWritten           *prometheus.CounterVec
	WriteFailures          *prometheus.CounterVec
}

// New creates the metrics on a private registry so runs never share state
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Rounds: factory.NewCounter(prometheus.CounterOpts{
			Name: "factories_generator_rounds_total",
			Help: "Total number of scanning rounds processed",
		}),
		DeclarationsScanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "factories_generator_declarations_scanned_total",
			Help: "Total number of annotated declarations scanned",
		}),
		ImplementorsRegistered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "factories_generator_implementors_registered_total",
			Help: "Total number of implementor registrations, by target registry",
		}, []string{"target"}),
		Unresolvable: factory.NewCounter(prometheus.CounterOpts{
			Name: "factories_generator_unresolvable_total",
			Help: "Total number of declarations skipped because no provider interface could be resolved",
		}),
		FilesWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "factories_generator_files_written_total",
			Help: "Total number of registry files written, by resource path",
		}, []string{"resource"}),
		WriteFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "factories_generator_write_failures_total",
			Help: "Total number of output write failures, by resource path",
		}, []string{"resource"}),
	}
}

// Registry exposes the underlying registry as a Gatherer
func (m *Metrics) Registry() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes all metrics in the text exposition format, suitable
// for the node_exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}

	return nil
}
