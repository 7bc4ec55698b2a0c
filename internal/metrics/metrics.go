// Package metrics exports generation statistics as prometheus series.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"genevo/internal/model"
)

const namespace = "genevo"

// Collector owns a private registry so several runs in one process do not
// collide on the default one.
type Collector struct {
	registry    *prometheus.Registry
	generations *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	best        *prometheus.GaugeVec
	mean        *prometheus.GaugeVec
	duration    *prometheus.HistogramVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Completed generations.",
		}, []string{"mode"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Fitness function calls.",
		}, []string{"mode"}),
		best: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_fitness",
			Help:      "Best fitness of the latest generation.",
		}, []string{"mode"}),
		mean: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mean_fitness",
			Help:      "Mean fitness of the latest generation.",
		}, []string{"mode"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_seconds",
			Help:      "Wall time of one generation.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"mode"}),
	}
	c.registry.MustRegister(c.generations, c.evaluations, c.best, c.mean, c.duration)
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Observe records one generation of the given mode ("ga" or "gp").
func (c *Collector) Observe(mode string, diag model.GenerationDiagnostics) {
	labels := prometheus.Labels{"mode": mode}
	c.generations.With(labels).Inc()
	c.evaluations.With(labels).Add(float64(diag.Evaluated))
	c.best.With(labels).Set(diag.BestFitness)
	c.mean.With(labels).Set(diag.MeanFitness)
	c.duration.With(labels).Observe((time.Duration(diag.DurationMS) * time.Millisecond).Seconds())
}

func (c *Collector) WriteTextfile(path string) error {
	return WriteTextfile(c.registry, path)
}

// WriteTextfile writes everything g gathers in the text exposition format,
// for the node exporter textfile collector.
func WriteTextfile(g prometheus.Gatherer, path string) error {
	if path == "" {
		return fmt.Errorf("metrics path is required")
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
