package metrics

import (
	"slices"

	"github.com/prometheus/client_golang/prometheus"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the metric name prefix, "rally" by default.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem sets the second name segment, "rotation" by default.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithLatencyBuckets sets the millisecond buckets shared by the allocation
// and HTTP latency histograms. Buckets must be strictly increasing.
func WithLatencyBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if increasing(buckets) {
			m.latencyBuckets = slices.Clone(buckets)
		}
	}
}

// WithCombinationBuckets sets the buckets of the per-court candidate count.
// Deployments raising max_combinations should widen them.
func WithCombinationBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if increasing(buckets) {
			m.combinationBuckets = slices.Clone(buckets)
		}
	}
}

// WithConstLabels adds constant labels, e.g. a venue, to every metric.
func WithConstLabels(labels map[string]string) Option {
	return func(m *Manager) {
		if len(labels) > 0 {
			m.constLabels = labels
		}
	}
}

// WithPrometheusRegistry registers the collectors on registry instead of the
// default registerer.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

func increasing(buckets []float64) bool {
	if len(buckets) == 0 {
		return false
	}
	for i := 1; i < len(buckets); i++ {
		if buckets[i] <= buckets[i-1] {
			return false
		}
	}
	return true
}
