package forest

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var (
	treesBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "regforest_trees_built_total",
		Help: "Total regression trees built",
	})

	treeBuildErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "regforest_tree_build_errors_total",
		Help: "Total regression tree builds that failed",
	})

	treeBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "regforest_tree_build_duration_seconds",
		Help:    "Time to build one regression tree",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	treeNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "regforest_tree_nodes",
		Help:    "Number of nodes per built tree",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
)

var (
	tracerOnce sync.Once
	tracer     trace.Tracer
)

// getTracer returns the OTel tracer, initializing it lazily so that a
// global provider installed after package init is picked up.
func getTracer() trace.Tracer {
	tracerOnce.Do(func() {
		tracer = otel.Tracer("github.com/xuechao-chen/RegressionForest/forest")
	})
	return tracer
}
