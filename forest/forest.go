// forest implements random forests of regression trees as described in
// Louppe, G. (2014) "Understanding Random Forests: From Theory to Practice" (PhD thesis)
// http://arxiv.org/abs/1407.7502
//
// Trees are grown concurrently by a pool of workers. All workers share one
// lock around leaf model fitting, the only part of tree construction that
// touches state shared between trees.
package forest

import (
	"github.com/xuechao-chen/RegressionForest/config"
)

// DefaultNumTrees is the forest size used when neither the NumTrees option
// nor the num_trees attribute is given.
const DefaultNumTrees = 10

// Logger receives progress messages while a forest is fitted.
type Logger interface {
	Logf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Logf(string, ...interface{}) {}

// Option configures a Regressor.
type Option func(*Regressor)

// NumTrees sets the number of trees used in the random forest.
func NumTrees(n int) Option {
	return func(f *Regressor) {
		f.NTrees = n
	}
}

// NumWorkers sets the number of workers used to fit trees; ensure
// GOMAXPROCS is also set > 1 to take advantage of multi cpu.
func NumWorkers(n int) Option {
	return func(f *Regressor) {
		f.nWorkers = n
	}
}

// ComputeOOB computes the mean squared error and R² of the first response
// from out of bag samples for each tree.
func ComputeOOB() Option {
	return func(f *Regressor) {
		f.computeOOB = true
	}
}

// EarlyStop stops adding trees once the OOB error has converged. It implies
// ComputeOOB.
func EarlyStop() Option {
	return func(f *Regressor) {
		f.computeOOB = true
		f.earlyStop = true
	}
}

// Seed makes the forest reproducible: tree i is grown from the random
// source seeded with s+i.
func Seed(s int64) Option {
	return func(f *Regressor) {
		f.seed = s
		f.seeded = true
	}
}

// WithConfig sets the attributes trees are built with.
func WithConfig(cfg *config.Config) Option {
	return func(f *Regressor) {
		f.cfg = cfg
	}
}

// WithLogger sets the logger progress is reported to.
func WithLogger(l Logger) Option {
	return func(f *Regressor) {
		if l != nil {
			f.logger = l
		}
	}
}
