// Package strategy implements the pluggable parts of tree construction:
// bootstrap sampling, instance and feature weighting, candidate feature
// selection, node splitting and termination.
//
// New assembles a Set from a config.Config. A Set holds scratch buffers and
// a random source, so every tree gets its own.
package strategy

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/xuechao-chen/RegressionForest/config"
	"github.com/xuechao-chen/RegressionForest/dataset"
	"github.com/xuechao-chen/RegressionForest/tree"
)

// ErrUnknownStrategy is returned for a signature that names no strategy.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Defaults for the termination and split limits.
const (
	DefaultMinNodeSize     = 2
	DefaultMinLeafSize     = 1
	DefaultMinNodeVariance = 1e-7
)

// Set is the group of strategies one tree is built with.
type Set struct {
	Bootstrap      tree.BootstrapSelector
	Features       tree.FeatureSelector
	Splitter       tree.NodeSplitter
	Terminate      tree.TerminateCondition
	FeatureWeights tree.FeatureWeightGenerator
}

// New builds the strategies named by cfg for a tree grown on ts, drawing
// random numbers from rnd.
func New(cfg *config.Config, ts *dataset.TrainingSet, rnd *rand.Rand) (*Set, error) {
	s := &Set{}
	minLeaf := cfg.IntOr(config.MinLeafSize, DefaultMinLeafSize)
	numSplit := cfg.IntOr(config.NumSplitFeatures, 0)

	switch sig := cfg.StringOr(config.BootstrapSelector, config.UniformBootstrap); sig {
	case config.UniformBootstrap:
		s.Bootstrap = UniformBootstrap{Rand: rnd}
	case config.WeightedBootstrap:
		s.Bootstrap = WeightedBootstrap{Rand: rnd}
	case config.NoBootstrap:
		s.Bootstrap = IdentityBootstrap{}
	default:
		return nil, fmt.Errorf("%w: bootstrap selector %q", ErrUnknownStrategy, sig)
	}

	switch sig := cfg.StringOr(config.FeatureSelector, config.RandomFeatureSelector); sig {
	case config.RandomFeatureSelector:
		s.Features = RandomFeatures{N: numSplit, Rand: rnd}
	case config.WeightedFeatureSelector:
		s.Features = WeightedFeatures{N: numSplit, Rand: rnd}
		switch sig := cfg.StringOr(config.FeatureWeightMethod, config.VarianceReductionFeatureWeight); sig {
		case config.VarianceReductionFeatureWeight:
			s.FeatureWeights = &VarianceReduction{MinLeaf: minLeaf}
		default:
			return nil, fmt.Errorf("%w: feature weight method %q", ErrUnknownStrategy, sig)
		}
	default:
		return nil, fmt.Errorf("%w: feature selector %q", ErrUnknownStrategy, sig)
	}

	switch sig := cfg.StringOr(config.NodeSplitter, config.VarianceSplitter); sig {
	case config.VarianceSplitter:
		s.Splitter = NewVarianceSplitter(ts, minLeaf)
	default:
		return nil, fmt.Errorf("%w: node splitter %q", ErrUnknownStrategy, sig)
	}

	s.Terminate = Any{
		MaxLevel{Max: cfg.IntOr(config.MaxTreeDepth, 0)},
		MinNodeSize{Min: cfg.IntOr(config.MinNodeSize, DefaultMinNodeSize)},
		MinVariance{Min: cfg.FloatOr(config.MinNodeVariance, DefaultMinNodeVariance)},
	}
	return s, nil
}

// Build grows t with the strategies of s.
func (s *Set) Build(t *tree.Tree, env tree.Env) error {
	return t.Build(env, s.Bootstrap, s.Features, s.Splitter, s.Terminate, s.FeatureWeights)
}

// NewInstanceWeightGenerator returns the instance weight generator named by
// sig. It matches the signature of tree.Env.InstanceWeights once ts is bound.
func NewInstanceWeightGenerator(sig string, ts *dataset.TrainingSet) (tree.InstanceWeightGenerator, error) {
	switch sig {
	case "", config.UniformInstanceWeight:
		return UniformWeights{}, nil
	case config.ResponseDeviationInstanceWeight:
		return ResponseDeviation{TrainingSet: ts}, nil
	}
	return nil, fmt.Errorf("%w: instance weight method %q", ErrUnknownStrategy, sig)
}

// InstanceWeights binds ts to NewInstanceWeightGenerator for use in tree.Env.
func InstanceWeights(ts *dataset.TrainingSet) func(string) (tree.InstanceWeightGenerator, error) {
	return func(sig string) (tree.InstanceWeightGenerator, error) {
		return NewInstanceWeightGenerator(sig, ts)
	}
}
