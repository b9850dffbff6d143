package tree

import (
	"errors"

	"github.com/xuechao-chen/RegressionForest/dataset"
)

var (
	ErrAlreadyBuilt     = errors.New("tree already built")
	ErrNotBuilt         = errors.New("tree not built")
	ErrEmptyBootstrap   = errors.New("bootstrap selector returned no indices")
	ErrBootstrapSize    = errors.New("bootstrap size does not match training set")
	ErrUnknownNodeType  = errors.New("unknown node type")
	ErrNotLeaf          = errors.New("node is not a leaf")
	ErrHasChildren      = errors.New("node already has children")
	ErrEmptyFeatures    = errors.New("empty feature vector")
	ErrFeatureIndex     = errors.New("feature index out of range")
	ErrResponseMismatch = errors.New("response count mismatch")
	ErrResponseIndex    = errors.New("response index out of range")
	ErrMalformedTree    = errors.New("malformed tree")
	ErrMissingStrategy  = errors.New("missing strategy")
)

// BootstrapSelector draws the bootstrap sample of a tree. The returned
// slice holds numInstances training indices; instanceWeights is nil unless
// weighted bootstrapping is configured.
type BootstrapSelector interface {
	Generate(numInstances int, instanceWeights []float64) []int
}

// InstanceWeightGenerator computes one sampling weight per training instance.
type InstanceWeightGenerator interface {
	Generate(numInstances int) []float64
}

// FeatureSelector picks the candidate features tried at a split.
// featureWeights is indexed by feature and nil when features are unweighted.
type FeatureSelector interface {
	Generate(numFeatures int, featureWeights []float64) []int
}

// FeatureWeight is the importance of one feature.
type FeatureWeight struct {
	Index      int
	Importance float64
}

// FeatureWeightGenerator rates every feature on a dataset. The result is
// sorted by importance.
type FeatureWeightGenerator interface {
	Generate(ds *dataset.Dataset) []FeatureWeight
}

// Split is the outcome of a successful node split. Rows of inx before Pos
// belong to the left child.
type Split struct {
	Feature int
	Gap     float64
	Pos     int
}

// NodeSplitter partitions inx[r.Start:r.End] in place. It reports false
// when no split leaves both sides non-empty. n is read-only.
type NodeSplitter interface {
	Split(n *Node, r dataset.Range, candidates []int, inx []int) (Split, bool)
}

// TerminateCondition decides whether a node at level becomes a leaf.
type TerminateCondition interface {
	IsMet(ds *dataset.Dataset, level int) bool
}

// BootstrapFunc adapts a function to BootstrapSelector.
type BootstrapFunc func(numInstances int, instanceWeights []float64) []int

func (f BootstrapFunc) Generate(numInstances int, instanceWeights []float64) []int {
	return f(numInstances, instanceWeights)
}

// FeatureSelectorFunc adapts a function to FeatureSelector.
type FeatureSelectorFunc func(numFeatures int, featureWeights []float64) []int

func (f FeatureSelectorFunc) Generate(numFeatures int, featureWeights []float64) []int {
	return f(numFeatures, featureWeights)
}

// SplitterFunc adapts a function to NodeSplitter.
type SplitterFunc func(n *Node, r dataset.Range, candidates []int, inx []int) (Split, bool)

func (f SplitterFunc) Split(n *Node, r dataset.Range, candidates []int, inx []int) (Split, bool) {
	return f(n, r, candidates, inx)
}

// TerminateFunc adapts a function to TerminateCondition.
type TerminateFunc func(ds *dataset.Dataset, level int) bool

func (f TerminateFunc) IsMet(ds *dataset.Dataset, level int) bool { return f(ds, level) }

// FeatureWeightFunc adapts a function to FeatureWeightGenerator.
type FeatureWeightFunc func(ds *dataset.Dataset) []FeatureWeight

func (f FeatureWeightFunc) Generate(ds *dataset.Dataset) []FeatureWeight { return f(ds) }
