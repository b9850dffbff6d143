package tree

import (
	"fmt"
	"sync"

	"github.com/xuechao-chen/RegressionForest/config"
	"github.com/xuechao-chen/RegressionForest/dataset"
	"github.com/xuechao-chen/RegressionForest/regression"
)

// Build grows the tree. The bootstrap index array is drawn once and then
// partitioned in place: every node on the stack owns the range of it that
// holds its rows, so a split only swaps indices within that range.
//
// A node becomes a leaf when tc is met or when sp finds no split leaving
// both sides non-empty. fw is only used when the weighted feature selector
// is configured.
func (t *Tree) Build(env Env, bs BootstrapSelector, fs FeatureSelector, sp NodeSplitter, tc TerminateCondition, fw FeatureWeightGenerator) error {
	if t.Pool != nil {
		return ErrAlreadyBuilt
	}
	if env.TrainingSet == nil || bs == nil || fs == nil || sp == nil || tc == nil {
		return ErrMissingStrategy
	}

	kind, err := ParseNodeKind(env.Config.StringOr(config.NodeType, config.SingleResponseNode))
	if err != nil {
		return err
	}

	if env.Lock == nil {
		env.Lock = &sync.Mutex{}
	}
	if env.Backend == nil {
		env.Backend = regression.Backend
	}

	b := &builder{
		env:        env,
		fs:         fs,
		fw:         fw,
		isWeighted: env.Config.StringOr(config.FeatureSelector, config.RandomFeatureSelector) == config.WeightedFeatureSelector,
		isLive:     env.Config.BoolOr(config.LiveUpdateFeatureWeight, false),
		fitter: &leafFitter{
			backend:   env.Backend,
			signature: env.Config.StringOr(config.LeafNodeModel, regression.Average),
			lock:      env.Lock,
		},
	}
	if b.isWeighted && fw == nil {
		return fmt.Errorf("%w: weighted feature selection needs a feature weight generator", ErrMissingStrategy)
	}

	inx, err := b.bootstrapIndex(bs)
	if err != nil {
		return err
	}

	pool := newNodePool(kind)
	root := pool.Allocate(1)

	s := new(buildStack)
	s.Push(stackItem{root, dataset.Range{Start: 0, End: len(inx)}})

	var (
		ds     dataset.Dataset
		leafID int
	)
	for !s.Empty() {
		w := s.Pop()
		n := pool.Node(w.node)
		n.Size = w.r.Len()

		env.TrainingSet.Materialize(inx, w.r, &ds)

		if tc.IsMet(&ds, n.Level) {
			if err := b.createLeaf(n, &ds, leafID); err != nil {
				return err
			}
			leafID++
			continue
		}

		candidates := b.selectCandidateFeatures(&ds)

		split, ok := sp.Split(n, w.r, candidates, inx)
		if !ok || split.Pos <= w.r.Start || split.Pos >= w.r.End {
			// one side would be empty, stop here
			if err := b.createLeaf(n, &ds, leafID); err != nil {
				return err
			}
			leafID++
			continue
		}

		n.setBestSplit(split.Feature, split.Gap)
		level := n.Level

		// n is not valid past Allocate
		left := pool.Allocate(level + 1)
		right := pool.Allocate(level + 1)
		n = pool.Node(w.node)
		n.Left, n.Right = left, right

		s.Push(stackItem{left, dataset.Range{Start: w.r.Start, End: split.Pos}})
		s.Push(stackItem{right, dataset.Range{Start: split.Pos, End: w.r.End}})
	}

	t.Pool = pool
	t.NextLeafID = leafID
	t.OOB = obtainOOBIndex(inx, env.TrainingSet.NumInstances())
	return nil
}

type builder struct {
	env        Env
	fs         FeatureSelector
	fw         FeatureWeightGenerator
	fitter     *leafFitter
	isWeighted bool
	isLive     bool

	featureWeights []float64
}

// bootstrapIndex draws the bootstrap index array. Instance weights are
// generated under the shared lock since the generator may be shared state.
func (b *builder) bootstrapIndex(bs BootstrapSelector) ([]int, error) {
	numInstances := b.env.TrainingSet.NumInstances()

	var weights []float64
	if b.env.Config.StringOr(config.BootstrapSelector, config.UniformBootstrap) == config.WeightedBootstrap {
		var err error
		weights, err = b.instanceWeights(numInstances)
		if err != nil {
			return nil, err
		}
	}

	inx := bs.Generate(numInstances, weights)
	if len(inx) == 0 {
		return nil, ErrEmptyBootstrap
	}
	if len(inx) != numInstances {
		return nil, fmt.Errorf("%w: got %d indices for %d instances", ErrBootstrapSize, len(inx), numInstances)
	}
	for _, id := range inx {
		if id < 0 || id >= numInstances {
			return nil, fmt.Errorf("%w: index %d outside [0, %d)", ErrBootstrapSize, id, numInstances)
		}
	}
	return inx, nil
}

func (b *builder) instanceWeights(numInstances int) ([]float64, error) {
	if b.env.InstanceWeights == nil {
		return nil, fmt.Errorf("%w: weighted bootstrap needs an instance weight generator", ErrMissingStrategy)
	}

	b.env.Lock.Lock()
	defer b.env.Lock.Unlock()

	gen, err := b.env.InstanceWeights(b.env.Config.StringOr(config.InstanceWeightMethod, config.UniformInstanceWeight))
	if err != nil {
		return nil, fmt.Errorf("creating instance weight generator: %w", err)
	}
	return gen.Generate(numInstances), nil
}

func (b *builder) createLeaf(n *Node, ds *dataset.Dataset, leafID int) error {
	if err := n.becomeLeaf(ds, b.fitter); err != nil {
		return fmt.Errorf("creating leaf at level %d: %w", n.Level, err)
	}
	n.LeafID = leafID
	return nil
}

func (b *builder) selectCandidateFeatures(ds *dataset.Dataset) []int {
	numFeatures := b.env.TrainingSet.NumFeatures()
	if b.isWeighted {
		b.updateFeaturesWeight(ds, numFeatures)
	}
	return b.fs.Generate(numFeatures, b.featureWeights)
}

// updateFeaturesWeight refreshes the feature weights at every node when
// live updating, otherwise only on the full-size dataset of the root.
func (b *builder) updateFeaturesWeight(ds *dataset.Dataset, numFeatures int) {
	if !b.isLive && ds.Len() != b.env.TrainingSet.NumInstances() {
		return
	}

	if cap(b.featureWeights) < numFeatures {
		b.featureWeights = make([]float64, numFeatures)
	}
	b.featureWeights = b.featureWeights[:numFeatures]
	for i := range b.featureWeights {
		b.featureWeights[i] = 0
	}
	for _, fw := range b.fw.Generate(ds) {
		if fw.Index >= 0 && fw.Index < numFeatures {
			b.featureWeights[fw.Index] = fw.Importance
		}
	}
}

type buildStack []stackItem

func (s buildStack) Empty() bool        { return len(s) == 0 }
func (s *buildStack) Push(n stackItem) { *s = append(*s, n) }
func (s *buildStack) Pop() stackItem {
	d := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]
	return d
}

type stackItem struct {
	node NodeID
	r    dataset.Range
}
