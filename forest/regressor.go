package forest

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xuechao-chen/RegressionForest/config"
	"github.com/xuechao-chen/RegressionForest/dataset"
	"github.com/xuechao-chen/RegressionForest/strategy"
	"github.com/xuechao-chen/RegressionForest/tree"
)

var (
	// ErrNoTrees is returned when a forest is fitted with fewer than one tree
	// or used for prediction before it was fitted.
	ErrNoTrees = errors.New("forest has no trees")
	// ErrNoTrainingSet is returned by Fit without a training set.
	ErrNoTrainingSet = errors.New("no training set")
)

// Regressor is a random forest of regression trees.
type Regressor struct {
	ModelID      string
	NTrees       int
	Trees        []*tree.Tree
	TreeIDs      []int64
	NSample      int
	NumFeatures  int
	NumResponses int

	// SplitCounts counts the internal nodes splitting on each feature,
	// summed over all trees.
	SplitCounts []int

	MSE      float64
	RSquared float64

	cfg        *config.Config
	logger     Logger
	nWorkers   int
	computeOOB bool
	earlyStop  bool
	seed       int64
	seeded     bool
}

// NewRegressor returns a configured/initialized random forest regressor.
// If no options are passed, the returned Regressor grows num_trees trees,
// or 10, with one worker and the default attributes.
func NewRegressor(options ...Option) *Regressor {
	f := &Regressor{logger: nopLogger{}}

	for _, opt := range options {
		opt(f)
	}

	if f.NTrees == 0 {
		f.NTrees = f.cfg.IntOr(config.NumTrees, DefaultNumTrees)
	}
	return f
}

// Fit constructs a forest from fitting NTrees trees to ts. Trees are
// built by a pool of workers; the first failing tree cancels the others
// and its error is returned.
func (f *Regressor) Fit(ctx context.Context, ts *dataset.TrainingSet) error {
	if ts == nil {
		return ErrNoTrainingSet
	}
	if f.NTrees < 1 {
		return ErrNoTrees
	}

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	f.ModelID = uuid.NewString()
	f.NSample = ts.NumInstances()
	f.NumFeatures = ts.NumFeatures()
	f.NumResponses = ts.NumResponses()

	ids, err := snowflake.NewNode(1)
	if err != nil {
		return fmt.Errorf("creating tree id generator: %w", err)
	}

	seed := f.seed
	if !f.seeded {
		seed = time.Now().UnixNano()
	}

	env := tree.Env{
		TrainingSet:     ts,
		Config:          f.cfg,
		Lock:            &sync.Mutex{},
		InstanceWeights: strategy.InstanceWeights(ts),
	}

	var oob *oobRegCtr
	if f.computeOOB {
		oob = newOOBRegCtr(ts.NumInstances())
	}

	in := make(chan *fitRegTree)
	out := make(chan *fitRegTree)

	nWorkers := f.nWorkers
	if nWorkers < 1 {
		nWorkers = 1
	}

	// start workers
	var wg sync.WaitGroup
	for i := 0; i < nWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range in {
				w.err = f.buildTree(ctx, env, ts, w)
				if w.err == nil && oob != nil {
					w.oob, w.err = oobPredictions(ts, w.t)
				}
				out <- w
			}
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()

	// fill the queue
	go func() {
		defer close(in)
		for i := 0; i < f.NTrees; i++ {
			w := &fitRegTree{index: i, id: ids.Generate().Int64(), seed: seed + int64(i)}
			select {
			case in <- w:
			case <-ctx.Done():
				return
			}
		}
	}()

	trees := make([]*fitRegTree, f.NTrees)
	var (
		firstErr     error
		stopped      bool
		done         int
		mse, prevMSE float64
	)
	for w := range out {
		if firstErr != nil || stopped {
			continue
		}
		if w.err != nil {
			firstErr = w.err
			cancel()
			continue
		}

		trees[w.index] = w
		done++
		f.logger.Logf("tree %d built (%d/%d): %d nodes, %d leaves", w.id, done, f.NTrees, w.t.Pool.Len(), w.t.NextLeafID)

		if oob != nil {
			oob.update(w.t.OOBIndexSet(), w.oob)
		}
		if f.earlyStop {
			mse, _ = oob.compute(ts.Y)
			if done > 5 && math.Abs(mse-prevMSE) < 1e-6 { // oob error converged
				f.logger.Logf("oob error converged after %d trees", done)
				stopped = true
				cancel()
			}
			prevMSE = mse
		}
	}
	if firstErr != nil {
		return firstErr
	}
	if !stopped && done < f.NTrees {
		return fmt.Errorf("fit stopped after %d of %d trees: %w", done, f.NTrees, parent.Err())
	}

	f.Trees = f.Trees[:0]
	f.TreeIDs = f.TreeIDs[:0]
	for _, w := range trees {
		if w == nil {
			continue
		}
		f.Trees = append(f.Trees, w.t)
		f.TreeIDs = append(f.TreeIDs, w.id)
	}
	f.NTrees = len(f.Trees)

	f.SplitCounts = f.Info(ts).FeatureSplitTimes

	if oob != nil {
		f.MSE, f.RSquared = oob.compute(ts.Y)
		f.logger.Logf("oob mse: %f, r²: %f", f.MSE, f.RSquared)
	}
	return nil
}

func (f *Regressor) buildTree(ctx context.Context, env tree.Env, ts *dataset.TrainingSet, w *fitRegTree) error {
	_, span := getTracer().Start(ctx, "forest.buildTree",
		trace.WithAttributes(
			attribute.Int64("tree_id", w.id),
			attribute.Int("instances", ts.NumInstances()),
		),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "canceled")
		return err
	}

	start := time.Now()
	s, err := strategy.New(f.cfg, ts, rand.New(rand.NewSource(w.seed)))
	if err == nil {
		w.t = tree.New()
		err = s.Build(w.t, env)
	}
	if err != nil {
		treeBuildErrors.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "tree build failed")
		return fmt.Errorf("building tree %d: %w", w.id, err)
	}

	treesBuilt.Inc()
	treeBuildDuration.Observe(time.Since(start).Seconds())
	treeNodes.Observe(float64(w.t.Pool.Len()))
	span.SetAttributes(
		attribute.Int("nodes", w.t.Pool.Len()),
		attribute.Int("leaves", w.t.NextLeafID),
		attribute.Int("oob", len(w.t.OOBIndexSet())),
	)
	span.SetStatus(codes.Ok, "tree built")
	return nil
}

// Predict returns the prediction of response r for each example. Tree
// predictions are averaged with the node weight of the leaf each example
// falls into.
func (f *Regressor) Predict(X [][]float64, r int) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, ErrNoTrees
	}
	if r < 0 || r >= f.NumResponses {
		return nil, fmt.Errorf("%w: response %d, forest has %d", tree.ErrResponseIndex, r, f.NumResponses)
	}

	p := make([]float64, len(X))
	for i, x := range X {
		var sum, wsum float64
		for k, t := range f.Trees {
			leaf, err := t.LocateLeafNode(x)
			if err != nil {
				return nil, fmt.Errorf("example %d, tree %d: %w", i, k, err)
			}
			v, w, err := t.Predict(leaf, x, r)
			if err != nil {
				return nil, fmt.Errorf("example %d, tree %d: %w", i, k, err)
			}
			sum += v * w
			wsum += w
		}
		p[i] = sum / wsum
	}
	return p, nil
}

// VarImp returns importance scores for the features: the share of splits
// made on each of them.
func (f *Regressor) VarImp() []float64 {
	imp := make([]float64, len(f.SplitCounts))
	total := 0
	for _, c := range f.SplitCounts {
		total += c
	}
	if total == 0 {
		return imp
	}
	for i, c := range f.SplitCounts {
		imp[i] = float64(c) / float64(total)
	}
	return imp
}

// Info aggregates the structure of every tree.
type Info struct {
	NumTrees int
	tree.Info
}

// Info collects tree.Info over all trees of the forest. ts must be the
// training set the forest was fitted on.
func (f *Regressor) Info(ts tree.TrainingSet) Info {
	info := Info{
		NumTrees: len(f.Trees),
		Info: tree.Info{
			FeatureSplitTimes: make([]int, ts.NumFeatures()),
			InstanceOOBTimes:  make([]int, ts.NumInstances()),
		},
	}
	for _, t := range f.Trees {
		ti := t.FetchTreeInfo(ts)
		info.NumNodes += ti.NumNodes
		info.NumLeafNodes += ti.NumLeafNodes
		info.NumUnfittedLeafNodes += ti.NumUnfittedLeafNodes
		for i, c := range ti.FeatureSplitTimes {
			info.FeatureSplitTimes[i] += c
		}
		for i, c := range ti.InstanceOOBTimes {
			info.InstanceOOBTimes[i] += c
		}
	}
	return info
}

// Save serializes the Regressor using gzip compressed encoding/gob to an
// io.Writer.
func (f *Regressor) Save(w io.Writer) error {
	zw := gzip.NewWriter(w)
	if err := gob.NewEncoder(zw).Encode(f); err != nil {
		return fmt.Errorf("encoding forest: %w", err)
	}
	return zw.Close()
}

// Load deserializes a Regressor written by Save from an io.Reader.
func (f *Regressor) Load(r io.Reader) error {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("reading forest: %w", err)
	}
	defer zr.Close()
	if err := gob.NewDecoder(zr).Decode(f); err != nil {
		return fmt.Errorf("decoding forest: %w", err)
	}
	if f.logger == nil {
		f.logger = nopLogger{}
	}
	return nil
}

type fitRegTree struct {
	index int
	id    int64
	seed  int64
	t     *tree.Tree
	oob   []float64
	err   error
}
