package strategy

import (
	"errors"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuechao-chen/RegressionForest/config"
	"github.com/xuechao-chen/RegressionForest/dataset"
	"github.com/xuechao-chen/RegressionForest/tree"
)

func stepSet(t *testing.T, n int) *dataset.TrainingSet {
	X := make([][]float64, n)
	Y := make([][]float64, n)
	for i := range X {
		X[i] = []float64{float64(i), 3}
		Y[i] = []float64{0}
		if i >= n/2 {
			Y[i][0] = 10
		}
	}
	ts, err := dataset.New(X, Y)
	require.NoError(t, err)
	return ts
}

func TestUniformBootstrap(t *testing.T) {
	b := UniformBootstrap{Rand: rand.New(rand.NewSource(1))}
	inx := b.Generate(50, nil)
	require.Len(t, inx, 50)
	for _, i := range inx {
		assert.True(t, i >= 0 && i < 50)
	}
}

func TestWeightedBootstrap(t *testing.T) {
	b := WeightedBootstrap{Rand: rand.New(rand.NewSource(1))}
	w := []float64{0, 1, 0, 3, 0}

	inx := b.Generate(5, w)
	require.Len(t, inx, 5)
	for _, i := range inx {
		assert.Contains(t, []int{1, 3}, i, "zero weight instance drawn")
	}

	counts := make([]int, 5)
	for k := 0; k < 2000; k++ {
		for _, i := range b.Generate(5, w) {
			counts[i]++
		}
	}
	assert.Greater(t, counts[3], 2*counts[1])

	// without usable weights every instance can be drawn
	inx = b.Generate(5, []float64{0, 0, 0, 0, 0})
	assert.Len(t, inx, 5)
	inx = b.Generate(5, nil)
	assert.Len(t, inx, 5)
}

func TestIdentityBootstrap(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 3}, IdentityBootstrap{}.Generate(4, nil))
}

func TestInstanceWeights(t *testing.T) {
	assert.Equal(t, []float64{1, 1, 1}, UniformWeights{}.Generate(3))

	ts := stepSet(t, 4)
	w := ResponseDeviation{TrainingSet: ts}.Generate(4)
	// mean 5, std 5
	assert.Equal(t, []float64{2, 2, 2, 2}, w)

	X := [][]float64{{1}, {2}}
	Y := [][]float64{{4}, {4}}
	flat, err := dataset.New(X, Y)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, ResponseDeviation{TrainingSet: flat}.Generate(2))

	_, err = NewInstanceWeightGenerator("entropy", ts)
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
	g, err := InstanceWeights(ts)(config.ResponseDeviationInstanceWeight)
	require.NoError(t, err)
	assert.IsType(t, ResponseDeviation{}, g)
}

func TestRandomFeatures(t *testing.T) {
	s := RandomFeatures{Rand: rand.New(rand.NewSource(2))}

	f := s.Generate(9, nil)
	assert.Len(t, f, 3)
	f = s.Generate(2, nil)
	assert.Len(t, f, 1)

	s.N = 4
	for k := 0; k < 20; k++ {
		f = s.Generate(6, nil)
		require.Len(t, f, 4)
		seen := map[int]bool{}
		for _, i := range f {
			assert.True(t, i >= 0 && i < 6)
			assert.False(t, seen[i], "feature drawn twice")
			seen[i] = true
		}
	}

	s.N = 10
	f = s.Generate(3, nil)
	sort.Ints(f)
	assert.Equal(t, []int{0, 1, 2}, f)
}

func TestWeightedFeatures(t *testing.T) {
	s := WeightedFeatures{N: 2, Rand: rand.New(rand.NewSource(5))}

	for k := 0; k < 20; k++ {
		f := s.Generate(5, []float64{0, 0.5, 0, 0.5, 0})
		sort.Ints(f)
		assert.Equal(t, []int{1, 3}, f)
	}

	counts := make([]int, 3)
	s.N = 1
	for k := 0; k < 2000; k++ {
		counts[s.Generate(3, []float64{0.1, 0.1, 0.8})[0]]++
	}
	assert.Greater(t, counts[2], counts[0]+counts[1])

	// falls back to uniform sampling without weights
	assert.Len(t, s.Generate(3, nil), 1)
}

func TestVarianceReduction(t *testing.T) {
	ts := stepSet(t, 10)
	var ds dataset.Dataset
	ts.Materialize(seq(10), dataset.Range{Start: 0, End: 10}, &ds)

	g := &VarianceReduction{}
	w := g.Generate(&ds)
	require.Len(t, w, 2)
	assert.Equal(t, tree.FeatureWeight{Index: 0, Importance: 1}, w[0])
	assert.Equal(t, tree.FeatureWeight{Index: 1, Importance: 0}, w[1])

	// nothing to gain: equal weights
	X := [][]float64{{1, 2}, {2, 1}, {3, 3}}
	Y := [][]float64{{1}, {1}, {1}}
	flat, err := dataset.New(X, Y)
	require.NoError(t, err)
	flat.Materialize(seq(3), dataset.Range{Start: 0, End: 3}, &ds)
	for _, fw := range g.Generate(&ds) {
		assert.Equal(t, 0.5, fw.Importance)
	}

	assert.Nil(t, g.Generate(&dataset.Dataset{}))
}

func TestTerminateConditions(t *testing.T) {
	ts := stepSet(t, 6)
	var ds dataset.Dataset
	ts.Materialize(seq(6), dataset.Range{Start: 0, End: 6}, &ds)

	assert.False(t, MaxLevel{Max: 0}.IsMet(&ds, 100))
	assert.False(t, MaxLevel{Max: 3}.IsMet(&ds, 2))
	assert.True(t, MaxLevel{Max: 3}.IsMet(&ds, 3))

	assert.False(t, MinNodeSize{Min: 6}.IsMet(&ds, 1))
	assert.True(t, MinNodeSize{Min: 7}.IsMet(&ds, 1))

	assert.False(t, MinVariance{Min: 1e-7}.IsMet(&ds, 1))
	ts.Materialize(seq(6), dataset.Range{Start: 0, End: 3}, &ds)
	assert.True(t, MinVariance{Min: 1e-7}.IsMet(&ds, 1))

	cond := Any{MaxLevel{Max: 5}, MinNodeSize{Min: 4}}
	assert.True(t, cond.IsMet(&ds, 1))
	assert.True(t, cond.IsMet(&ds, 5))
	ts.Materialize(seq(6), dataset.Range{Start: 0, End: 6}, &ds)
	assert.False(t, cond.IsMet(&ds, 1))
	assert.False(t, Any{}.IsMet(&ds, 1))
}

func TestNew(t *testing.T) {
	ts := stepSet(t, 8)
	rnd := rand.New(rand.NewSource(1))

	s, err := New(nil, ts, rnd)
	require.NoError(t, err)
	assert.IsType(t, UniformBootstrap{}, s.Bootstrap)
	assert.IsType(t, RandomFeatures{}, s.Features)
	assert.IsType(t, &VarianceSplitter{}, s.Splitter)
	assert.Nil(t, s.FeatureWeights)

	cfg := config.New(map[string]interface{}{
		config.BootstrapSelector: config.NoBootstrap,
		config.FeatureSelector:   config.WeightedFeatureSelector,
	})
	s, err = New(cfg, ts, rnd)
	require.NoError(t, err)
	assert.IsType(t, IdentityBootstrap{}, s.Bootstrap)
	assert.IsType(t, WeightedFeatures{}, s.Features)
	assert.IsType(t, &VarianceReduction{}, s.FeatureWeights)

	for _, key := range []string{config.BootstrapSelector, config.FeatureSelector, config.NodeSplitter} {
		_, err = New(config.New(map[string]interface{}{key: "bogus"}), ts, rnd)
		assert.True(t, errors.Is(err, ErrUnknownStrategy), key)
	}
	_, err = New(config.New(map[string]interface{}{
		config.FeatureSelector:     config.WeightedFeatureSelector,
		config.FeatureWeightMethod: "bogus",
	}), ts, rnd)
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
}

func TestBuildWithStrategies(t *testing.T) {
	ts := stepSet(t, 40)
	cfg := config.New(map[string]interface{}{
		config.BootstrapSelector: config.NoBootstrap,
		config.NumSplitFeatures:  2,
	})
	s, err := New(cfg, ts, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	tr := tree.New()
	require.NoError(t, s.Build(tr, tree.Env{TrainingSet: ts, Config: cfg}))

	// one split separates the two response levels exactly
	info := tr.FetchTreeInfo(ts)
	assert.Equal(t, 3, info.NumNodes)
	assert.Equal(t, []int{1, 0}, info.FeatureSplitTimes)
	assert.Empty(t, tr.OOBIndexSet())

	for _, x := range [][]float64{{3, 3}, {35, 3}} {
		leaf, err := tr.LocateLeafNode(x)
		require.NoError(t, err)
		v, _, err := tr.Predict(leaf, x, 0)
		require.NoError(t, err)
		if x[0] < 20 {
			assert.Equal(t, 0.0, v)
		} else {
			assert.Equal(t, 10.0, v)
		}
	}
}

func TestWeightedBuild(t *testing.T) {
	ts := stepSet(t, 30)
	cfg := config.New(map[string]interface{}{
		config.BootstrapSelector:       config.WeightedBootstrap,
		config.InstanceWeightMethod:    config.ResponseDeviationInstanceWeight,
		config.FeatureSelector:         config.WeightedFeatureSelector,
		config.LiveUpdateFeatureWeight: true,
		config.NumSplitFeatures:        1,
	})
	s, err := New(cfg, ts, rand.New(rand.NewSource(9)))
	require.NoError(t, err)

	tr := tree.New()
	env := tree.Env{TrainingSet: ts, Config: cfg, InstanceWeights: InstanceWeights(ts)}
	require.NoError(t, s.Build(tr, env))

	info := tr.FetchTreeInfo(ts)
	assert.Equal(t, 0, info.FeatureSplitTimes[1], "the constant feature is never split on")
	for _, id := range tr.Leaves() {
		assert.Zero(t, tr.Node(id).Variance(0))
	}
}
