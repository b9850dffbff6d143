package treestore

import (
	"context"
	"encoding/json"
	"math/rand"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/redis.v5"

	"github.com/xuechao-chen/RegressionForest/config"
	"github.com/xuechao-chen/RegressionForest/dataset"
	"github.com/xuechao-chen/RegressionForest/strategy"
	"github.com/xuechao-chen/RegressionForest/tree"
)

func grownTree(t *testing.T) (*tree.Tree, *dataset.TrainingSet) {
	X := make([][]float64, 40)
	Y := make([][]float64, 40)
	for i := range X {
		x0, x1 := float64(i%10), float64(i/10)
		X[i] = []float64{x0, x1}
		Y[i] = []float64{2*x0 + x1, x0 - 3*x1}
	}
	ts, err := dataset.New(X, Y)
	require.NoError(t, err)

	cfg := config.New(map[string]interface{}{
		config.NodeType:         config.MultiResponseNode,
		config.LeafNodeModel:    "linear",
		config.NumSplitFeatures: 2,
		config.MinNodeSize:      8,
	})
	s, err := strategy.New(cfg, ts, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	tr := tree.New()
	require.NoError(t, s.Build(tr, tree.Env{TrainingSet: ts, Config: cfg}))
	require.True(t, tr.Pool.Len() > 1, "expected at least one split")
	return tr, ts
}

func TestRecordRoundTrip(t *testing.T) {
	tr, ts := grownTree(t)

	r, err := FromTree(42, "model", tr)
	require.NoError(t, err)
	assert.Equal(t, int64(42), r.ID)
	assert.Equal(t, config.MultiResponseNode, r.NodeType)
	assert.Len(t, r.Nodes, tr.Pool.Len())

	back, err := r.Tree()
	require.NoError(t, err)
	assert.True(t, tr.Equal(back))
	assert.Equal(t, tr.OOBIndexSet(), back.OOBIndexSet())

	for i := 0; i < ts.NumInstances(); i++ {
		x := ts.FeatureVectorAt(i)
		a, err := tr.LocateLeafNode(x)
		require.NoError(t, err)
		b, err := back.LocateLeafNode(x)
		require.NoError(t, err)
		assert.Equal(t, a.LeafID, b.LeafID)
		for r := 0; r < 2; r++ {
			va, wa, err := tr.Predict(a, x, r)
			require.NoError(t, err)
			vb, wb, err := back.Predict(b, x, r)
			require.NoError(t, err)
			assert.Equal(t, va, vb)
			assert.Equal(t, wa, wb)
		}
	}
}

func TestFromTreeNotBuilt(t *testing.T) {
	_, err := FromTree(1, "", tree.New())
	assert.ErrorIs(t, err, tree.ErrNotBuilt)
}

func leafRecord() NodeRecord {
	return NodeRecord{
		Leaf:      true,
		Left:      -1,
		Right:     -1,
		Variances: []float64{1},
		Models:    []ModelRecord{{Signature: "average", Coefficients: []float64{2}}},
	}
}

func stumpRecord() *Record {
	gap := 0.5
	right := leafRecord()
	right.LeafID = 1
	return &Record{
		NextLeafID: 2,
		Nodes: []NodeRecord{
			{Feature: 0, Gap: &gap, Left: 1, Right: 2},
			leafRecord(),
			right,
		},
	}
}

func TestRecordTree(t *testing.T) {
	tr, err := stumpRecord().Tree()
	require.NoError(t, err)
	leaf, err := tr.LocateLeafNode([]float64{1})
	require.NoError(t, err)
	v, w, err := tr.Predict(leaf, []float64{1}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
	assert.Equal(t, 1.0, w)
	assert.Len(t, tr.Leaves(), 2)
}

func TestRecordTreeErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Record)
	}{
		{"unknown node type", func(r *Record) { r.NodeType = "forked" }},
		{"no nodes", func(r *Record) { r.Nodes = nil }},
		{"internal node without gap", func(r *Record) { r.Nodes[0].Gap = nil }},
		{"unknown model", func(r *Record) { r.Nodes[1].Models[0].Signature = "spline" }},
		{"leaf without variances", func(r *Record) { r.Nodes[1].Variances = nil }},
		{"more models than variances", func(r *Record) {
			r.Nodes[2].Models = append(r.Nodes[2].Models, ModelRecord{"average", []float64{3}})
		}},
		{"leaf without models", func(r *Record) {
			r.Nodes[1].Models, r.Nodes[1].Variances = nil, nil
		}},
		{"leaf id past next leaf id", func(r *Record) { r.Nodes[2].LeafID = 4 }},
		{"negative leaf id", func(r *Record) { r.Nodes[2].LeafID = -1 }},
		{"duplicate leaf id", func(r *Record) { r.Nodes[2].LeafID = 0 }},
		{"next leaf id zero", func(r *Record) { r.NextLeafID = 0 }},
		{"next leaf id too large", func(r *Record) { r.NextLeafID = 3 }},
		{"child past last node", func(r *Record) { r.Nodes[0].Right = 3 }},
		{"child below nil", func(r *Record) { r.Nodes[1].Left = -2 }},
		{"missing child", func(r *Record) { r.Nodes[0].Left = -1 }},
		{"child pointing back", func(r *Record) { r.Nodes[0].Left = 0 }},
		{"same child twice", func(r *Record) { r.Nodes[0].Right = 1 }},
		{"unsorted oob", func(r *Record) { r.OOB = []int{3, 1} }},
		{"negative oob", func(r *Record) { r.OOB = []int{-1} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := stumpRecord()
			tt.mutate(r)
			_, err := r.Tree()
			assert.ErrorIs(t, err, ErrBadRecord)
		})
	}
}

func TestDecodedRecordIsValidated(t *testing.T) {
	data := []byte(`{"id":1,"node_type":"single_response","next_leaf_id":1,"oob":[],` +
		`"nodes":[{"level":1,"leaf":true,"feature":0,"left":-1,"right":-1,"size":3,` +
		`"models":[{"sig":"average","coef":[2]}]}]}`)
	r, err := JSONCodec{}.Decode(data)
	require.NoError(t, err)
	_, err = r.Tree()
	assert.ErrorIs(t, err, ErrBadRecord)
}

func TestJSONLeavesHaveNoGap(t *testing.T) {
	tr, _ := grownTree(t)
	r, err := FromTree(1, "", tr)
	require.NoError(t, err)

	data, err := JSONCodec{}.Encode(r)
	require.NoError(t, err)

	var raw struct {
		Nodes []map[string]interface{} `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw.Nodes, len(r.Nodes))
	for i, n := range raw.Nodes {
		_, hasGap := n["gap"]
		assert.Equal(t, !r.Nodes[i].Leaf, hasGap, "node %d", i)
	}
}

func TestCodecs(t *testing.T) {
	tr, _ := grownTree(t)
	r, err := FromTree(7, "m", tr)
	require.NoError(t, err)

	for _, name := range []string{"json", "bson"} {
		c, err := CodecFor(name)
		require.NoError(t, err)

		data, err := c.Encode(r)
		require.NoError(t, err, name)
		got, err := c.Decode(data)
		require.NoError(t, err, name)
		assert.Equal(t, r.ID, got.ID, name)
		assert.Equal(t, r.ModelID, got.ModelID, name)

		back, err := got.Tree()
		require.NoError(t, err, name)
		assert.True(t, tr.Equal(back), name)
	}

	_, err = CodecFor("xml")
	assert.Error(t, err)
	_, err = JSONCodec{}.Decode([]byte("{"))
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	tr, _ := grownTree(t)
	n, err := Export(ctx, s, "m", []int64{1, 2}, []*tree.Tree{tr, tr})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	r, err := s.Get(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "m", r.ModelID)

	require.NoError(t, s.Delete(ctx, 2))
	r, err = s.Get(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, r)

	n, err = Export(ctx, s, "m", []int64{3, 4}, []*tree.Tree{tr, tree.New()})
	assert.ErrorIs(t, err, tree.ErrNotBuilt)
	assert.Equal(t, 1, n)

	_, err = Export(ctx, s, "m", []int64{1}, nil)
	assert.Error(t, err)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Get(cctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rc := redis.NewClient(&redis.Options{Addr: addr})
	s := NewRedisStore(rc, "regforest-test-"+strconv.Itoa(os.Getpid()), BSONCodec{})
	defer s.Close(ctx)

	tr, _ := grownTree(t)
	_, err := Export(ctx, s, "m", []int64{9}, []*tree.Tree{tr})
	require.NoError(t, err)

	r, err := s.Get(ctx, 9)
	require.NoError(t, err)
	require.NotNil(t, r)
	back, err := r.Tree()
	require.NoError(t, err)
	assert.True(t, tr.Equal(back))

	require.NoError(t, s.Delete(ctx, 9))
	r, err = s.Get(ctx, 9)
	require.NoError(t, err)
	assert.Nil(t, r)
}
