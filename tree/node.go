package tree

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/xuechao-chen/RegressionForest/config"
	"github.com/xuechao-chen/RegressionForest/dataset"
	"github.com/xuechao-chen/RegressionForest/regression"
)

// NodeKind selects how a node fits and serves its responses.
type NodeKind int

const (
	// SingleResponse nodes fit one model on a dataset with exactly one response.
	SingleResponse NodeKind = iota
	// MultiResponse nodes fit one model per response.
	MultiResponse
)

// ParseNodeKind maps a node type signature to a NodeKind. An empty
// signature selects SingleResponse.
func ParseNodeKind(sig string) (NodeKind, error) {
	switch sig {
	case "", config.SingleResponseNode:
		return SingleResponse, nil
	case config.MultiResponseNode:
		return MultiResponse, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownNodeType, sig)
}

func (k NodeKind) String() string {
	switch k {
	case SingleResponse:
		return config.SingleResponseNode
	case MultiResponse:
		return config.MultiResponseNode
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// minNodeVariance bounds node weights for leaves with constant responses.
const minNodeVariance = 1e-6

// Node is a tree node. Internal nodes hold a split and two children, leaves
// hold one fitted model and one variance per response slot.
type Node struct {
	Kind  NodeKind
	Level int
	Leaf  bool

	SplitFeature int
	SplitGap     float64
	Left         NodeID
	Right        NodeID

	// Size is the number of bootstrap rows the node was built from.
	Size      int
	LeafID    int
	Unfitted  bool
	Variances []float64
	Models    []regression.Model
}

// IsLeaf reports whether n is a leaf.
func (n *Node) IsLeaf() bool { return n.Leaf }

// BestSplitFeatureIndex returns the feature an internal node splits on.
func (n *Node) BestSplitFeatureIndex() int { return n.SplitFeature }

// BestGap returns the threshold of the split: rows with a feature value
// strictly below it go left.
func (n *Node) BestGap() float64 { return n.SplitGap }

// HasChildren reports whether either child is attached.
func (n *Node) HasChildren() bool { return n.Left != NilNode || n.Right != NilNode }

func (n *Node) setBestSplit(feature int, gap float64) {
	n.SplitFeature = feature
	n.SplitGap = gap
}

// Predict returns the prediction of a leaf for the response index r.
func (n *Node) Predict(x []float64, r int) (float64, error) {
	if !n.Leaf {
		return 0, ErrNotLeaf
	}
	if len(x) == 0 {
		return 0, ErrEmptyFeatures
	}
	slot, err := n.variant().slot(n, r)
	if err != nil {
		return 0, err
	}
	return n.Models[slot].Predict(x), nil
}

// Variance returns the response variance a leaf was fitted on. It is 0 for
// internal nodes.
func (n *Node) Variance(r int) float64 {
	slot, err := n.variant().slot(n, r)
	if err != nil {
		return 0
	}
	return n.Variances[slot]
}

// NodeWeight returns the inverse variance of a leaf, used to combine the
// predictions of several trees.
func (n *Node) NodeWeight(r int) float64 {
	return 1.0 / math.Max(n.Variance(r), minNodeVariance)
}

// leafFitter carries what a node needs to fit its models. The lock guards
// the backend, which may be shared with trees built concurrently.
type leafFitter struct {
	backend   regression.Trainer
	signature string
	lock      sync.Locker
}

// becomeLeaf turns n into a leaf fitted on ds.
func (n *Node) becomeLeaf(ds *dataset.Dataset, f *leafFitter) error {
	if n.HasChildren() {
		return ErrHasChildren
	}
	if ds.Len() == 0 {
		return ErrEmptyFeatures
	}
	slots, err := n.variant().slots(ds)
	if err != nil {
		return err
	}

	variances := make([]float64, slots)
	models := make([]regression.Model, slots)
	unfitted := false

	f.lock.Lock()
	defer f.lock.Unlock()
	for j := 0; j < slots; j++ {
		y := ds.Column(j)
		variances[j] = variance(y)

		m, err := f.backend.Train(f.signature, ds.Features, y)
		if errors.Is(err, regression.ErrInsufficientData) && f.signature != regression.Average {
			unfitted = true
			m, err = f.backend.Train(regression.Average, ds.Features, y)
		}
		if err != nil {
			return fmt.Errorf("fitting leaf model %q: %w", f.signature, err)
		}
		models[j] = m
	}

	// n is only touched once every slot is fitted
	n.Variances, n.Models, n.Unfitted = variances, models, unfitted
	n.Leaf = true
	n.setBestSplit(0, math.Inf(1))
	return nil
}

// equalShallow compares n and o without looking at their children.
func (n *Node) equalShallow(o *Node) bool {
	if n.Leaf != o.Leaf {
		return false
	}
	if !n.Leaf {
		return n.SplitFeature == o.SplitFeature && n.SplitGap == o.SplitGap
	}
	if len(n.Models) != len(o.Models) {
		return false
	}
	for i := range n.Models {
		if !regression.Equal(n.Models[i], o.Models[i]) {
			return false
		}
	}
	return true
}

// responder is the behaviour that differs between node kinds.
type responder interface {
	// slots validates ds and returns how many models the leaf fits on it.
	slots(ds *dataset.Dataset) (int, error)
	// slot maps a response index to a fitted model.
	slot(n *Node, r int) (int, error)
}

type singleResponse struct{}

func (singleResponse) slots(ds *dataset.Dataset) (int, error) {
	if ds.NumResponses() != 1 {
		return 0, fmt.Errorf("%w: single response node got %d responses", ErrResponseMismatch, ds.NumResponses())
	}
	return 1, nil
}

func (singleResponse) slot(n *Node, r int) (int, error) {
	if len(n.Models) == 0 {
		return 0, ErrNotLeaf
	}
	return 0, nil
}

type multiResponse struct{}

func (multiResponse) slots(ds *dataset.Dataset) (int, error) {
	if ds.NumResponses() < 1 {
		return 0, fmt.Errorf("%w: multi response node got no responses", ErrResponseMismatch)
	}
	return ds.NumResponses(), nil
}

func (multiResponse) slot(n *Node, r int) (int, error) {
	if len(n.Models) == 0 {
		return 0, ErrNotLeaf
	}
	if r < 0 || r >= len(n.Models) {
		return 0, fmt.Errorf("%w: %d of %d", ErrResponseIndex, r, len(n.Models))
	}
	return r, nil
}

func (n *Node) variant() responder {
	if n.Kind == MultiResponse {
		return multiResponse{}
	}
	return singleResponse{}
}

// variance is the population variance of y.
func variance(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))
	ss := 0.0
	for _, v := range y {
		d := v - mean
		ss += d * d
	}
	return ss / float64(len(y))
}
