package tree

import "fmt"

// Info summarises the structure of a built tree.
type Info struct {
	NumNodes             int
	NumLeafNodes         int
	NumUnfittedLeafNodes int
	// FeatureSplitTimes counts the internal nodes splitting on each feature.
	FeatureSplitTimes []int
	// InstanceOOBTimes counts, per training instance, how often it is out of bag.
	InstanceOOBTimes []int
}

// LocateLeafNode walks from the root to the leaf x falls into. At every
// internal node x goes left when its split feature is strictly below the gap.
func (t *Tree) LocateLeafNode(x []float64) (*Node, error) {
	if !t.Built() {
		return nil, ErrNotBuilt
	}
	if len(x) == 0 {
		return nil, ErrEmptyFeatures
	}

	n := t.Pool.Node(rootID)
	// a well formed tree is never deeper than its node count
	for steps := 0; steps < t.Pool.Len(); steps++ {
		if n.Leaf {
			return n, nil
		}
		f := n.SplitFeature
		if f < 0 || f >= len(x) {
			return nil, fmt.Errorf("%w: split on feature %d, vector has %d", ErrFeatureIndex, f, len(x))
		}
		next := n.Right
		if x[f] < n.SplitGap {
			next = n.Left
		}
		child := t.Pool.Node(next)
		if child == nil {
			return nil, fmt.Errorf("%w: internal node at level %d is missing a child", ErrMalformedTree, n.Level)
		}
		n = child
	}
	return nil, fmt.Errorf("%w: no leaf reached after %d nodes", ErrMalformedTree, t.Pool.Len())
}

// Predict returns the prediction of leaf for x and response r, along with
// the leaf's node weight.
func (t *Tree) Predict(leaf *Node, x []float64, r int) (value float64, weight float64, err error) {
	if leaf == nil || !leaf.Leaf {
		return 0, 0, ErrNotLeaf
	}
	if len(x) == 0 {
		return 0, 0, ErrEmptyFeatures
	}
	value, err = leaf.Predict(x, r)
	if err != nil {
		return 0, 0, err
	}
	return value, leaf.NodeWeight(r), nil
}

// FetchTreeInfo walks the tree breadth first and collects node counts,
// split counts per feature and OOB counts per instance.
func (t *Tree) FetchTreeInfo(ts TrainingSet) Info {
	info := Info{
		FeatureSplitTimes: make([]int, ts.NumFeatures()),
		InstanceOOBTimes:  make([]int, ts.NumInstances()),
	}
	if !t.Built() {
		return info
	}

	q := []NodeID{rootID}
	for len(q) > 0 {
		n := t.Pool.Node(q[0])
		q = q[1:]
		if n == nil {
			continue
		}

		info.NumNodes++
		if n.Leaf {
			info.NumLeafNodes++
			if n.Unfitted {
				info.NumUnfittedLeafNodes++
			}
			continue
		}
		if n.SplitFeature >= 0 && n.SplitFeature < len(info.FeatureSplitTimes) {
			info.FeatureSplitTimes[n.SplitFeature]++
		}
		q = append(q, n.Left, n.Right)
	}

	for _, i := range t.OOB {
		if i < len(info.InstanceOOBTimes) {
			info.InstanceOOBTimes[i]++
		}
	}
	return info
}

// FetchOOBInLeafNode returns, for every OOB instance in OOBIndexSet order,
// the id of the leaf its feature vector falls into.
func (t *Tree) FetchOOBInLeafNode(ts TrainingSet) ([]int, error) {
	if !t.Built() {
		return nil, ErrNotBuilt
	}
	leafIDs := make([]int, 0, len(t.OOB))
	for _, i := range t.OOB {
		leaf, err := t.LocateLeafNode(ts.FeatureVectorAt(i))
		if err != nil {
			return nil, fmt.Errorf("locating leaf of oob instance %d: %w", i, err)
		}
		leafIDs = append(leafIDs, leaf.LeafID)
	}
	return leafIDs, nil
}
