// Package tree builds single regression trees for a random forest.
//
// A tree is grown from a bootstrap sample of a training set. Construction
// keeps one index array for the whole tree and partitions it in place, so
// each node owns a contiguous range of it instead of a copy of its rows.
// Nodes are expanded from an explicit stack, never by recursion. Leaves
// hold fitted regression models; the training indices that the bootstrap
// sample never drew are kept as the out-of-bag (OOB) set.
//
// Which rows are sampled, which features are tried, how a node is split and
// when splitting stops are decided by the strategies passed to Build.
package tree

import (
	"sync"

	"github.com/xuechao-chen/RegressionForest/config"
	"github.com/xuechao-chen/RegressionForest/dataset"
	"github.com/xuechao-chen/RegressionForest/regression"
)

// rootID is the handle of the root in every built tree.
const rootID NodeID = 0

// TrainingSet is the read-only accessor to the rows a tree is built from.
type TrainingSet interface {
	NumInstances() int
	NumFeatures() int
	NumResponses() int
	FeatureVectorAt(i int) []float64
	Materialize(inx []int, r dataset.Range, ds *dataset.Dataset)
}

// Env is the shared context of a build. Everything in it may be shared by
// trees built concurrently and is only read, except Lock.
type Env struct {
	TrainingSet TrainingSet
	Config      *config.Config
	// Lock serialises leaf fitting and instance weight generation across
	// every tree sharing it. A nil Lock gives the tree a private one.
	Lock sync.Locker
	// Backend fits leaf models, regression.Backend if nil.
	Backend regression.Trainer
	// InstanceWeights creates the instance weight generator named by a
	// signature. Required when weighted bootstrapping is configured.
	InstanceWeights func(signature string) (InstanceWeightGenerator, error)
}

// Tree is a regression tree. The zero value is an empty tree ready for Build.
type Tree struct {
	Pool       *NodePool
	OOB        []int
	NextLeafID int
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{}
}

// Built reports whether the tree has been built.
func (t *Tree) Built() bool { return t.Pool != nil && t.Pool.Len() > 0 }

// Root returns the root node, nil before Build.
func (t *Tree) Root() *Node {
	if !t.Built() {
		return nil
	}
	return t.Pool.Node(rootID)
}

// Node returns the node with handle id.
func (t *Tree) Node(id NodeID) *Node {
	if t.Pool == nil {
		return nil
	}
	return t.Pool.Node(id)
}

// OOBIndexSet returns the ascending training indices not drawn by the
// bootstrap sample.
func (t *Tree) OOBIndexSet() []int { return t.OOB }

// Leaves returns the handle of every leaf, indexed by leaf id.
func (t *Tree) Leaves() []NodeID {
	if !t.Built() {
		return nil
	}
	leaves := make([]NodeID, t.NextLeafID)
	for i := range t.Pool.Nodes {
		n := &t.Pool.Nodes[i]
		if n.Leaf {
			leaves[n.LeafID] = NodeID(i)
		}
	}
	return leaves
}

// Equal reports whether t and o have the same structure: the same splits
// at internal nodes and equivalent models at leaves.
func (t *Tree) Equal(o *Tree) bool {
	if t.Built() != o.Built() {
		return false
	}
	if !t.Built() {
		return true
	}

	type pair struct{ a, b NodeID }
	s := []pair{{rootID, rootID}}
	for len(s) > 0 {
		p := s[len(s)-1]
		s = s[:len(s)-1]

		a, b := t.Pool.Node(p.a), o.Pool.Node(p.b)
		if a == nil || b == nil {
			if a != b {
				return false
			}
			continue
		}
		if !a.equalShallow(b) {
			return false
		}
		if !a.Leaf {
			s = append(s, pair{a.Left, b.Left}, pair{a.Right, b.Right})
		}
	}
	return true
}
