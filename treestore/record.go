// Package treestore exports grown trees to external stores as flat records,
// and reads them back.
package treestore

import (
	"errors"
	"fmt"
	"math"

	"github.com/xuechao-chen/RegressionForest/regression"
	"github.com/xuechao-chen/RegressionForest/tree"
)

// ErrBadRecord is returned when a record does not describe a valid tree.
var ErrBadRecord = errors.New("invalid tree record")

// Record is the flat representation of one tree. Nodes are listed in pool
// order, so the root is Nodes[0] and children are referenced by position.
type Record struct {
	ID         int64        `json:"id" bson:"id"`
	ModelID    string       `json:"model_id,omitempty" bson:"model_id,omitempty"`
	NodeType   string       `json:"node_type" bson:"node_type"`
	NextLeafID int          `json:"next_leaf_id" bson:"next_leaf_id"`
	OOB        []int        `json:"oob" bson:"oob"`
	Nodes      []NodeRecord `json:"nodes" bson:"nodes"`
}

// NodeRecord is one node of a Record. Leaves carry no gap: their threshold
// is infinite, which JSON cannot represent.
type NodeRecord struct {
	Level     int           `json:"level" bson:"level"`
	Leaf      bool          `json:"leaf,omitempty" bson:"leaf,omitempty"`
	Feature   int           `json:"feature" bson:"feature"`
	Gap       *float64      `json:"gap,omitempty" bson:"gap,omitempty"`
	Left      int32         `json:"left" bson:"left"`
	Right     int32         `json:"right" bson:"right"`
	Size      int           `json:"size" bson:"size"`
	LeafID    int           `json:"leaf_id,omitempty" bson:"leaf_id,omitempty"`
	Unfitted  bool          `json:"unfitted,omitempty" bson:"unfitted,omitempty"`
	Variances []float64     `json:"variances,omitempty" bson:"variances,omitempty"`
	Models    []ModelRecord `json:"models,omitempty" bson:"models,omitempty"`
}

// ModelRecord is a leaf model as its signature and coefficients.
type ModelRecord struct {
	Signature    string    `json:"sig" bson:"sig"`
	Coefficients []float64 `json:"coef" bson:"coef"`
}

// FromTree flattens the built tree t.
func FromTree(id int64, modelID string, t *tree.Tree) (*Record, error) {
	if !t.Built() {
		return nil, tree.ErrNotBuilt
	}
	r := &Record{
		ID:         id,
		ModelID:    modelID,
		NodeType:   t.Pool.Kind.String(),
		NextLeafID: t.NextLeafID,
		OOB:        t.OOBIndexSet(),
		Nodes:      make([]NodeRecord, len(t.Pool.Nodes)),
	}
	for i := range t.Pool.Nodes {
		n := &t.Pool.Nodes[i]
		nr := NodeRecord{
			Level:     n.Level,
			Leaf:      n.Leaf,
			Feature:   n.SplitFeature,
			Left:      int32(n.Left),
			Right:     int32(n.Right),
			Size:      n.Size,
			LeafID:    n.LeafID,
			Unfitted:  n.Unfitted,
			Variances: n.Variances,
		}
		if !n.Leaf {
			gap := n.SplitGap
			nr.Gap = &gap
		}
		for _, m := range n.Models {
			nr.Models = append(nr.Models, ModelRecord{m.Signature(), m.Coefficients()})
		}
		r.Nodes[i] = nr
	}
	return r, nil
}

// Tree rebuilds the tree described by r.
func (r *Record) Tree() (*tree.Tree, error) {
	kind, err := tree.ParseNodeKind(r.NodeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	if len(r.Nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes", ErrBadRecord)
	}

	if err := r.validate(); err != nil {
		return nil, err
	}

	pool := &tree.NodePool{Kind: kind, Nodes: make([]tree.Node, len(r.Nodes))}
	for i, nr := range r.Nodes {
		n := tree.Node{
			Kind:         kind,
			Level:        nr.Level,
			Leaf:         nr.Leaf,
			SplitFeature: nr.Feature,
			SplitGap:     math.Inf(1),
			Left:         tree.NodeID(nr.Left),
			Right:        tree.NodeID(nr.Right),
			Size:         nr.Size,
			LeafID:       nr.LeafID,
			Unfitted:     nr.Unfitted,
			Variances:    nr.Variances,
		}
		if !nr.Leaf {
			if nr.Gap == nil {
				return nil, fmt.Errorf("%w: internal node %d has no gap", ErrBadRecord, i)
			}
			n.SplitGap = *nr.Gap
		}
		for _, mr := range nr.Models {
			m, err := regression.FromCoefficients(mr.Signature, mr.Coefficients)
			if err != nil {
				return nil, fmt.Errorf("%w: node %d: %v", ErrBadRecord, i, err)
			}
			n.Models = append(n.Models, m)
		}
		pool.Nodes[i] = n
	}

	oob := r.OOB
	if oob == nil {
		oob = []int{}
	}
	return &tree.Tree{Pool: pool, OOB: oob, NextLeafID: r.NextLeafID}, nil
}

// validate checks the shape the tree queries rely on: children are later
// nodes of the record, every leaf has one variance per model, and leaf ids
// cover [0, NextLeafID) exactly once.
func (r *Record) validate() error {
	n := int32(len(r.Nodes))
	if r.NextLeafID < 1 || r.NextLeafID > len(r.Nodes) {
		return fmt.Errorf("%w: next leaf id %d for %d nodes", ErrBadRecord, r.NextLeafID, n)
	}

	seen := make([]bool, r.NextLeafID)
	for i, nr := range r.Nodes {
		if nr.Left < int32(tree.NilNode) || nr.Left >= n || nr.Right < int32(tree.NilNode) || nr.Right >= n {
			return fmt.Errorf("%w: node %d has children %d and %d outside the record", ErrBadRecord, i, nr.Left, nr.Right)
		}
		if !nr.Leaf {
			if nr.Left <= int32(i) || nr.Right <= int32(i) || nr.Left == nr.Right {
				return fmt.Errorf("%w: internal node %d has children %d and %d", ErrBadRecord, i, nr.Left, nr.Right)
			}
			continue
		}

		if len(nr.Models) == 0 {
			return fmt.Errorf("%w: leaf %d has no model", ErrBadRecord, i)
		}
		if len(nr.Variances) != len(nr.Models) {
			return fmt.Errorf("%w: leaf %d has %d variances for %d models", ErrBadRecord, i, len(nr.Variances), len(nr.Models))
		}
		if nr.LeafID < 0 || nr.LeafID >= r.NextLeafID {
			return fmt.Errorf("%w: leaf %d has id %d, next leaf id is %d", ErrBadRecord, i, nr.LeafID, r.NextLeafID)
		}
		if seen[nr.LeafID] {
			return fmt.Errorf("%w: leaf id %d used twice", ErrBadRecord, nr.LeafID)
		}
		seen[nr.LeafID] = true
	}
	for id, ok := range seen {
		if !ok {
			return fmt.Errorf("%w: no leaf with id %d", ErrBadRecord, id)
		}
	}

	for k, i := range r.OOB {
		if i < 0 || (k > 0 && i <= r.OOB[k-1]) {
			return fmt.Errorf("%w: oob indices must be ascending and non negative", ErrBadRecord)
		}
	}
	return nil
}
