package strategy

import (
	"github.com/xuechao-chen/RegressionForest/dataset"
	"github.com/xuechao-chen/RegressionForest/tree"
)

// constantTol is the smallest difference between two feature values that
// still allows a threshold between them.
const constantTol = 1e-7

// VarianceSplitter picks, among the candidate features, the threshold with
// the largest reduction of the summed response variance, then partitions
// the node's range so that rows below the threshold come first.
//
// A VarianceSplitter keeps scratch buffers and must not be shared between
// trees built concurrently.
type VarianceSplitter struct {
	ts      *dataset.TrainingSet
	minLeaf int
	v       *varValuer
	xBuf    []float64
}

// NewVarianceSplitter returns a splitter over ts that never leaves fewer
// than minLeaf rows on either side.
func NewVarianceSplitter(ts *dataset.TrainingSet, minLeaf int) *VarianceSplitter {
	if minLeaf < 1 {
		minLeaf = 1
	}
	return &VarianceSplitter{
		ts:      ts,
		minLeaf: minLeaf,
		v:       newVarValuer(ts.Y, ts.NumResponses()),
	}
}

// Split implements tree.NodeSplitter.
func (s *VarianceSplitter) Split(n *tree.Node, r dataset.Range, candidates []int, inx []int) (tree.Split, bool) {
	sub := inx[r.Start:r.End]
	if len(sub) < 2*s.minLeaf {
		return tree.Split{}, false
	}
	if cap(s.xBuf) < len(sub) {
		s.xBuf = make([]float64, len(sub))
	}
	xt := s.xBuf[:len(sub)]
	X := s.ts.X

	s.v.init(sub)

	var (
		dBest float64 // best impurity improvement
		vBest float64 // best threshold
		xBest int     // best split var
		found bool
	)
	for _, f := range candidates {
		for i, id := range sub {
			xt[i] = X[id][f]
		}
		// sort indices by the value of the feature
		sortByValue(xt, sub)
		if xt[len(xt)-1] <= xt[0]+constantTol {
			continue
		}

		s.v.reset()
		v, d, pos := bestSplit(xt, s.v, s.minLeaf)
		if pos > 0 && d > dBest {
			dBest, vBest, xBest = d, v, f
			found = true
		}
	}
	if !found {
		return tree.Split{}, false
	}

	// partition sub into left/right
	i, j := 0, len(sub)
	for i < j {
		if X[sub[i]][xBest] < vBest {
			i++
		} else {
			j--
			sub[j], sub[i] = sub[i], sub[j]
		}
	}
	if i == 0 || i == len(sub) {
		return tree.Split{}, false
	}
	return tree.Split{Feature: xBest, Gap: vBest, Pos: r.Start + i}, true
}

// bestSplit scans the sorted values xi, whose rows v was initialised with,
// and returns the best threshold, its gain and the number of rows left of
// it. pos is -1 when no threshold leaves minLeaf rows on each side.
func bestSplit(xi []float64, v *varValuer, minLeaf int) (float64, float64, int) {
	var (
		dBest, vBest float64
		pos          = -1
	)
	for i := 1; i < len(xi); i++ {
		if xi[i] <= xi[i-1]+constantTol {
			continue // can't split when x_i == x_i+1
		}
		v.update(i)
		if v.nLeft < minLeaf || v.nRight < minLeaf {
			continue
		}
		if d := v.delta(); d > dBest {
			dBest = d
			vBest = (xi[i-1] + xi[i]) / 2.0
			pos = i
		}
	}
	return vBest, dBest, pos
}
