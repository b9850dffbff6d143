package strategy

import (
	"github.com/xuechao-chen/RegressionForest/dataset"
	"github.com/xuechao-chen/RegressionForest/tree"
)

// MaxLevel stops at nodes on level Max or deeper. The root is on level 1.
// A Max of 0 or less never stops.
type MaxLevel struct{ Max int }

func (c MaxLevel) IsMet(_ *dataset.Dataset, level int) bool {
	return c.Max > 0 && level >= c.Max
}

// MinNodeSize stops at nodes with fewer than Min rows.
type MinNodeSize struct{ Min int }

func (c MinNodeSize) IsMet(ds *dataset.Dataset, _ int) bool {
	return ds.Len() < c.Min
}

// MinVariance stops at nodes whose summed response variance is at most Min.
type MinVariance struct{ Min float64 }

func (c MinVariance) IsMet(ds *dataset.Dataset, _ int) bool {
	n := ds.Len()
	if n == 0 {
		return true
	}
	r := ds.NumResponses()
	s := make([]float64, r)
	ss := make([]float64, r)
	for _, y := range ds.Responses {
		for k, v := range y {
			s[k] += v
			ss[k] += v * v
		}
	}
	return impurity(n, s, ss) <= c.Min
}

// Any is met when one of its conditions is.
type Any []tree.TerminateCondition

func (a Any) IsMet(ds *dataset.Dataset, level int) bool {
	for _, c := range a {
		if c.IsMet(ds, level) {
			return true
		}
	}
	return false
}
