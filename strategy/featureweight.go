package strategy

import (
	"sort"

	"github.com/xuechao-chen/RegressionForest/dataset"
	"github.com/xuechao-chen/RegressionForest/tree"
)

// VarianceReduction rates each feature by the best variance reduction any
// single threshold on it achieves over the dataset. Importances are
// normalised to sum to 1; when no feature reduces variance they are equal.
type VarianceReduction struct {
	MinLeaf int

	inx  []int
	xBuf []float64
}

// Generate implements tree.FeatureWeightGenerator.
func (g *VarianceReduction) Generate(ds *dataset.Dataset) []tree.FeatureWeight {
	if ds.Len() == 0 {
		return nil
	}
	n, numFeatures := ds.Len(), len(ds.Features[0])
	minLeaf := g.MinLeaf
	if minLeaf < 1 {
		minLeaf = 1
	}
	if cap(g.inx) < n {
		g.inx = make([]int, n)
		g.xBuf = make([]float64, n)
	}
	inx, xt := g.inx[:n], g.xBuf[:n]

	v := newVarValuer(ds.Responses, ds.NumResponses())
	weights := make([]tree.FeatureWeight, numFeatures)
	total := 0.0
	for f := range weights {
		for i := range inx {
			inx[i] = i
			xt[i] = ds.Features[i][f]
		}
		weights[f].Index = f

		sortByValue(xt, inx)
		if xt[n-1] <= xt[0]+constantTol {
			continue
		}
		v.init(inx)
		if _, d, pos := bestSplit(xt, v, minLeaf); pos > 0 {
			weights[f].Importance = d
			total += d
		}
	}

	for i := range weights {
		if total > 0 {
			weights[i].Importance /= total
		} else {
			weights[i].Importance = 1 / float64(numFeatures)
		}
	}
	sort.SliceStable(weights, func(i, j int) bool {
		return weights[i].Importance > weights[j].Importance
	})
	return weights
}
