package forest

import (
	"fmt"
	"math"

	"github.com/xuechao-chen/RegressionForest/dataset"
	"github.com/xuechao-chen/RegressionForest/tree"
)

// oobPredictions returns the prediction of t for the first response of
// each of its OOB instances, in OOBIndexSet order.
func oobPredictions(ts *dataset.TrainingSet, t *tree.Tree) ([]float64, error) {
	leafIDs, err := t.FetchOOBInLeafNode(ts)
	if err != nil {
		return nil, err
	}
	leaves := t.Leaves()

	pred := make([]float64, len(leafIDs))
	for k, i := range t.OOBIndexSet() {
		leaf := t.Node(leaves[leafIDs[k]])
		v, err := leaf.Predict(ts.FeatureVectorAt(i), 0)
		if err != nil {
			return nil, fmt.Errorf("oob instance %d: %w", i, err)
		}
		pred[k] = v
	}
	return pred, nil
}

// oobRegCtr accumulates, per training instance, the predictions of the
// trees it was out of bag for.
type oobRegCtr struct {
	sum []float64
	ct  []int
}

func newOOBRegCtr(nExample int) *oobRegCtr {
	sum := make([]float64, nExample)
	ct := make([]int, nExample)
	return &oobRegCtr{sum, ct}
}

func (o *oobRegCtr) update(inx []int, pred []float64) {
	for i, sampleInx := range inx {
		o.sum[sampleInx] += pred[i]
		o.ct[sampleInx]++
	}
}

// compute returns mean squared error and rsquared of the first response.
// Both are NaN while no instance has been out of bag.
func (o *oobRegCtr) compute(Y [][]float64) (float64, float64) {
	rss := 0.0 // residual sum square

	// tss of Y
	n := 0
	mean := 0.0
	tss := 0.0

	for i := range Y {
		// skip examples that were in all trees
		if o.ct[i] < 1 {
			continue
		}
		y := Y[i][0]
		predVal := o.sum[i] / float64(o.ct[i])
		d := y - predVal
		rss += d * d

		// update var
		n++
		d = y - mean
		mean += d / float64(n)
		tss += d * (y - mean)
	}

	if n < 1 {
		return math.NaN(), math.NaN()
	}

	rSquared := 1.0 - rss/tss
	mse := rss / float64(n)

	return mse, rSquared
}
