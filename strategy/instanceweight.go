package strategy

import (
	"math"

	"github.com/xuechao-chen/RegressionForest/dataset"
)

// UniformWeights gives every instance weight 1.
type UniformWeights struct{}

// Generate implements tree.InstanceWeightGenerator.
func (UniformWeights) Generate(numInstances int) []float64 {
	w := make([]float64, numInstances)
	for i := range w {
		w[i] = 1
	}
	return w
}

// ResponseDeviation weights an instance by 1 + |y - mean| / std of its first
// response, so that instances far from the mean are drawn more often.
type ResponseDeviation struct {
	TrainingSet *dataset.TrainingSet
}

// Generate implements tree.InstanceWeightGenerator.
func (g ResponseDeviation) Generate(numInstances int) []float64 {
	ts := g.TrainingSet
	if ts == nil || ts.NumInstances() != numInstances {
		return UniformWeights{}.Generate(numInstances)
	}

	mean := 0.0
	for _, y := range ts.Y {
		mean += y[0]
	}
	mean /= float64(numInstances)
	ss := 0.0
	for _, y := range ts.Y {
		ss += (y[0] - mean) * (y[0] - mean)
	}
	std := math.Sqrt(ss / float64(numInstances))

	w := make([]float64, numInstances)
	for i, y := range ts.Y {
		w[i] = 1
		if std > 0 {
			w[i] += math.Abs(y[0]-mean) / std
		}
	}
	return w
}
