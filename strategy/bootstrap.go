package strategy

import (
	"math/rand"
	"sort"
)

// UniformBootstrap draws numInstances indices uniformly with replacement.
type UniformBootstrap struct {
	Rand *rand.Rand
}

// Generate implements tree.BootstrapSelector. Instance weights are ignored.
func (b UniformBootstrap) Generate(numInstances int, _ []float64) []int {
	inx := make([]int, numInstances)
	for i := range inx {
		inx[i] = b.Rand.Intn(numInstances)
	}
	return inx
}

// WeightedBootstrap draws numInstances indices with replacement, each with a
// probability proportional to its instance weight. Instances with zero
// weight are never drawn. Without usable weights it samples uniformly.
type WeightedBootstrap struct {
	Rand *rand.Rand
}

// Generate implements tree.BootstrapSelector.
func (b WeightedBootstrap) Generate(numInstances int, instanceWeights []float64) []int {
	if len(instanceWeights) != numInstances {
		return UniformBootstrap{b.Rand}.Generate(numInstances, nil)
	}

	cdf := make([]float64, numInstances)
	total := 0.0
	for i, w := range instanceWeights {
		if w > 0 {
			total += w
		}
		cdf[i] = total
	}
	if total <= 0 {
		return UniformBootstrap{b.Rand}.Generate(numInstances, nil)
	}

	inx := make([]int, numInstances)
	for i := range inx {
		// u in (0, total], so zero-weight instances are skipped
		u := total - b.Rand.Float64()*total
		j := sort.SearchFloat64s(cdf, u)
		if j >= numInstances {
			j = numInstances - 1
		}
		inx[i] = j
	}
	return inx
}

// IdentityBootstrap uses every instance exactly once; the OOB set of a tree
// built with it is empty.
type IdentityBootstrap struct{}

// Generate implements tree.BootstrapSelector.
func (IdentityBootstrap) Generate(numInstances int, _ []float64) []int {
	inx := make([]int, numInstances)
	for i := range inx {
		inx[i] = i
	}
	return inx
}
