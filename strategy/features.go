package strategy

import (
	"math"
	"math/rand"
	"sort"
)

// numCandidates is the number of features tried per split: n when
// positive, max(1, numFeatures/3) otherwise, never more than numFeatures.
func numCandidates(n, numFeatures int) int {
	if n <= 0 {
		n = numFeatures / 3
		if n < 1 {
			n = 1
		}
	}
	if n > numFeatures {
		n = numFeatures
	}
	return n
}

// RandomFeatures samples N distinct features uniformly.
type RandomFeatures struct {
	N    int
	Rand *rand.Rand
}

// Generate implements tree.FeatureSelector. Feature weights are ignored.
func (s RandomFeatures) Generate(numFeatures int, _ []float64) []int {
	features := make([]int, numFeatures)
	for i := range features {
		features[i] = i
	}

	// sample from features using Fisher-Yates,
	// Algorithm P, Knuth, The Art of Computer Programming Vol. 2, p. 145
	k := numCandidates(s.N, numFeatures)
	j := numFeatures - 1
	for drawn := 0; drawn < k && j > 0; drawn++ {
		r := s.Rand.Intn(j + 1)
		features[r], features[j] = features[j], features[r]
		j--
	}
	return features[numFeatures-k:]
}

// WeightedFeatures samples N distinct features without replacement, each
// draw favouring features with a larger weight. Every feature gets the key
// u^(1/w) with u uniform in (0, 1], and the N largest keys win (Efraimidis
// and Spirakis). Features with no weight only fill up the remaining slots.
type WeightedFeatures struct {
	N    int
	Rand *rand.Rand
}

// Generate implements tree.FeatureSelector.
func (s WeightedFeatures) Generate(numFeatures int, featureWeights []float64) []int {
	if len(featureWeights) != numFeatures {
		return RandomFeatures{s.N, s.Rand}.Generate(numFeatures, nil)
	}

	type keyed struct {
		feature int
		key     float64
	}
	keys := make([]keyed, numFeatures)
	for i, w := range featureWeights {
		u := 1 - s.Rand.Float64()
		key := -1 - u
		if w > 0 {
			key = math.Pow(u, 1/w)
		}
		keys[i] = keyed{i, key}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].key > keys[j].key })

	k := numCandidates(s.N, numFeatures)
	features := make([]int, k)
	for i := range features {
		features[i] = keys[i].feature
	}
	return features
}
