package tree

import "sort"

// obtainOOBIndex returns the indices in [0, numInstances) missing from the
// bootstrap array. inx is sorted in place, then merged against the
// universe of training indices.
func obtainOOBIndex(inx []int, numInstances int) []int {
	sort.Ints(inx)

	oob := []int{}
	i, b := 0, 0
	for i < numInstances && b < len(inx) {
		switch {
		case i < inx[b]:
			oob = append(oob, i)
			i++
		case i == inx[b]:
			i++
			b++
		default:
			// duplicate of an index already consumed
			b++
		}
	}
	for ; i < numInstances; i++ {
		oob = append(oob, i)
	}
	return oob
}
