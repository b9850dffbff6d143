package strategy

// Sorting feature values dominates split search. keyedSort sorts a value
// buffer and carries the matching bootstrap indices along, which is far
// faster than going through sort.Interface.
type keyedSort struct {
	x   []float64
	inx []int
}

// sortByValue sorts x ascending and permutes inx the same way.
func sortByValue(x []float64, inx []int) {
	depth := 0
	for i := len(x); i > 0; i >>= 1 {
		depth++
	}
	s := keyedSort{x, inx}
	s.quick(0, len(x), 2*depth)
}

func (s keyedSort) swap(i, j int) {
	s.x[i], s.x[j] = s.x[j], s.x[i]
	s.inx[i], s.inx[j] = s.inx[j], s.inx[i]
}

func (s keyedSort) insertion(lo, hi int) {
	for i := lo + 1; i < hi; i++ {
		for j := i; j > lo && s.x[j] < s.x[j-1]; j-- {
			s.swap(j, j-1)
		}
	}
}

// sift restores the max-heap rooted at root in s[off:off+n].
func (s keyedSort) sift(root, n, off int) {
	for {
		child := 2*root + 1
		if child >= n {
			return
		}
		if child+1 < n && s.x[off+child] < s.x[off+child+1] {
			child++
		}
		if s.x[off+root] >= s.x[off+child] {
			return
		}
		s.swap(off+root, off+child)
		root = child
	}
}

func (s keyedSort) heap(lo, hi int) {
	n := hi - lo
	for i := (n - 1) / 2; i >= 0; i-- {
		s.sift(i, n, lo)
	}
	for i := n - 1; i > 0; i-- {
		s.swap(lo, lo+i)
		s.sift(0, i, lo)
	}
}

// median3 leaves the median of positions a, b and c at a.
func (s keyedSort) median3(a, b, c int) {
	if s.x[a] < s.x[b] {
		s.swap(a, b)
	}
	if s.x[c] < s.x[a] {
		s.swap(c, a)
		if s.x[a] < s.x[b] {
			s.swap(a, b)
		}
	}
}

// partition splits [lo, hi) around the pivot placed at lo and returns the
// bounds of the run equal to it. Runs of equal values are common for
// discrete features, so they are kept out of both recursive halves.
func (s keyedSort) partition(lo, hi int) (int, int) {
	s.median3(lo, lo+(hi-lo)/2, hi-1)
	p := s.x[lo]

	lt, i, gt := lo, lo+1, hi
	for i < gt {
		switch {
		case s.x[i] < p:
			s.swap(lt, i)
			lt++
			i++
		case s.x[i] > p:
			gt--
			s.swap(i, gt)
		default:
			i++
		}
	}
	return lt, gt
}

func (s keyedSort) quick(lo, hi, depth int) {
	for hi-lo > 12 {
		if depth == 0 {
			s.heap(lo, hi)
			return
		}
		depth--
		mlo, mhi := s.partition(lo, hi)
		// recurse into the smaller side only
		if mlo-lo < hi-mhi {
			s.quick(lo, mlo, depth)
			lo = mhi
		} else {
			s.quick(mhi, hi, depth)
			hi = mlo
		}
	}
	s.insertion(lo, hi)
}
