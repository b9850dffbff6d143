package strategy

// varValuer scores candidate thresholds by the reduction of the summed
// response variance. Rows inx[:pos] are on the left of a threshold at pos,
// the rest on the right; moving the threshold forward only moves rows from
// right to left, so the running sums are updated incrementally.
type varValuer struct {
	Y [][]float64

	inx      []int
	iInitial float64
	posLast  int
	nLeft    int
	nRight   int

	numResponses int
	s, ss        []float64 // totals per response
	sL, ssL      []float64
	sR, ssR      []float64
}

func newVarValuer(Y [][]float64, numResponses int) *varValuer {
	buf := make([]float64, 6*numResponses)
	return &varValuer{
		Y:            Y,
		numResponses: numResponses,
		s:            buf[0*numResponses : 1*numResponses],
		ss:           buf[1*numResponses : 2*numResponses],
		sL:           buf[2*numResponses : 3*numResponses],
		ssL:          buf[3*numResponses : 4*numResponses],
		sR:           buf[4*numResponses : 5*numResponses],
		ssR:          buf[5*numResponses : 6*numResponses],
	}
}

// init computes the totals of the rows in inx. The sums do not depend on the
// order of inx, so inx may be sorted afterwards.
func (v *varValuer) init(inx []int) {
	v.inx = inx
	for k := range v.s {
		v.s[k], v.ss[k] = 0, 0
	}
	for _, i := range inx {
		for k, y := range v.Y[i][:v.numResponses] {
			v.s[k] += y
			v.ss[k] += y * y
		}
	}
	v.iInitial = impurity(len(inx), v.s, v.ss)
	v.reset()
}

func (v *varValuer) reset() {
	v.nLeft = 0
	v.nRight = len(v.inx)
	copy(v.sR, v.s)
	copy(v.ssR, v.ss)
	for k := range v.sL {
		v.sL[k], v.ssL[k] = 0, 0
	}
	v.posLast = 0
}

func (v *varValuer) update(pos int) {
	for j := v.posLast; j < pos; j++ {
		for k, y := range v.Y[v.inx[j]][:v.numResponses] {
			v.sL[k] += y
			v.ssL[k] += y * y
			v.sR[k] -= y
			v.ssR[k] -= y * y
		}
		v.nLeft++
		v.nRight--
	}
	v.posLast = pos
}

func (v *varValuer) initialVal() float64 { return v.iInitial }

func (v *varValuer) delta() float64 {
	n := float64(len(v.inx))
	iL := impurity(v.nLeft, v.sL, v.ssL)
	iR := impurity(v.nRight, v.sR, v.ssR)
	return v.iInitial - float64(v.nLeft)/n*iL - float64(v.nRight)/n*iR
}

// impurity is the sum over responses of the population variance of n rows
// with sums s and sums of squares ss.
func impurity(n int, s, ss []float64) float64 {
	if n == 0 {
		return 0
	}
	fn := float64(n)
	total := 0.0
	for k := range s {
		mean := s[k] / fn
		if d := ss[k]/fn - mean*mean; d > 0 {
			total += d
		}
	}
	return total
}
