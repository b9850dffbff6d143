// Package dataset provides the read-only training set accessor used while
// growing regression trees, and the transient datasets materialised from
// ranges of a bootstrap index array.
package dataset

import "fmt"

// Range is a half-open interval [Start, End) over a bootstrap index array.
type Range struct {
	Start int
	End   int
}

// Len returns the number of positions covered by r.
func (r Range) Len() int { return r.End - r.Start }

func (r Range) String() string { return fmt.Sprintf("[%d, %d)", r.Start, r.End) }

// Dataset is a (features, responses) pair rebuilt for every visited node.
// Rows share storage with the TrainingSet they were taken from and must not
// be modified.
type Dataset struct {
	Features  [][]float64
	Responses [][]float64
}

// Len returns the number of rows in the dataset.
func (d *Dataset) Len() int { return len(d.Features) }

// NumResponses returns the number of responses per row, 0 for an empty dataset.
func (d *Dataset) NumResponses() int {
	if len(d.Responses) == 0 {
		return 0
	}
	return len(d.Responses[0])
}

// Column returns a copy of the j-th response of every row.
func (d *Dataset) Column(j int) []float64 {
	col := make([]float64, len(d.Responses))
	for i, r := range d.Responses {
		col[i] = r[j]
	}
	return col
}

// TrainingSet is an in-memory training set. It is shared by every tree of a
// forest and must not be mutated once construction starts.
type TrainingSet struct {
	X        [][]float64
	Y        [][]float64
	VarNames []string
}

// New returns a TrainingSet over the feature rows X and response rows Y.
func New(X, Y [][]float64) (*TrainingSet, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("training set has no instances")
	}
	if len(X) != len(Y) {
		return nil, fmt.Errorf("training set has %d feature rows and %d response rows", len(X), len(Y))
	}
	nFeatures, nResponses := len(X[0]), len(Y[0])
	if nFeatures == 0 || nResponses == 0 {
		return nil, fmt.Errorf("training set needs at least one feature and one response")
	}
	for i := range X {
		if len(X[i]) != nFeatures || len(Y[i]) != nResponses {
			return nil, fmt.Errorf("row %d: expected %d features and %d responses", i, nFeatures, nResponses)
		}
	}
	return &TrainingSet{X: X, Y: Y}, nil
}

// NumInstances returns the number of rows.
func (ts *TrainingSet) NumInstances() int { return len(ts.X) }

// NumFeatures returns the number of features per row.
func (ts *TrainingSet) NumFeatures() int { return len(ts.X[0]) }

// NumResponses returns the number of responses per row.
func (ts *TrainingSet) NumResponses() int { return len(ts.Y[0]) }

// FeatureVectorAt returns the feature row of instance i.
func (ts *TrainingSet) FeatureVectorAt(i int) []float64 { return ts.X[i] }

// ResponseAt returns the response row of instance i.
func (ts *TrainingSet) ResponseAt(i int) []float64 { return ts.Y[i] }

// Materialize fills ds with the rows referenced by inx[r.Start:r.End],
// reusing the buffers ds already holds.
func (ts *TrainingSet) Materialize(inx []int, r Range, ds *Dataset) {
	ds.Features = ds.Features[:0]
	ds.Responses = ds.Responses[:0]
	for _, id := range inx[r.Start:r.End] {
		ds.Features = append(ds.Features, ts.X[id])
		ds.Responses = append(ds.Responses, ts.Y[id])
	}
}
