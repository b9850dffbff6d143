// Package regression is the model fitting backend used by tree leaves.
//
// Train is not assumed to be safe for concurrent use; callers building
// several trees at once serialise their calls.
package regression

import (
	"encoding/gob"
	"errors"
	"fmt"
	"math"
)

// Model signatures.
const (
	Average = "average"
	Linear  = "linear"
)

var (
	// ErrUnknownModel is returned for a signature with no model behind it.
	ErrUnknownModel = errors.New("unknown regression model")
	// ErrInsufficientData is returned when there are too few rows, or too
	// little variation in them, to fit the requested model.
	ErrInsufficientData = errors.New("insufficient data to fit model")
)

func init() {
	gob.Register(&AverageModel{})
	gob.Register(&LinearModel{})
}

// Model is a fitted regression model.
type Model interface {
	Signature() string
	Predict(x []float64) float64
	// Coefficients returns the fitted parameters. Two models with the same
	// signature and coefficients predict the same values.
	Coefficients() []float64
}

// Trainer fits a model of the given signature to X and y.
type Trainer interface {
	Train(signature string, X [][]float64, y []float64) (Model, error)
}

// TrainerFunc adapts a function to the Trainer interface.
type TrainerFunc func(signature string, X [][]float64, y []float64) (Model, error)

// Train calls f(signature, X, y).
func (f TrainerFunc) Train(signature string, X [][]float64, y []float64) (Model, error) {
	return f(signature, X, y)
}

// Backend is the default Trainer, dispatching on signature to the models of
// this package.
var Backend Trainer = TrainerFunc(Train)

// Train fits a model of the given signature. An empty signature fits an
// AverageModel.
func Train(signature string, X [][]float64, y []float64) (Model, error) {
	if len(y) == 0 {
		return nil, ErrInsufficientData
	}
	switch signature {
	case "", Average:
		return fitAverage(y), nil
	case Linear:
		return fitLinear(X, y)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownModel, signature)
}

// FromCoefficients rebuilds a model from its signature and coefficients.
func FromCoefficients(signature string, coef []float64) (Model, error) {
	switch signature {
	case "", Average:
		if len(coef) != 1 {
			return nil, fmt.Errorf("average model needs 1 coefficient, got %d", len(coef))
		}
		return &AverageModel{Mean: coef[0]}, nil
	case Linear:
		if len(coef) < 1 {
			return nil, fmt.Errorf("linear model needs an intercept")
		}
		c := make([]float64, len(coef))
		copy(c, coef)
		return &LinearModel{Coef: c}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownModel, signature)
}

// Equal reports whether a and b are the same kind of model with the same
// coefficients.
func Equal(a, b Model) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Signature() != b.Signature() {
		return false
	}
	ca, cb := a.Coefficients(), b.Coefficients()
	if len(ca) != len(cb) {
		return false
	}
	for i := range ca {
		if ca[i] != cb[i] {
			return false
		}
	}
	return true
}

// AverageModel predicts the mean response it was fitted on.
type AverageModel struct {
	Mean float64
}

func fitAverage(y []float64) *AverageModel {
	s := 0.0
	for _, v := range y {
		s += v
	}
	return &AverageModel{Mean: s / float64(len(y))}
}

func (m *AverageModel) Signature() string           { return Average }
func (m *AverageModel) Predict(x []float64) float64 { return m.Mean }
func (m *AverageModel) Coefficients() []float64     { return []float64{m.Mean} }

// LinearModel is an ordinary least squares fit. Coef[0] is the intercept,
// Coef[i+1] the weight of feature i.
type LinearModel struct {
	Coef []float64
}

func (m *LinearModel) Signature() string { return Linear }

func (m *LinearModel) Predict(x []float64) float64 {
	v := m.Coef[0]
	for i, c := range m.Coef[1:] {
		if i < len(x) {
			v += c * x[i]
		}
	}
	return v
}

func (m *LinearModel) Coefficients() []float64 {
	c := make([]float64, len(m.Coef))
	copy(c, m.Coef)
	return c
}

// ridge keeps the normal equations solvable for nearly collinear features
const ridge = 1e-8

func fitLinear(X [][]float64, y []float64) (*LinearModel, error) {
	if len(X) != len(y) || len(X) == 0 {
		return nil, ErrInsufficientData
	}
	p := len(X[0]) + 1
	if len(X) <= p {
		return nil, ErrInsufficientData
	}

	// augmented normal equations [X'X + ridge | X'y]
	a := make([][]float64, p)
	for i := range a {
		a[i] = make([]float64, p+1)
	}
	row := make([]float64, p)
	for k, xk := range X {
		row[0] = 1
		copy(row[1:], xk)
		for i := 0; i < p; i++ {
			for j := i; j < p; j++ {
				a[i][j] += row[i] * row[j]
			}
			a[i][p] += row[i] * y[k]
		}
	}
	for i := 0; i < p; i++ {
		for j := 0; j < i; j++ {
			a[i][j] = a[j][i]
		}
		if i > 0 {
			a[i][i] += ridge
		}
	}

	coef, err := solve(a)
	if err != nil {
		return nil, err
	}
	return &LinearModel{Coef: coef}, nil
}

// solve runs Gaussian elimination with partial pivoting on the augmented
// n x (n+1) matrix a, overwriting it.
func solve(a [][]float64) ([]float64, error) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, ErrInsufficientData
		}
		a[col], a[pivot] = a[pivot], a[col]

		for r := col + 1; r < n; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c <= n; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}

	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		s := a[r][n]
		for c := r + 1; c < n; c++ {
			s -= a[r][c] * x[c]
		}
		x[r] = s / a[r][r]
	}
	return x, nil
}
