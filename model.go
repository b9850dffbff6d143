package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/xuechao-chen/RegressionForest/dataset"
	"github.com/xuechao-chen/RegressionForest/forest"
)

// Model is a fitted forest together with what the CLI needs to report on
// it. It is written as a small gob header followed by the forest.
type Model struct {
	VarNames []string
	FitTime  time.Duration
	Reg      *forest.Regressor
}

type modelHeader struct {
	VarNames []string
	FitTime  time.Duration
}

func (m *Model) Fit(ctx context.Context, ts *dataset.TrainingSet, opts ...forest.Option) error {
	start := time.Now()
	reg := forest.NewRegressor(opts...)
	if err := reg.Fit(ctx, ts); err != nil {
		return err
	}
	m.Reg = reg
	m.FitTime = time.Since(start)
	m.VarNames = ts.VarNames
	return nil
}

// Predict formats the predictions of response r for every row of X.
func (m *Model) Predict(X [][]float64, r int) ([]string, error) {
	pNum, err := m.Reg.Predict(X, r)
	if err != nil {
		return nil, err
	}

	pStr := make([]string, len(pNum))
	for i, v := range pNum {
		pStr[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return pStr, nil
}

func (m *Model) Report(w io.Writer) {
	fmt.Fprintf(w, "Fit %d trees using %d examples in %.2f seconds\n",
		m.Reg.NTrees, m.Reg.NSample, m.FitTime.Seconds())
	fmt.Fprintf(w, "\n")

	m.ReportVarImp(w, 20)

	fmt.Fprintf(w, "Mean Squared Error: %.3f\n", m.Reg.MSE)
	fmt.Fprintf(w, "R-Squared: %.3f%%\n", 100*m.Reg.RSquared)
}

func (m *Model) SaveVarImp(w io.Writer) error {
	writer := csv.NewWriter(w)

	for i, score := range m.Reg.VarImp() {
		err := writer.Write([]string{m.varName(i), strconv.FormatFloat(score, 'f', -1, 64)})
		if err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func (m *Model) ReportVarImp(w io.Writer, maxVars int) {
	fmt.Fprintf(w, "Variable Importance\n")
	fmt.Fprintf(w, "-------------------\n")

	varImp := m.Reg.VarImp()
	varNames := make([]string, len(varImp))
	for i := range varNames {
		varNames[i] = m.varName(i)
	}
	sortByImportance(varImp, varNames)

	// only show top n
	if maxVars > len(varImp) {
		maxVars = len(varImp)
	}

	for i, imp := range varImp[:maxVars] {
		fmt.Fprintf(w, "%-15s: %-10.2f\n", varNames[i], imp)
	}

	fmt.Fprintf(w, "\n")
}

func (m *Model) varName(i int) string {
	if i < len(m.VarNames) {
		return m.VarNames[i]
	}
	return fmt.Sprintf("X%d", i+1)
}

func (m *Model) Load(r io.Reader) error {
	br := bufio.NewReader(r)
	var h modelHeader
	if err := gob.NewDecoder(br).Decode(&h); err != nil {
		return fmt.Errorf("decoding model header: %v", err)
	}
	reg := forest.NewRegressor()
	if err := reg.Load(br); err != nil {
		return err
	}
	m.VarNames, m.FitTime, m.Reg = h.VarNames, h.FitTime, reg
	return nil
}

func (m *Model) Save(w io.Writer) error {
	h := modelHeader{VarNames: m.VarNames, FitTime: m.FitTime}
	if err := gob.NewEncoder(w).Encode(h); err != nil {
		return fmt.Errorf("encoding model header: %v", err)
	}
	return m.Reg.Save(w)
}

type varImpSort struct {
	varName []string
	imp     []float64
}

func (v varImpSort) Len() int {
	return len(v.imp)
}

func (v varImpSort) Less(i, j int) bool {
	return v.imp[i] < v.imp[j]
}

func (v varImpSort) Swap(i, j int) {
	v.imp[i], v.imp[j] = v.imp[j], v.imp[i]
	v.varName[i], v.varName[j] = v.varName[j], v.varName[i]
}

func sortByImportance(imp []float64, names []string) {
	sort.Stable(sort.Reverse(varImpSort{imp: imp, varName: names}))
}
