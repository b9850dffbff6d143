package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ReadCSV parses a numeric csv file into a TrainingSet. The first
// numResponses columns of every row hold the responses, the remaining
// columns the features. If the first row has a non numeric feature column it
// is taken as a header with the variable names, otherwise the names default
// to X1, X2,...Xn.
func ReadCSV(r io.Reader, numResponses int) (*TrainingSet, error) {
	if numResponses < 1 {
		return nil, fmt.Errorf("csv needs at least one response column, got %d", numResponses)
	}
	p := &csvParser{numResponses: numResponses}
	reader := csv.NewReader(r)

	// grab first row
	row, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %v", err)
	}

	// check if it's a header row
	varNames, err := p.parseHeader(row)
	if err == nil {
		p.varNames = varNames
	} else {
		for i := range row[min(numResponses, len(row)):] {
			p.varNames = append(p.varNames, fmt.Sprintf("X%d", i+1))
		}

		err = p.parseRow(row)
		if err != nil {
			return nil, err
		}
	}

	// keep reading rows until EOF
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row %d: %v", len(p.X)+1, err)
		}

		err = p.parseRow(row)
		if err != nil {
			return nil, err
		}
	}

	ts, err := New(p.X, p.Y)
	if err != nil {
		return nil, err
	}
	ts.VarNames = p.varNames
	return ts, nil
}

// ReadFeatureCSV parses a csv file holding only feature columns, as used
// for prediction input. A non numeric first row is skipped as a header.
func ReadFeatureCSV(r io.Reader) ([][]float64, error) {
	reader := csv.NewReader(r)
	var X [][]float64
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		xi, err := parseFloats(row)
		if err != nil {
			if len(X) == 0 {
				continue // header
			}
			return nil, fmt.Errorf("row %d: %v", len(X)+1, err)
		}
		X = append(X, xi)
	}
	return X, nil
}

type csvParser struct {
	numResponses int
	X            [][]float64
	Y            [][]float64
	varNames     []string
}

func (p *csvParser) parseRow(row []string) error {
	if len(row) <= p.numResponses {
		return errors.New("row has no feature columns")
	}
	yi, err := parseFloats(row[:p.numResponses])
	if err != nil {
		return fmt.Errorf("row %d: parsing responses: %v", len(p.X)+1, err)
	}
	xi, err := parseFloats(row[p.numResponses:])
	if err != nil {
		return fmt.Errorf("row %d: parsing features: %v", len(p.X)+1, err)
	}
	p.X = append(p.X, xi)
	p.Y = append(p.Y, yi)
	return nil
}

// we only accept numeric input values, so we can consider the first row
// as a header row if one or more of the values isn't a number
func (p *csvParser) parseHeader(row []string) ([]string, error) {
	colNames := []string{}

	if len(row) > p.numResponses {
		for _, val := range row[p.numResponses:] {
			_, err := strconv.ParseFloat(val, 64)
			if err == nil {
				return colNames, errors.New("not a header row")
			}

			colNames = append(colNames, val)
		}
	}

	return colNames, nil
}

func parseFloats(vals []string) ([]float64, error) {
	xi := make([]float64, 0, len(vals))
	for _, val := range vals {
		fv, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, err
		}
		xi = append(xi, fv)
	}
	return xi, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
