// Package dataset reads regression samples from CSV files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrEmpty = errors.New("dataset has no rows")

// Options selects the columns to read. The first CSV row is always the
// header. Variables defaults to every column except TargetColumn.
type Options struct {
	Variables    []string
	TargetColumn string
	// Normalize rescales every variable column: none, minmax or zscore.
	// Targets are never rescaled.
	Normalize string
}

// Table is the parsed samples, one map of variable values per row.
type Table struct {
	Variables []string
	Rows      []map[string]float64
	Targets   []float64
}

func Load(path string, opts Options) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, err
	}
	defer f.Close()

	table, err := Read(f, opts)
	if err != nil {
		return Table{}, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

func Read(in io.Reader, opts Options) (Table, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return Table{}, ErrEmpty
	}
	if err != nil {
		return Table{}, fmt.Errorf("read header: %w", err)
	}

	targetIdx := -1
	if strings.TrimSpace(opts.TargetColumn) != "" {
		if targetIdx, err = columnIndexByName(header, opts.TargetColumn); err != nil {
			return Table{}, err
		}
	}
	variables := opts.Variables
	if len(variables) == 0 {
		for i, name := range header {
			if i != targetIdx && strings.TrimSpace(name) != "" {
				variables = append(variables, strings.TrimSpace(name))
			}
		}
	}
	indexes := make([]int, len(variables))
	for i, name := range variables {
		if indexes[i], err = columnIndexByName(header, name); err != nil {
			return Table{}, err
		}
	}

	columns := make([][]float64, len(variables))
	var targets []float64
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read row %d: %w", row+1, err)
		}
		row++
		if blankRecord(record) {
			continue
		}
		for i, idx := range indexes {
			value, err := parseFloatField(record, idx, row, variables[i])
			if err != nil {
				return Table{}, err
			}
			columns[i] = append(columns[i], value)
		}
		if targetIdx >= 0 {
			value, err := parseFloatField(record, targetIdx, row, opts.TargetColumn)
			if err != nil {
				return Table{}, err
			}
			targets = append(targets, value)
		}
	}
	if len(variables) == 0 || len(columns[0]) == 0 {
		return Table{}, ErrEmpty
	}

	for i := range columns {
		if columns[i], err = normalize(columns[i], opts.Normalize); err != nil {
			return Table{}, err
		}
	}

	table := Table{Variables: append([]string(nil), variables...), Targets: targets}
	for r := range columns[0] {
		sample := make(map[string]float64, len(variables))
		for i, name := range variables {
			sample[name] = columns[i][r]
		}
		table.Rows = append(table.Rows, sample)
	}
	return table, nil
}

func parseFloatField(record []string, idx, row int, field string) (float64, error) {
	if idx >= len(record) {
		return 0, fmt.Errorf("row %d missing %s column index %d", row, field, idx)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s row %d: %w", field, row, err)
	}
	return value, nil
}

func columnIndexByName(header []string, name string) (int, error) {
	want := strings.TrimSpace(strings.ToLower(name))
	for i, field := range header {
		if strings.ToLower(strings.TrimSpace(field)) == want {
			return i, nil
		}
	}
	return -1, fmt.Errorf("csv column not found: %s", name)
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func normalize(values []float64, mode string) ([]float64, error) {
	out := append([]float64(nil), values...)
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "none":
		return out, nil
	case "minmax":
		lo, hi := floats.Min(out), floats.Max(out)
		if hi == lo {
			return make([]float64, len(out)), nil
		}
		floats.AddConst(-lo, out)
		floats.Scale(1/(hi-lo), out)
		return out, nil
	case "zscore":
		mean, std := stat.PopMeanStdDev(out, nil)
		if std == 0 {
			return make([]float64, len(out)), nil
		}
		floats.AddConst(-mean, out)
		floats.Scale(1/std, out)
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported normalization mode: %s", mode)
	}
}
