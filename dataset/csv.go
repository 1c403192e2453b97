// Package dataset loads and saves tables and splits them for training.
//
// CSV columns are typed by inference: a column whose non-empty values all
// parse as floats is numeric, all "true"/"false" is bool, all recognized
// date layouts is time, anything else is string. Empty cells and common NA
// spellings become nulls. Inference happens once at load; downstream the
// table's dtypes are the sole source of truth.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tabprep/tabprep/core/table"
	"github.com/tabprep/tabprep/pkg/errors"
)

// timeLayouts are the timestamp formats recognized during inference, most
// specific first.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// naValues are cell spellings treated as null.
var naValues = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"null": {},
}

// ReadCSV loads a CSV file into a table.
func ReadCSV(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "dataset.ReadCSV")
	}
	defer f.Close()
	return ReadCSVFrom(f)
}

// ReadCSVFrom loads CSV data from a reader. The first record is the
// header.
func ReadCSVFrom(r io.Reader) (*table.Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "dataset.ReadCSVFrom")
	}
	if len(records) == 0 {
		return nil, errors.NewModelError("dataset.ReadCSVFrom", "no header row", errors.ErrEmptyData)
	}

	header := records[0]
	rows := records[1:]

	cols := make([]*table.Column, 0, len(header))
	for j, name := range header {
		raw := make([]string, len(rows))
		null := make([]bool, len(rows))
		for i, record := range rows {
			if j >= len(record) {
				null[i] = true
				continue
			}
			cell := strings.TrimSpace(record[j])
			if _, isNA := naValues[strings.ToLower(cell)]; isNA {
				null[i] = true
				continue
			}
			raw[i] = cell
		}
		cols = append(cols, inferColumn(name, raw, null))
	}

	return table.New(cols...)
}

// inferColumn picks the narrowest dtype that fits every non-null cell.
func inferColumn(name string, raw []string, null []bool) *table.Column {
	isBool, isFloat := true, true
	layout := ""
	isTime := true

	for i, cell := range raw {
		if null[i] {
			continue
		}
		if isBool && !isBoolLiteral(cell) {
			isBool = false
		}
		if isFloat {
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				isFloat = false
			}
		}
		if isTime {
			matched := false
			for _, candidate := range timeLayouts {
				if layout != "" && candidate != layout {
					continue
				}
				if _, err := time.Parse(candidate, cell); err == nil {
					layout = candidate
					matched = true
					break
				}
			}
			if !matched {
				isTime = false
			}
		}
		if !isBool && !isFloat && !isTime {
			break
		}
	}

	switch {
	case isBool && hasValues(null):
		vals := make([]bool, len(raw))
		for i, cell := range raw {
			if !null[i] {
				vals[i] = strings.EqualFold(cell, "true")
			}
		}
		return table.NewBool(name, vals, null)

	case isFloat && hasValues(null):
		vals := make([]float64, len(raw))
		for i, cell := range raw {
			if !null[i] {
				vals[i], _ = strconv.ParseFloat(cell, 64)
			}
		}
		return table.NewNumeric(name, vals, null)

	case isTime && layout != "" && hasValues(null):
		vals := make([]time.Time, len(raw))
		for i, cell := range raw {
			if !null[i] {
				vals[i], _ = time.Parse(layout, cell)
			}
		}
		return table.NewTime(name, vals, null)

	default:
		return table.NewString(name, raw, null)
	}
}

func isBoolLiteral(cell string) bool {
	return strings.EqualFold(cell, "true") || strings.EqualFold(cell, "false")
}

// hasValues reports whether at least one row is non-null; an all-null
// column stays a string column.
func hasValues(null []bool) bool {
	for _, isNull := range null {
		if !isNull {
			return true
		}
	}
	return false
}

// WriteCSV saves a table to a CSV file. Nulls are written as empty cells.
func WriteCSV(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "dataset.WriteCSV")
	}
	defer f.Close()
	return WriteCSVTo(f, t)
}

// WriteCSVTo writes a table as CSV to a writer.
func WriteCSVTo(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Names()); err != nil {
		return errors.Wrap(err, "dataset.WriteCSVTo")
	}

	record := make([]string, t.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		for j, name := range t.Names() {
			col, _ := t.Column(name)
			if col.IsNull(i) {
				record[j] = ""
				continue
			}
			record[j] = col.StringValue(i, "")
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, "dataset.WriteCSVTo")
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "dataset.WriteCSVTo")
}
