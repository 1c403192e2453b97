package preprocessing

import (
	"github.com/tabprep/tabprep/core/table"
)

// Numeric columns are treated as categorical when their distinct-value
// count stays at or below lowCardinalityMax and below lowCardinalityShare
// of the row count.
const (
	lowCardinalityMax   = 50
	lowCardinalityShare = 0.1
)

// ClassifyCategorical returns the names of the columns judged categorical,
// in table order. A column is categorical iff its dtype is string or bool,
// or it is numeric with low cardinality relative to the row count. Time
// columns and protected columns are never categorical.
//
// The result is deterministic for a given table and protected list. It is
// computed once at fit time; transform replays the stored list and never
// re-derives it, so a column that happens to look numeric-like in transform
// data is still encoded with its fitted strategy.
func ClassifyCategorical(t *table.Table, protected []string) []string {
	protectedSet := make(map[string]struct{}, len(protected))
	for _, name := range protected {
		protectedSet[name] = struct{}{}
	}

	rows := t.NumRows()
	var categorical []string
	for _, name := range t.Names() {
		if _, skip := protectedSet[name]; skip {
			continue
		}
		col, _ := t.Column(name)

		switch col.DType() {
		case table.String, table.Bool:
			categorical = append(categorical, name)
		case table.Numeric:
			distinct := col.DistinctCount()
			if distinct <= lowCardinalityMax && float64(distinct) < lowCardinalityShare*float64(rows) {
				categorical = append(categorical, name)
			}
		}
	}
	return categorical
}
