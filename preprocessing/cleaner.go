package preprocessing

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/tabprep/tabprep/core/model"
	"github.com/tabprep/tabprep/core/table"
	"github.com/tabprep/tabprep/pkg/errors"
	"github.com/tabprep/tabprep/pkg/log"
)

// FillMethod selects how a column's missing values are filled.
type FillMethod int

const (
	// FillZero fills numeric nulls with 0.
	FillZero FillMethod = iota
	// FillConstant fills string nulls with a fixed value.
	FillConstant
	// FillMedian fills numeric nulls with the fit-time median.
	FillMedian
	// FillMode fills categorical nulls with the fit-time most frequent
	// value.
	FillMode
	// FillTime fills time nulls with a fixed timestamp.
	FillTime
)

// FillRule is a learned or configured missing-value rule for one column.
// The field matching the method carries the fill value.
type FillRule struct {
	Method    FillMethod
	Number    float64
	Text      string
	Timestamp time.Time
}

// OutlierMethod selects how out-of-bounds numeric values are handled at
// transform time.
type OutlierMethod string

const (
	// OutlierCap clamps values to the fitted IQR bounds.
	OutlierCap OutlierMethod = "cap"
	// OutlierRemove nulls out-of-bounds values instead of dropping rows.
	OutlierRemove OutlierMethod = "remove"
)

// OutlierBounds are the fitted capping bounds for one numeric column,
// computed as Q1 - 1.5*IQR and Q3 + 1.5*IQR.
type OutlierBounds struct {
	Lower float64
	Upper float64
}

// missingTimeFill is the timestamp representing "non-existent" for time
// columns with no configured rule.
var missingTimeFill = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// CleanerConfig configures a Cleaner.
type CleanerConfig struct {
	// Overrides are explicit per-column fill rules that take precedence
	// over the learned median/mode rules.
	Overrides map[string]FillRule

	// SkipColumns are never filled or capped (identifiers, the target).
	SkipColumns []string

	// OutlierExclude are columns exempt from outlier handling only.
	OutlierExclude []string

	// OutlierMethod selects capping or removal. Defaults to OutlierCap.
	OutlierMethod OutlierMethod
}

// Cleaner learns missing-value fill rules and outlier bounds from a
// training table and replays them on any table.
type Cleaner struct {
	state  *model.StateManager
	logger log.Logger
	config CleanerConfig

	// Rules holds the per-column fill rules fixed at fit time. Public for
	// gob encoding.
	Rules map[string]FillRule

	// Bounds holds the per-column outlier bounds fixed at fit time.
	// Public for gob encoding.
	Bounds map[string]OutlierBounds
}

// NewCleaner creates a Cleaner with the given configuration.
func NewCleaner(cfg CleanerConfig) *Cleaner {
	if cfg.OutlierMethod == "" {
		cfg.OutlierMethod = OutlierCap
	}
	return &Cleaner{
		state:  model.NewStateManager(),
		config: cfg,
		logger: log.GetLoggerWithName("preprocessing").With(
			log.StageNameKey, "Cleaner",
			log.ComponentKey, "preprocessing",
		),
	}
}

// IsFitted reports whether the cleaner has learned parameters.
func (c *Cleaner) IsFitted() bool { return c.state.IsFitted() }

// Fit learns fill rules and outlier bounds from the training table.
//
// Configured overrides are stored as-is. Beyond those, numeric columns with
// nulls get a median rule, string and bool columns with nulls get a mode
// rule, and time columns with nulls get a fixed default timestamp. IQR
// bounds are computed for every non-skipped numeric column. Re-fitting
// replaces all rules and bounds wholesale.
func (c *Cleaner) Fit(t *table.Table) (err error) {
	defer errors.Recover(&err, "Cleaner.Fit")
	if t == nil || t.NumRows() == 0 || t.NumCols() == 0 {
		return errors.NewModelError("Cleaner.Fit", "empty table", errors.ErrEmptyData)
	}

	skip := toSet(c.config.SkipColumns)
	c.Rules = make(map[string]FillRule)
	c.Bounds = make(map[string]OutlierBounds)

	for name, rule := range c.config.Overrides {
		c.Rules[name] = rule
	}

	for _, name := range t.Names() {
		if _, skipped := skip[name]; skipped {
			continue
		}
		col, _ := t.Column(name)

		if _, ruled := c.Rules[name]; !ruled && col.NullCount() > 0 {
			switch col.DType() {
			case table.Numeric:
				c.Rules[name] = FillRule{Method: FillMedian, Number: columnMedian(col)}
			case table.String, table.Bool:
				c.Rules[name] = FillRule{Method: FillMode, Text: columnMode(col)}
			case table.Time:
				c.Rules[name] = FillRule{Method: FillTime, Timestamp: missingTimeFill}
			}
		}

		if col.DType() == table.Numeric {
			if bounds, ok := iqrBounds(col); ok {
				c.Bounds[name] = bounds
			}
		}
	}

	c.state.SetFitted()

	c.logger.Info("cleaner fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, t.NumRows(),
		log.FeaturesKey, len(c.Rules),
	)
	return nil
}

// Transform fills missing values and handles outliers using the fitted
// parameters. Columns with rules or bounds that are absent from t are
// skipped.
func (c *Cleaner) Transform(t *table.Table) (_ *table.Table, err error) {
	defer errors.Recover(&err, "Cleaner.Transform")
	if !c.state.IsFitted() {
		return nil, errors.NewNotFittedError("Cleaner", "Transform")
	}

	out := t.Clone()
	excluded := toSet(c.config.OutlierExclude)

	for name, rule := range c.Rules {
		col, ok := out.Column(name)
		if !ok {
			continue
		}
		fillColumn(col, rule)
	}

	for name, bounds := range c.Bounds {
		if _, skip := excluded[name]; skip {
			continue
		}
		col, ok := out.Column(name)
		if !ok || col.DType() != table.Numeric {
			continue
		}
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				continue
			}
			v := col.Float(i)
			if v >= bounds.Lower && v <= bounds.Upper {
				continue
			}
			switch c.config.OutlierMethod {
			case OutlierRemove:
				// Rows are never dropped at transform time; the value is
				// nulled instead.
				col.SetNull(i)
			default:
				if v < bounds.Lower {
					col.SetFloat(i, bounds.Lower)
				} else {
					col.SetFloat(i, bounds.Upper)
				}
			}
		}
	}

	return out, nil
}

// FitTransform fits the cleaner and transforms the training table,
// equivalent to Fit followed by Transform on the same input.
func (c *Cleaner) FitTransform(t *table.Table) (_ *table.Table, err error) {
	defer errors.Recover(&err, "Cleaner.FitTransform")
	if err := c.Fit(t); err != nil {
		return nil, err
	}
	return c.Transform(t)
}

func fillColumn(col *table.Column, rule FillRule) {
	for i := 0; i < col.Len(); i++ {
		if !col.IsNull(i) {
			continue
		}
		switch rule.Method {
		case FillZero:
			if col.DType() == table.Numeric {
				col.SetFloat(i, 0)
			}
		case FillMedian:
			if col.DType() == table.Numeric {
				col.SetFloat(i, rule.Number)
			}
		case FillConstant, FillMode:
			switch col.DType() {
			case table.String:
				col.SetString(i, rule.Text)
			case table.Bool:
				col.SetBool(i, rule.Text == "true")
			}
		case FillTime:
			if col.DType() == table.Time {
				col.SetTime(i, rule.Timestamp)
			}
		}
	}
}

// columnMedian returns the median of the non-null values.
func columnMedian(col *table.Column) float64 {
	var vals []float64
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		v := col.Float(i)
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0
	}
	sort.Float64s(vals)
	return stat.Quantile(0.5, stat.Empirical, vals, nil)
}

// columnMode returns the most frequent non-null value, breaking ties by
// lexicographic order so re-fitting is deterministic.
func columnMode(col *table.Column) string {
	counts := make(map[string]int)
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		counts[col.StringValue(i, "")]++
	}

	best, bestCount := "Unknown", 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best
}

// iqrBounds computes IQR capping bounds from the non-null values. Returns
// false when the column has no usable values.
func iqrBounds(col *table.Column) (OutlierBounds, bool) {
	var vals []float64
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		v := col.Float(i)
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return OutlierBounds{}, false
	}
	sort.Float64s(vals)

	q1 := stat.Quantile(0.25, stat.Empirical, vals, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, vals, nil)
	iqr := q3 - q1
	return OutlierBounds{Lower: q1 - 1.5*iqr, Upper: q3 + 1.5*iqr}, true
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}
