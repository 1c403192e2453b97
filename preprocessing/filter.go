package preprocessing

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/tabprep/tabprep/core/model"
	"github.com/tabprep/tabprep/core/table"
	"github.com/tabprep/tabprep/pkg/errors"
	"github.com/tabprep/tabprep/pkg/log"
)

// IsProtectedFeature reports whether a feature name marks a derived column
// that is exempt from generic filtering. The convention is a "zscore"
// substring anywhere in the name.
func IsProtectedFeature(name string) bool {
	return strings.Contains(strings.ToLower(name), "zscore")
}

// FilterConfig configures a Filter.
type FilterConfig struct {
	// VarianceThreshold removes numeric features whose fit-time variance
	// is at or below it.
	VarianceThreshold float64

	// CorrelationThreshold removes the later of any numeric feature pair
	// whose absolute correlation exceeds it.
	CorrelationThreshold float64

	// TargetColumn is always kept and never considered for filtering.
	TargetColumn string
}

// DefaultFilterConfig returns the default thresholds.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		VarianceThreshold:    0.01,
		CorrelationThreshold: 0.95,
	}
}

// Filter removes low-variance and highly correlated numeric features. The
// surviving feature list is fixed at fit time and replayed on any table;
// features missing at transform time are skipped, so downstream stages must
// tolerate partial feature sets.
type Filter struct {
	state  *model.StateManager
	logger log.Logger
	config FilterConfig

	// Keep is the fitted list of surviving columns, in table order.
	// Public for gob encoding.
	Keep []string
}

// NewFilter creates a Filter with the given configuration.
func NewFilter(cfg FilterConfig) *Filter {
	return &Filter{
		state:  model.NewStateManager(),
		config: cfg,
		logger: log.GetLoggerWithName("preprocessing").With(
			log.StageNameKey, "Filter",
			log.ComponentKey, "preprocessing",
		),
	}
}

// IsFitted reports whether the filter has learned its keep list.
func (f *Filter) IsFitted() bool { return f.state.IsFitted() }

// Fit determines which columns survive variance and correlation filtering.
//
// Only regular numeric columns participate: the target, protected
// ("zscore") columns and non-numeric columns are always kept. Variance is
// checked first; correlation is then computed pairwise over the survivors
// and the later column of each too-correlated pair is dropped.
func (f *Filter) Fit(t *table.Table) (err error) {
	defer errors.Recover(&err, "Filter.Fit")
	if t == nil || t.NumRows() == 0 || t.NumCols() == 0 {
		return errors.NewModelError("Filter.Fit", "empty table", errors.ErrEmptyData)
	}

	var regular []string
	for _, name := range t.NumericNames() {
		if name == f.config.TargetColumn || IsProtectedFeature(name) {
			continue
		}
		regular = append(regular, name)
	}

	surviving := make(map[string]struct{}, len(regular))
	for _, name := range regular {
		col, _ := t.Column(name)
		if populationVariance(col) > f.config.VarianceThreshold {
			surviving[name] = struct{}{}
		}
	}

	// Correlation pass over the variance survivors, dropping the later
	// column of each highly correlated pair.
	var candidates []string
	for _, name := range regular {
		if _, ok := surviving[name]; ok {
			candidates = append(candidates, name)
		}
	}
	for j := 1; j < len(candidates); j++ {
		right, _ := t.Column(candidates[j])
		for i := 0; i < j; i++ {
			if _, alive := surviving[candidates[i]]; !alive {
				continue
			}
			left, _ := t.Column(candidates[i])
			if math.Abs(pearson(left, right)) > f.config.CorrelationThreshold {
				delete(surviving, candidates[j])
				break
			}
		}
	}

	f.Keep = nil
	for _, name := range t.Names() {
		col, _ := t.Column(name)
		isRegular := col.DType() == table.Numeric &&
			name != f.config.TargetColumn && !IsProtectedFeature(name)
		if !isRegular {
			f.Keep = append(f.Keep, name)
			continue
		}
		if _, ok := surviving[name]; ok {
			f.Keep = append(f.Keep, name)
		}
	}

	f.state.SetFitted()

	f.logger.Info("filter fitted",
		log.OperationKey, log.OperationFit,
		log.FeaturesKey, len(f.Keep),
	)
	return nil
}

// Transform keeps only the fitted columns. Columns from the keep list that
// are absent from t are skipped with a warning.
func (f *Filter) Transform(t *table.Table) (_ *table.Table, err error) {
	defer errors.Recover(&err, "Filter.Transform")
	if !f.state.IsFitted() {
		return nil, errors.NewNotFittedError("Filter", "Transform")
	}

	missing := 0
	for _, name := range f.Keep {
		if !t.Has(name) {
			missing++
		}
	}
	if missing > 0 {
		f.logger.Warn("fitted columns missing from transform data",
			log.OperationKey, log.OperationTransform,
			log.FeaturesKey, missing,
		)
	}

	return t.Select(f.Keep), nil
}

// FitTransform fits the filter and transforms the training table,
// equivalent to Fit followed by Transform on the same input.
func (f *Filter) FitTransform(t *table.Table) (_ *table.Table, err error) {
	defer errors.Recover(&err, "Filter.FitTransform")
	if err := f.Fit(t); err != nil {
		return nil, err
	}
	return f.Transform(t)
}

// populationVariance computes the variance of the non-null values with a
// 1/n denominator, matching how variance thresholds are conventionally
// applied to features.
func populationVariance(col *table.Column) float64 {
	n, sum := 0.0, 0.0
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		sum += col.Float(i)
		n++
	}
	if n == 0 {
		return 0
	}
	mean := sum / n

	ss := 0.0
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		diff := col.Float(i) - mean
		ss += diff * diff
	}
	return ss / n
}

// pearson computes the correlation between two numeric columns over the
// rows where both are non-null.
func pearson(a, b *table.Column) float64 {
	var xs, ys []float64
	for i := 0; i < a.Len(); i++ {
		if a.IsNull(i) || b.IsNull(i) {
			continue
		}
		xs = append(xs, a.Float(i))
		ys = append(ys, b.Float(i))
	}
	if len(xs) < 2 {
		return 0
	}

	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		// Constant columns have no defined correlation.
		return 0
	}
	return r
}
