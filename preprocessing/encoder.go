// Package preprocessing provides stateful table preprocessing stages.
//
// The package implements the fit/transform pattern for tabular feature
// preparation:
//
//   - CategoricalEncoder: cardinality-driven encoding of categorical columns
//   - Cleaner: learned missing-value filling and outlier capping
//   - Filter: variance and correlation based feature filtering
//   - Normalizer: feature scaling backed by matrix scalers
//
// Every stage learns its parameters exclusively from the table passed to
// Fit and replays them unchanged on any table passed to Transform. A stage
// that has not been fitted rejects Transform with a NotFittedError. This
// separation is what keeps validation and test data from leaking into
// learned parameters.
package preprocessing

import (
	"sort"
	"time"

	"github.com/tabprep/tabprep/core/model"
	"github.com/tabprep/tabprep/core/table"
	"github.com/tabprep/tabprep/pkg/errors"
	"github.com/tabprep/tabprep/pkg/log"
)

// BinaryEncoding holds the learned parameters of the binary strategy: the
// two observed category values in sorted order. The sort order decides
// which value maps to 0 and which to 1; it is implementation-defined but
// stable across fit calls on the same data.
type BinaryEncoding struct {
	Vocabulary []string
}

// OneHotEncoding holds the learned category values of the onehot_only
// strategy, sorted, excluding the missing sentinel. The one-hot is closed
// world: transform never adds columns for values outside this list.
type OneHotEncoding struct {
	Values []string
}

// TargetFreqEncoding holds the learned parameters of the target_freq
// strategy.
type TargetFreqEncoding struct {
	// TargetMean maps each category to the mean of the target among rows
	// with that category. Empty when HasTarget is false.
	TargetMean map[string]float64

	// GlobalMean is the target mean over the whole fit table, the fallback
	// for categories unseen at fit time.
	GlobalMean float64

	// HasTarget records whether the target column was available at fit
	// time. When false the strategy degraded to frequency-only output.
	HasTarget bool

	// Freq maps each category to its occurrence count in the fit table.
	Freq map[string]float64
}

// MinimalEncoding holds the learned parameters of the minimal strategy:
// occurrence counts only.
type MinimalEncoding struct {
	Freq map[string]float64
}

// ColumnPlan is the learned encoding of a single categorical column. The
// Strategy tag selects which payload is populated; the others stay nil, so
// an invalid shape cannot be represented.
type ColumnPlan struct {
	Strategy Strategy

	// Grouping maps rare categories to RareSentinel. Nil when no grouping
	// applies. Values outside the map pass through unchanged.
	Grouping map[string]string

	Binary     *BinaryEncoding
	OneHot     *OneHotEncoding
	TargetFreq *TargetFreqEncoding
	Minimal    *MinimalEncoding
}

// CategoricalEncoder converts categorical columns into numeric features
// using a per-column strategy selected from the column's cardinality.
//
// Fit classifies the categorical columns, selects a strategy per column and
// learns the strategy parameters from the fit table only. Transform replays
// those parameters on any table: it emits the same set of output columns
// regardless of the category values actually present, resolves unseen
// categories to defined fallbacks, and drops the original categorical
// columns.
type CategoricalEncoder struct {
	state  *model.StateManager
	logger log.Logger
	config Config

	// Columns is the fitted categorical column list, in table order.
	// Public for gob encoding.
	Columns []string

	// Plans holds the learned parameters per column. Public for gob
	// encoding.
	Plans map[string]*ColumnPlan
}

// NewCategoricalEncoder creates an encoder with the given configuration.
//
// Example:
//
//	cfg := preprocessing.DefaultConfig()
//	cfg.TargetColumn = "is_malicious"
//	enc := preprocessing.NewCategoricalEncoder(cfg)
//	train, err := enc.FitTransform(trainTable)
//	test, err := enc.Transform(testTable)
func NewCategoricalEncoder(cfg Config) *CategoricalEncoder {
	return &CategoricalEncoder{
		state:  model.NewStateManager(),
		config: cfg,
		logger: log.GetLoggerWithName("preprocessing").With(
			log.StageNameKey, "CategoricalEncoder",
			log.ComponentKey, "preprocessing",
		),
	}
}

// IsFitted reports whether the encoder has learned parameters.
func (e *CategoricalEncoder) IsFitted() bool {
	return e.state.IsFitted()
}

// Config returns the encoder configuration.
func (e *CategoricalEncoder) Config() Config {
	return e.config
}

// StrategyFor returns the fitted strategy for a column.
func (e *CategoricalEncoder) StrategyFor(column string) (Strategy, bool) {
	plan, ok := e.Plans[column]
	if !ok {
		return StrategySkip, false
	}
	return plan.Strategy, true
}

// Fit learns the per-column encoding parameters from the training table.
//
// For each categorical column, in table order: rare categories are grouped,
// the strategy is selected from the grouped cardinality, and the strategy
// parameters are learned from the fit table only. A missing target column
// degrades target_freq columns to frequency-only output instead of failing
// the fit. Calling Fit again replaces all learned state wholesale.
//
// Parameters:
//   - t: training table
//
// Returns:
//   - error: ErrEmptyData for an empty table, otherwise nil
func (e *CategoricalEncoder) Fit(t *table.Table) (err error) {
	defer errors.Recover(&err, "CategoricalEncoder.Fit")
	started := time.Now()

	if t == nil || t.NumRows() == 0 || t.NumCols() == 0 {
		return errors.NewModelError("CategoricalEncoder.Fit", "empty table", errors.ErrEmptyData)
	}

	protected := append([]string(nil), e.config.ProtectedColumns...)
	if e.config.TargetColumn != "" {
		protected = append(protected, e.config.TargetColumn)
	}

	// Re-fit replaces prior state wholesale.
	e.Columns = ClassifyCategorical(t, protected)
	e.Plans = make(map[string]*ColumnPlan, len(e.Columns))

	target, hasTarget := e.targetValues(t)
	if e.config.TargetColumn != "" && !hasTarget {
		e.logger.Warn("target column unavailable, target encoding degrades to frequency-only",
			log.ColumnKey, e.config.TargetColumn,
			log.OperationKey, log.OperationFit,
		)
	}

	for _, name := range e.Columns {
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		plan := e.learnColumn(col, target, hasTarget)
		e.Plans[name] = plan

		e.logger.Debug("column encoding learned",
			log.ColumnKey, name,
			log.StrategyKey, plan.Strategy.String(),
		)
	}

	e.state.SetFitted()

	e.logger.Info("encoder fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, t.NumRows(),
		log.FeaturesKey, len(e.Columns),
		log.DurationMsKey, time.Since(started).Milliseconds(),
	)
	return nil
}

// learnColumn builds the encoding plan for one column from its fit-time
// values.
func (e *CategoricalEncoder) learnColumn(col *table.Column, target []float64, hasTarget bool) *ColumnPlan {
	values := col.StringValues(MissingSentinel)

	grouping := GroupRareCategories(values, e.config.RareMinFrequency)
	values = ApplyGrouping(values, grouping)
	distinct := distinctCount(values)

	// High cardinality: retry grouping at the fallback threshold before
	// giving up on detailed encoding.
	if distinct > e.config.MaxDetailedCategories {
		extra := GroupRareCategories(values, e.config.HighCardinalityMinFrequency)
		if len(extra) > 0 {
			if grouping == nil {
				grouping = make(map[string]string, len(extra))
			}
			for k, v := range extra {
				grouping[k] = v
			}
			values = ApplyGrouping(values, extra)
			distinct = distinctCount(values)
		}
	}

	plan := &ColumnPlan{
		Strategy: SelectStrategy(distinct, e.config),
		Grouping: grouping,
	}

	switch plan.Strategy {
	case StrategyBinary:
		plan.Binary = &BinaryEncoding{Vocabulary: sortedDistinct(values, false)}

	case StrategyOneHot:
		plan.OneHot = &OneHotEncoding{Values: sortedDistinct(values, true)}

	case StrategyTargetFreq:
		enc := &TargetFreqEncoding{
			Freq:      frequencyMap(values),
			HasTarget: hasTarget,
		}
		if hasTarget {
			enc.TargetMean, enc.GlobalMean = targetMeans(values, target)
		}
		plan.TargetFreq = enc

	case StrategyMinimal:
		plan.Minimal = &MinimalEncoding{Freq: frequencyMap(values)}
	}

	return plan
}

// Transform applies the learned encodings to a table.
//
// Original categorical columns are dropped and replaced by their encoded
// numeric columns. A fitted column missing from t is skipped with a
// warning; an unseen category value always resolves to a defined fallback
// and never fails. The set of emitted column names depends only on the
// fitted state and the input's original columns, never on the category
// values present. On error nothing is emitted.
//
// Returns:
//   - *table.Table: the encoded table
//   - error: NotFittedError when called before Fit
func (e *CategoricalEncoder) Transform(t *table.Table) (_ *table.Table, err error) {
	defer errors.Recover(&err, "CategoricalEncoder.Transform")
	if !e.state.IsFitted() {
		return nil, errors.NewNotFittedError("CategoricalEncoder", "Transform")
	}

	encoded := make(map[string][]*table.Column, len(e.Columns))
	learned := make(map[string]struct{}, len(e.Columns))
	for _, name := range e.Columns {
		learned[name] = struct{}{}
		col, ok := t.Column(name)
		if !ok {
			e.logger.Warn("fitted column missing from transform data",
				log.ColumnKey, name,
				log.OperationKey, log.OperationTransform,
			)
			continue
		}
		encoded[name] = e.encodeColumn(col, e.Plans[name])
	}

	// Assemble the output only after every column encoded cleanly, so a
	// failure never yields a partially encoded table.
	out, err := table.New()
	if err != nil {
		return nil, err
	}
	for _, name := range t.Names() {
		if _, isLearned := learned[name]; isLearned {
			for _, col := range encoded[name] {
				if err := out.AddColumn(col); err != nil {
					return nil, errors.Wrap(err, "CategoricalEncoder.Transform")
				}
			}
			continue
		}
		col, _ := t.Column(name)
		if err := out.AddColumn(col); err != nil {
			return nil, errors.Wrap(err, "CategoricalEncoder.Transform")
		}
	}
	return out, nil
}

// FitTransform fits the encoder and transforms the training table in one
// step, equivalent to Fit followed by Transform on the same input.
func (e *CategoricalEncoder) FitTransform(t *table.Table) (_ *table.Table, err error) {
	defer errors.Recover(&err, "CategoricalEncoder.FitTransform")
	if err := e.Fit(t); err != nil {
		return nil, err
	}
	return e.Transform(t)
}

// encodeColumn produces the numeric output columns for one categorical
// column according to its plan.
func (e *CategoricalEncoder) encodeColumn(col *table.Column, plan *ColumnPlan) []*table.Column {
	values := ApplyGrouping(col.StringValues(MissingSentinel), plan.Grouping)
	n := len(values)

	switch plan.Strategy {
	case StrategyBinary:
		// Unseen values collapse onto the missing bucket, never onto an
		// arbitrary class.
		slot := make(map[string]int, len(plan.Binary.Vocabulary))
		for i, v := range plan.Binary.Vocabulary {
			slot[v] = i
		}
		out := make([]float64, n)
		for i, v := range values {
			if _, known := slot[v]; !known {
				v = MissingSentinel
			}
			out[i] = float64(slot[v])
		}
		return []*table.Column{table.NewNumeric(col.Name()+"_binary", out, nil)}

	case StrategyOneHot:
		cols := make([]*table.Column, 0, len(plan.OneHot.Values))
		for _, category := range plan.OneHot.Values {
			flags := make([]float64, n)
			for i, v := range values {
				if v == category {
					flags[i] = 1
				}
			}
			cols = append(cols, table.NewNumeric(col.Name()+"_cat_"+category, flags, nil))
		}
		return cols

	case StrategyTargetFreq:
		enc := plan.TargetFreq
		var cols []*table.Column
		if enc.HasTarget {
			targets := make([]float64, n)
			for i, v := range values {
				if mean, seen := enc.TargetMean[v]; seen {
					targets[i] = mean
				} else {
					targets[i] = enc.GlobalMean
				}
			}
			cols = append(cols, table.NewNumeric(col.Name()+"_target", targets, nil))
		}
		cols = append(cols, table.NewNumeric(col.Name()+"_freq", freqLookup(values, enc.Freq), nil))
		return cols

	case StrategyMinimal:
		return []*table.Column{table.NewNumeric(col.Name()+"_freq", freqLookup(values, plan.Minimal.Freq), nil)}

	default: // StrategySkip
		return nil
	}
}

// EncodedFeatureNames returns the output column names the encoder emits for
// its fitted columns, in column order. Nil before fitting.
func (e *CategoricalEncoder) EncodedFeatureNames() []string {
	if !e.state.IsFitted() {
		return nil
	}
	var names []string
	for _, name := range e.Columns {
		plan := e.Plans[name]
		switch plan.Strategy {
		case StrategyBinary:
			names = append(names, name+"_binary")
		case StrategyOneHot:
			for _, v := range plan.OneHot.Values {
				names = append(names, name+"_cat_"+v)
			}
		case StrategyTargetFreq:
			if plan.TargetFreq.HasTarget {
				names = append(names, name+"_target")
			}
			names = append(names, name+"_freq")
		case StrategyMinimal:
			names = append(names, name+"_freq")
		}
	}
	return names
}

// targetValues extracts the target column as numeric values. Bool targets
// map to 1/0. Returns false when the column is absent or has a dtype that
// cannot be averaged; the caller degrades target encoding in that case.
func (e *CategoricalEncoder) targetValues(t *table.Table) ([]float64, bool) {
	if e.config.TargetColumn == "" {
		return nil, false
	}
	col, ok := t.Column(e.config.TargetColumn)
	if !ok {
		return nil, false
	}

	n := col.Len()
	out := make([]float64, n)
	switch col.DType() {
	case table.Numeric:
		for i := 0; i < n; i++ {
			out[i] = col.Float(i)
		}
	case table.Bool:
		for i := 0; i < n; i++ {
			if col.BoolAt(i) {
				out[i] = 1
			}
		}
	default:
		return nil, false
	}
	return out, true
}

// targetMeans computes per-category target means and the global mean,
// skipping rows with a null (NaN) target.
func targetMeans(values []string, target []float64) (map[string]float64, float64) {
	sums := make(map[string]float64)
	counts := make(map[string]float64)
	globalSum, globalCount := 0.0, 0.0

	for i, v := range values {
		y := target[i]
		if y != y { // NaN
			continue
		}
		sums[v] += y
		counts[v]++
		globalSum += y
		globalCount++
	}

	means := make(map[string]float64, len(sums))
	for v, sum := range sums {
		means[v] = sum / counts[v]
	}
	globalMean := 0.0
	if globalCount > 0 {
		globalMean = globalSum / globalCount
	}
	return means, globalMean
}

func frequencyMap(values []string) map[string]float64 {
	freq := make(map[string]float64)
	for _, v := range values {
		freq[v]++
	}
	return freq
}

// freqLookup maps values through a frequency map with 0 for unseen
// categories.
func freqLookup(values []string, freq map[string]float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = freq[v]
	}
	return out
}

// sortedDistinct returns the distinct values sorted lexicographically,
// optionally excluding the missing sentinel.
func sortedDistinct(values []string, excludeMissing bool) []string {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if excludeMissing && v == MissingSentinel {
			continue
		}
		seen[v] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
