package preprocessing

// Strategy is the encoding strategy assigned to one categorical column.
// The assignment is fixed at fit time and immutable afterward.
type Strategy int

const (
	// StrategySkip drops the column (constant, no signal).
	StrategySkip Strategy = iota
	// StrategyBinary label-encodes a two-value column to 0/1.
	StrategyBinary
	// StrategyOneHot emits one indicator column per learned category.
	StrategyOneHot
	// StrategyTargetFreq emits a target-mean column and a frequency column.
	StrategyTargetFreq
	// StrategyMinimal emits only a frequency column, bounding feature
	// growth on very high cardinality.
	StrategyMinimal
)

// String returns the strategy name as recorded in logs.
func (s Strategy) String() string {
	switch s {
	case StrategySkip:
		return "skip"
	case StrategyBinary:
		return "binary"
	case StrategyOneHot:
		return "onehot_only"
	case StrategyTargetFreq:
		return "target_freq"
	case StrategyMinimal:
		return "minimal"
	default:
		return "unknown"
	}
}

// SelectStrategy deterministically maps a column's distinct-value count to
// an encoding strategy. The count is taken after any rare-category grouping;
// callers that group re-invoke the selection on the grouped count. Counts
// above MaxDetailedCategories fall back to minimal encoding rather than
// target encoding with a huge category list.
func SelectStrategy(distinct int, cfg Config) Strategy {
	switch {
	case distinct <= 1:
		return StrategySkip
	case distinct == 2:
		return StrategyBinary
	case distinct <= cfg.MaxOneHotCategories:
		return StrategyOneHot
	case distinct <= cfg.MaxDetailedCategories:
		return StrategyTargetFreq
	default:
		return StrategyMinimal
	}
}
