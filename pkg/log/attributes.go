// Package log defines standard attribute keys for preprocessing operations.
//
// Using these keys consistently enables structured filtering of pipeline
// logs (e.g. all "fit" operations, all messages about one stage). The keys
// follow a hierarchical naming convention ("stage.name", "data.samples").
package log

// Stage and operation context.
const (
	// StageNameKey identifies the pipeline stage type.
	// Examples: "CategoricalEncoder", "Cleaner", "Normalizer"
	StageNameKey = "stage.name"

	// ComponentKey identifies the package performing the operation.
	// Examples: "preprocessing", "pipeline", "dataset"
	ComponentKey = "stage.component"

	// OperationKey specifies the operation being performed.
	// Standard values: OperationFit, OperationTransform, OperationFitTransform.
	OperationKey = "stage.operation"

	// ColumnKey names the table column a message is about.
	ColumnKey = "column"

	// StrategyKey names the encoding strategy chosen for a column.
	StrategyKey = "encoding.strategy"
)

// Standard values for OperationKey.
const (
	OperationFit          = "fit"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
)

// Data shape and characteristics.
const (
	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of columns being processed.
	FeaturesKey = "data.features"

	// CardinalityKey is the number of distinct values in a column.
	CardinalityKey = "data.cardinality"
)

// Performance metrics.
const (
	// DurationMsKey records the execution time of an operation in
	// milliseconds.
	DurationMsKey = "perf.duration_ms"
)
