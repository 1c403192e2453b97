package preprocessing

// Sentinel category values shared by the encoder components. These are
// named constants so they cannot silently collide with ad hoc strings in
// stage code; data that legitimately contains them will be folded into the
// corresponding bucket.
const (
	// RareSentinel is the bucket rare categories are grouped into.
	RareSentinel = "OTHER_RARE"

	// MissingSentinel is the categorical rendering of a null value, and the
	// bucket unseen categories collapse onto for binary encoding.
	MissingSentinel = "missing"
)

// Config holds the tunable thresholds of the categorical encoder. All
// cardinality comparisons are inclusive (<=) against these values.
type Config struct {
	// MaxOneHotCategories is the largest cardinality that still gets
	// one-hot encoding.
	MaxOneHotCategories int

	// MaxDetailedCategories is the largest cardinality that still gets
	// target + frequency encoding. Above it, rare-category grouping is
	// attempted before falling back to frequency-only encoding.
	MaxDetailedCategories int

	// RareMinFrequency is the occurrence count below which a category is a
	// grouping candidate.
	RareMinFrequency int

	// HighCardinalityMinFrequency is the grouping threshold used when a
	// column exceeds MaxDetailedCategories. Both thresholds are exposed
	// because the appropriate cutoff depends on the dataset scale.
	HighCardinalityMinFrequency int

	// TargetColumn names the binary target used for target encoding. May
	// be empty; target_freq columns then degrade to frequency-only.
	TargetColumn string

	// ProtectedColumns are never classified as categorical (identifiers,
	// the target, raw date columns).
	ProtectedColumns []string
}

// DefaultConfig returns the default encoder configuration.
func DefaultConfig() Config {
	return Config{
		MaxOneHotCategories:         3,
		MaxDetailedCategories:       10,
		RareMinFrequency:            100,
		HighCardinalityMinFrequency: 50,
	}
}
