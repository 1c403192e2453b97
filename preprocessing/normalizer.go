package preprocessing

import (
	"github.com/tabprep/tabprep/core/model"
	"github.com/tabprep/tabprep/core/table"
	"github.com/tabprep/tabprep/pkg/errors"
	"github.com/tabprep/tabprep/pkg/log"
)

// NormalizeMethod selects the scaler backing a Normalizer.
type NormalizeMethod string

const (
	// NormalizeStandard uses z-score standardization.
	NormalizeStandard NormalizeMethod = "standard"
	// NormalizeMinMax scales into [0, 1].
	NormalizeMinMax NormalizeMethod = "minmax"
	// NormalizeRobust uses median/IQR scaling.
	NormalizeRobust NormalizeMethod = "robust"
)

// NormalizerConfig configures a Normalizer.
type NormalizerConfig struct {
	// Method selects the scaler. Defaults to NormalizeStandard.
	Method NormalizeMethod

	// ExcludeColumns are numeric columns left unscaled (identifiers, the
	// target, encoded flag columns that must stay 0/1, raw date-derived
	// keys).
	ExcludeColumns []string
}

// Normalizer scales the numeric columns of a table using statistics
// learned at fit time. The column list is fixed at fit time; transform
// tables missing some fitted columns are scaled column-wise over what is
// available.
type Normalizer struct {
	state  *model.StateManager
	logger log.Logger
	config NormalizerConfig

	// Columns is the fitted list of columns to scale, in table order.
	// Public for gob encoding.
	Columns []string

	scaler MatrixScaler
}

// NewNormalizer creates a Normalizer with the given configuration.
func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	if cfg.Method == "" {
		cfg.Method = NormalizeStandard
	}
	return &Normalizer{
		state:  model.NewStateManager(),
		config: cfg,
		logger: log.GetLoggerWithName("preprocessing").With(
			log.StageNameKey, "Normalizer",
			log.ComponentKey, "preprocessing",
		),
	}
}

// IsFitted reports whether the normalizer has learned parameters.
func (n *Normalizer) IsFitted() bool { return n.state.IsFitted() }

// Method returns the configured normalization method.
func (n *Normalizer) Method() NormalizeMethod { return n.config.Method }

// Fit learns scaling statistics for every numeric column not excluded by
// configuration.
func (n *Normalizer) Fit(t *table.Table) (err error) {
	defer errors.Recover(&err, "Normalizer.Fit")
	if t == nil || t.NumRows() == 0 || t.NumCols() == 0 {
		return errors.NewModelError("Normalizer.Fit", "empty table", errors.ErrEmptyData)
	}

	excluded := toSet(n.config.ExcludeColumns)
	n.Columns = nil
	for _, name := range t.NumericNames() {
		if _, skip := excluded[name]; skip {
			continue
		}
		n.Columns = append(n.Columns, name)
	}

	switch n.config.Method {
	case NormalizeStandard:
		n.scaler = NewStandardScalerDefault()
	case NormalizeMinMax:
		n.scaler = NewMinMaxScalerDefault()
	case NormalizeRobust:
		n.scaler = NewRobustScaler()
	default:
		return errors.NewValueError("Normalizer.Fit", "unknown method "+string(n.config.Method))
	}

	if len(n.Columns) == 0 {
		n.logger.Warn("no numeric columns to normalize", log.OperationKey, log.OperationFit)
		n.state.SetFitted()
		return nil
	}

	X, err := t.Matrix(n.Columns)
	if err != nil {
		return errors.Wrap(err, "Normalizer.Fit")
	}
	if err := n.scaler.Fit(X); err != nil {
		return errors.Wrap(err, "Normalizer.Fit")
	}

	n.state.SetFitted()

	n.logger.Info("normalizer fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, t.NumRows(),
		log.FeaturesKey, len(n.Columns),
	)
	return nil
}

// Transform scales the fitted columns of t using the learned statistics.
// When every fitted column is present, the full-matrix scaler path is used;
// otherwise the available columns are scaled one by one with a warning.
func (n *Normalizer) Transform(t *table.Table) (_ *table.Table, err error) {
	defer errors.Recover(&err, "Normalizer.Transform")
	if !n.state.IsFitted() {
		return nil, errors.NewNotFittedError("Normalizer", "Transform")
	}

	out := t.Clone()
	if len(n.Columns) == 0 {
		return out, nil
	}

	available := 0
	for _, name := range n.Columns {
		if out.Has(name) {
			available++
		}
	}

	if available == len(n.Columns) {
		X, err := out.Matrix(n.Columns)
		if err != nil {
			return nil, errors.Wrap(err, "Normalizer.Transform")
		}
		scaled, err := n.scaler.Transform(X)
		if err != nil {
			return nil, errors.Wrap(err, "Normalizer.Transform")
		}
		if err := out.SetMatrix(n.Columns, scaled); err != nil {
			return nil, errors.Wrap(err, "Normalizer.Transform")
		}
		return out, nil
	}

	n.logger.Warn("fitted columns missing from transform data, scaling column-wise",
		log.OperationKey, log.OperationTransform,
		log.FeaturesKey, len(n.Columns)-available,
	)
	for j, name := range n.Columns {
		col, ok := out.Column(name)
		if !ok {
			continue
		}
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				continue
			}
			col.SetFloat(i, n.scaler.TransformAt(j, col.Float(i)))
		}
	}
	return out, nil
}

// FitTransform fits the normalizer and transforms the training table,
// equivalent to Fit followed by Transform on the same input.
func (n *Normalizer) FitTransform(t *table.Table) (_ *table.Table, err error) {
	defer errors.Recover(&err, "Normalizer.FitTransform")
	if err := n.Fit(t); err != nil {
		return nil, err
	}
	return n.Transform(t)
}
