package preprocessing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/tabprep/tabprep/core/model"
	"github.com/tabprep/tabprep/pkg/errors"
)

// MatrixScaler is the feature-scaling contract the Normalizer drives. All
// scalers learn per-feature statistics at fit time and replay them on any
// matrix with the same feature count.
type MatrixScaler interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)

	// TransformAt scales a single value of feature j using the fitted
	// statistics. Used when transform data is missing some fitted columns
	// and the full-matrix path cannot apply.
	TransformAt(j int, v float64) float64

	// NumFeatures returns the fitted feature count.
	NumFeatures() int
}

// StandardScaler standardizes features by removing the mean and scaling to
// unit variance: X_scaled = (X - mean) / scale.
type StandardScaler struct {
	state *model.StateManager

	// Mean is the fitted per-feature mean. Public for gob encoding.
	Mean []float64

	// Scale is the fitted per-feature standard deviation.
	Scale []float64

	// NFeatures is the fitted feature count.
	NFeatures int

	// WithMean controls whether the mean is removed (default true).
	WithMean bool

	// WithStd controls whether values are divided by the standard
	// deviation (default true).
	WithStd bool
}

// NewStandardScaler creates a StandardScaler.
//
// Parameters:
//   - withMean: center the data at zero by removing the mean
//   - withStd: scale to unit variance by dividing by the standard deviation
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault creates a StandardScaler with both centering and
// scaling enabled.
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// IsFitted reports whether Fit has completed.
func (s *StandardScaler) IsFitted() bool { return s.state.IsFitted() }

// NumFeatures returns the fitted feature count.
func (s *StandardScaler) NumFeatures() int { return s.NFeatures }

// Fit computes the per-feature mean and standard deviation from X.
func (s *StandardScaler) Fit(X mat.Matrix) (err error) {
	defer errors.Recover(&err, "StandardScaler.Fit")
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		if s.WithMean {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			s.Mean[j] = sum / float64(r)
		}

		if s.WithStd {
			sumSquares := 0.0
			for i := 0; i < r; i++ {
				diff := X.At(i, j) - s.Mean[j]
				sumSquares += diff * diff
			}
			s.Scale[j] = math.Sqrt(sumSquares / float64(r))
			// Constant features scale by 1 to avoid division by zero.
			if math.Abs(s.Scale[j]) < 1e-8 {
				s.Scale[j] = 1.0
			}
		} else {
			s.Scale[j] = 1.0
		}
	}

	s.state.SetFitted()
	return nil
}

// Transform standardizes X using the fitted statistics.
func (s *StandardScaler) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "StandardScaler.Transform")
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, s.TransformAt(j, X.At(i, j)))
		}
	}
	return result, nil
}

// TransformAt standardizes a single value of feature j.
func (s *StandardScaler) TransformAt(j int, v float64) float64 {
	return (v - s.Mean[j]) / s.Scale[j]
}

// FitTransform fits the scaler and transforms X in one step.
func (s *StandardScaler) FitTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "StandardScaler.FitTransform")
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized data back to the original scale.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "StandardScaler.InverseTransform")
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j)*s.Scale[j]+s.Mean[j])
		}
	}
	return result, nil
}

// MinMaxScaler scales each feature to a target range, by default [0, 1]:
// X_scaled = (X - data_min) / (data_max - data_min) * (max - min) + min.
type MinMaxScaler struct {
	state *model.StateManager

	// DataMin and DataMax are the fitted per-feature extrema.
	DataMin []float64
	DataMax []float64

	// Scale is the fitted per-feature range (data_max - data_min).
	Scale []float64

	// NFeatures is the fitted feature count.
	NFeatures int

	// FeatureRange is the target range [min, max].
	FeatureRange [2]float64
}

// NewMinMaxScaler creates a MinMaxScaler scaling into featureRange.
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		state:        model.NewStateManager(),
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault creates a MinMaxScaler scaling into [0, 1].
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// IsFitted reports whether Fit has completed.
func (m *MinMaxScaler) IsFitted() bool { return m.state.IsFitted() }

// NumFeatures returns the fitted feature count.
func (m *MinMaxScaler) NumFeatures() int { return m.NFeatures }

// Fit computes the per-feature minimum and maximum from X.
func (m *MinMaxScaler) Fit(X mat.Matrix) (err error) {
	defer errors.Recover(&err, "MinMaxScaler.Fit")
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	m.NFeatures = c
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		lo, hi := X.At(0, j), X.At(0, j)
		for i := 1; i < r; i++ {
			val := X.At(i, j)
			if val < lo {
				lo = val
			}
			if val > hi {
				hi = val
			}
		}
		m.DataMin[j] = lo
		m.DataMax[j] = hi

		dataRange := hi - lo
		if math.Abs(dataRange) < 1e-8 {
			// Constant feature.
			m.Scale[j] = 1.0
		} else {
			m.Scale[j] = dataRange
		}
	}

	m.state.SetFitted()
	return nil
}

// Transform scales X into the fitted feature range.
func (m *MinMaxScaler) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "MinMaxScaler.Transform")
	if !m.state.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "Transform")
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.Transform", m.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, m.TransformAt(j, X.At(i, j)))
		}
	}
	return result, nil
}

// TransformAt scales a single value of feature j into the target range.
func (m *MinMaxScaler) TransformAt(j int, v float64) float64 {
	span := m.FeatureRange[1] - m.FeatureRange[0]
	return (v-m.DataMin[j])/m.Scale[j]*span + m.FeatureRange[0]
}

// FitTransform fits the scaler and transforms X in one step.
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "MinMaxScaler.FitTransform")
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform maps scaled data back to the original range.
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "MinMaxScaler.InverseTransform")
	if !m.state.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.InverseTransform", m.NFeatures, c, 1)
	}

	span := m.FeatureRange[1] - m.FeatureRange[0]
	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-m.FeatureRange[0])/span*m.Scale[j]+m.DataMin[j])
		}
	}
	return result, nil
}

// RobustScaler scales features using statistics that are robust to
// outliers: X_scaled = (X - median) / IQR, with IQR = Q3 - Q1.
type RobustScaler struct {
	state *model.StateManager

	// Center is the fitted per-feature median.
	Center []float64

	// Scale is the fitted per-feature interquartile range.
	Scale []float64

	// NFeatures is the fitted feature count.
	NFeatures int
}

// NewRobustScaler creates a RobustScaler.
func NewRobustScaler() *RobustScaler {
	return &RobustScaler{state: model.NewStateManager()}
}

// IsFitted reports whether Fit has completed.
func (rs *RobustScaler) IsFitted() bool { return rs.state.IsFitted() }

// NumFeatures returns the fitted feature count.
func (rs *RobustScaler) NumFeatures() int { return rs.NFeatures }

// Fit computes the per-feature median and interquartile range from X.
func (rs *RobustScaler) Fit(X mat.Matrix) (err error) {
	defer errors.Recover(&err, "RobustScaler.Fit")
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("RobustScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	rs.NFeatures = c
	rs.Center = make([]float64, c)
	rs.Scale = make([]float64, c)

	column := make([]float64, r)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			column[i] = X.At(i, j)
		}
		sort.Float64s(column)

		rs.Center[j] = stat.Quantile(0.5, stat.Empirical, column, nil)
		q1 := stat.Quantile(0.25, stat.Empirical, column, nil)
		q3 := stat.Quantile(0.75, stat.Empirical, column, nil)

		iqr := q3 - q1
		if math.Abs(iqr) < 1e-8 {
			iqr = 1.0
		}
		rs.Scale[j] = iqr
	}

	rs.state.SetFitted()
	return nil
}

// Transform scales X using the fitted median and IQR.
func (rs *RobustScaler) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "RobustScaler.Transform")
	if !rs.state.IsFitted() {
		return nil, errors.NewNotFittedError("RobustScaler", "Transform")
	}

	r, c := X.Dims()
	if c != rs.NFeatures {
		return nil, errors.NewDimensionError("RobustScaler.Transform", rs.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, rs.TransformAt(j, X.At(i, j)))
		}
	}
	return result, nil
}

// TransformAt scales a single value of feature j.
func (rs *RobustScaler) TransformAt(j int, v float64) float64 {
	return (v - rs.Center[j]) / rs.Scale[j]
}

// FitTransform fits the scaler and transforms X in one step.
func (rs *RobustScaler) FitTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "RobustScaler.FitTransform")
	if err := rs.Fit(X); err != nil {
		return nil, err
	}
	return rs.Transform(X)
}
