package preprocessing_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/tabprep/tabprep/pkg/errors"
	"github.com/tabprep/tabprep/preprocessing"
)

func TestStandardScaler_BasicFunctionality(t *testing.T) {
	// Feature 1: [1, 2, 3] -> mean=2, std=0.816
	// Feature 2: [4, 5, 6] -> mean=5, std=0.816
	X := mat.NewDense(3, 2, []float64{
		1.0, 4.0,
		2.0, 5.0,
		3.0, 6.0,
	})

	scaler := preprocessing.NewStandardScalerDefault()
	if err := scaler.Fit(X); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	expectedMean := []float64{2.0, 5.0}
	expectedStd := []float64{0.816496580927726, 0.816496580927726}
	for i := range expectedMean {
		if math.Abs(scaler.Mean[i]-expectedMean[i]) > epsilon {
			t.Errorf("Mean[%d]: expected %f, got %f", i, expectedMean[i], scaler.Mean[i])
		}
		if math.Abs(scaler.Scale[i]-expectedStd[i]) > epsilon {
			t.Errorf("Scale[%d]: expected %f, got %f", i, expectedStd[i], scaler.Scale[i])
		}
	}

	XScaled, err := scaler.Transform(X)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	// Each scaled feature has mean 0; check the middle row is exactly 0.
	for j := 0; j < 2; j++ {
		if v := XScaled.At(1, j); math.Abs(v) > epsilon {
			t.Errorf("scaled[1][%d]: expected 0, got %f", j, v)
		}
	}
}

func TestStandardScaler_NotFitted(t *testing.T) {
	scaler := preprocessing.NewStandardScalerDefault()
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	_, err := scaler.Transform(X)
	if err == nil {
		t.Fatal("Transform before Fit should fail")
	}
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFittedError, got %T", err)
	}
}

func TestStandardScaler_DimensionMismatch(t *testing.T) {
	scaler := preprocessing.NewStandardScalerDefault()
	if err := scaler.Fit(mat.NewDense(2, 3, nil)); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	_, err := scaler.Transform(mat.NewDense(2, 2, nil))
	if err == nil {
		t.Fatal("Transform with wrong feature count should fail")
	}
	var dim *errors.DimensionError
	if !errors.As(err, &dim) {
		t.Errorf("expected DimensionError, got %T", err)
	}
}

func TestStandardScaler_ConstantFeature(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{5, 5, 5})

	scaler := preprocessing.NewStandardScalerDefault()
	XScaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	// Constant feature: scale falls back to 1, output is all zeros.
	if scaler.Scale[0] != 1.0 {
		t.Errorf("constant feature scale: expected 1, got %f", scaler.Scale[0])
	}
	for i := 0; i < 3; i++ {
		if v := XScaled.At(i, 0); v != 0 {
			t.Errorf("scaled[%d][0]: expected 0, got %f", i, v)
		}
	}
}

func TestStandardScaler_InverseRoundTrip(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1.0, 10.0,
		2.0, 20.0,
		3.0, 30.0,
		4.0, 40.0,
	})

	scaler := preprocessing.NewStandardScalerDefault()
	XScaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	XBack, err := scaler.InverseTransform(XScaled)
	if err != nil {
		t.Fatalf("InverseTransform failed: %v", err)
	}

	for i := 0; i < 4; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(XBack.At(i, j)-X.At(i, j)) > 1e-9 {
				t.Errorf("round trip [%d][%d]: expected %f, got %f", i, j, X.At(i, j), XBack.At(i, j))
			}
		}
	}
}

func TestMinMaxScaler_BasicFunctionality(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1.0, 10.0,
		2.0, 20.0,
		3.0, 30.0,
	})

	scaler := preprocessing.NewMinMaxScalerDefault()
	XScaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	expected := [][]float64{
		{0.0, 0.0},
		{0.5, 0.5},
		{1.0, 1.0},
	}
	for i := range expected {
		for j := range expected[i] {
			if math.Abs(XScaled.At(i, j)-expected[i][j]) > epsilon {
				t.Errorf("scaled[%d][%d]: expected %f, got %f", i, j, expected[i][j], XScaled.At(i, j))
			}
		}
	}
}

func TestMinMaxScaler_CustomRange(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{0, 5, 10})

	scaler := preprocessing.NewMinMaxScaler([2]float64{-1, 1})
	XScaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	expected := []float64{-1, 0, 1}
	for i, want := range expected {
		if math.Abs(XScaled.At(i, 0)-want) > epsilon {
			t.Errorf("scaled[%d]: expected %f, got %f", i, want, XScaled.At(i, 0))
		}
	}
}

func TestMinMaxScaler_TransformClampsNothing(t *testing.T) {
	scaler := preprocessing.NewMinMaxScalerDefault()
	if err := scaler.Fit(mat.NewDense(2, 1, []float64{0, 10})); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// Values outside the fitted range extrapolate past [0, 1].
	out, err := scaler.Transform(mat.NewDense(1, 1, []float64{20}))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if v := out.At(0, 0); math.Abs(v-2.0) > epsilon {
		t.Errorf("out-of-range value: expected 2.0, got %f", v)
	}
}

func TestRobustScaler_BasicFunctionality(t *testing.T) {
	// Single feature [1..5]: median 3, Q1 2, Q3 4, IQR 2.
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})

	scaler := preprocessing.NewRobustScaler()
	XScaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	if math.Abs(scaler.Center[0]-3.0) > epsilon {
		t.Errorf("Center: expected 3, got %f", scaler.Center[0])
	}
	if math.Abs(scaler.Scale[0]-2.0) > epsilon {
		t.Errorf("Scale: expected 2, got %f", scaler.Scale[0])
	}
	if v := XScaled.At(4, 0); math.Abs(v-1.0) > epsilon {
		t.Errorf("scaled[4]: expected 1, got %f", v)
	}
}

func TestRobustScaler_IgnoresOutliers(t *testing.T) {
	// One extreme outlier must not move the center or the scale.
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 1000})

	scaler := preprocessing.NewRobustScaler()
	if err := scaler.Fit(X); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if math.Abs(scaler.Center[0]-3.0) > epsilon {
		t.Errorf("Center with outlier: expected 3, got %f", scaler.Center[0])
	}
	if math.Abs(scaler.Scale[0]-2.0) > epsilon {
		t.Errorf("Scale with outlier: expected 2, got %f", scaler.Scale[0])
	}
}

func TestRobustScaler_ConstantFeature(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{7, 7, 7})

	scaler := preprocessing.NewRobustScaler()
	out, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if v := out.At(i, 0); v != 0 {
			t.Errorf("constant feature scaled[%d]: expected 0, got %f", i, v)
		}
	}
}
