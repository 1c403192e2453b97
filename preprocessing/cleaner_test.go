package preprocessing_test

import (
	"math"
	"testing"
	"time"

	"github.com/tabprep/tabprep/core/table"
	"github.com/tabprep/tabprep/pkg/errors"
	"github.com/tabprep/tabprep/preprocessing"
)

func TestCleaner_TransformBeforeFit(t *testing.T) {
	c := preprocessing.NewCleaner(preprocessing.CleanerConfig{})
	data := mustTable(t, table.NewNumeric("x", []float64{1, 2}, nil))

	_, err := c.Transform(data)
	if err == nil {
		t.Fatal("Transform before Fit should fail")
	}
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFittedError, got %T", err)
	}
}

func TestCleaner_MedianFill(t *testing.T) {
	c := preprocessing.NewCleaner(preprocessing.CleanerConfig{})

	// [1, 2, 3, 4, 5] with one null: median of non-null values is 3.
	train := mustTable(t, table.NewNumeric("hours",
		[]float64{1, 2, 3, 4, 5, 0},
		[]bool{false, false, false, false, false, true},
	))
	out, err := c.FitTransform(train)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	col := floatCol(t, out, "hours")
	if col.IsNull(5) {
		t.Fatal("null should be filled after transform")
	}
	if math.Abs(col.Float(5)-3.0) > epsilon {
		t.Errorf("filled value: expected median 3, got %f", col.Float(5))
	}

	rule, ok := c.Rules["hours"]
	if !ok || rule.Method != preprocessing.FillMedian {
		t.Errorf("expected a learned median rule, got %+v", rule)
	}
}

func TestCleaner_ModeFill(t *testing.T) {
	c := preprocessing.NewCleaner(preprocessing.CleanerConfig{})

	train := mustTable(t, table.NewString("dept",
		[]string{"eng", "eng", "hr", ""},
		[]bool{false, false, false, true},
	))
	out, err := c.FitTransform(train)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	col := floatCol(t, out, "dept")
	if col.Str(3) != "eng" {
		t.Errorf("filled value: expected mode eng, got %q", col.Str(3))
	}
}

func TestCleaner_TimeFill(t *testing.T) {
	c := preprocessing.NewCleaner(preprocessing.CleanerConfig{})

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	train := mustTable(t, table.NewTime("joined",
		[]time.Time{base, {}},
		[]bool{false, true},
	))
	out, err := c.FitTransform(train)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	col := floatCol(t, out, "joined")
	want := time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !col.TimeAt(1).Equal(want) {
		t.Errorf("filled timestamp: expected %v, got %v", want, col.TimeAt(1))
	}
}

func TestCleaner_OverrideTakesPrecedence(t *testing.T) {
	c := preprocessing.NewCleaner(preprocessing.CleanerConfig{
		Overrides: map[string]preprocessing.FillRule{
			"hours": {Method: preprocessing.FillZero},
		},
	})

	train := mustTable(t, table.NewNumeric("hours",
		[]float64{10, 20, 0},
		[]bool{false, false, true},
	))
	out, err := c.FitTransform(train)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	if v := floatCol(t, out, "hours").Float(2); v != 0 {
		t.Errorf("override fill: expected 0, got %f", v)
	}
}

func TestCleaner_OutlierCapping(t *testing.T) {
	c := preprocessing.NewCleaner(preprocessing.CleanerConfig{})

	// [1..5]: Q1=2, Q3=4, IQR=2, bounds [-1, 7]. The training outlier 100
	// is capped at fit-transform time too.
	train := mustTable(t, table.NewNumeric("x", []float64{1, 2, 3, 4, 5}, nil))
	if err := c.Fit(train); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	bounds, ok := c.Bounds["x"]
	if !ok {
		t.Fatal("expected fitted outlier bounds for x")
	}
	if math.Abs(bounds.Lower-(-1)) > epsilon || math.Abs(bounds.Upper-7) > epsilon {
		t.Errorf("bounds: expected [-1, 7], got [%f, %f]", bounds.Lower, bounds.Upper)
	}

	test := mustTable(t, table.NewNumeric("x", []float64{-50, 3, 100}, nil))
	out, err := c.Transform(test)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	col := floatCol(t, out, "x")
	if col.Float(0) != -1 {
		t.Errorf("low outlier: expected cap at -1, got %f", col.Float(0))
	}
	if col.Float(1) != 3 {
		t.Errorf("in-range value must pass through, got %f", col.Float(1))
	}
	if col.Float(2) != 7 {
		t.Errorf("high outlier: expected cap at 7, got %f", col.Float(2))
	}
}

func TestCleaner_OutlierRemove(t *testing.T) {
	c := preprocessing.NewCleaner(preprocessing.CleanerConfig{
		OutlierMethod: preprocessing.OutlierRemove,
	})

	train := mustTable(t, table.NewNumeric("x", []float64{1, 2, 3, 4, 5}, nil))
	if err := c.Fit(train); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	test := mustTable(t, table.NewNumeric("x", []float64{3, 100}, nil))
	out, err := c.Transform(test)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	col := floatCol(t, out, "x")
	if col.IsNull(0) {
		t.Error("in-range value must stay")
	}
	if !col.IsNull(1) {
		t.Error("out-of-range value should be nulled, not dropped")
	}
}

func TestCleaner_SkipColumns(t *testing.T) {
	c := preprocessing.NewCleaner(preprocessing.CleanerConfig{
		SkipColumns: []string{"user_id"},
	})

	train := mustTable(t,
		table.NewNumeric("user_id", []float64{1, 2, 1000}, nil),
		table.NewNumeric("x", []float64{1, 2, 3}, nil),
	)
	if err := c.Fit(train); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if _, ok := c.Bounds["user_id"]; ok {
		t.Error("skipped column must not get outlier bounds")
	}
	if _, ok := c.Bounds["x"]; !ok {
		t.Error("regular numeric column should get outlier bounds")
	}
}

func TestCleaner_TransformDoesNotMutateInput(t *testing.T) {
	c := preprocessing.NewCleaner(preprocessing.CleanerConfig{})

	train := mustTable(t, table.NewNumeric("x",
		[]float64{1, 2, 3, 4, 0},
		[]bool{false, false, false, false, true},
	))
	if _, err := c.FitTransform(train); err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	col := floatCol(t, train, "x")
	if !col.IsNull(4) {
		t.Error("transform must operate on a copy, not mutate its input")
	}
}
