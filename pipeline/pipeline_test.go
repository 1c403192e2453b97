package pipeline_test

import (
	"math"
	"testing"

	"github.com/tabprep/tabprep/core/table"
	"github.com/tabprep/tabprep/pipeline"
	"github.com/tabprep/tabprep/pkg/errors"
	"github.com/tabprep/tabprep/preprocessing"
)

func trainingTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New(
		table.NewString("dept", []string{"eng", "hr", "eng", "hr", "eng", "eng"}, nil),
		table.NewNumeric("hours", []float64{35, 42, 38, 45, 40, 37}, nil),
		table.NewNumeric("label", []float64{0, 1, 0, 1, 0, 0}, nil),
	)
	if err != nil {
		t.Fatalf("table.New failed: %v", err)
	}
	return tbl
}

func encoderConfig() preprocessing.Config {
	cfg := preprocessing.DefaultConfig()
	cfg.RareMinFrequency = 1
	cfg.TargetColumn = "label"
	return cfg
}

func TestPipeline_TransformBeforeFit(t *testing.T) {
	p := pipeline.Make(preprocessing.NewCategoricalEncoder(encoderConfig()))

	_, err := p.Transform(trainingTable(t))
	if err == nil {
		t.Fatal("Transform before Fit should fail")
	}
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFittedError, got %T: %v", err, err)
	}
}

func TestPipeline_FitThenTransform(t *testing.T) {
	p := pipeline.New(
		pipeline.Step{Name: "clean", Stage: preprocessing.NewCleaner(preprocessing.CleanerConfig{
			SkipColumns: []string{"label"},
		})},
		pipeline.Step{Name: "encode", Stage: preprocessing.NewCategoricalEncoder(encoderConfig())},
		pipeline.Step{Name: "normalize", Stage: preprocessing.NewNormalizer(preprocessing.NormalizerConfig{
			ExcludeColumns: []string{"label"},
		})},
	)

	if err := p.Fit(trainingTable(t)); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if !p.IsFitted() {
		t.Fatal("pipeline should report fitted")
	}

	out, err := p.Transform(trainingTable(t))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if out.Has("dept") {
		t.Error("categorical column should be encoded away by the middle step")
	}
	if !out.Has("dept_binary") {
		t.Errorf("expected encoded dept column, have %v", out.Names())
	}
	if !out.Has("label") {
		t.Error("target column must flow through the whole pipeline")
	}
}

func TestPipeline_FitTransformEquivalence(t *testing.T) {
	build := func() *pipeline.Pipeline {
		return pipeline.Make(
			preprocessing.NewCategoricalEncoder(encoderConfig()),
			preprocessing.NewNormalizer(preprocessing.NormalizerConfig{
				ExcludeColumns: []string{"label"},
			}),
		)
	}

	a := build()
	combined, err := a.FitTransform(trainingTable(t))
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	b := build()
	if err := b.Fit(trainingTable(t)); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	separate, err := b.Transform(trainingTable(t))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if len(combined.Names()) != len(separate.Names()) {
		t.Fatalf("column sets differ: %v vs %v", combined.Names(), separate.Names())
	}
	for _, name := range combined.Names() {
		ca, _ := combined.Column(name)
		cb, _ := separate.Column(name)
		if ca.DType() != table.Numeric {
			continue
		}
		for i := 0; i < ca.Len(); i++ {
			if math.Abs(ca.Float(i)-cb.Float(i)) > 1e-10 {
				t.Errorf("%s[%d]: FitTransform %f != Fit+Transform %f", name, i, ca.Float(i), cb.Float(i))
			}
		}
	}
}

func TestPipeline_StepErrorNamesStep(t *testing.T) {
	p := pipeline.New(
		pipeline.Step{Name: "encode", Stage: preprocessing.NewCategoricalEncoder(encoderConfig())},
	)

	empty, err := table.New()
	if err != nil {
		t.Fatalf("table.New failed: %v", err)
	}
	if err := p.Fit(empty); err == nil {
		t.Fatal("fitting on an empty table should fail")
	} else if !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("step error should wrap the cause, got %v", err)
	}
	if p.IsFitted() {
		t.Error("pipeline must stay unfitted after a failed Fit")
	}
}

func TestPipeline_Named(t *testing.T) {
	enc := preprocessing.NewCategoricalEncoder(encoderConfig())
	p := pipeline.New(pipeline.Step{Name: "encode", Stage: enc})

	stage, ok := p.Named("encode")
	if !ok || stage != enc {
		t.Error("Named should return the registered stage")
	}
	if _, ok := p.Named("nope"); ok {
		t.Error("Named should miss for unknown step names")
	}
}
