// Package pipeline chains preprocessing stages behind a single
// fit/transform surface.
//
// A Pipeline fits its stages in order, feeding each stage the output of the
// previous one, and replays the fitted stages in the same order at
// transform time. The pipeline itself honors the same contract as its
// stages: transform before fit fails fast, and FitTransform is equivalent
// to Fit followed by Transform.
package pipeline

import (
	"strconv"
	"time"

	"github.com/tabprep/tabprep/core/model"
	"github.com/tabprep/tabprep/core/table"
	"github.com/tabprep/tabprep/pkg/errors"
	"github.com/tabprep/tabprep/pkg/log"
)

// Step is a named pipeline stage.
type Step struct {
	Name  string
	Stage model.Stage
}

// Pipeline runs an ordered list of stages.
type Pipeline struct {
	state  *model.StateManager
	logger log.Logger

	steps []Step
}

// New creates a pipeline from the given steps.
func New(steps ...Step) *Pipeline {
	return &Pipeline{
		state:  model.NewStateManager(),
		steps:  steps,
		logger: log.GetLoggerWithName("pipeline"),
	}
}

// Make creates a pipeline with generated step names.
func Make(stages ...model.Stage) *Pipeline {
	steps := make([]Step, len(stages))
	for i, stage := range stages {
		steps[i] = Step{Name: stepName(i), Stage: stage}
	}
	return New(steps...)
}

func stepName(i int) string {
	return "step" + strconv.Itoa(i+1)
}

// Steps returns the pipeline's steps.
func (p *Pipeline) Steps() []Step {
	return p.steps
}

// Named returns the stage with the given step name.
func (p *Pipeline) Named(name string) (model.Stage, bool) {
	for _, step := range p.steps {
		if step.Name == name {
			return step.Stage, true
		}
	}
	return nil, false
}

// IsFitted reports whether every stage has been fitted.
func (p *Pipeline) IsFitted() bool {
	return p.state.IsFitted()
}

// Fit fits every stage in order, transforming the training table through
// each fitted stage before fitting the next.
func (p *Pipeline) Fit(t *table.Table) (err error) {
	defer errors.Recover(&err, "Pipeline.Fit")
	_, err = p.fitStages(t)
	return err
}

func (p *Pipeline) fitStages(t *table.Table) (*table.Table, error) {
	started := time.Now()
	current := t

	for _, step := range p.steps {
		transformed, err := step.Stage.FitTransform(current)
		if err != nil {
			return nil, errors.Wrapf(err, "pipeline step %q", step.Name)
		}
		current = transformed

		p.logger.Debug("pipeline step fitted",
			log.StageNameKey, step.Name,
			log.OperationKey, log.OperationFitTransform,
			log.FeaturesKey, current.NumCols(),
		)
	}

	p.state.SetFitted()

	p.logger.Info("pipeline fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, t.NumRows(),
		log.DurationMsKey, time.Since(started).Milliseconds(),
	)
	return current, nil
}

// Transform replays every fitted stage in order.
func (p *Pipeline) Transform(t *table.Table) (_ *table.Table, err error) {
	defer errors.Recover(&err, "Pipeline.Transform")
	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Transform")
	}

	current := t
	for _, step := range p.steps {
		transformed, err := step.Stage.Transform(current)
		if err != nil {
			return nil, errors.Wrapf(err, "pipeline step %q", step.Name)
		}
		current = transformed
	}
	return current, nil
}

// FitTransform fits the pipeline and returns the transformed training
// table. The training table flows through each stage exactly once, which
// is equivalent to Fit followed by Transform because every stage's
// FitTransform carries that same guarantee.
func (p *Pipeline) FitTransform(t *table.Table) (_ *table.Table, err error) {
	defer errors.Recover(&err, "Pipeline.FitTransform")
	return p.fitStages(t)
}
