package explore

import (
	"fmt"

	"github.com/gridlume/electromap/model"
)

// StepPlayer walks a precomputed phased plan, one bounded step index over
// the plan's fixed step count. It only ever reads the plan and the current
// step; parameter state is out of its reach.
type StepPlayer struct {
	plan *model.DynamicPlan
	step int
}

// NewStepPlayer starts playback at step 1.
func NewStepPlayer(plan *model.DynamicPlan) *StepPlayer {
	return &StepPlayer{plan: plan, step: 1}
}

// Step returns the current 1-based step.
func (p *StepPlayer) Step() int { return p.step }

// Current returns the step result for the current step.
func (p *StepPlayer) Current() model.StepResult {
	return p.plan.Step(p.step)
}

// Next advances one step. At the final step it is an explicit no-op and
// returns false.
func (p *StepPlayer) Next() bool {
	if p.step >= model.DynamicSteps {
		return false
	}
	p.step++
	return true
}

// Prev steps back. At step 1 it is an explicit no-op and returns false.
func (p *StepPlayer) Prev() bool {
	if p.step <= 1 {
		return false
	}
	p.step--
	return true
}

// Reset returns playback to step 1.
func (p *StepPlayer) Reset() { p.step = 1 }

// Directives renders the map instructions for the current step: the
// cumulative stage filter (arcs revealed at earlier steps never disappear),
// the per-step cluster coloring key, and a redraw request.
func (p *StepPlayer) Directives() []Directive {
	paintProperty := fmt.Sprintf("type_%d", p.step)
	return []Directive{
		setFilter(LayerNetwork, stageFilter(p.step)),
		setPaint(LayerClusters, "fill-color", clusterTypePaint(paintProperty)),
		redraw(),
	}
}
