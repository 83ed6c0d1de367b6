package chain

import (
	"context"
	"fmt"

	"docenhance/internal/opencv/safe"
	"docenhance/internal/processing/filters"
)

// ProcessingChain applies filters in order, each consuming the previous
// output. Intermediate Mats are released as soon as the next step is done.
type ProcessingChain struct {
	steps []filters.Filter
}

func NewProcessingChain(steps []filters.Filter) *ProcessingChain {
	return &ProcessingChain{
		steps: steps,
	}
}

// NewPreprocessChain converts to grayscale and then applies technique. An
// empty technique yields a grayscale-only chain.
func NewPreprocessChain(technique filters.Technique, params filters.Params) (*ProcessingChain, error) {
	steps := []filters.Filter{filters.NewGrayscaleConverter()}
	if technique == "" {
		return NewProcessingChain(steps), nil
	}

	f, err := filters.New(technique, params)
	if err != nil {
		return nil, err
	}
	return NewProcessingChain(append(steps, f)), nil
}

// Execute runs every step on input. input is never closed; the returned Mat
// is always a new Mat owned by the caller.
func (pc *ProcessingChain) Execute(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	if len(pc.steps) == 0 {
		return input.Clone()
	}

	current := input

	for _, step := range pc.steps {
		select {
		case <-ctx.Done():
			if current != input {
				current.Close()
			}
			return nil, ctx.Err()
		default:
		}

		result, err := step.Apply(ctx, current)
		if current != input {
			current.Close()
		}
		if err != nil {
			return nil, fmt.Errorf("step %s failed: %w", step.Name(), err)
		}

		current = result
	}

	return current, nil
}

func (pc *ProcessingChain) AddStep(step filters.Filter) {
	pc.steps = append(pc.steps, step)
}

func (pc *ProcessingChain) StepCount() int {
	return len(pc.steps)
}

func (pc *ProcessingChain) GetStepNames() []string {
	names := make([]string, len(pc.steps))
	for i, step := range pc.steps {
		names[i] = step.Name()
	}
	return names
}
