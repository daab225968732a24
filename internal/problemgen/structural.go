package problemgen

import "fmt"

const (
	maxTextLen        = 500
	maxExplanationLen = 1000
	maxHints          = 5
	minOptions        = 2
	maxOptions        = 6
)

// StructuralValidator checks lengths and multiple-choice consistency.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(p *Problem, _ Request) *ValidationError {
	fail := func(format string, args ...any) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf(format, args...)}
	}

	if len(p.Text) > maxTextLen {
		return fail("problem_text exceeds %d characters", maxTextLen)
	}
	if len(p.Explanation) > maxExplanationLen {
		return fail("explanation exceeds %d characters", maxExplanationLen)
	}
	if len(p.Hints) > maxHints {
		return fail("%d hints, at most %d allowed", len(p.Hints), maxHints)
	}

	if len(p.Options) == 0 {
		return nil
	}
	if len(p.Options) < minOptions || len(p.Options) > maxOptions {
		return fail("multiple choice needs %d to %d options, got %d", minOptions, maxOptions, len(p.Options))
	}
	matches := 0
	for _, o := range p.Options {
		if answersEqual(o, p.Answer) {
			matches++
		}
	}
	switch matches {
	case 0:
		return fail("correct_answer %q is not among the options", p.Answer)
	case 1:
		return nil
	default:
		return fail("correct_answer %q matches %d options", p.Answer, matches)
	}
}
