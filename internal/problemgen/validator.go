package problemgen

// Validator checks a decoded collaborator problem. Implementations must be
// stateless and safe for concurrent use.
type Validator interface {
	// Name is a short identifier used in logs, e.g. "structural".
	Name() string

	// Validate returns nil if the problem passes.
	Validate(p *Problem, req Request) *ValidationError
}

// DefaultValidators is the standard chain, run in order.
func DefaultValidators() []Validator {
	return []Validator{
		&StructuralValidator{},
		&MathCheckValidator{},
	}
}
