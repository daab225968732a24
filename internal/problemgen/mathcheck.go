package problemgen

import (
	"fmt"
	"math/big"
	"regexp"
)

// MathCheckValidator recomputes the answer of a plain two-operand
// arithmetic problem from its text. Problems it cannot read, such as word
// problems or longer expressions, pass through.
type MathCheckValidator struct{}

func (v *MathCheckValidator) Name() string { return "math-check" }

func (v *MathCheckValidator) Validate(p *Problem, _ Request) *ValidationError {
	computed, ok := computeAnswer(p.Text)
	if !ok {
		return nil
	}
	claimed, ok := parseNumber(p.Answer)
	if !ok || computed.Cmp(claimed) != 0 {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("computed %s but collaborator claimed %q", computed.RatString(), p.Answer),
		}
	}
	return nil
}

var (
	// "a/b + c/d" and friends.
	fractionArithRe = regexp.MustCompile(`(-?\d+)\s*/\s*(\d+)\s*([+\-*×÷])\s*(-?\d+)\s*/\s*(\d+)`)

	// Integer or decimal arithmetic. "x" counts as multiplication only
	// between spaces.
	numArithRe = regexp.MustCompile(`(?:^|[^\d/.])(-?\d+(?:\.\d+)?)\s*([+\-*×]|\s[xX]\s)\s*(-?\d+(?:\.\d+)?)(?:[^\d/.]|$)`)

	// Division needs spaces around "/" to tell it from a fraction.
	numDivRe = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s+[/÷]\s+(-?\d+(?:\.\d+)?)|(-?\d+(?:\.\d+)?)\s*÷\s*(-?\d+(?:\.\d+)?)`)

	numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// computeAnswer evaluates the arithmetic expression in text. Text with any
// number beyond the two operands is not computable.
func computeAnswer(text string) (*big.Rat, bool) {
	numbers := len(numberRe.FindAllString(text, -1))

	if m := fractionArithRe.FindAllStringSubmatch(text, -1); len(m) == 1 {
		if numbers != 4 {
			return nil, false
		}
		a, ok1 := ratFromParts(m[0][1], m[0][2])
		b, ok2 := ratFromParts(m[0][4], m[0][5])
		if !ok1 || !ok2 {
			return nil, false
		}
		return applyOp(a, normalizeOp(m[0][3]), b)
	}

	if numbers != 2 {
		return nil, false
	}
	if m := numDivRe.FindStringSubmatch(text); m != nil {
		lhs, rhs := m[1], m[2]
		if lhs == "" {
			lhs, rhs = m[3], m[4]
		}
		return applyNumbers(lhs, "/", rhs)
	}
	if m := numArithRe.FindStringSubmatch(text); m != nil {
		return applyNumbers(m[1], normalizeOp(m[2]), m[3])
	}
	return nil, false
}

func ratFromParts(num, den string) (*big.Rat, bool) {
	return parseNumber(num + "/" + den)
}

func applyNumbers(a, op, b string) (*big.Rat, bool) {
	x, ok1 := parseNumber(a)
	y, ok2 := parseNumber(b)
	if !ok1 || !ok2 {
		return nil, false
	}
	return applyOp(x, op, y)
}

func applyOp(a *big.Rat, op string, b *big.Rat) (*big.Rat, bool) {
	r := new(big.Rat)
	switch op {
	case "+":
		return r.Add(a, b), true
	case "-":
		return r.Sub(a, b), true
	case "*":
		return r.Mul(a, b), true
	case "/":
		if b.Sign() == 0 {
			return nil, false
		}
		return r.Quo(a, b), true
	}
	return nil, false
}

func normalizeOp(op string) string {
	switch op {
	case "×", " x ", " X ":
		return "*"
	case "÷":
		return "/"
	}
	return op
}
