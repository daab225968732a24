package problemgen

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"
)

// FallbackExplanation marks problems that were computed locally.
const FallbackExplanation = "computed locally"

type operator struct {
	symbol string
	apply  func(a, b int) int
}

var (
	opAdd = operator{"+", func(a, b int) int { return a + b }}
	opSub = operator{"-", func(a, b int) int { return a - b }}
	opMul = operator{"×", func(a, b int) int { return a * b }}
	opDiv = operator{"÷", func(a, b int) int { return a / b }}
)

// operatorsFor widens the operator set as difficulty grows.
func operatorsFor(d int) []operator {
	switch {
	case d <= 2:
		return []operator{opAdd}
	case d <= 4:
		return []operator{opAdd, opSub}
	case d <= 7:
		return []operator{opAdd, opSub, opMul}
	default:
		return []operator{opAdd, opSub, opMul, opDiv}
	}
}

// wrongOffsets are the distractor offsets tried in order; they mimic
// off-by-one and place-value slips.
var wrongOffsets = []int{1, -1, 10, -10, 2, -2, 5, -5, 3, 100}

// Fallback builds a two-operand arithmetic problem scaled to the request's
// target difficulty. It never fails, touches no I/O and returns the same
// problem for the same seed and request.
func Fallback(seed uint64, req Request) *Problem {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	d := clampDifficulty(req.TargetDifficulty)

	ops := operatorsFor(d)
	op := ops[rng.IntN(len(ops))]
	a, b := operands(rng, op, d)
	answer := op.apply(a, b)

	options := append(wrongAnswers(answer), answer)
	rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	p := &Problem{
		Text:          fmt.Sprintf("What is %d %s %d?", a, op.symbol, b),
		Answer:        strconv.Itoa(answer),
		Hints:         fallbackHints(op, a, b),
		Explanation:   FallbackExplanation,
		Difficulty:    d,
		TimeAllowance: time.Duration(20+2*d) * time.Second,
		Topic:         req.TopicCode,
		Source:        SourceFallback,
	}
	for _, o := range options {
		p.Options = append(p.Options, strconv.Itoa(o))
	}
	return p
}

// operands draws both operands with a maximum of 10 × difficulty. The
// left operand is never smaller, so differences stay non-negative, and
// division is always exact.
func operands(rng *rand.Rand, op operator, d int) (int, int) {
	limit := 10 * d
	switch op.symbol {
	case opMul.symbol:
		return 2 + rng.IntN(limit/2), 2 + rng.IntN(d+4)
	case opDiv.symbol:
		b := 2 + rng.IntN(d+2)
		q := 1 + rng.IntN(limit/b)
		return b * q, b
	}
	a, b := 1+rng.IntN(limit), 1+rng.IntN(limit)
	if a < b {
		a, b = b, a
	}
	return a, b
}

func wrongAnswers(answer int) []int {
	wrong := make([]int, 0, 3)
	for _, off := range wrongOffsets {
		w := answer + off
		if w < 0 || w == answer {
			continue
		}
		wrong = append(wrong, w)
		if len(wrong) == 3 {
			break
		}
	}
	return wrong
}

func fallbackHints(op operator, a, b int) []string {
	switch op.symbol {
	case opAdd.symbol:
		return []string{
			"Add the tens first, then the ones.",
			fmt.Sprintf("%d + %d is the same as %d + %d + %d.", a, b, a, b/10*10, b%10),
		}
	case opSub.symbol:
		return []string{
			"Count up from the smaller number to the larger one.",
			fmt.Sprintf("%d - %d is the same as %d - %d - %d.", a, b, a, b/10*10, b%10),
		}
	case opMul.symbol:
		return []string{
			"Split the first number into tens and ones.",
			fmt.Sprintf("%d × %d = %d × %d + %d × %d.", a, b, a/10*10, b, a%10, b),
		}
	default:
		return []string{
			fmt.Sprintf("How many groups of %d make %d?", b, a),
			fmt.Sprintf("Try multiplying %d by numbers near %d.", b, a/b),
		}
	}
}
