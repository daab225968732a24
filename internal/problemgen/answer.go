package problemgen

import (
	"math/big"
	"strconv"
	"strings"
)

// CheckAnswer compares a submitted answer against the problem's answer.
//
// Normalization rules:
//   - whitespace is trimmed and comparison is case-insensitive
//   - numbers compare by value, so "2/4", "0.5" and "1/2" are equal and
//     "007" matches "7"
//   - for multiple choice, an option may be picked by its 1-based index
//     unless the submission is itself the text of an option
func CheckAnswer(submitted string, p *Problem) bool {
	submitted = normalizeText(submitted)
	if submitted == "" {
		return false
	}
	if len(p.Options) > 0 {
		submitted = resolveOption(submitted, p.Options)
	}
	return answersEqual(submitted, p.Answer)
}

// WellFormed reports whether a submission can be judged at all. Free
// response problems with a numeric answer require a numeric submission.
func WellFormed(submitted string, p *Problem) bool {
	submitted = normalizeText(submitted)
	if submitted == "" {
		return false
	}
	if len(p.Options) > 0 {
		return true
	}
	if _, ok := parseNumber(p.Answer); ok {
		_, ok := parseNumber(submitted)
		return ok
	}
	return true
}

func resolveOption(submitted string, options []string) string {
	for _, o := range options {
		if normalizeText(o) == submitted {
			return submitted
		}
	}
	if idx, err := strconv.Atoi(submitted); err == nil && idx >= 1 && idx <= len(options) {
		return normalizeText(options[idx-1])
	}
	return submitted
}

func answersEqual(a, b string) bool {
	ra, okA := parseNumber(a)
	rb, okB := parseNumber(b)
	if okA && okB {
		return ra.Cmp(rb) == 0
	}
	return normalizeText(a) == normalizeText(b)
}

// parseNumber accepts integers, decimals and fractions, with optional
// thousands separators.
func parseNumber(s string) (*big.Rat, bool) {
	s = strings.ReplaceAll(normalizeText(s), ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return nil, false
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		if num == "" || den == "" || strings.HasPrefix(den, "-") {
			return nil, false
		}
		// A leading zero would select octal.
		s = decimalDigits(num) + "/" + decimalDigits(den)
	}
	r, ok := new(big.Rat).SetString(s)
	return r, ok
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func decimalDigits(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if t := strings.TrimLeft(s, "0"); t != "" {
		s = t
	} else if s != "" {
		s = "0"
	}
	return sign + s
}
