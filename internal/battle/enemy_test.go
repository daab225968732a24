package battle

import (
	"testing"

	"github.com/abhisek/mathduel/internal/problemgen"
)

func TestBernoulli_Extremes(t *testing.T) {
	always, never := NewBernoulli(1, 1), NewBernoulli(0, 1)
	p := &problemgen.Problem{Difficulty: 4}
	for range 100 {
		if !always.Decide(p) {
			t.Fatal("p=1 answered wrong")
		}
		if never.Decide(p) {
			t.Fatal("p=0 answered right")
		}
	}
}

func TestScaled_HarderIsMissedMoreOften(t *testing.T) {
	rate := func(d int) float64 {
		s := NewScaled(42)
		hits := 0
		for range 4000 {
			if s.Decide(&problemgen.Problem{Difficulty: d}) {
				hits++
			}
		}
		return float64(hits) / 4000
	}

	easy, hard := rate(1), rate(10)
	if easy < 0.8 || easy > 0.9 {
		t.Errorf("difficulty 1 hit rate = %.3f, want about 0.85", easy)
	}
	if hard < 0.35 || hard > 0.45 {
		t.Errorf("difficulty 10 hit rate = %.3f, want about 0.40", hard)
	}
}

func TestNewStrategy(t *testing.T) {
	if _, ok := NewStrategy("fixed", 0.5, 1).(*Bernoulli); !ok {
		t.Error("fixed should build a Bernoulli strategy")
	}
	if _, ok := NewStrategy("", 0, 1).(*Scaled); !ok {
		t.Error("default should build a Scaled strategy")
	}
}
