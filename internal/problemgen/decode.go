package problemgen

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/abhisek/mathduel/internal/card"
	"github.com/abhisek/mathduel/internal/llm"
)

const (
	// DefaultExplanation is used when the collaborator sends none.
	DefaultExplanation = "No explanation provided."

	// DefaultTimeAllowance applies when no usable estimate is sent.
	DefaultTimeAllowance = 30 * time.Second

	maxTimeAllowance = 5 * time.Minute
)

type wireProblem struct {
	ProblemText          string   `json:"problem_text"`
	CorrectAnswer        string   `json:"correct_answer"`
	Options              []string `json:"multiple_choice_options"`
	Hints                []string `json:"hints"`
	Explanation          string   `json:"explanation"`
	RealizedDifficulty   *int     `json:"realized_difficulty"`
	EstimatedTimeSeconds *int     `json:"estimated_time_seconds"`
}

// Decode is the single place collaborator output is interpreted. It needs a
// non-empty problem text and answer; every other field falls back to a
// default. The realized difficulty defaults to target and is clamped to
// [1, 10].
func Decode(raw json.RawMessage, target int) (*Problem, error) {
	if err := llm.ValidateJSON(ProblemSchema, raw); err != nil {
		return nil, &ParseError{Reason: "payload does not match schema", Err: err}
	}

	var w wireProblem
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, &ParseError{Reason: "invalid JSON", Err: err}
	}

	p := &Problem{
		Text:        strings.TrimSpace(w.ProblemText),
		Answer:      strings.TrimSpace(w.CorrectAnswer),
		Options:     cleanList(w.Options, true),
		Hints:       cleanList(w.Hints, false),
		Explanation: strings.TrimSpace(w.Explanation),
		Difficulty:  target,
		Source:      SourceCollaborator,
	}
	if p.Text == "" {
		return nil, &ParseError{Field: "problem_text", Reason: "empty"}
	}
	if p.Answer == "" {
		return nil, &ParseError{Field: "correct_answer", Reason: "empty"}
	}
	if p.Explanation == "" {
		p.Explanation = DefaultExplanation
	}
	if w.RealizedDifficulty != nil {
		p.Difficulty = *w.RealizedDifficulty
	}
	p.Difficulty = clampDifficulty(p.Difficulty)

	p.TimeAllowance = DefaultTimeAllowance
	if w.EstimatedTimeSeconds != nil && *w.EstimatedTimeSeconds > 0 {
		p.TimeAllowance = min(time.Duration(*w.EstimatedTimeSeconds)*time.Second, maxTimeAllowance)
	}
	return p, nil
}

// cleanList trims entries and drops empty ones, optionally dropping
// case-insensitive duplicates too.
func cleanList(in []string, dedup bool) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if dedup && seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func clampDifficulty(d int) int {
	return max(card.MinDifficulty, min(card.MaxDifficulty, d))
}
