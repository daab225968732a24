package problemgen

import (
	"encoding/json"
	"fmt"
	"strings"
)

const systemPrompt = `You write single problems for an educational card battle game played by school children.

Rules:
- Write exactly one problem for the requested topic_code. The topic code is authoritative; the card name is flavor for the story only and never changes the topic.
- Aim for target_difficulty on a 1 to 10 scale and report the difficulty you actually produced as realized_difficulty.
- Use plain text. Write fractions as a/b. Keep problem_text under 300 characters.
- correct_answer must be correct and in simplest form.
- For multiple choice, give exactly 4 options with exactly one correct; make the wrong options common mistakes. Otherwise leave multiple_choice_options empty.
- Give up to 3 hints, each more revealing than the last, and never state the answer in a hint.
- Keep the explanation short and step by step.
- estimated_time_seconds is how long a player at this level needs.
- Use the player context only to pitch the problem. Recent mistakes are topics to revisit gently.
- Do not repeat any problem from the already used list.`

// buildUserMessage renders the request contract plus the dedup list.
func buildUserMessage(req Request, maxPrior int) (string, error) {
	body, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal generation request: %w", err)
	}

	var b strings.Builder
	b.WriteString("Generation request:\n")
	b.Write(body)
	b.WriteString("\n\nAlready used in this battle:\n")
	b.WriteString(buildDedup(req.PriorProblems, maxPrior))
	return b.String(), nil
}

// buildDedup lists the most recent prior problems, or "None".
func buildDedup(prior []string, limit int) string {
	if len(prior) == 0 {
		return "None"
	}
	if limit > 0 && len(prior) > limit {
		prior = prior[len(prior)-limit:]
	}

	var b strings.Builder
	for i, q := range prior {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}
