package problemgen

import "github.com/abhisek/mathduel/internal/llm"

// ProblemSchema is the structured output requested from the collaborator
// and the shape Decode accepts. Only the text and answer are required.
var ProblemSchema = &llm.Schema{
	Name:        "battle-problem",
	Description: "A single math or logic problem for a card battle",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"problem_text": map[string]any{
				"type":        "string",
				"description": "The problem shown to the player, plain text",
			},
			"correct_answer": map[string]any{
				"type":        "string",
				"description": "The canonical answer. For multiple choice, the text of the correct option.",
			},
			"multiple_choice_options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Four options including the correct answer, or an empty array for free response",
			},
			"hints": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Progressively more revealing hints",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Short worked solution",
			},
			"realized_difficulty": map[string]any{
				"type":        "integer",
				"description": "Difficulty the problem actually has, 1 to 10",
			},
			"estimated_time_seconds": map[string]any{
				"type":        "integer",
				"description": "Seconds a player at the target level needs",
			},
		},
		"required": []any{"problem_text", "correct_answer"},
	},
}
