package profile

import "github.com/abhisek/mathduel/internal/card"

// Context is the sanitized snapshot of a profile that may leave the process.
// It carries no identifiers.
type Context struct {
	Level           int          `json:"level"`
	Accuracy        float64      `json:"accuracy"`
	RecentMistakes  []card.Topic `json:"recent_mistakes"`
	RecentStrengths []card.Topic `json:"recent_strengths"`
}

// Snapshot returns the sanitized context for a generation request.
func (p *Profile) Snapshot() Context {
	ctx := Context{
		Level:           p.Level,
		Accuracy:        p.Accuracy,
		RecentMistakes:  append([]card.Topic{}, p.RecentMistakes...),
		RecentStrengths: append([]card.Topic{}, p.RecentStrengths...),
	}
	return ctx
}
