package profile

import (
	"slices"

	"github.com/abhisek/mathduel/internal/card"
)

const (
	// DefaultWindow is the number of recent outcomes the rolling stats cover.
	DefaultWindow = 10

	// MaxRecentTopics caps the recent mistake and strength lists.
	MaxRecentTopics = 3

	// DefaultLevel is the skill level of a player with no history.
	DefaultLevel = 3

	// NeutralAccuracy is the accuracy of a player with no history. It sits
	// in the band that leaves the adapted difficulty unchanged.
	NeutralAccuracy = 0.85
)

// Outcome is one resolved problem.
type Outcome struct {
	Topic      card.Topic `json:"topic"`
	Correct    bool       `json:"correct"`
	ResponseMs int64      `json:"response_ms"`
}

// Profile summarizes a player's recent performance. It is owned by a single
// battle and is not safe for concurrent use.
type Profile struct {
	Level           int
	Accuracy        float64
	AvgResponseMs   float64
	RecentMistakes  []card.Topic
	RecentStrengths []card.Topic
	Attempted       int

	window  []Outcome
	maxSize int
}

// New returns an empty profile at the given skill level.
func New(level int) *Profile {
	if level < 1 {
		level = DefaultLevel
	}
	return &Profile{Level: level, Accuracy: NeutralAccuracy, maxSize: DefaultWindow}
}

// FromHistory seeds a profile from stored outcomes, oldest first.
// Attempted counts problems in the current session, so seeding leaves it at 0.
func FromHistory(level int, history []Outcome) *Profile {
	p := New(level)
	for _, o := range history {
		p.push(o)
	}
	return p
}

// Record folds a resolved problem into the profile.
func (p *Profile) Record(o Outcome) {
	p.push(o)
	p.Attempted++
}

func (p *Profile) push(o Outcome) {
	if p.maxSize <= 0 {
		p.maxSize = DefaultWindow
	}
	if o.ResponseMs < 0 {
		o.ResponseMs = 0
	}
	p.window = append(p.window, o)
	if len(p.window) > p.maxSize {
		p.window = p.window[len(p.window)-p.maxSize:]
	}

	if o.Topic != "" {
		if o.Correct {
			p.RecentStrengths = pushRecent(p.RecentStrengths, o.Topic)
			p.RecentMistakes = remove(p.RecentMistakes, o.Topic)
		} else {
			p.RecentMistakes = pushRecent(p.RecentMistakes, o.Topic)
			p.RecentStrengths = remove(p.RecentStrengths, o.Topic)
		}
	}
	p.recompute()
}

func (p *Profile) recompute() {
	if len(p.window) == 0 {
		p.Accuracy = NeutralAccuracy
		p.AvgResponseMs = 0
		return
	}
	var correct int
	var total int64
	for _, o := range p.window {
		if o.Correct {
			correct++
		}
		total += o.ResponseMs
	}
	p.Accuracy = float64(correct) / float64(len(p.window))
	p.AvgResponseMs = float64(total) / float64(len(p.window))
}

// HasHistory reports whether any outcome has been folded in.
func (p *Profile) HasHistory() bool { return len(p.window) > 0 }

// IsRecentMistake reports whether the topic is among the recent mistakes.
func (p *Profile) IsRecentMistake(t card.Topic) bool {
	return slices.Contains(p.RecentMistakes, t)
}

// Clone returns an independent copy.
func (p *Profile) Clone() *Profile {
	c := *p
	c.RecentMistakes = slices.Clone(p.RecentMistakes)
	c.RecentStrengths = slices.Clone(p.RecentStrengths)
	c.window = slices.Clone(p.window)
	return &c
}

// pushRecent puts t at the front, removing an earlier copy and trimming the
// list to MaxRecentTopics.
func pushRecent(list []card.Topic, t card.Topic) []card.Topic {
	out := make([]card.Topic, 0, MaxRecentTopics)
	out = append(out, t)
	for _, existing := range list {
		if existing == t {
			continue
		}
		if len(out) == MaxRecentTopics {
			break
		}
		out = append(out, existing)
	}
	return out
}

func remove(list []card.Topic, t card.Topic) []card.Topic {
	return slices.DeleteFunc(slices.Clone(list), func(x card.Topic) bool { return x == t })
}
