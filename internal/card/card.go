package card

import (
	"errors"
	"fmt"
)

const (
	MinDifficulty = 1
	MaxDifficulty = 10
)

// Card is a playable card. Cards are immutable once loaded for a battle.
type Card struct {
	ID         string   `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	Rarity     Rarity   `yaml:"rarity" json:"rarity"`
	BasePower  int      `yaml:"power" json:"base_power"`
	Difficulty int      `yaml:"difficulty" json:"base_difficulty"`
	Category   Category `yaml:"category,omitempty" json:"category"`
	Topic      Topic    `yaml:"topic" json:"topic"`
}

// Validate checks that the card's fields are within the closed sets and ranges.
func (c Card) Validate() error {
	var errs []error
	if c.ID == "" {
		errs = append(errs, errors.New("id is empty"))
	}
	if c.Name == "" {
		errs = append(errs, errors.New("name is empty"))
	}
	if !c.Rarity.Valid() {
		errs = append(errs, fmt.Errorf("unknown rarity %q", c.Rarity))
	}
	if c.BasePower <= 0 {
		errs = append(errs, fmt.Errorf("power must be positive, got %d", c.BasePower))
	}
	if c.Difficulty < MinDifficulty || c.Difficulty > MaxDifficulty {
		errs = append(errs, fmt.Errorf("difficulty must be in [%d,%d], got %d", MinDifficulty, MaxDifficulty, c.Difficulty))
	}
	cat, ok := CategoryOf(c.Topic)
	switch {
	case !ok:
		errs = append(errs, fmt.Errorf("unknown topic %q", c.Topic))
	case c.Category != "" && c.Category != cat:
		errs = append(errs, fmt.Errorf("topic %q belongs to %q, not %q", c.Topic, cat, c.Category))
	}
	if len(errs) > 0 {
		return fmt.Errorf("card %q: %w", c.ID, errors.Join(errs...))
	}
	return nil
}
