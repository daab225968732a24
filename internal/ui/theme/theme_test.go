package theme

import (
	"testing"

	"github.com/abhisek/mathduel/internal/card"
)

func TestRarityColor(t *testing.T) {
	seen := map[any]card.Rarity{}
	for _, r := range card.AllRarities() {
		c := RarityColor(r)
		if prev, dup := seen[c]; dup {
			t.Errorf("%s and %s share a color", prev, r)
		}
		seen[c] = r
	}
	if RarityColor("mythic") != Common {
		t.Error("unknown rarity should render as common")
	}
}

func TestHealthColor(t *testing.T) {
	tests := []struct {
		health, max int
		want        any
	}{
		{100, 100, Success},
		{51, 100, Success},
		{50, 100, Warning},
		{26, 100, Warning},
		{25, 100, Error},
		{0, 100, Error},
		{5, 0, Error},
	}
	for _, tt := range tests {
		if got := HealthColor(tt.health, tt.max); got != tt.want {
			t.Errorf("HealthColor(%d, %d) = %v, want %v", tt.health, tt.max, got, tt.want)
		}
	}
}
