package card

import "testing"

func TestRarityMultiplier(t *testing.T) {
	tests := []struct {
		rarity Rarity
		want   float64
	}{
		{RarityCommon, 1.0},
		{RarityRare, 1.2},
		{RarityEpic, 1.5},
		{RarityLegendary, 2.0},
		{Rarity("unknown"), 1.0},
	}
	for _, tc := range tests {
		if got := tc.rarity.Multiplier(); got != tc.want {
			t.Errorf("%s.Multiplier() = %v, want %v", tc.rarity, got, tc.want)
		}
	}
}

func TestAllRarities_Ordered(t *testing.T) {
	all := AllRarities()
	for i := 1; i < len(all); i++ {
		if all[i].Multiplier() <= all[i-1].Multiplier() {
			t.Errorf("%s should hit harder than %s", all[i], all[i-1])
		}
	}
}

func TestTopics_ClosedSet(t *testing.T) {
	topics := AllTopics()
	if len(topics) != 20 {
		t.Fatalf("expected 20 topics, got %d", len(topics))
	}
	for _, tp := range topics {
		if _, err := ParseTopic(string(tp)); err != nil {
			t.Errorf("ParseTopic(%q): %v", tp, err)
		}
	}
	if _, err := ParseTopic("calculus"); err == nil {
		t.Error("expected error for unknown topic")
	}
}
