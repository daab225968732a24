package card

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math/rand/v2"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Catalog is the static card reference data.
type Catalog struct {
	cards map[string]Card
	order []string
}

type catalogFile struct {
	Cards []Card `yaml:"cards"`
}

// LoadCatalog parses a YAML card catalog and validates every card.
// A card without a category inherits the category of its topic.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Cards) == 0 {
		return nil, fmt.Errorf("catalog has no cards")
	}

	cat := &Catalog{cards: make(map[string]Card, len(f.Cards))}
	for _, c := range f.Cards {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, dup := cat.cards[c.ID]; dup {
			return nil, fmt.Errorf("duplicate card id %q", c.ID)
		}
		if c.Category == "" {
			c.Category, _ = CategoryOf(c.Topic)
		}
		cat.cards[c.ID] = c
		cat.order = append(cat.order, c.ID)
	}
	return cat, nil
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	cat, err := LoadCatalog(bytes.NewReader(defaultCatalogYAML))
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return cat
}

// Get returns the card with the given id.
func (c *Catalog) Get(id string) (Card, bool) {
	card, ok := c.cards[id]
	return card, ok
}

// All returns every card in catalog order.
func (c *Catalog) All() []Card {
	out := make([]Card, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.cards[id])
	}
	return out
}

// Len returns the number of cards in the catalog.
func (c *Catalog) Len() int { return len(c.order) }

// ByRarity returns the cards grouped by rarity, each group sorted by id.
func (c *Catalog) ByRarity() map[Rarity][]Card {
	out := make(map[Rarity][]Card)
	for _, card := range c.All() {
		out[card.Rarity] = append(out[card.Rarity], card)
	}
	for _, cards := range out {
		sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	}
	return out
}

// Deal draws n distinct cards at random. When n exceeds the catalog size the
// whole catalog is returned in shuffled order.
func (c *Catalog) Deal(rng *rand.Rand, n int) []Card {
	ids := append([]string(nil), c.order...)
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	if n > len(ids) {
		n = len(ids)
	}
	hand := make([]Card, 0, n)
	for _, id := range ids[:n] {
		hand = append(hand, c.cards[id])
	}
	return hand
}
