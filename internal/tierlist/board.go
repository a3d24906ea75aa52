package tierlist

// Row is one tier of the board with the items placed in it, in placement
// order.
type Row struct {
	Tier  Tier         `json:"tier"`
	Label string       `json:"label"`
	Items []PlacedItem `json:"items"`
}

// Board groups the composition by tier, best first. Every tier gets a row.
func (s Session) Board() []Row {
	tiers := Tiers()
	rows := make([]Row, len(tiers))
	for i, t := range tiers {
		rows[i] = Row{Tier: t, Label: t.Label(), Items: []PlacedItem{}}
	}

	for _, p := range s.Composition {
		if r := p.Tier.Rank(); r >= 0 {
			rows[r].Items = append(rows[r].Items, p)
		}
	}

	return rows
}

// Contributions counts placements per player id.
func (s Session) Contributions() map[string]int {
	counts := make(map[string]int, len(s.Players))
	for _, p := range s.Composition {
		counts[p.PlacedBy]++
	}
	return counts
}
