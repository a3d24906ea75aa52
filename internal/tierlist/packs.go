package tierlist

import (
	"regexp"
	"strings"
)

// Category is a loose tag on an item. It is cosmetic.
type Category string

const (
	CategoryBase       Category = "base"
	CategoryTopping    Category = "topping"
	CategoryAtmosphere Category = "atmosphere"
	CategoryDrink      Category = "drink"
	CategoryChaos      Category = "chaos"
	CategoryMoney      Category = "money"
)

// Item is an immutable catalog entry. IDs are unique within a pack.
type Item struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"type"`
	ImageURL string   `json:"image_url"`
}

// Pack is an ordered set of items played as one game.
type Pack struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ThemeColor  string `json:"theme_color"`
	Items       []Item `json:"items"`
}

var whitespace = regexp.MustCompile(`\s+`)

func newItem(name string, category Category) Item {
	return Item{
		ID:       strings.ToLower(whitespace.ReplaceAllString(name, "-")),
		Name:     name,
		Category: category,
		ImageURL: "https://picsum.photos/seed/" + whitespace.ReplaceAllString(name, "-") + "/400/400",
	}
}

var catalog = []Pack{
	{
		ID:          "football-leagues",
		Name:        "Liga Sepak Bola",
		Description: "Top leagues from around the world. Which one is the GOAT?",
		ThemeColor:  "#dbeafe",
		Items: []Item{
			newItem("Liga Inggris", CategoryBase),
			newItem("Liga Indonesia", CategoryChaos),
			newItem("Liga Italia", CategoryBase),
			newItem("Liga Arab", CategoryMoney),
			newItem("Liga Belanda", CategoryBase),
			newItem("Liga Jerman", CategoryBase),
			newItem("Liga Spanyol", CategoryBase),
		},
	},
	{
		ID:          "mie-instan",
		Name:        "Mie Instan",
		Description: "The holy grail of midnight snacks.",
		ThemeColor:  "#fef9c3",
		Items: []Item{
			newItem("Rendang", CategoryBase),
			newItem("Goreng Biasa", CategoryBase),
			newItem("Mie Aceh", CategoryBase),
			newItem("Kari Ayam", CategoryBase),
			newItem("Ayam Bawang", CategoryBase),
			newItem("Soto", CategoryBase),
		},
	},
	{
		ID:          "house-activity",
		Name:        "House Activity",
		Description: "Chores you love to hate.",
		ThemeColor:  "#dcfce7",
		Items: []Item{
			newItem("Moping", CategoryBase),
			newItem("Brooming", CategoryBase),
			newItem("Washing Dishes", CategoryChaos),
			newItem("Laundry", CategoryBase),
			newItem("Taking out Trash", CategoryBase),
			newItem("Cleaning Windows", CategoryBase),
			newItem("Vacuuming", CategoryBase),
		},
	},
}

// Packs returns a copy of the catalog in display order.
func Packs() []Pack {
	out := make([]Pack, len(catalog))
	for i, p := range catalog {
		out[i] = p
		out[i].Items = append([]Item(nil), p.Items...)
	}
	return out
}

func PackByID(id string) (Pack, bool) {
	for _, p := range catalog {
		if p.ID == id {
			p.Items = append([]Item(nil), p.Items...)
			return p, true
		}
	}
	return Pack{}, false
}
