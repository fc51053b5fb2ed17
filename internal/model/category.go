package model

import "time"

// DefaultCategoryColor is used when a category has no valid colour set.
const DefaultCategoryColor = "gray"

// CategoryColors is the fixed palette a category colour is chosen from.
var CategoryColors = []string{
	"slate", "gray", "zinc", "neutral", "stone",
	"red", "orange", "amber", "yellow", "lime",
	"green", "emerald", "teal", "cyan", "sky",
	"blue", "indigo", "violet", "purple", "fuchsia",
	"pink", "rose",
}

// ValidCategoryColor reports whether c is in the palette.
func ValidCategoryColor(c string) bool {
	for _, v := range CategoryColors {
		if v == c {
			return true
		}
	}
	return false
}

// Category is a user-scoped name and colour. Tasks reference it by ID and
// carry the name back as a flat field after fetch.
type Category struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DisplayColor returns the colour to render, falling back to the default.
func (c Category) DisplayColor() string {
	if ValidCategoryColor(c.Color) {
		return c.Color
	}
	return DefaultCategoryColor
}
