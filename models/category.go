package models

import "strings"

type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing"
	CategoryHome        Category = "Home"
	CategoryBeauty      Category = "Beauty"
	CategorySports      Category = "Sports"
	CategoryOther       Category = "Other"
)

var Categories = []Category{
	CategoryElectronics,
	CategoryClothing,
	CategoryHome,
	CategoryBeauty,
	CategorySports,
	CategoryOther,
}

// ParseCategory matches case-insensitively and returns the canonical spelling.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}
