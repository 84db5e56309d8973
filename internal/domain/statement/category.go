package statement

import "strings"

// Category classifies a transaction for spending reports
type Category string

const (
	CategoryFood           Category = "food"
	CategoryGrocery        Category = "grocery"
	CategoryShopping       Category = "shopping"
	CategoryTransportation Category = "transportation"
	CategoryEntertainment  Category = "entertainment"
	CategoryUtilities      Category = "utilities"
	CategoryHealth         Category = "health"
	CategoryTravel         Category = "travel"
	CategoryOther          Category = "other"
)

var categories = []Category{
	CategoryFood,
	CategoryGrocery,
	CategoryShopping,
	CategoryTransportation,
	CategoryEntertainment,
	CategoryUtilities,
	CategoryHealth,
	CategoryTravel,
	CategoryOther,
}

// Categories returns the fixed category list
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory validates a category name, case-insensitively
func ParseCategory(name string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range categories {
		if c == known {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}
