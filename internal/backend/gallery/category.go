package gallery

import (
	"fmt"
	"strings"
)

// Category is the closed set of gallery sections
type Category string

const (
	CategoryConstruction Category = "Construction Sites"
	CategoryOperations   Category = "Daily Operations"
	CategorySalvage      Category = "Salvage Assets"
	CategoryDemolition   Category = "Demolition Projects"
	CategoryGeneral      Category = "General"
)

var categories = []Category{
	CategoryConstruction,
	CategoryOperations,
	CategorySalvage,
	CategoryDemolition,
	CategoryGeneral,
}

// Categories returns all categories in display order
func Categories() []Category {
	return append([]Category(nil), categories...)
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory matches a category by its display name, ignoring case and surrounding space
func ParseCategory(value string) (Category, error) {
	value = strings.TrimSpace(value)
	for _, known := range categories {
		if strings.EqualFold(value, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, value)
}
