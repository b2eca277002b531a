// Package database provides the SQLite feast store for the calendar API.
package database

import (
	"time"
)

// FeastCategory identifies which feast table an entry belongs to.
type FeastCategory string

const (
	// FeastCategoryMajor marks the great feasts and fast boundaries.
	FeastCategoryMajor FeastCategory = "major"
	// FeastCategoryYearly marks yearly commemorations on a fixed date.
	FeastCategoryYearly FeastCategory = "yearly"
	// FeastCategoryMonthly marks commemorations repeated every month on a day number.
	FeastCategoryMonthly FeastCategory = "monthly"
	// FeastCategorySaint marks the saints of a specific day.
	FeastCategorySaint FeastCategory = "saint"
)

// ValidFeastCategories returns all feast categories in reporting order.
func ValidFeastCategories() []FeastCategory {
	return []FeastCategory{
		FeastCategoryMajor,
		FeastCategoryYearly,
		FeastCategoryMonthly,
		FeastCategorySaint,
	}
}

// IsValid checks if a feast category is valid.
func (c FeastCategory) IsValid() bool {
	for _, valid := range ValidFeastCategories() {
		if c == valid {
			return true
		}
	}
	return false
}

// EveryMonth is the stored month_index of monthly feasts.
const EveryMonth = -1

// Feast is one row of a feast table.
type Feast struct {
	ID         int64         `json:"id"`
	Category   FeastCategory `json:"category"`
	MonthIndex *int          `json:"month_index"` // nil for monthly feasts
	Day        int           `json:"day"`
	Name       string        `json:"name"`
	Position   int           `json:"position"` // order among saints of the same day
	Source     string        `json:"source"`   // builtin, import
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Feast sources.
const (
	SourceBuiltin = "builtin"
	SourceImport  = "import"
)

// FeastStats summarises the feast store.
type FeastStats struct {
	Total      int                   `json:"total"`
	ByCategory map[FeastCategory]int `json:"by_category"`
}

// -----------------------------------------------------------------
// Import file format
// -----------------------------------------------------------------

// ImportData is the JSON document read by the importer.
type ImportData struct {
	Metadata ImportMetadata `json:"metadata"`
	Feasts   []ImportFeast  `json:"feasts"`
}

// ImportMetadata describes where an import file came from.
type ImportMetadata struct {
	Source      string `json:"source"`
	GeneratedAt string `json:"generated_at"`
}

// ImportFeast is one feast in an import file. Month is the Ethiopian month
// name and is left empty for monthly feasts.
type ImportFeast struct {
	Category FeastCategory `json:"category"`
	Month    string        `json:"month,omitempty"`
	Day      int           `json:"day"`
	Name     string        `json:"name"`
}
