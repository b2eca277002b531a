package calendar

import "github.com/zapponejosh/feast-calendar-api/internal/database"

// FeastClass is the single classification used to colour a grid cell.
type FeastClass string

const (
	FeastClassNone    FeastClass = "none"
	FeastClassMajor   FeastClass = "major"
	FeastClassYearly  FeastClass = "yearly"
	FeastClassMonthly FeastClass = "monthly"
)

// Observance is one feast that falls on a day.
type Observance struct {
	Category database.FeastCategory `json:"category"`
	Name     string                 `json:"name"`
}

// Resolution is the outcome of looking a day up in every feast table.
type Resolution struct {
	// Primary is the one label shown on the grid: yearly, then major, then
	// monthly. Saints never become the primary label.
	Primary *string `json:"primary"`

	// Class colours the cell: major, then yearly, then monthly.
	Class FeastClass `json:"class"`

	// All lists every match in reporting order: major, yearly, monthly,
	// then the saints of the day in list order.
	All []Observance `json:"all"`
}

// Resolve looks up the feasts of a day. An invalid date resolves to nothing.
func (c *Catalog) Resolve(monthIndex, day int) Resolution {
	res := Resolution{Class: FeastClassNone, All: []Observance{}}
	if !ValidDate(monthIndex, day) {
		return res
	}

	k := key(monthIndex, day)
	major, hasMajor := c.major[k]
	yearly, hasYearly := c.yearly[k]
	monthly, hasMonthly := c.monthly[day]

	switch {
	case hasYearly:
		res.Primary = &yearly
	case hasMajor:
		res.Primary = &major
	case hasMonthly:
		res.Primary = &monthly
	}

	switch {
	case hasMajor:
		res.Class = FeastClassMajor
	case hasYearly:
		res.Class = FeastClassYearly
	case hasMonthly:
		res.Class = FeastClassMonthly
	}

	if hasMajor {
		res.All = append(res.All, Observance{Category: database.FeastCategoryMajor, Name: major})
	}
	if hasYearly {
		res.All = append(res.All, Observance{Category: database.FeastCategoryYearly, Name: yearly})
	}
	if hasMonthly {
		res.All = append(res.All, Observance{Category: database.FeastCategoryMonthly, Name: monthly})
	}
	for _, name := range c.saints[k] {
		res.All = append(res.All, Observance{Category: database.FeastCategorySaint, Name: name})
	}

	return res
}

// HasFeast reports whether any table matches the day.
func (r Resolution) HasFeast() bool {
	return len(r.All) > 0
}

// CatalogEntry is one row of a catalog listing.
type CatalogEntry struct {
	Category   database.FeastCategory `json:"category"`
	MonthIndex *int                   `json:"month_index,omitempty"`
	MonthName  string                 `json:"month_name,omitempty"`
	Day        int                    `json:"day"`
	Name       string                 `json:"name"`
}

// Feasts lists the catalog, filtered to one category when category is
// non-empty. Rows are ordered by table, then date.
func (c *Catalog) Feasts(category database.FeastCategory) []CatalogEntry {
	var out []CatalogEntry
	want := func(cat database.FeastCategory) bool { return category == "" || category == cat }

	keyed := func(cat database.FeastCategory, table map[DateKey]string) {
		for _, k := range sortedKeys(table) {
			m := k.MonthIndex
			out = append(out, CatalogEntry{Category: cat, MonthIndex: &m, MonthName: monthNames[m], Day: k.Day, Name: table[k]})
		}
	}

	if want(database.FeastCategoryMajor) {
		keyed(database.FeastCategoryMajor, c.major)
	}
	if want(database.FeastCategoryYearly) {
		keyed(database.FeastCategoryYearly, c.yearly)
	}
	if want(database.FeastCategoryMonthly) {
		for day := 1; day <= 30; day++ {
			if name, ok := c.monthly[day]; ok {
				out = append(out, CatalogEntry{Category: database.FeastCategoryMonthly, Day: day, Name: name})
			}
		}
	}
	if want(database.FeastCategorySaint) {
		keys := make([]DateKey, 0, len(c.saints))
		for k := range c.saints {
			keys = append(keys, k)
		}
		sortDateKeys(keys)
		for _, k := range keys {
			for _, name := range c.saints[k] {
				m := k.MonthIndex
				out = append(out, CatalogEntry{Category: database.FeastCategorySaint, MonthIndex: &m, MonthName: monthNames[m], Day: k.Day, Name: name})
			}
		}
	}

	return out
}
