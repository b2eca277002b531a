package calendar

import (
	"context"
	"fmt"
	"sort"

	"github.com/zapponejosh/feast-calendar-api/internal/database"
)

// DateKey identifies a day of the year by month index and day number.
type DateKey struct {
	MonthIndex int
	Day        int
}

// key is shorthand for the built-in tables below.
func key(monthIndex, day int) DateKey { return DateKey{MonthIndex: monthIndex, Day: day} }

// Month indexes, for readable table literals.
const (
	meskerem = iota
	tikimt
	hidar
	tahsas
	tir
	yekatit
	megabit
	miyazia
	ginbot
	sene
	hamle
	nehase
	pagume
)

// Built-in feast tables. They are seeded into the feast store and also back
// DefaultCatalog when no store is configured.
var (
	majorFeasts = map[DateKey]string{
		key(meskerem, 1):  "እንቁጣጣሽ",
		key(meskerem, 17): "መስቀል",
		key(hidar, 15):    "ጾመ ነቢያት መጀመሪያ",
		key(tahsas, 29):   "ገና",
		key(tir, 11):      "ጥምቀት",
		key(tir, 25):      "ጾመ ነነዌ መጀመሪያ",
		key(tir, 27):      "ጾመ ነነዌ መጨረሻ",
		key(yekatit, 9):   "ዓቢይ ጾም መጀመሪያ",
		key(miyazia, 2):   "ስቅለት",
		key(miyazia, 4):   "ዓቢይ ጾም መጨረሻ",
		key(ginbot, 24):   "ጾመ ሐዋርያት መጀመሪያ",
		key(hamle, 4):     "ጾመ ሐዋርያት መጨረሻ",
		key(nehase, 1):    "ፍልሰታ መጀመሪያ",
		key(nehase, 15):   "ፍልሰታ መጨረሻ",
	}

	yearlyFeasts = map[DateKey]string{
		key(meskerem, 21): "ግሸን ማርያም",
		key(tikimt, 5):    "አቡነ ገብረመንፈስ ቅዱስ",
		key(tikimt, 14):   "አቡነ አረጋዊ",
		key(tikimt, 27):   "መድኃኔ ዓለም",
		key(hidar, 6):     "ቁስቛም ማርያም",
		key(hidar, 12):    "ቅዱስ ሚካኤል",
		key(hidar, 13):    "እግዚአብሔር አብ",
		key(hidar, 21):    "ቅድስት ማርያም",
		key(tahsas, 3):    "በአታ ማርያም",
		key(tahsas, 19):   "ቅዱስ ገብርኤል",
		key(tir, 7):       "ቅድስት ስላሴ",
		key(tir, 12):      "ቅዱስ ሚካኤል",
		key(tir, 13):      "ቅዱስ ሩፋኤል",
		key(tir, 21):      "ቅድስት ማርያም",
		key(tir, 22):      "ቅዱስ ኡራኤል",
		key(ginbot, 1):    "ልደታ",
		key(ginbot, 14):   "አቡነ አረጋዊ",
		key(sene, 12):     "ቅዱስ ሚካኤል",
		key(sene, 30):     "ቅዱስ ዮሐንስ",
		key(hamle, 7):     "ቅድስት ስላሴ",
		key(hamle, 19):    "ቅዱስ ገብርኤል",
		key(hamle, 22):    "ቅዱስ ኡራኤል",
		key(hamle, 23):    "ቅዱስ ጊዮርጊስ",
		key(nehase, 16):   "ፍልሰታ በዓል",
	}

	monthlyFeasts = map[int]string{
		5:  "አቡነ ገብረ መንፈስ ቅዱስ",
		7:  "ቅድስት ስላሴ",
		8:  "አባ ኪሮስና",
		12: "ቅዱስ ሚካኤል",
		13: "እግዚአብሔር አብ እና ሩፋኤል",
		14: "አቡነ አረጋዊ",
		16: "ኪዳነ ምሕረት",
		17: "ቅዱስ እስጢፋኖስ",
		19: "ቅዱስ ገብርኤል",
		21: "ቅድስት ማርያም",
		22: "ቅዱስ ኡራኤል",
		23: "ቅዱስ ጊዮርጊስ",
		24: "አቡነ ተክለ ሃይማኖት",
		25: "ቅዱስ መርቆሪዮስ",
		27: "መድኃኔ ዓለም",
		28: "አማኑኤል",
		29: "በአለ ወልድ",
		30: "ቅዱስ ዮሐንስ",
	}

	// Sample only; the importer adds the rest of the synaxarium.
	dailySaints = map[DateKey][]string{
		key(meskerem, 1): {"ልደተ ማርያም"},
		key(meskerem, 2): {"ቅዱስ ታድዮስ"},
		key(meskerem, 3): {"ቅዱስ ዮሐንስ መጥምቁ"},
	}
)

// Catalog holds the four feast tables. It is immutable once built and safe
// for concurrent readers.
type Catalog struct {
	major   map[DateKey]string
	yearly  map[DateKey]string
	monthly map[int]string
	saints  map[DateKey][]string
}

// NewCatalog builds a catalog from feast rows.
//
// Every row must land on a real day of 2018 EC; a row that could never be
// looked up is an error rather than a silent miss. Saints keep the order of
// their Position field. A second major, yearly or monthly row on the same
// key is rejected since those tables hold one name per day.
func NewCatalog(feasts []database.Feast) (*Catalog, error) {
	c := &Catalog{
		major:   make(map[DateKey]string),
		yearly:  make(map[DateKey]string),
		monthly: make(map[int]string),
		saints:  make(map[DateKey][]string),
	}

	rows := append([]database.Feast(nil), feasts...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })

	for _, f := range rows {
		if err := c.add(f); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Catalog) add(f database.Feast) error {
	if f.Category == database.FeastCategoryMonthly {
		if f.MonthIndex != nil || f.Day < 1 || f.Day > 30 {
			return fmt.Errorf("%w: monthly feast %q on day %d", ErrInvalidDate, f.Name, f.Day)
		}
		if prev, ok := c.monthly[f.Day]; ok {
			return fmt.Errorf("duplicate monthly feast on day %d: %q and %q", f.Day, prev, f.Name)
		}
		c.monthly[f.Day] = f.Name
		return nil
	}

	if f.MonthIndex == nil || !ValidDate(*f.MonthIndex, f.Day) {
		return fmt.Errorf("%w: %s feast %q", ErrInvalidDate, f.Category, f.Name)
	}
	k := key(*f.MonthIndex, f.Day)

	var table map[DateKey]string
	switch f.Category {
	case database.FeastCategoryMajor:
		table = c.major
	case database.FeastCategoryYearly:
		table = c.yearly
	case database.FeastCategorySaint:
		c.saints[k] = append(c.saints[k], f.Name)
		return nil
	default:
		return fmt.Errorf("unknown feast category %q", f.Category)
	}

	if prev, ok := table[k]; ok {
		return fmt.Errorf("duplicate %s feast on %s %d: %q and %q", f.Category, monthNames[k.MonthIndex], k.Day, prev, f.Name)
	}
	table[k] = f.Name
	return nil
}

// DefaultFeasts returns the built-in tables as feast rows, ready to be
// seeded into the store.
func DefaultFeasts() []database.Feast {
	var feasts []database.Feast

	addKeyed := func(category database.FeastCategory, table map[DateKey]string) {
		for _, k := range sortedKeys(table) {
			m := k.MonthIndex
			feasts = append(feasts, database.Feast{
				Category:   category,
				MonthIndex: &m,
				Day:        k.Day,
				Name:       table[k],
				Position:   1,
				Source:     database.SourceBuiltin,
			})
		}
	}

	addKeyed(database.FeastCategoryMajor, majorFeasts)
	addKeyed(database.FeastCategoryYearly, yearlyFeasts)

	days := make([]int, 0, len(monthlyFeasts))
	for d := range monthlyFeasts {
		days = append(days, d)
	}
	sort.Ints(days)
	for _, d := range days {
		feasts = append(feasts, database.Feast{
			Category: database.FeastCategoryMonthly,
			Day:      d,
			Name:     monthlyFeasts[d],
			Position: 1,
			Source:   database.SourceBuiltin,
		})
	}

	saintKeys := make([]DateKey, 0, len(dailySaints))
	for k := range dailySaints {
		saintKeys = append(saintKeys, k)
	}
	sortDateKeys(saintKeys)
	for _, k := range saintKeys {
		for i, name := range dailySaints[k] {
			m := k.MonthIndex
			feasts = append(feasts, database.Feast{
				Category:   database.FeastCategorySaint,
				MonthIndex: &m,
				Day:        k.Day,
				Name:       name,
				Position:   i + 1,
				Source:     database.SourceBuiltin,
			})
		}
	}

	return feasts
}

// DefaultCatalog returns a catalog of the built-in tables.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultFeasts())
	if err != nil {
		// The built-in tables are covered by tests; reaching this is a
		// programming error.
		panic(fmt.Sprintf("calendar: built-in feast tables: %v", err))
	}
	return c
}

// FeastSource is implemented by *database.DB.
type FeastSource interface {
	ListFeasts(ctx context.Context) ([]database.Feast, error)
}

// LoadCatalog reads every feast from the store and builds a catalog.
func LoadCatalog(ctx context.Context, src FeastSource) (*Catalog, error) {
	feasts, err := src.ListFeasts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feasts: %w", err)
	}

	c, err := NewCatalog(feasts)
	if err != nil {
		return nil, fmt.Errorf("build feast catalog: %w", err)
	}
	return c, nil
}

// FeastFromImport converts an import-file row, resolving the month name
// against the month table. Unknown spellings fail with ErrUnknownMonth.
func FeastFromImport(in database.ImportFeast) (database.Feast, error) {
	f := database.Feast{
		Category: in.Category,
		Day:      in.Day,
		Name:     in.Name,
		Source:   database.SourceImport,
	}
	if !in.Category.IsValid() {
		return f, fmt.Errorf("feast %q: unknown category %q", in.Name, in.Category)
	}

	if in.Category == database.FeastCategoryMonthly {
		if in.Month != "" {
			return f, fmt.Errorf("monthly feast %q must not name a month", in.Name)
		}
		if in.Day < 1 || in.Day > 30 {
			return f, fmt.Errorf("%w: monthly feast %q on day %d", ErrInvalidDate, in.Name, in.Day)
		}
		return f, nil
	}

	m, err := MonthIndex(in.Month)
	if err != nil {
		return f, fmt.Errorf("feast %q: %w: %q", in.Name, err, in.Month)
	}
	if !ValidDate(m, in.Day) {
		return f, fmt.Errorf("%w: feast %q on %s %d", ErrInvalidDate, in.Name, in.Month, in.Day)
	}
	f.MonthIndex = &m
	return f, nil
}

// AssignPositions numbers feasts of the same day in slice order, starting
// at 1. Monthly feasts share one day across months. Both import paths call
// this so a batch stores the same rows either way.
func AssignPositions(feasts []database.Feast) {
	next := make(map[DateKey]int)
	for i := range feasts {
		f := &feasts[i]
		k := key(database.EveryMonth, f.Day)
		if f.MonthIndex != nil {
			k.MonthIndex = *f.MonthIndex
		}
		next[k]++
		f.Position = next[k]
	}
}

func sortedKeys(table map[DateKey]string) []DateKey {
	keys := make([]DateKey, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sortDateKeys(keys)
	return keys
}

func sortDateKeys(keys []DateKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].MonthIndex != keys[j].MonthIndex {
			return keys[i].MonthIndex < keys[j].MonthIndex
		}
		return keys[i].Day < keys[j].Day
	})
}
