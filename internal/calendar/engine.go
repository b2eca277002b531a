package calendar

import "time"

// Engine ties the feast catalog to a clock. It builds month grids and day
// summaries for the rendering layer.
type Engine struct {
	catalog  *Catalog
	now      func() time.Time
	location *time.Location
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now as the source of "today".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the time zone in which "today" is decided.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.location = loc
		}
	}
}

// NewEngine creates an engine over a catalog. A nil catalog means the
// built-in tables.
func NewEngine(catalog *Catalog, opts ...Option) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	e := &Engine{
		catalog:  catalog,
		now:      time.Now,
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCatalog returns a copy of the engine that resolves against another
// catalog, keeping the clock and location.
func (e *Engine) WithCatalog(catalog *Catalog) *Engine {
	c := *e
	if catalog != nil {
		c.catalog = catalog
	}
	return &c
}

// Location returns the time zone in which "today" is decided.
func (e *Engine) Location() *time.Location {
	return e.location
}

// Catalog returns the feast catalog the engine resolves against.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Today converts the current date to 2018 EC.
// Returns ErrNotInRange when the clock is outside the modeled year.
func (e *Engine) Today() (SourceDate, error) {
	return CivilToSource(e.now().In(e.location))
}

// TodayCivil returns the current calendar date at 00:00 UTC.
func (e *Engine) TodayCivil() time.Time {
	return civilDate(e.now().In(e.location))
}

// today is Today as a pointer, nil when out of range.
func (e *Engine) today() *SourceDate {
	t, err := e.Today()
	if err != nil {
		return nil
	}
	return &t
}

// Resolve looks up the feasts of a day.
func (e *Engine) Resolve(monthIndex, day int) Resolution {
	return e.catalog.Resolve(monthIndex, day)
}

// NewSelection starts a selection on today, or on Meskerem 1 when today is
// outside 2018 EC.
func (e *Engine) NewSelection() Selection {
	return InitSelection(e.today())
}

// SwitchMonth moves a selection to another month, keeping the day when it
// still exists there.
func (e *Engine) SwitchMonth(sel Selection, monthIndex int) Selection {
	return sel.SwitchMonth(monthIndex, e.today())
}

// DefaultMonth is the month a selector opens on: today's month, else 0.
func (e *Engine) DefaultMonth() int {
	if t := e.today(); t != nil {
		return t.MonthIndex
	}
	return 0
}
