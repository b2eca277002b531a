package database

// migrationsSQL contains all database migrations.
// Migrations are applied in order by version number.
// Each migration should be idempotent (safe to run multiple times).
var migrationsSQL = map[int]string{
	1: migrationV1FeastTables,
}

// migrationV1FeastTables creates the feast store.
//
// Key design decisions:
//
// 1. ONE TABLE, FOUR CATEGORIES
//   - major, yearly and saint rows are keyed by month_index + day
//   - monthly rows repeat every month and store month_index = -1
//
// 2. TYPED KEYS
//   - months are stored by index into the Ethiopian month table, never by
//     name, so a spelling difference cannot hide a row
//
// 3. SAINT ORDER
//   - position keeps the order of several saints on the same day
const migrationV1FeastTables = `
-- Migration 001: Feast tables

-- ============================================================================
-- Table: feasts
-- ============================================================================
CREATE TABLE IF NOT EXISTS feasts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,

    category TEXT NOT NULL CHECK (category IN (
        'major',
        'yearly',
        'monthly',
        'saint'
    )),

    -- 0..12, or -1 for monthly feasts that apply in every month
    month_index INTEGER NOT NULL CHECK (month_index BETWEEN -1 AND 12),
    day INTEGER NOT NULL CHECK (day BETWEEN 1 AND 30),

    name TEXT NOT NULL,
    position INTEGER NOT NULL DEFAULT 1,

    -- builtin rows are seeded at startup, import rows come from cmd/import
    source TEXT NOT NULL DEFAULT 'builtin',

    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE (category, month_index, day, name),
    CHECK ((category = 'monthly') = (month_index = -1))
);

-- Lookup by date key
CREATE INDEX IF NOT EXISTS idx_feasts_date
    ON feasts(month_index, day);

CREATE INDEX IF NOT EXISTS idx_feasts_category
    ON feasts(category);
`
