// internal/storage/dialect.go
package storage

type dialect struct {
	schema []string
	insert string
}

var dialects = map[string]dialect{
	"postgres": {
		schema: []string{
			`CREATE TABLE IF NOT EXISTS guestbook_entries (
				seq        BIGSERIAL PRIMARY KEY,
				id         UUID NOT NULL UNIQUE,
				name       TEXT NOT NULL,
				message    TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS guestbook_entries_created_at_idx
				ON guestbook_entries (created_at DESC, seq DESC)`,
		},
		insert: `
			INSERT INTO guestbook_entries (id, name, message, created_at)
			VALUES ($1, $2, $3, $4)
		`,
	},
	"sqlite3": {
		schema: []string{
			`CREATE TABLE IF NOT EXISTS guestbook_entries (
				seq        INTEGER PRIMARY KEY AUTOINCREMENT,
				id         TEXT NOT NULL UNIQUE,
				name       TEXT NOT NULL,
				message    TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS guestbook_entries_created_at_idx
				ON guestbook_entries (created_at DESC, seq DESC)`,
		},
		insert: `
			INSERT INTO guestbook_entries (id, name, message, created_at)
			VALUES (?, ?, ?, ?)
		`,
	},
}
