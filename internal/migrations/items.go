package migrations

import "database/sql"

// InitItemMigrations registers the schema of the credential store.
func InitItemMigrations(runner *Runner) {
	runner.AddMigration(
		1,
		"Create items table",
		`CREATE TABLE items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			service TEXT NOT NULL,
			account TEXT NOT NULL,
			synchronizable INTEGER NOT NULL DEFAULT 0,
			label TEXT NOT NULL DEFAULT '',
			accessibility TEXT NOT NULL DEFAULT '',
			secret BLOB NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	)

	// One item per identity and scope.
	runner.AddMigration(
		2,
		"Create identity index on items",
		`CREATE UNIQUE INDEX idx_items_identity ON items(service, account, synchronizable)`,
	)

	runner.AddMigration(
		3,
		"Create trigger for updated_at",
		`CREATE TRIGGER trig_items_updated_at
		AFTER UPDATE OF secret, label, accessibility ON items
		BEGIN
			UPDATE items SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
		END`,
	)

	runner.AddMigration(
		4,
		"Create metadata table",
		`CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	)
}

// Bootstrap brings a credential database up to the current schema.
func Bootstrap(db *sql.DB) error {
	runner := NewRunner(db)
	InitItemMigrations(runner)
	return runner.Run()
}
