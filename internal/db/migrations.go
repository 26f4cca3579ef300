package db

// Migrate ensures the required tables and indexes are present. Statements
// are idempotent so the service can run them on every start.
func (d *DB) Migrate() error {
	return d.WithLock(func() error {
		for _, stmt := range d.migrationStatements() {
			if _, err := d.db.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *DB) migrationStatements() []string {
	if d.driver == driverPostgres {
		return []string{
			`CREATE TABLE IF NOT EXISTS companies (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				assistant_id TEXT NOT NULL,
				openai_api_key TEXT NOT NULL,
				invest_url TEXT NOT NULL DEFAULT '',
				default_suggestions TEXT NOT NULL DEFAULT '[]',
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS chats (
				id BIGSERIAL PRIMARY KEY,
				title TEXT NOT NULL,
				user_id TEXT NOT NULL,
				company_id BIGINT REFERENCES companies(id) ON DELETE CASCADE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS messages (
				id BIGSERIAL PRIMARY KEY,
				chat_id BIGINT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
				thread_id TEXT NOT NULL,
				role TEXT NOT NULL CHECK(role IN ('user', 'assistant')),
				content TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id)`,
			`CREATE INDEX IF NOT EXISTS idx_chats_user ON chats(user_id)`,
		}
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS companies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			assistant_id TEXT NOT NULL,
			openai_api_key TEXT NOT NULL,
			invest_url TEXT NOT NULL DEFAULT '',
			default_suggestions TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS chats (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			user_id TEXT NOT NULL,
			company_id INTEGER REFERENCES companies(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id INTEGER NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
			thread_id TEXT NOT NULL,
			role TEXT NOT NULL CHECK(role IN ('user', 'assistant')),
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_user ON chats(user_id)`,
	}
}
