package sqlbase

// Schema returns the ledger tables. The statements are portable between
// PostgreSQL and SQLite; each is executed on its own.
func Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id              TEXT    PRIMARY KEY,
			name            TEXT    NOT NULL,
			email           TEXT    NOT NULL UNIQUE,
			password_hash   TEXT    NOT NULL,
			role            TEXT    NOT NULL,
			wallet_balance  BIGINT  NOT NULL DEFAULT 0 CHECK (wallet_balance >= 0),
			tasks_completed INTEGER NOT NULL DEFAULT 0 CHECK (tasks_completed >= 0),
			created_at      BIGINT  NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id           TEXT   PRIMARY KEY,
			title        TEXT   NOT NULL,
			description  TEXT   NOT NULL DEFAULT '',
			category     TEXT   NOT NULL DEFAULT '',
			requirements TEXT   NOT NULL DEFAULT '',
			reward       BIGINT NOT NULL CHECK (reward > 0),
			status       TEXT   NOT NULL,
			created_at   BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS submissions (
			id          TEXT   PRIMARY KEY,
			user_id     TEXT   NOT NULL REFERENCES users (id),
			task_id     TEXT   NOT NULL REFERENCES tasks (id),
			task_title  TEXT   NOT NULL DEFAULT '',
			proof       TEXT   NOT NULL,
			reward      BIGINT NOT NULL CHECK (reward > 0),
			status      TEXT   NOT NULL,
			admin_note  TEXT   NOT NULL DEFAULT '',
			created_at  BIGINT NOT NULL,
			reviewed_at BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions (user_id, created_at)`,
		// at most one pending claim per (user, task)
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_submissions_one_pending
			ON submissions (user_id, task_id) WHERE status = 'pending'`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id            TEXT   PRIMARY KEY,
			user_id       TEXT   NOT NULL REFERENCES users (id),
			type          TEXT   NOT NULL,
			amount        BIGINT NOT NULL CHECK (amount > 0),
			status        TEXT   NOT NULL,
			method        TEXT   NOT NULL DEFAULT '',
			details       TEXT   NOT NULL DEFAULT '',
			submission_id TEXT   NOT NULL DEFAULT '',
			created_at    BIGINT NOT NULL,
			finalized_at  BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions (user_id, created_at)`,
	}
}
