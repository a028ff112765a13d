package storage

import "database/sql"

// migrateV001 creates the dataset schema. Every statement uses IF NOT EXISTS
// for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS watch_events (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			position     INTEGER NOT NULL,
			ts           DATETIME NOT NULL,
			video_title  TEXT NOT NULL,
			video_url    TEXT NOT NULL DEFAULT '',
			channel_name TEXT NOT NULL,
			channel_url  TEXT NOT NULL,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS subscriptions (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			channel_id    TEXT NOT NULL DEFAULT '',
			channel_url   TEXT NOT NULL DEFAULT '',
			channel_title TEXT NOT NULL DEFAULT '',
			fields        TEXT NOT NULL DEFAULT '{}'
		)`,

		`CREATE TABLE IF NOT EXISTS dataset (
			id            INTEGER PRIMARY KEY CHECK (id = 1),
			source        TEXT NOT NULL DEFAULT '',
			loaded_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_watch_events_ts       ON watch_events(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_watch_events_channel  ON watch_events(channel_name)`,
		`CREATE INDEX IF NOT EXISTS idx_watch_events_position ON watch_events(position)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_channel ON subscriptions(channel_id)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
