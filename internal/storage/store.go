package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/runnerr0/tubestats/internal/history"
	"github.com/runnerr0/tubestats/internal/tabular"
)

// tsLayout is fixed-width so stored timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store holds one parsed dataset at a time.
type Store interface {
	ReplaceDataset(ctx context.Context, ds Dataset) error
	SearchEvents(ctx context.Context, query SearchQuery) ([]Event, error)
	ChannelCounts(ctx context.Context, limit int) ([]ChannelCount, error)
	GetStats(ctx context.Context) (*Stats, error)
	PurgeAll(ctx context.Context) error
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	channelCounts *sql.Stmt
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.initFTS(); err != nil {
		return nil, fmt.Errorf("init FTS: %w", err)
	}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	// Ties keep export order, matching the in-memory aggregation.
	s.channelCounts, err = s.db.Prepare(`
		SELECT channel_name, COUNT(*) AS cnt, MIN(position) AS first_seen
		FROM watch_events
		GROUP BY channel_name
		ORDER BY cnt DESC, first_seen ASC
		LIMIT ?
	`)
	return err
}

// initFTS creates the FTS4 virtual table over titles and channel names.
func (s *SQLiteStore) initFTS() error {
	_, err := s.db.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS watch_events_fts USING fts4(
			event_id,
			video_title,
			channel_name,
			notindexed=event_id,
			tokenize=unicode61
		)
	`)
	return err
}

// ftsQuery converts a user search string into a valid FTS4 query.
// Each word is reduced to letters and digits and becomes a prefix token
// joined with OR.
func ftsQuery(input string) string {
	var parts []string
	for _, w := range strings.Fields(input) {
		w = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, w)
		if w == "" {
			continue
		}
		parts = append(parts, w+"*")
	}
	return strings.Join(parts, " OR ")
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// ReplaceDataset discards whatever is stored and loads ds in a single
// transaction. Readers never observe a mix of two passes.
func (s *SQLiteStore) ReplaceDataset(ctx context.Context, ds Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := purge(ctx, tx); err != nil {
		return err
	}

	insertEvent, err := tx.PrepareContext(ctx, `
		INSERT INTO watch_events (position, ts, video_title, video_url, channel_name, channel_url)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare event insert: %w", err)
	}
	defer insertEvent.Close()

	insertFTS, err := tx.PrepareContext(ctx,
		"INSERT INTO watch_events_fts (event_id, video_title, channel_name) VALUES (?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("prepare FTS insert: %w", err)
	}
	defer insertFTS.Close()

	for i, e := range ds.Events {
		res, err := insertEvent.ExecContext(ctx,
			i, e.Timestamp.UTC().Format(tsLayout),
			e.VideoTitle, e.VideoURL, e.ChannelName, e.ChannelURL,
		)
		if err != nil {
			return fmt.Errorf("insert event %d: %w", i, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if _, err := insertFTS.ExecContext(ctx, id, e.VideoTitle, e.ChannelName); err != nil {
			return fmt.Errorf("insert FTS: %w", err)
		}
	}

	for _, rec := range ds.Subscriptions {
		if err := insertSubscription(ctx, tx, rec); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO dataset (id, source, loaded_at) VALUES (1, ?, ?)",
		ds.Source, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("record dataset: %w", err)
	}

	return tx.Commit()
}

func insertSubscription(ctx context.Context, tx *sql.Tx, rec tabular.Record) error {
	fields, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode subscription: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO subscriptions (channel_id, channel_url, channel_title, fields) VALUES (?, ?, ?, ?)",
		rec["Channel Id"], rec["Channel Url"], rec["Channel Title"], string(fields),
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// SearchEvents queries events with optional filters. Results are newest first.
func (s *SQLiteStore) SearchEvents(ctx context.Context, q SearchQuery) ([]Event, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}

	var clauses []string
	var args []interface{}

	baseQuery := `
		SELECT e.id, e.position, e.ts, e.video_title, e.video_url, e.channel_name, e.channel_url
		FROM watch_events e
	`

	if match := ftsQuery(q.Query); match != "" {
		baseQuery += " JOIN watch_events_fts ON watch_events_fts.event_id = e.id"
		clauses = append(clauses, "watch_events_fts MATCH ?")
		args = append(args, match)
	}
	if q.Channel != "" {
		clauses = append(clauses, "e.channel_name = ? COLLATE NOCASE")
		args = append(args, q.Channel)
	}
	if !q.Since.IsZero() {
		clauses = append(clauses, "e.ts >= ?")
		args = append(args, q.Since.UTC().Format(tsLayout))
	}
	if !q.Until.IsZero() {
		clauses = append(clauses, "e.ts <= ?")
		args = append(args, q.Until.UTC().Format(tsLayout))
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	fullQuery := baseQuery + where + " ORDER BY e.ts DESC, e.position ASC LIMIT ? OFFSET ?"
	args = append(args, q.Limit, q.Offset)

	return s.scanEvents(ctx, fullQuery, args...)
}

// scanEvents executes a query and scans results into Event slices.
func (s *SQLiteStore) scanEvents(ctx context.Context, query string, args ...interface{}) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		var tsStr string
		if err := rows.Scan(
			&e.ID, &e.Position, &tsStr, &e.VideoTitle, &e.VideoURL,
			&e.ChannelName, &e.ChannelURL,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Timestamp, _ = parseTimestamp(tsStr)
		events = append(events, e)
	}

	return events, rows.Err()
}

// ChannelCounts returns channels ordered by event count, most watched first.
// A limit of zero or less returns every channel.
func (s *SQLiteStore) ChannelCounts(ctx context.Context, limit int) ([]ChannelCount, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.channelCounts.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("channel counts: %w", err)
	}
	defer rows.Close()

	counts := []ChannelCount{}
	for rows.Next() {
		var cc ChannelCount
		var first int
		if err := rows.Scan(&cc.Channel, &cc.Count, &first); err != nil {
			return nil, err
		}
		counts = append(counts, cc)
	}
	return counts, rows.Err()
}

// Subscriptions returns the stored subscription records in load order.
func (s *SQLiteStore) Subscriptions(ctx context.Context) ([]tabular.Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT fields FROM subscriptions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	records := []tabular.Record{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		rec := tabular.Record{}
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Events returns every stored event in export order.
func (s *SQLiteStore) Events(ctx context.Context) ([]history.WatchEvent, error) {
	stored, err := s.scanEvents(ctx, `
		SELECT id, position, ts, video_title, video_url, channel_name, channel_url
		FROM watch_events ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	events := make([]history.WatchEvent, len(stored))
	for i, e := range stored {
		events[i] = e.WatchEvent
	}
	return events, nil
}

// PurgeAll deletes the stored dataset.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := purge(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func purge(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		"DELETE FROM watch_events_fts",
		"DELETE FROM watch_events",
		"DELETE FROM subscriptions",
		"DELETE FROM dataset",
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge (%s): %w", stmt, err)
		}
	}
	return nil
}

// GetStats returns aggregate statistics about the stored dataset.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT channel_name) FROM watch_events",
	).Scan(&stats.TotalEvents, &stats.UniqueChannels)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM subscriptions").Scan(&stats.TotalSubscriptions)
	if err != nil {
		return nil, fmt.Errorf("count subscriptions: %w", err)
	}

	var loadedAt string
	err = s.db.QueryRowContext(ctx, "SELECT source, loaded_at FROM dataset WHERE id = 1").Scan(&stats.Source, &loadedAt)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, fmt.Errorf("dataset info: %w", err)
	default:
		stats.LoadedAt, _ = parseTimestamp(loadedAt)
	}

	// Oldest and newest (handle empty DB)
	if stats.TotalEvents > 0 {
		var oldestStr, newestStr string
		err = s.db.QueryRowContext(ctx, "SELECT MIN(ts), MAX(ts) FROM watch_events").Scan(&oldestStr, &newestStr)
		if err != nil {
			return nil, fmt.Errorf("event time range: %w", err)
		}
		stats.OldestEvent, _ = parseTimestamp(oldestStr)
		stats.NewestEvent, _ = parseTimestamp(newestStr)
	}

	stats.TopChannels, err = s.ChannelCounts(ctx, 10)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	if s.channelCounts != nil {
		return s.channelCounts.Close()
	}
	return nil
}
