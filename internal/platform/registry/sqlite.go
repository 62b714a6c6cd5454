package registry

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
	"agrihub/internal/platform/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS webhooks (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	url TEXT NOT NULL,
	secret TEXT NOT NULL DEFAULT '',
	events TEXT NOT NULL,
	active INTEGER NOT NULL DEFAULT 1,
	last_triggered_at INTEGER,
	failure_count INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore persists webhook configurations in a local SQLite database for
// deployments that need configs to survive restarts.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1) // sqlite serializes writes anyway
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// NewSQLiteStoreWithDB wraps an existing connection. Used by tests.
func NewSQLiteStoreWithDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const selectColumns = `id, name, url, secret, events, active, last_triggered_at, failure_count, created_at, updated_at`

func (s *SQLiteStore) scan(row interface{ Scan(...interface{}) error }) (*models.Webhook, error) {
	var w models.Webhook
	var eventsStr string
	var lastTriggered sql.NullInt64

	err := row.Scan(&w.ID, &w.Name, &w.URL, &w.Secret, &eventsStr, &w.Active,
		&lastTriggered, &w.FailureCount, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if lastTriggered.Valid {
		w.LastTriggeredAt = &lastTriggered.Int64
	}
	if err := json.Unmarshal([]byte(eventsStr), &w.Events); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *SQLiteStore) List() ([]*models.Webhook, error) {
	rows, err := s.db.Query(`SELECT ` + selectColumns + ` FROM webhooks ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var webhooks []*models.Webhook
	for rows.Next() {
		w, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		webhooks = append(webhooks, w)
	}
	return webhooks, rows.Err()
}

func (s *SQLiteStore) Get(id string) (*models.Webhook, error) {
	row := s.db.QueryRow(`SELECT `+selectColumns+` FROM webhooks WHERE id = ?`, id)
	w, err := s.scan(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return w, err
}

func (s *SQLiteStore) Create(webhook *models.Webhook) error {
	eventsJSON, err := json.Marshal(webhook.Events)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO webhooks (id, name, url, secret, events, active, failure_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, webhook.ID, webhook.Name, webhook.URL, webhook.Secret, string(eventsJSON),
		webhook.Active, webhook.FailureCount, webhook.CreatedAt, webhook.UpdatedAt)

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return ErrExists
	}
	return err
}

// Update applies the partial update inside a transaction so concurrent
// updates to the same entry cannot overwrite each other's fields with a
// stale row image.
func (s *SQLiteStore) Update(id string, upd models.WebhookUpdate) (*models.Webhook, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+selectColumns+` FROM webhooks WHERE id = ?`, id)
	w, err := s.scan(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		w.Name = *upd.Name
	}
	if upd.URL != nil {
		w.URL = *upd.URL
	}
	if upd.Secret != nil {
		w.Secret = *upd.Secret
	}
	if upd.Events != nil {
		w.Events = append([]string(nil), upd.Events...)
	}
	if upd.Active != nil {
		w.Active = *upd.Active
	}
	w.UpdatedAt = time.Now().Unix()

	eventsJSON, err := json.Marshal(w.Events)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(`
		UPDATE webhooks SET name = ?, url = ?, secret = ?, events = ?, active = ?, updated_at = ?
		WHERE id = ?
	`, w.Name, w.URL, w.Secret, string(eventsJSON), w.Active, w.UpdatedAt, id)
	if err != nil {
		return nil, err
	}
	return w, tx.Commit()
}

func (s *SQLiteStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM webhooks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListByEvent(event string) ([]*models.Webhook, error) {
	rows, err := s.db.Query(`SELECT ` + selectColumns + ` FROM webhooks WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Events are stored as a JSON array; filter in the application the way
	// low-volume webhook tables are usually handled.
	var matched []*models.Webhook
	for rows.Next() {
		w, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		for _, e := range w.Events {
			if e == event {
				matched = append(matched, w)
				break
			}
		}
	}
	return matched, rows.Err()
}

func (s *SQLiteStore) RecordDelivery(id string, success bool, at int64) error {
	var res sql.Result
	var err error
	if success {
		res, err = s.db.Exec(`UPDATE webhooks SET last_triggered_at = ? WHERE id = ?`, at, id)
	} else {
		res, err = s.db.Exec(`UPDATE webhooks SET failure_count = failure_count + 1 WHERE id = ?`, id)
	}
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
