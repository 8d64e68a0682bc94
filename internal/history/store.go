package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gatekeep-ai/gatekeep/pkg/models"
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("consultation not found")

// DefaultListLimit is used when List is called with a non-positive limit.
const DefaultListLimit = 20

// Store records consultations. It satisfies persona.Recorder.
type Store struct {
	db  *DB
	now func() time.Time
}

// NewStore wraps an open, migrated DB.
func NewStore(db *DB) *Store {
	return &Store{db: db, now: time.Now}
}

// OpenStore opens and migrates the database at path.
func OpenStore(path string) (*Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return NewStore(db), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// Record inserts c, assigning an ID and CreatedAt when unset.
func (s *Store) Record(ctx context.Context, c *models.Consultation) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO consultations (id, kind, persona, model, question, context, response, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, string(c.Kind), c.Persona, c.Model, c.Question, c.Context, c.Response, c.Error,
		c.Duration.Milliseconds(), formatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("record consultation: %w", err)
	}
	return nil
}

// Get returns the consultation with the given id, or a unique id prefix.
func (s *Store) Get(ctx context.Context, id string) (*models.Consultation, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rows, err := s.db.conn.QueryContext(ctx, selectConsultation+`
		WHERE id = ? OR id LIKE ? ORDER BY id = ? DESC LIMIT 2
	`, id, id+"%", id)
	if err != nil {
		return nil, fmt.Errorf("get consultation: %w", err)
	}
	found, err := scanAll(rows)
	if err != nil {
		return nil, fmt.Errorf("get consultation: %w", err)
	}

	switch {
	case len(found) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case found[0].ID == id || len(found) == 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("ambiguous id prefix %q", id)
	}
}

// List returns the most recent consultations, newest first. An empty
// persona lists every persona.
func (s *Store) List(ctx context.Context, limit int, persona string) ([]*models.Consultation, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := selectConsultation
	args := []any{}
	if persona != "" {
		query += " WHERE persona = ?"
		args = append(args, persona)
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	found, err := scanAll(rows)
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	return found, nil
}

// Count returns the number of stored consultations.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var n int
	if err := s.db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM consultations").Scan(&n); err != nil {
		return 0, fmt.Errorf("count consultations: %w", err)
	}
	return n, nil
}

// Prune deletes consultations older than olderThan and returns how many
// were removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := formatTime(s.now().Add(-olderThan))

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	result, err := s.db.conn.ExecContext(ctx, "DELETE FROM consultations WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune consultations: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return n, nil
}

const selectConsultation = `
	SELECT id, kind, persona, model, question, context, response, error, duration_ms, created_at
	FROM consultations`

func scanAll(rows *sql.Rows) ([]*models.Consultation, error) {
	defer rows.Close()

	var out []*models.Consultation
	for rows.Next() {
		var (
			c          models.Consultation
			kind       string
			durationMS int64
			createdAt  string
		)
		if err := rows.Scan(&c.ID, &kind, &c.Persona, &c.Model, &c.Question, &c.Context,
			&c.Response, &c.Error, &durationMS, &createdAt); err != nil {
			return nil, err
		}
		c.Kind = models.ConsultationKind(kind)
		c.Duration = time.Duration(durationMS) * time.Millisecond
		c.CreatedAt, _ = parseTime(createdAt)
		out = append(out, &c)
	}
	return out, rows.Err()
}
