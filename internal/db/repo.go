package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/logger"
	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/store"
)

// DocumentRepository stores the store document as a JSONB row in
// store_documents.  It implements store.Backend.
type DocumentRepository struct {
	DB   *sql.DB
	Name string
	// Notifier is optional.  When set, every successful write is announced.
	Notifier *Notifier
	Log      *logger.Logger
}

// NewDocumentRepository constructs a repository for the document called name.
// The caller is responsible for managing the DB connection lifecycle.
func NewDocumentRepository(db *sql.DB, name string, notifier *Notifier, l *logger.Logger) *DocumentRepository {
	if l == nil {
		l = logger.Discard()
	}
	return &DocumentRepository{DB: db, Name: name, Notifier: notifier, Log: l}
}

var _ store.Backend = (*DocumentRepository)(nil)

// Read returns the stored document body.
func (r *DocumentRepository) Read(ctx context.Context) ([]byte, error) {
	var body []byte
	err := r.DB.QueryRowContext(ctx,
		`SELECT body FROM store_documents WHERE name = $1`,
		r.Name,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Write replaces the stored document body.  A failed notification is
// logged but does not fail the write, since the row is already committed.
func (r *DocumentRepository) Write(ctx context.Context, data []byte) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO store_documents (name, body, updated_at)
         VALUES ($1, $2, NOW())
         ON CONFLICT (name) DO UPDATE
         SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		r.Name, data,
	)
	if err != nil {
		return err
	}
	if r.Notifier != nil {
		if err := r.Notifier.Notify(ctx, r.Name); err != nil && r.Log != nil {
			r.Log.WithComponent("db").WithError(err).Warn("store document notification failed")
		}
	}
	return nil
}
