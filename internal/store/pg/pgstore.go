package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"seedvault.org/internal/artifact"
	"seedvault.org/internal/auth"
)

type Store struct {
	db *sql.DB
}

var _ artifact.Store = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing pool, used by tests.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Append(ctx context.Context, m artifact.Metadata) error {
	res, err := s.db.ExecContext(ctx, `
		insert into artifacts(
			id, stored_name, original_name, title, description,
			origin_tribe, mime_type, byte_size, access_scope,
			uploaded_by, uploaded_by_role, uploaded_at, storage_path,
			authenticity_checked
		)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		on conflict (id) do nothing
	`, m.ID, m.StoredName, m.OriginalName, m.Title, m.Description,
		m.OriginTribe, m.MimeType, m.ByteSize, string(m.AccessScope),
		m.UploadedBy, string(m.UploadedByRole), m.UploadedAt.UTC(),
		m.StoragePath, m.AuthenticityChecked)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return artifact.ErrDuplicateID
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (artifact.Metadata, error) {
	m, err := scanArtifact(s.db.QueryRowContext(ctx, `
		select id, stored_name, original_name, title, description,
		       origin_tribe, mime_type, byte_size, access_scope,
		       uploaded_by, uploaded_by_role, uploaded_at, storage_path,
		       authenticity_checked
		from artifacts
		where id=$1 and deleted_at is null
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return artifact.Metadata{}, artifact.ErrNotFound
	}
	return m, err
}

func (s *Store) List(ctx context.Context) ([]artifact.Metadata, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, stored_name, original_name, title, description,
		       origin_tribe, mime_type, byte_size, access_scope,
		       uploaded_by, uploaded_by_role, uploaded_at, storage_path,
		       authenticity_checked
		from artifacts
		where deleted_at is null
		order by uploaded_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []artifact.Metadata
	for rows.Next() {
		m, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Delete marks the row deleted; the append-only history stays queryable
// for audits.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`update artifacts set deleted_at = now() where id=$1 and deleted_at is null`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return artifact.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (artifact.Metadata, error) {
	var m artifact.Metadata
	var scope, role string
	err := row.Scan(&m.ID, &m.StoredName, &m.OriginalName, &m.Title, &m.Description,
		&m.OriginTribe, &m.MimeType, &m.ByteSize, &scope,
		&m.UploadedBy, &role, &m.UploadedAt, &m.StoragePath,
		&m.AuthenticityChecked)
	if err != nil {
		return artifact.Metadata{}, err
	}
	m.AccessScope = auth.Scope(scope)
	m.UploadedByRole = auth.Role(role)
	m.UploadedAt = m.UploadedAt.UTC()
	return m, nil
}
