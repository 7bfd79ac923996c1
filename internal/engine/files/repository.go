package files

import (
	"database/sql"
	"time"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const fileColumns = `
	id, organization_id, name, path, type, size, content_type,
	storage_bucket, storage_key, status, version, created_by,
	is_deleted, deleted_at, created_at, updated_at
`

func (r *Repository) Create(f *File) error {
	query := `
		INSERT INTO files (` + fileColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		f.ID, f.OrgID, f.Name, f.Path, f.Type, f.Size, f.ContentType,
		f.StorageBucket, f.StorageKey, f.Status, f.Version, f.CreatedBy,
		f.IsDeleted, f.DeletedAt, f.CreatedAt, f.UpdatedAt,
	)
	return err
}

// GetByID is org-scoped: a file id from another tenant comes back as not
// found, indistinguishable from a file that never existed.
func (r *Repository) GetByID(orgID, id string) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE organization_id = ? AND id = ?`
	row := r.db.QueryRow(query, orgID, id)
	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return f, err
}

func (r *Repository) ListByPath(orgID, path string, limit int) ([]*File, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `
		SELECT ` + fileColumns + `
		FROM files
		WHERE organization_id = ? AND path = ? AND is_deleted = 0
		ORDER BY type DESC, name ASC
		LIMIT ?
	`
	rows, err := r.db.Query(query, orgID, path, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// UpdateMetadata applies a rename with an optimistic version check. Returns
// the number of rows touched: zero means the stored version has advanced and
// the caller must reload and retry.
func (r *Repository) UpdateMetadata(orgID, id, name string, version int64) (int64, error) {
	res, err := r.db.Exec(`
		UPDATE files
		SET name = ?, version = version + 1, updated_at = ?
		WHERE organization_id = ? AND id = ? AND version = ? AND is_deleted = 0
	`, name, time.Now().Unix(), orgID, id, version)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Finalize flips a pending upload target to active. Idempotent: finalizing
// an already-active file touches nothing.
func (r *Repository) Finalize(orgID, id string) error {
	_, err := r.db.Exec(`
		UPDATE files SET status = ?, updated_at = ?
		WHERE organization_id = ? AND id = ? AND status = ?
	`, StatusActive, time.Now().Unix(), orgID, id, StatusPending)
	return err
}

// SoftDelete marks the record deleted. The row is retained; this layer never
// physically erases a file record.
func (r *Repository) SoftDelete(orgID, id string) error {
	now := time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE files SET is_deleted = 1, deleted_at = ?, updated_at = ?
		WHERE organization_id = ? AND id = ?
	`, now, now, orgID, id)
	return err
}

func scanFile(s interface {
	Scan(dest ...interface{}) error
}) (*File, error) {
	var f File
	var contentType sql.NullString
	var deletedAt sql.NullInt64

	err := s.Scan(
		&f.ID, &f.OrgID, &f.Name, &f.Path, &f.Type, &f.Size, &contentType,
		&f.StorageBucket, &f.StorageKey, &f.Status, &f.Version, &f.CreatedBy,
		&f.IsDeleted, &deletedAt, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if contentType.Valid {
		f.ContentType = contentType.String
	}
	if deletedAt.Valid {
		val := deletedAt.Int64
		f.DeletedAt = &val
	}
	return &f, nil
}
