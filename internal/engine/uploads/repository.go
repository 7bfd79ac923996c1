package uploads

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(s *Session) error {
	partsJSON, _ := json.Marshal(s.CompletedParts)
	_, err := r.db.Exec(`
		INSERT INTO upload_sessions (
			id, organization_id, file_id, upload_ref, storage_bucket, storage_key,
			total_size, part_size, part_count, completed_parts, state,
			created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.OrgID, s.FileID, s.UploadRef, s.StorageBucket, s.StorageKey,
		s.TotalSize, s.PartSize, s.PartCount, string(partsJSON), s.State,
		s.CreatedBy, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *Repository) GetByID(orgID, id string) (*Session, error) {
	row := r.db.QueryRow(`
		SELECT id, organization_id, file_id, upload_ref, storage_bucket, storage_key,
		       total_size, part_size, part_count, completed_parts, state,
		       created_by, created_at, updated_at
		FROM upload_sessions WHERE organization_id = ? AND id = ?
	`, orgID, id)

	var s Session
	var partsRaw []byte
	err := row.Scan(&s.ID, &s.OrgID, &s.FileID, &s.UploadRef, &s.StorageBucket, &s.StorageKey,
		&s.TotalSize, &s.PartSize, &s.PartCount, &partsRaw, &s.State,
		&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(partsRaw) > 0 {
		json.Unmarshal(partsRaw, &s.CompletedParts)
	}
	return &s, nil
}

// Transition moves the session into the target state only when it is
// currently in one of the allowed states. Returns false when another call
// already moved it, which is how duplicate completes stay idempotent under
// concurrency.
func (r *Repository) Transition(orgID, id, to string, from ...string) (bool, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(from)), ",")
	args := []interface{}{to, time.Now().Unix(), orgID, id}
	for _, f := range from {
		args = append(args, f)
	}

	res, err := r.db.Exec(`
		UPDATE upload_sessions SET state = ?, updated_at = ?
		WHERE organization_id = ? AND id = ? AND state IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SaveParts persists the reported part set on the session record.
func (r *Repository) SaveParts(orgID, id string, parts map[int32]string) error {
	partsJSON, _ := json.Marshal(parts)
	_, err := r.db.Exec(`
		UPDATE upload_sessions SET completed_parts = ?, updated_at = ?
		WHERE organization_id = ? AND id = ?
	`, string(partsJSON), time.Now().Unix(), orgID, id)
	return err
}
