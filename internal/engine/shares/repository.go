package shares

import (
	"database/sql"
	"encoding/json"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(share *Share) error {
	query := `
		INSERT INTO shares (
			id, file_id, organization_id, type, target_role, target_user_id,
			token, permissions, expires_at, created_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	permsJSON, _ := json.Marshal(share.Permissions)

	_, err := r.db.Exec(query,
		share.ID,
		share.FileID,
		share.OrgID,
		share.Type,
		share.TargetRole,
		share.TargetUserID,
		share.Token,
		string(permsJSON),
		share.ExpiresAt,
		share.CreatedBy,
		share.CreatedAt,
	)
	return err
}

func (r *Repository) GetByID(orgID, id string) (*Share, error) {
	query := `
		SELECT id, file_id, organization_id, type, target_role, target_user_id,
		       token, permissions, expires_at, created_by, created_at
		FROM shares WHERE organization_id = ? AND id = ?
	`
	row := r.db.QueryRow(query, orgID, id)
	share, err := scanShare(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return share, err
}

func (r *Repository) ListByFile(orgID, fileID string) ([]*Share, error) {
	query := `
		SELECT id, file_id, organization_id, type, target_role, target_user_id,
		       token, permissions, expires_at, created_by, created_at
		FROM shares WHERE organization_id = ? AND file_id = ?
		ORDER BY created_at DESC
	`
	return r.queryShares(query, orgID, fileID)
}

// ListActiveByFile returns shares on the file whose expiry is unset or still
// in the future at the given instant.
func (r *Repository) ListActiveByFile(orgID, fileID string, now int64) ([]*Share, error) {
	query := `
		SELECT id, file_id, organization_id, type, target_role, target_user_id,
		       token, permissions, expires_at, created_by, created_at
		FROM shares
		WHERE organization_id = ? AND file_id = ?
		  AND (expires_at IS NULL OR expires_at > ?)
	`
	return r.queryShares(query, orgID, fileID, now)
}

func (r *Repository) Delete(orgID, id string) error {
	_, err := r.db.Exec("DELETE FROM shares WHERE organization_id = ? AND id = ?", orgID, id)
	return err
}

func (r *Repository) queryShares(query string, args ...interface{}) ([]*Share, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shares []*Share
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}
	return shares, rows.Err()
}

func scanShare(s interface {
	Scan(dest ...interface{}) error
}) (*Share, error) {
	var share Share
	var permsRaw []byte
	var expiresAt sql.NullInt64

	err := s.Scan(
		&share.ID,
		&share.FileID,
		&share.OrgID,
		&share.Type,
		&share.TargetRole,
		&share.TargetUserID,
		&share.Token,
		&permsRaw,
		&expiresAt,
		&share.CreatedBy,
		&share.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		val := expiresAt.Int64
		share.ExpiresAt = &val
	}
	if len(permsRaw) > 0 {
		json.Unmarshal(permsRaw, &share.Permissions)
	}

	return &share, nil
}
