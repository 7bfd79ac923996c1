package repositories

import (
	"database/sql"
	"time"

	"docvault/internal/platform/models"
)

type OrganizationRepository struct {
	db *sql.DB
}

func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) BeginTx() (*sql.Tx, error) {
	return r.db.Begin()
}

const orgColumns = `
	id, name, domain, quota_bytes, isolation_mode, storage_prefix, storage_bucket,
	encryption_mode, plan, billing_status, billing_ref, created_at, updated_at, deleted_at
`

func (r *OrganizationRepository) CreateTx(tx *sql.Tx, org *models.Organization) error {
	_, err := tx.Exec(`
		INSERT INTO organizations (id, name, domain, quota_bytes, isolation_mode, storage_prefix, storage_bucket, encryption_mode, plan, billing_status, billing_ref, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, org.ID, org.Name, org.Domain, org.QuotaBytes, org.IsolationMode, org.StoragePrefix, org.StorageBucket, org.EncryptionMode, org.Plan, org.BillingStatus, org.BillingRef, org.CreatedAt, org.UpdatedAt)
	return err
}

func (r *OrganizationRepository) GetByID(id string) (*models.Organization, error) {
	row := r.db.QueryRow(`SELECT `+orgColumns+` FROM organizations WHERE id = ?`, id)
	return scanOrg(row)
}

// GetByBillingRef resolves the organization a billing-provider event belongs
// to. billing_ref carries a unique index; this must never degrade to a scan.
func (r *OrganizationRepository) GetByBillingRef(ref string) (*models.Organization, error) {
	row := r.db.QueryRow(`SELECT `+orgColumns+` FROM organizations WHERE billing_ref = ?`, ref)
	return scanOrg(row)
}

func (r *OrganizationRepository) UpdateStorageSettings(org *models.Organization) error {
	_, err := r.db.Exec(`
		UPDATE organizations
		SET name = ?, quota_bytes = ?, isolation_mode = ?, storage_prefix = ?, storage_bucket = ?, encryption_mode = ?, updated_at = ?
		WHERE id = ?
	`, org.Name, org.QuotaBytes, org.IsolationMode, org.StoragePrefix, org.StorageBucket, org.EncryptionMode, time.Now().Unix(), org.ID)
	return err
}

func (r *OrganizationRepository) UpdateBilling(orgID, status, plan string) error {
	_, err := r.db.Exec(`
		UPDATE organizations SET billing_status = ?, plan = ?, updated_at = ? WHERE id = ?
	`, status, plan, time.Now().Unix(), orgID)
	return err
}

func scanOrg(row *sql.Row) (*models.Organization, error) {
	org := &models.Organization{}
	var domain, prefix, bucket, billingRef sql.NullString
	err := row.Scan(&org.ID, &org.Name, &domain, &org.QuotaBytes, &org.IsolationMode, &prefix, &bucket, &org.EncryptionMode, &org.Plan, &org.BillingStatus, &billingRef, &org.CreatedAt, &org.UpdatedAt, &org.DeletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	org.Domain = domain.String
	org.StoragePrefix = prefix.String
	org.StorageBucket = bucket.String
	org.BillingRef = billingRef.String
	return org, nil
}

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	id, organization_id, email, password_hash, full_name, role, status,
	invite_token, invite_expires_at, last_login_at, created_at, updated_at, deleted_at
`

func (r *UserRepository) CreateTx(tx *sql.Tx, user *models.User) error {
	_, err := tx.Exec(`
		INSERT INTO users (id, organization_id, email, password_hash, full_name, role, status, invite_token, invite_expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.OrganizationID, user.Email, user.PasswordHash, user.FullName, user.Role, user.Status, user.InviteToken, user.InviteExpiresAt, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *UserRepository) Create(user *models.User) error {
	_, err := r.db.Exec(`
		INSERT INTO users (id, organization_id, email, password_hash, full_name, role, status, invite_token, invite_expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.OrganizationID, user.Email, user.PasswordHash, user.FullName, user.Role, user.Status, user.InviteToken, user.InviteExpiresAt, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetByEmail is scoped to one organization; email is only unique per org.
func (r *UserRepository) GetByEmail(orgID, email string) (*models.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE organization_id = ? AND email = ?`, orgID, email)
	return scanUser(row)
}

// GetByLoginEmail looks an address up across organizations for login.
func (r *UserRepository) GetByLoginEmail(email string) (*models.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ? AND deleted_at IS NULL LIMIT 1`, email)
	return scanUser(row)
}

func (r *UserRepository) GetByInviteToken(token string) (*models.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE invite_token = ?`, token)
	return scanUser(row)
}

func (r *UserRepository) ListByOrg(orgID string) ([]*models.User, error) {
	rows, err := r.db.Query(`
		SELECT `+userColumns+` FROM users
		WHERE organization_id = ? AND deleted_at IS NULL
		ORDER BY created_at ASC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) UpdateRole(orgID, userID, role string) error {
	_, err := r.db.Exec(`
		UPDATE users SET role = ?, updated_at = ? WHERE organization_id = ? AND id = ?
	`, role, time.Now().Unix(), orgID, userID)
	return err
}

func (r *UserRepository) UpdateStatus(orgID, userID, status string) error {
	_, err := r.db.Exec(`
		UPDATE users SET status = ?, updated_at = ? WHERE organization_id = ? AND id = ?
	`, status, time.Now().Unix(), orgID, userID)
	return err
}

// Activate clears the invite fields once the invitation is accepted.
func (r *UserRepository) Activate(userID, passwordHash string) error {
	_, err := r.db.Exec(`
		UPDATE users SET status = ?, password_hash = ?, invite_token = '', invite_expires_at = NULL, updated_at = ?
		WHERE id = ?
	`, models.UserActive, passwordHash, time.Now().Unix(), userID)
	return err
}

func (r *UserRepository) SoftDelete(orgID, userID string) error {
	now := time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE users SET deleted_at = ?, updated_at = ? WHERE organization_id = ? AND id = ?
	`, now, now, orgID, userID)
	return err
}

func (r *UserRepository) TouchLogin(userID string) error {
	now := time.Now().Unix()
	_, err := r.db.Exec(`UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`, now, now, userID)
	return err
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var inviteExpires, lastLogin sql.NullInt64
	err := row.Scan(&user.ID, &user.OrganizationID, &user.Email, &user.PasswordHash, &user.FullName, &user.Role, &user.Status, &user.InviteToken, &inviteExpires, &lastLogin, &user.CreatedAt, &user.UpdatedAt, &user.DeletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	assignNullables(user, inviteExpires, lastLogin)
	return user, nil
}

func scanUserRows(rows *sql.Rows) (*models.User, error) {
	user := &models.User{}
	var inviteExpires, lastLogin sql.NullInt64
	err := rows.Scan(&user.ID, &user.OrganizationID, &user.Email, &user.PasswordHash, &user.FullName, &user.Role, &user.Status, &user.InviteToken, &inviteExpires, &lastLogin, &user.CreatedAt, &user.UpdatedAt, &user.DeletedAt)
	if err != nil {
		return nil, err
	}
	assignNullables(user, inviteExpires, lastLogin)
	return user, nil
}

func assignNullables(user *models.User, inviteExpires, lastLogin sql.NullInt64) {
	if inviteExpires.Valid {
		val := inviteExpires.Int64
		user.InviteExpiresAt = &val
	}
	if lastLogin.Valid {
		val := lastLogin.Int64
		user.LastLoginAt = &val
	}
}
