package models

// Organization isolation modes for derived object-storage addresses.
const (
	IsolationPrefix = "prefix"
	IsolationBucket = "bucket"
)

// Billing statuses, driven by billing-provider events and signup.
const (
	BillingTrialing = "trialing"
	BillingActive   = "active"
	BillingPastDue  = "past_due"
	BillingCanceled = "canceled"
)

type Organization struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Domain         string `json:"domain,omitempty"`
	QuotaBytes     int64  `json:"quota_bytes"`
	IsolationMode  string `json:"isolation_mode"`
	StoragePrefix  string `json:"storage_prefix,omitempty"`
	StorageBucket  string `json:"storage_bucket,omitempty"`
	EncryptionMode string `json:"encryption_mode"`
	Plan           string `json:"plan"`
	BillingStatus  string `json:"billing_status"`
	BillingRef     string `json:"-"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
	DeletedAt      *int64 `json:"deleted_at,omitempty"`
}

// User statuses.
const (
	UserActive    = "active"
	UserInvited   = "invited"
	UserSuspended = "suspended"
)

type User struct {
	ID              string `json:"id"`
	OrganizationID  string `json:"organization_id"`
	Email           string `json:"email"`
	PasswordHash    string `json:"-"`
	FullName        string `json:"full_name"`
	Role            string `json:"role"`
	Status          string `json:"status"`
	InviteToken     string `json:"-"`
	InviteExpiresAt *int64 `json:"invite_expires_at,omitempty"`
	LastLoginAt     *int64 `json:"last_login_at,omitempty"`
	CreatedAt       int64  `json:"created_at"`
	UpdatedAt       int64  `json:"updated_at"`
	DeletedAt       *int64 `json:"deleted_at,omitempty"`
}
