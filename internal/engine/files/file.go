package files

// File entry types.
const (
	TypeFile   = "file"
	TypeFolder = "folder"
)

// File statuses. A file is pending from upload initiation until its session
// completes.
const (
	StatusPending = "pending"
	StatusActive  = "active"
)

// File is a logical file or folder record. Version starts at 1 and advances
// on every content-changing update; callers must present the version they
// read when mutating. Deletion is a soft flag only.
type File struct {
	ID            string `json:"id"`
	OrgID         string `json:"organization_id"`
	Name          string `json:"name"`
	Path          string `json:"path"`
	Type          string `json:"type"`
	Size          int64  `json:"size"`
	ContentType   string `json:"content_type,omitempty"`
	StorageBucket string `json:"-"`
	StorageKey    string `json:"-"`
	Status        string `json:"status"`
	Version       int64  `json:"version"`
	CreatedBy     string `json:"created_by"`
	IsDeleted     bool   `json:"is_deleted"`
	DeletedAt     *int64 `json:"deleted_at,omitempty"`
	CreatedAt     int64  `json:"created_at"`
	UpdatedAt     int64  `json:"updated_at"`
}
