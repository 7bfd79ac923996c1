package uploads

// Session states. Completed and aborted are terminal.
const (
	StateInitiated    = "initiated"
	StatePartsPending = "parts-pending"
	StateCompleted    = "completed"
	StateAborted      = "aborted"
)

// Session tracks one chunked upload from initiation until it is finalized or
// abandoned. It is bound to exactly one pending file record.
type Session struct {
	ID             string           `json:"id"`
	OrgID          string           `json:"organization_id"`
	FileID         string           `json:"file_id"`
	UploadRef      string           `json:"-"`
	StorageBucket  string           `json:"-"`
	StorageKey     string           `json:"storage_key"`
	TotalSize      int64            `json:"total_size"`
	PartSize       int64            `json:"part_size"`
	PartCount      int              `json:"part_count"`
	CompletedParts map[int32]string `json:"-"`
	State          string           `json:"state"`
	CreatedBy      string           `json:"created_by"`
	CreatedAt      int64            `json:"created_at"`
	UpdatedAt      int64            `json:"updated_at"`
}

// Live reports whether the session can still change state.
func (s *Session) Live() bool {
	return s.State == StateInitiated || s.State == StatePartsPending
}
