package uploads

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"docvault/internal/engine/authz"
	"docvault/internal/engine/files"
	"docvault/internal/engine/storage"
	errs "docvault/internal/pkg/errors"
	"docvault/internal/platform/audit"
	"docvault/internal/platform/config"
	"docvault/internal/platform/models"
)

// Coordinator drives the upload session state machine:
// initiated → parts-pending → completed, or aborted from either live state.
type Coordinator struct {
	sessions *Repository
	fileRepo *files.Repository
	engine   *authz.Engine
	store    storage.ObjectStore
	sink     *audit.Sink
	cfg      config.UploadsConfig
	bucket   string
}

func NewCoordinator(sessions *Repository, fileRepo *files.Repository, engine *authz.Engine, store storage.ObjectStore, sink *audit.Sink, cfg config.UploadsConfig, defaultBucket string) *Coordinator {
	if cfg.PartSizeBytes <= 0 {
		cfg.PartSizeBytes = 5 * 1024 * 1024
	}
	if cfg.MaxParts <= 0 {
		cfg.MaxParts = 10000
	}
	return &Coordinator{
		sessions: sessions,
		fileRepo: fileRepo,
		engine:   engine,
		store:    store,
		sink:     sink,
		cfg:      cfg,
		bucket:   defaultBucket,
	}
}

type InitiateParams struct {
	FileName    string
	TotalSize   int64
	ContentType string
	ParentPath  string
}

// PartRef is one single-use upload reference handed to the client.
type PartRef struct {
	Number int32  `json:"part_number"`
	URL    string `json:"url"`
}

type InitiateResult struct {
	SessionID  string    `json:"session_id"`
	FileID     string    `json:"file_id"`
	StorageKey string    `json:"storage_key"`
	PartSize   int64     `json:"part_size"`
	Parts      []PartRef `json:"parts"`
}

// Initiate authorizes the creation, sizes the part plan, derives the tenant
// storage address, creates the pending file record and the session, and
// issues one time-limited upload reference per part.
func (c *Coordinator) Initiate(ctx context.Context, actor authz.Actor, org *models.Organization, p InitiateParams) (*InitiateResult, error) {
	allowed, err := c.engine.Authorize(ctx, actor, authz.ClassFiles, authz.ActionCreate, authz.Request{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}
	if !allowed {
		return nil, errs.ErrForbidden
	}

	if p.FileName == "" || p.ContentType == "" {
		return nil, fmt.Errorf("%w: file name and content type required", errs.ErrInvalidInput)
	}
	if p.TotalSize <= 0 {
		return nil, errs.ErrInvalidUploadSize
	}

	partCount := int((p.TotalSize + c.cfg.PartSizeBytes - 1) / c.cfg.PartSizeBytes)
	if partCount > c.cfg.MaxParts {
		return nil, fmt.Errorf("%w: %d parts exceeds the %d part limit", errs.ErrInvalidUploadSize, partCount, c.cfg.MaxParts)
	}

	bucket, key := storage.DeriveKey(org, c.bucket, p.FileName, p.ParentPath)

	uploadRef, err := c.store.CreateMultipartUpload(ctx, bucket, key, p.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}

	now := time.Now().Unix()
	parentPath := p.ParentPath
	if parentPath == "" {
		parentPath = "/"
	}

	file := &files.File{
		ID:            "file_" + uuid.NewString(),
		OrgID:         org.ID,
		Name:          p.FileName,
		Path:          parentPath,
		Type:          files.TypeFile,
		Size:          p.TotalSize,
		ContentType:   p.ContentType,
		StorageBucket: bucket,
		StorageKey:    key,
		Status:        files.StatusPending,
		Version:       1,
		CreatedBy:     actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := c.fileRepo.Create(file); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}

	session := &Session{
		ID:            "ups_" + uuid.NewString(),
		OrgID:         org.ID,
		FileID:        file.ID,
		UploadRef:     uploadRef,
		StorageBucket: bucket,
		StorageKey:    key,
		TotalSize:     p.TotalSize,
		PartSize:      c.cfg.PartSizeBytes,
		PartCount:     partCount,
		State:         StateInitiated,
		CreatedBy:     actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := c.sessions.Create(session); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}

	refs := make([]PartRef, 0, partCount)
	for n := int32(1); n <= int32(partCount); n++ {
		url, err := c.store.PresignUploadPart(ctx, bucket, key, uploadRef, n)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrDependency, err)
		}
		refs = append(refs, PartRef{Number: n, URL: url})
	}

	if _, err := c.sessions.Transition(org.ID, session.ID, StatePartsPending, StateInitiated); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}

	if _, err := c.sink.Record(ctx, org.ID, actor.ID, "file.upload.initiated", "file", file.ID, map[string]interface{}{
		"file_name":  p.FileName,
		"total_size": p.TotalSize,
		"part_count": partCount,
	}); err != nil {
		return nil, err
	}

	return &InitiateResult{
		SessionID:  session.ID,
		FileID:     file.ID,
		StorageKey: key,
		PartSize:   c.cfg.PartSizeBytes,
		Parts:      refs,
	}, nil
}

// ReportedPart is a part the client claims to have uploaded, with the
// integrity tag the object store returned for it.
type ReportedPart struct {
	Number int32  `json:"part_number"`
	ETag   string `json:"etag"`
}

// Complete verifies the full part set and finalizes the session and its file
// record. A missing or untagged part fails with IncompleteUpload and leaves
// the session live so the client can retry with the remaining parts.
// Calling Complete again on an already-completed session succeeds without
// side effects.
func (c *Coordinator) Complete(ctx context.Context, actor authz.Actor, sessionID string, reported []ReportedPart) (*Session, error) {
	allowed, err := c.engine.Authorize(ctx, actor, authz.ClassFiles, authz.ActionCreate, authz.Request{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}
	if !allowed {
		return nil, errs.ErrForbidden
	}

	session, err := c.sessions.GetByID(actor.OrgID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}
	if session == nil {
		return nil, errs.ErrNotFound
	}

	switch session.State {
	case StateCompleted:
		return session, nil
	case StateAborted:
		return nil, errs.ErrConflict
	}

	parts := make(map[int32]string, len(reported))
	for _, p := range reported {
		if p.ETag != "" {
			parts[p.Number] = p.ETag
		}
	}
	for n := int32(1); n <= int32(session.PartCount); n++ {
		if _, ok := parts[n]; !ok {
			return nil, fmt.Errorf("%w: part %d not reported", errs.ErrIncompleteUpload, n)
		}
	}

	if err := c.store.CompleteMultipartUpload(ctx, session.StorageBucket, session.StorageKey, session.UploadRef, parts); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}

	moved, err := c.sessions.Transition(actor.OrgID, sessionID, StateCompleted, StateInitiated, StatePartsPending)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}
	if moved {
		if err := c.sessions.SaveParts(actor.OrgID, sessionID, parts); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrDependency, err)
		}
		if err := c.fileRepo.Finalize(actor.OrgID, session.FileID); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrDependency, err)
		}
		if _, err := c.sink.Record(ctx, actor.OrgID, actor.ID, "file.upload.completed", "file", session.FileID, map[string]interface{}{
			"session_id": sessionID,
			"part_count": session.PartCount,
		}); err != nil {
			return nil, err
		}
	}

	return c.sessions.GetByID(actor.OrgID, sessionID)
}

// Abort cancels a live session and marks its pending file deleted. Terminal
// sessions cannot be aborted.
func (c *Coordinator) Abort(ctx context.Context, actor authz.Actor, sessionID string) error {
	allowed, err := c.engine.Authorize(ctx, actor, authz.ClassFiles, authz.ActionCreate, authz.Request{})
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}
	if !allowed {
		return errs.ErrForbidden
	}

	session, err := c.sessions.GetByID(actor.OrgID, sessionID)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}
	if session == nil {
		return errs.ErrNotFound
	}
	if !session.Live() {
		return errs.ErrConflict
	}

	if err := c.store.AbortMultipartUpload(ctx, session.StorageBucket, session.StorageKey, session.UploadRef); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}

	moved, err := c.sessions.Transition(actor.OrgID, sessionID, StateAborted, StateInitiated, StatePartsPending)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}
	if !moved {
		return errs.ErrConflict
	}

	if err := c.fileRepo.SoftDelete(actor.OrgID, session.FileID); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}

	_, err = c.sink.Record(ctx, actor.OrgID, actor.ID, "file.upload.aborted", "file", session.FileID, map[string]interface{}{
		"session_id": sessionID,
	})
	return err
}
