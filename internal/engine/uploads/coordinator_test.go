package uploads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"docvault/internal/engine/authz"
	"docvault/internal/engine/files"
	errs "docvault/internal/pkg/errors"
	"docvault/internal/platform/audit"
	"docvault/internal/platform/config"
	"docvault/internal/platform/models"
)

type fakeStore struct {
	creates   int
	presigns  []int32
	completes int
	aborts    int
}

func (f *fakeStore) CreateMultipartUpload(ctx context.Context, bucket, key, contentType string) (string, error) {
	f.creates++
	return fmt.Sprintf("upload-%d", f.creates), nil
}

func (f *fakeStore) PresignUploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int32) (string, error) {
	f.presigns = append(f.presigns, partNumber)
	return fmt.Sprintf("https://store.example/%s/part/%d", uploadID, partNumber), nil
}

func (f *fakeStore) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts map[int32]string) error {
	f.completes++
	return nil
}

func (f *fakeStore) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	f.aborts++
	return nil
}

func (f *fakeStore) PresignGet(ctx context.Context, bucket, key string) (string, error) {
	return "https://store.example/get/" + key, nil
}

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE files (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		name TEXT NOT NULL,
		path TEXT NOT NULL DEFAULT '/',
		type TEXT NOT NULL DEFAULT 'file',
		size INTEGER NOT NULL DEFAULT 0,
		content_type TEXT,
		storage_bucket TEXT NOT NULL DEFAULT '',
		storage_key TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		version INTEGER NOT NULL DEFAULT 1,
		created_by TEXT NOT NULL,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		deleted_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE upload_sessions (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		file_id TEXT NOT NULL,
		upload_ref TEXT NOT NULL,
		storage_bucket TEXT NOT NULL,
		storage_key TEXT NOT NULL,
		total_size INTEGER NOT NULL,
		part_size INTEGER NOT NULL,
		part_count INTEGER NOT NULL,
		completed_parts TEXT NOT NULL DEFAULT '{}',
		state TEXT NOT NULL DEFAULT 'initiated',
		created_by TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE audit_logs (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		metadata TEXT,
		ip_address TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	`
	_, err = db.Exec(schema)
	require.NoError(t, err)
	return db
}

func setupCoordinator(t *testing.T, cfg config.UploadsConfig) (*Coordinator, *fakeStore, *sql.DB) {
	db := setupTestDB(t)
	store := &fakeStore{}
	coordinator := NewCoordinator(
		NewRepository(db),
		files.NewRepository(db),
		authz.NewEngine(nil),
		store,
		audit.NewSink(db),
		cfg,
		"test-bucket",
	)
	return coordinator, store, db
}

func testOrg() *models.Organization {
	return &models.Organization{
		ID:            "org_1",
		IsolationMode: models.IsolationPrefix,
		StoragePrefix: "org-acme",
	}
}

func testActor() authz.Actor {
	return authz.Actor{ID: "usr_1", OrgID: "org_1", Role: authz.RoleMember}
}

func auditCount(t *testing.T, db *sql.DB, action string) int {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM audit_logs WHERE action = ?`, action).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestCoordinator_Initiate(t *testing.T) {
	coordinator, store, db := setupCoordinator(t, config.UploadsConfig{PartSizeBytes: 5 * 1024 * 1024, MaxParts: 100})

	result, err := coordinator.Initiate(context.Background(), testActor(), testOrg(), InitiateParams{
		FileName:    "video.mp4",
		TotalSize:   12 * 1024 * 1024,
		ContentType: "video/mp4",
		ParentPath:  "/media",
	})
	require.NoError(t, err)

	// 12 MiB at 5 MiB parts rounds up to 3.
	require.Len(t, result.Parts, 3)
	require.Equal(t, int32(1), result.Parts[0].Number)
	require.Equal(t, int32(3), result.Parts[2].Number)
	require.Equal(t, "org-acme/media/video.mp4", result.StorageKey)
	require.Equal(t, []int32{1, 2, 3}, store.presigns)

	session, err := coordinator.sessions.GetByID("org_1", result.SessionID)
	require.NoError(t, err)
	require.Equal(t, StatePartsPending, session.State)

	file, err := coordinator.fileRepo.GetByID("org_1", result.FileID)
	require.NoError(t, err)
	require.Equal(t, files.StatusPending, file.Status)

	require.Equal(t, 1, auditCount(t, db, "file.upload.initiated"))
}

func TestCoordinator_Initiate_InvalidSize(t *testing.T) {
	coordinator, _, _ := setupCoordinator(t, config.UploadsConfig{PartSizeBytes: 5 * 1024 * 1024, MaxParts: 100})

	for _, size := range []int64{0, -1} {
		_, err := coordinator.Initiate(context.Background(), testActor(), testOrg(), InitiateParams{
			FileName: "a.bin", TotalSize: size, ContentType: "application/octet-stream",
		})
		require.ErrorIs(t, err, errs.ErrInvalidUploadSize)
	}
}

func TestCoordinator_Initiate_TooManyParts(t *testing.T) {
	coordinator, _, _ := setupCoordinator(t, config.UploadsConfig{PartSizeBytes: 1024, MaxParts: 3})

	_, err := coordinator.Initiate(context.Background(), testActor(), testOrg(), InitiateParams{
		FileName: "a.bin", TotalSize: 5 * 1024, ContentType: "application/octet-stream",
	})
	require.ErrorIs(t, err, errs.ErrInvalidUploadSize)
}

func TestCoordinator_Initiate_Forbidden(t *testing.T) {
	coordinator, store, _ := setupCoordinator(t, config.UploadsConfig{PartSizeBytes: 1024, MaxParts: 10})

	guest := authz.Actor{ID: "usr_2", OrgID: "org_1", Role: authz.RoleGuest}
	_, err := coordinator.Initiate(context.Background(), guest, testOrg(), InitiateParams{
		FileName: "a.bin", TotalSize: 100, ContentType: "text/plain",
	})
	require.ErrorIs(t, err, errs.ErrForbidden)
	require.Zero(t, store.creates)
}

func TestCoordinator_Complete(t *testing.T) {
	coordinator, store, db := setupCoordinator(t, config.UploadsConfig{PartSizeBytes: 1024, MaxParts: 10})
	ctx := context.Background()

	result, err := coordinator.Initiate(ctx, testActor(), testOrg(), InitiateParams{
		FileName: "a.bin", TotalSize: 3 * 1024, ContentType: "application/octet-stream",
	})
	require.NoError(t, err)

	// Missing part 3: the session must stay live for a retry.
	_, err = coordinator.Complete(ctx, testActor(), result.SessionID, []ReportedPart{
		{Number: 1, ETag: "e1"}, {Number: 2, ETag: "e2"},
	})
	require.ErrorIs(t, err, errs.ErrIncompleteUpload)

	session, err := coordinator.sessions.GetByID("org_1", result.SessionID)
	require.NoError(t, err)
	require.True(t, session.Live())
	require.Zero(t, store.completes)

	// An empty integrity tag counts as missing.
	_, err = coordinator.Complete(ctx, testActor(), result.SessionID, []ReportedPart{
		{Number: 1, ETag: "e1"}, {Number: 2, ETag: "e2"}, {Number: 3, ETag: ""},
	})
	require.ErrorIs(t, err, errs.ErrIncompleteUpload)

	full := []ReportedPart{
		{Number: 1, ETag: "e1"}, {Number: 2, ETag: "e2"}, {Number: 3, ETag: "e3"},
	}
	session, err = coordinator.Complete(ctx, testActor(), result.SessionID, full)
	require.NoError(t, err)
	require.Equal(t, StateCompleted, session.State)
	require.Equal(t, 1, store.completes)

	file, err := coordinator.fileRepo.GetByID("org_1", result.FileID)
	require.NoError(t, err)
	require.Equal(t, files.StatusActive, file.Status)
	require.Equal(t, 1, auditCount(t, db, "file.upload.completed"))

	// Redelivered complete: same answer, no new side effects.
	session, err = coordinator.Complete(ctx, testActor(), result.SessionID, full)
	require.NoError(t, err)
	require.Equal(t, StateCompleted, session.State)
	require.Equal(t, 1, store.completes)
	require.Equal(t, 1, auditCount(t, db, "file.upload.completed"))
}

func TestCoordinator_Complete_NotFound(t *testing.T) {
	coordinator, _, _ := setupCoordinator(t, config.UploadsConfig{PartSizeBytes: 1024, MaxParts: 10})

	_, err := coordinator.Complete(context.Background(), testActor(), "ups_missing", nil)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCoordinator_Abort(t *testing.T) {
	coordinator, store, db := setupCoordinator(t, config.UploadsConfig{PartSizeBytes: 1024, MaxParts: 10})
	ctx := context.Background()

	result, err := coordinator.Initiate(ctx, testActor(), testOrg(), InitiateParams{
		FileName: "a.bin", TotalSize: 2 * 1024, ContentType: "application/octet-stream",
	})
	require.NoError(t, err)

	require.NoError(t, coordinator.Abort(ctx, testActor(), result.SessionID))
	require.Equal(t, 1, store.aborts)

	session, err := coordinator.sessions.GetByID("org_1", result.SessionID)
	require.NoError(t, err)
	require.Equal(t, StateAborted, session.State)

	file, err := coordinator.fileRepo.GetByID("org_1", result.FileID)
	require.NoError(t, err)
	require.True(t, file.IsDeleted)
	require.Equal(t, 1, auditCount(t, db, "file.upload.aborted"))

	// Terminal sessions reject further transitions.
	err = coordinator.Abort(ctx, testActor(), result.SessionID)
	require.ErrorIs(t, err, errs.ErrConflict)

	_, err = coordinator.Complete(ctx, testActor(), result.SessionID, []ReportedPart{
		{Number: 1, ETag: "e1"}, {Number: 2, ETag: "e2"},
	})
	require.ErrorIs(t, err, errs.ErrConflict)
}

func TestCoordinator_CrossOrgSessionHidden(t *testing.T) {
	coordinator, _, _ := setupCoordinator(t, config.UploadsConfig{PartSizeBytes: 1024, MaxParts: 10})
	ctx := context.Background()

	result, err := coordinator.Initiate(ctx, testActor(), testOrg(), InitiateParams{
		FileName: "a.bin", TotalSize: 1024, ContentType: "text/plain",
	})
	require.NoError(t, err)

	intruder := authz.Actor{ID: "usr_9", OrgID: "org_other", Role: authz.RoleOwner}
	_, err = coordinator.Complete(ctx, intruder, result.SessionID, []ReportedPart{{Number: 1, ETag: "e1"}})
	require.True(t, errors.Is(err, errs.ErrNotFound))
}
