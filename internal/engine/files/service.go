package files

import (
	"context"
	"fmt"

	"docvault/internal/engine/authz"
	"docvault/internal/engine/storage"
	errs "docvault/internal/pkg/errors"
	"docvault/internal/platform/audit"
)

// Service gates every file operation through the authorization engine and
// emits one audit record per successful mutation, before reporting success.
type Service struct {
	repo   *Repository
	engine *authz.Engine
	store  storage.ObjectStore
	sink   *audit.Sink
}

func NewService(repo *Repository, engine *authz.Engine, store storage.ObjectStore, sink *audit.Sink) *Service {
	return &Service{repo: repo, engine: engine, store: store, sink: sink}
}

func (s *Service) List(ctx context.Context, actor authz.Actor, path string, limit int) ([]*File, error) {
	allowed, err := s.engine.Authorize(ctx, actor, authz.ClassFiles, authz.ActionRead, authz.Request{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}
	if !allowed {
		return nil, errs.ErrForbidden
	}

	if path == "" {
		path = "/"
	}
	list, err := s.repo.ListByPath(actor.OrgID, path, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, actor authz.Actor, fileID, linkToken string) (*File, error) {
	return s.authorizedFile(ctx, actor, fileID, authz.ActionRead, linkToken)
}

// Rename updates file metadata under the optimistic version discipline: the
// caller supplies the version it read, and a stale version fails with
// Conflict rather than silently overwriting a concurrent editor.
func (s *Service) Rename(ctx context.Context, actor authz.Actor, fileID, newName string, version int64) (*File, error) {
	if newName == "" {
		return nil, fmt.Errorf("%w: file name required", errs.ErrInvalidInput)
	}

	f, err := s.authorizedFile(ctx, actor, fileID, authz.ActionUpdate, "")
	if err != nil {
		return nil, err
	}

	affected, err := s.repo.UpdateMetadata(actor.OrgID, fileID, newName, version)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}
	if affected == 0 {
		return nil, errs.ErrConflict
	}

	if _, err := s.sink.Record(ctx, actor.OrgID, actor.ID, "file.updated", "file", fileID, map[string]interface{}{
		"old_name": f.Name,
		"new_name": newName,
	}); err != nil {
		return nil, err
	}

	return s.repo.GetByID(actor.OrgID, fileID)
}

// Delete soft-deletes the file. A share granting delete lets an otherwise
// unprivileged actor through, which is the point of shares.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, fileID, linkToken string) error {
	f, err := s.authorizedFile(ctx, actor, fileID, authz.ActionDelete, linkToken)
	if err != nil {
		return err
	}

	if err := s.repo.SoftDelete(actor.OrgID, fileID); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}

	_, err = s.sink.Record(ctx, actor.OrgID, actor.ID, "file.deleted", "file", fileID, map[string]interface{}{
		"file_name": f.Name,
	})
	return err
}

// DownloadURL issues a time-limited read reference on the stored object.
func (s *Service) DownloadURL(ctx context.Context, actor authz.Actor, fileID, linkToken string) (string, error) {
	f, err := s.authorizedFile(ctx, actor, fileID, authz.ActionRead, linkToken)
	if err != nil {
		return "", err
	}
	if f.Status != StatusActive {
		return "", errs.ErrNotFound
	}

	url, err := s.store.PresignGet(ctx, f.StorageBucket, f.StorageKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}
	return url, nil
}

func (s *Service) authorizedFile(ctx context.Context, actor authz.Actor, fileID string, action authz.Action, linkToken string) (*File, error) {
	f, err := s.repo.GetByID(actor.OrgID, fileID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}
	if f == nil || f.IsDeleted {
		return nil, errs.ErrNotFound
	}

	allowed, err := s.engine.Authorize(ctx, actor, authz.ClassFiles, action, authz.Request{
		ResourceID: fileID,
		LinkToken:  linkToken,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}
	if !allowed {
		return nil, errs.ErrForbidden
	}
	return f, nil
}
