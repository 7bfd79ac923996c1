package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"docvault/internal/pkg/errors"
)

// ClientInfo is the requester's network identity, captured by the HTTP layer
// and carried down through the context.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type clientInfoKey struct{}

// WithClientInfo attaches requester info for later Record calls.
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

// Record is one append-only audit row. Never updated or deleted.
type Record struct {
	ID             string                 `json:"id"`
	OrganizationID string                 `json:"organization_id"`
	ActorID        string                 `json:"actor_id"`
	Action         string                 `json:"action"`
	ResourceType   string                 `json:"resource_type"`
	ResourceID     string                 `json:"resource_id"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	IPAddress      string                 `json:"ip_address"`
	UserAgent      string                 `json:"user_agent"`
	CreatedAt      int64                  `json:"created_at"`
}

// Sink persists audit records. Every write is a single synchronous insert:
// if it fails the calling mutation must be reported as failed, because an
// unaudited privileged mutation is worse than a rejected request.
type Sink struct {
	db *sql.DB
}

func NewSink(db *sql.DB) *Sink {
	return &Sink{db: db}
}

// SystemActor is the actor id recorded for provider-driven mutations that
// have no human behind them.
const SystemActor = "system"

func (s *Sink) Record(ctx context.Context, orgID, actorID, action, resourceType, resourceID string, metadata map[string]interface{}) (*Record, error) {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)

	rec := &Record{
		ID:             "audit_" + uuid.NewString(),
		OrganizationID: orgID,
		ActorID:        actorID,
		Action:         action,
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		Metadata:       metadata,
		IPAddress:      info.IPAddress,
		UserAgent:      info.UserAgent,
		CreatedAt:      time.Now().Unix(),
	}

	metaJSON, _ := json.Marshal(metadata)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, organization_id, actor_id, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.OrganizationID, rec.ActorID, rec.Action, rec.ResourceType, rec.ResourceID, string(metaJSON), rec.IPAddress, rec.UserAgent, rec.CreatedAt)
	if err != nil {
		log.Error().Err(err).Str("action", action).Str("org", orgID).Msg("audit write failed")
		return nil, fmt.Errorf("%w: audit write: %v", errors.ErrDependency, err)
	}

	return rec, nil
}

// Query returns an organization's records, newest first, optionally bounded
// by a [from, to] unix-seconds window.
func (s *Sink) Query(ctx context.Context, orgID string, from, to int64, limit int) ([]*Record, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if to == 0 {
		to = time.Now().Unix()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, organization_id, actor_id, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at
		FROM audit_logs
		WHERE organization_id = ? AND created_at >= ? AND created_at <= ?
		ORDER BY created_at DESC
		LIMIT ?
	`, orgID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		var metaRaw []byte
		if err := rows.Scan(&rec.ID, &rec.OrganizationID, &rec.ActorID, &rec.Action, &rec.ResourceType, &rec.ResourceID, &metaRaw, &rec.IPAddress, &rec.UserAgent, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if len(metaRaw) > 0 {
			json.Unmarshal(metaRaw, &rec.Metadata)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
