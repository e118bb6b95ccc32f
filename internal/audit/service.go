package audit

import (
	"context"
	"encoding/json"

	"estoque-backend/internal/database"
	"estoque-backend/internal/models"

	"go.uber.org/zap"
)

type LogOptions struct {
	UserID      int64
	UserName    string
	EntityType  string
	EntityID    int64
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

type Service struct {
	store database.AuditStore
	log   *zap.Logger
}

func NewService(store database.AuditStore, log *zap.Logger) *Service {
	return &Service{store: store, log: log}
}

// WriteLog records one audit entry. It is best-effort: a failure is logged
// and never reaches the caller, whose write has already succeeded.
func (s *Service) WriteLog(ctx context.Context, opts LogOptions) {
	entry := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		// jsonb columns need "null", not an empty string
		BeforeData: snapshot(opts.Before),
		AfterData:  snapshot(opts.After),
	}

	if err := s.store.CreateAuditLog(ctx, &entry); err != nil {
		s.log.Warn("audit log not saved",
			zap.String("entity_type", opts.EntityType),
			zap.Int64("entity_id", opts.EntityID),
			zap.Error(err),
		)
	}
}

func (s *Service) List(ctx context.Context, f database.AuditFilter) ([]models.AuditLog, error) {
	return s.store.ListAuditLogs(ctx, f)
}

func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
