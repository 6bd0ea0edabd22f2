package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/spec-kit/resource-gateway/internal/events"
	"github.com/spec-kit/resource-gateway/internal/persistence"
)

// AuditLogKey is the Redis list holding the most recent audit entries,
// newest first. The query-log resource reads from the same list.
const AuditLogKey = "audit:events"

const auditLogMaxLen = 1000

// AuditService records authentication and resource-access events.
type AuditService struct {
	dispatcher events.Dispatcher
	redis      *persistence.Redis
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, redis *persistence.Redis, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		redis:      redis,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.record)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.record)
	a.dispatcher.Subscribe(events.EventTokenRefreshed, a.record)
	a.dispatcher.Subscribe(events.EventResourceRead, a.record)
}

func (a *AuditService) record(ctx context.Context, event events.Event) error {
	a.logger.Info("audit",
		zap.String("type", string(event.Type)),
		zap.String("subject", event.Subject))

	if a.redis == nil || a.redis.Client == nil {
		return nil
	}
	entry, err := json.Marshal(event)
	if err != nil {
		return err
	}

	pipe := a.redis.Client.Pipeline()
	pipe.LPush(ctx, AuditLogKey, entry)
	pipe.LTrim(ctx, AuditLogKey, 0, auditLogMaxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		a.logger.Warn("audit entry not persisted", zap.Error(err))
	}
	return nil
}
