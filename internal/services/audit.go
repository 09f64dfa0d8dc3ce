package services

import (
	"context"
	"log/slog"

	"github.com/baharkarakas/copywriter-backend/internal/models"
	repo "github.com/baharkarakas/copywriter-backend/internal/repository"
	"github.com/baharkarakas/copywriter-backend/internal/worker"
)

// auditor writes audit entries on the worker pool. A failed write is logged and dropped.
type auditor struct {
	log repo.AuditLogs
	wp  *worker.Pool
}

func (a auditor) record(entityType, entityID, action string, details map[string]any) {
	if a.log == nil {
		return
	}
	entry := models.AuditLog{
		EntityType: entityType,
		EntityID:   &entityID,
		Action:     action,
		Details:    details,
	}
	write := func() {
		if err := a.log.Create(context.Background(), entry); err != nil {
			slog.Warn("audit write failed", "entity", entityType, "id", entityID, "action", action, "err", err)
		}
	}
	if a.wp == nil {
		write()
		return
	}
	a.wp.Submit(write)
}
