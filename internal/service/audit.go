package service

import (
	"github.com/Baaaki/heritage-museum/internal/audit"
	"github.com/Baaaki/heritage-museum/pkg/logger"
	"go.uber.org/zap"
)

// AuditLog is satisfied by *audit.Log.
type AuditLog interface {
	Append(entry audit.Entry) error
	Recent(limit int) ([]audit.Entry, error)
}

// record appends to the audit trail after a committed change. The change is
// not undone if the append fails; the failure is logged instead.
func record(log AuditLog, entry audit.Entry) {
	if log == nil {
		return
	}
	if err := log.Append(entry); err != nil {
		logger.Log.Error("Failed to append audit entry",
			zap.String("action", entry.Action),
			zap.String("actor_id", entry.ActorID),
			zap.String("target_id", entry.TargetID),
			zap.Error(err),
		)
	}
}
