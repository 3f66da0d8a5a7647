package engine

import (
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
)

// FraudAuditLog keeps the history of fraud checks
type FraudAuditLog struct {
	ID        string                `gorm:"primaryKey;type:uuid"`
	UserID    string                `gorm:"not null;index"`
	CheckedAt time.Time             `gorm:"not null"`
	AllPassed bool                  `gorm:"not null"`
	Results   []*domain.CheckResult `gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time             `gorm:"default:CURRENT_TIMESTAMP"`
}

func (FraudAuditLog) TableName() string { return "fraud_audit_logs" }
