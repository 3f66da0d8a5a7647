package logger

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// PurchaseAttemptEvent records every purchase made through the agent surfaces.
type PurchaseAttemptEvent struct {
	ID         uint `gorm:"primaryKey"`
	RequestID  string
	Channel    string `gorm:"index"`
	APIKeyID   string `gorm:"index"`
	BuyerID    string `gorm:"index"`
	ListingIDs string
	OrderID    string
	Amount     float64
	Currency   string
	Success    bool
	Reason     string
	Timestamp  time.Time
}

type PurchaseEventLogger interface {
	LogPurchaseAttempt(ctx context.Context, event PurchaseAttemptEvent) error
}

type PGPurchaseEventLogger struct {
	db *gorm.DB
}

func NewPGPurchaseEventLogger(db *gorm.DB) *PGPurchaseEventLogger {
	return &PGPurchaseEventLogger{db: db}
}

func (l *PGPurchaseEventLogger) LogPurchaseAttempt(ctx context.Context, event PurchaseAttemptEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return l.db.WithContext(ctx).Create(&event).Error
}
