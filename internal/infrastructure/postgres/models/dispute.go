package models

import (
	"time"
)

type DisputeModel struct {
	ID                  string `gorm:"primaryKey"`
	OrderID             string `gorm:"type:uuid;uniqueIndex"`
	BuyerID             string `gorm:"type:uuid;index"`
	SellerID            string `gorm:"type:uuid;index"`
	Reason              string
	Description         string
	ProofUrl            string
	SellerResponse      string
	OrderStatusOriginal string
	Status              string     `gorm:"index:idx_disputes_status_auto"`
	Order               OrderModel `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
	Ttl                 time.Duration
	AutoResolveAt       time.Time `gorm:"index:idx_disputes_status_auto"`
	ResolvedAt          *time.Time
	RefundID            string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (DisputeModel) TableName() string { return "disputes" }

type FraudFlagModel struct {
	ID         string `gorm:"primaryKey;type:uuid"`
	UserID     string `gorm:"type:uuid;index"`
	Source     string `gorm:"index"`
	Reason     string
	Severity   string
	Details    map[string]interface{} `gorm:"type:jsonb;serializer:json"`
	Status     string                 `gorm:"index"`
	ReviewedBy string
	ReviewedAt *time.Time
	CreatedAt  time.Time
}

func (FraudFlagModel) TableName() string { return "fraud_flags" }
