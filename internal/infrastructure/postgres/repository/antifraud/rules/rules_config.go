package rules

import (
	"fmt"
	"time"
)

// FraudRuleModel is an operator-configured fraud rule row
type FraudRuleModel struct {
	ID        string                 `gorm:"primaryKey;type:uuid"`
	Name      string                 `gorm:"not null;unique"`
	Type      string                 `gorm:"not null"` // "purchase_velocity", "new_account_high_value", "repeated_disputes"
	Config    map[string]interface{} `gorm:"type:jsonb;not null;serializer:json"`
	Severity  string                 `gorm:"not null;default:medium"`
	IsActive  bool                   `gorm:"default:true"`
	Priority  int                    `gorm:"default:0"`
	CreatedAt time.Time              `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time              `gorm:"default:CURRENT_TIMESTAMP"`
}

func (FraudRuleModel) TableName() string { return "fraud_rules" }

const (
	TypePurchaseVelocity    = "purchase_velocity"
	TypeNewAccountHighValue = "new_account_high_value"
	TypeRepeatedDisputes    = "repeated_disputes"
)

// RuleConfig is implemented by every typed rule configuration
type RuleConfig interface {
	Validate() error
	GetThreshold() interface{}
}

// PurchaseVelocityConfig limits how many orders a buyer may place within a window
type PurchaseVelocityConfig struct {
	MaxOrders       int      `json:"max_orders"`
	WindowHours     int      `json:"window_hours"`
	StatusesToCount []string `json:"statuses_to_count"`
}

func (c *PurchaseVelocityConfig) Validate() error {
	if c.MaxOrders <= 0 {
		return fmt.Errorf("max_orders must be positive")
	}
	if c.WindowHours <= 0 {
		return fmt.Errorf("window_hours must be positive")
	}
	return nil
}

func (c *PurchaseVelocityConfig) GetThreshold() interface{} {
	return c.MaxOrders
}

func (c *PurchaseVelocityConfig) Window() time.Duration {
	return time.Duration(c.WindowHours) * time.Hour
}

// NewAccountHighValueConfig caps single order value for young accounts
type NewAccountHighValueConfig struct {
	MinAccountAgeDays int     `json:"min_account_age_days"`
	MaxOrderTotal     float64 `json:"max_order_total"`
	WindowHours       int     `json:"window_hours"`
}

func (c *NewAccountHighValueConfig) Validate() error {
	if c.MinAccountAgeDays <= 0 {
		return fmt.Errorf("min_account_age_days must be positive")
	}
	if c.MaxOrderTotal <= 0 {
		return fmt.Errorf("max_order_total must be positive")
	}
	if c.WindowHours <= 0 {
		return fmt.Errorf("window_hours must be positive")
	}
	return nil
}

func (c *NewAccountHighValueConfig) GetThreshold() interface{} {
	return c.MaxOrderTotal
}

func (c *NewAccountHighValueConfig) Window() time.Duration {
	return time.Duration(c.WindowHours) * time.Hour
}

// RepeatedDisputesConfig limits disputes opened by a buyer within a window
type RepeatedDisputesConfig struct {
	MaxDisputes int `json:"max_disputes"`
	WindowDays  int `json:"window_days"`
}

func (c *RepeatedDisputesConfig) Validate() error {
	if c.MaxDisputes <= 0 {
		return fmt.Errorf("max_disputes must be positive")
	}
	if c.WindowDays <= 0 {
		return fmt.Errorf("window_days must be positive")
	}
	return nil
}

func (c *RepeatedDisputesConfig) GetThreshold() interface{} {
	return c.MaxDisputes
}

func (c *RepeatedDisputesConfig) Window() time.Duration {
	return time.Duration(c.WindowDays) * 24 * time.Hour
}

// DecodeConfig turns a jsonb config into the typed config for ruleType
func DecodeConfig(ruleType string, raw map[string]interface{}) (RuleConfig, error) {
	var cfg RuleConfig
	switch ruleType {
	case TypePurchaseVelocity:
		cfg = &PurchaseVelocityConfig{}
	case TypeNewAccountHighValue:
		cfg = &NewAccountHighValueConfig{}
	case TypeRepeatedDisputes:
		cfg = &RepeatedDisputesConfig{}
	default:
		return nil, fmt.Errorf("unknown rule type %q", ruleType)
	}
	if err := remarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("invalid config for %s rule: %w", ruleType, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
