package postgres

import (
	"log"

	"github.com/LavaJover/shvark-market-service/internal/config"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/models"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/repository/antifraud/engine"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/repository/antifraud/rules"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func MustInitDB(cfg *config.MarketConfig) *gorm.DB {
	dsn := cfg.MarketDB.Dsn
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	if cfg.MarketDB.AutoMigrate {
		if err := db.AutoMigrate(AllModels()...); err != nil {
			log.Fatalf("failed to auto migrate: %v\n", err.Error())
		}
	}

	return db
}

// AllModels lists every table the service owns.
func AllModels() []interface{} {
	return []interface{}{
		&models.ProfileModel{},
		&models.ListingModel{},
		&models.BundleModel{},
		&models.OrderModel{},
		&models.PayoutModel{},
		&models.CheckoutSessionModel{},
		&models.DisputeModel{},
		&models.RatingModel{},
		&models.APIKeyModel{},
		&models.FraudFlagModel{},
		&models.SellerRiskTierModel{},
		&models.SellerReputationModel{},
		&models.SellerBadgeModel{},
		&rules.FraudRuleModel{},
		&engine.FraudAuditLog{},
		&logger.PurchaseAttemptEvent{},
	}
}
