package database

import (
	"github.com/safetrade/safetrade-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Init(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, err
	}

	// Auto migrate schemas
	err = db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Image{},
		&models.ProductLike{},
		&models.Incident{},
		&models.RefreshToken{},
		&models.PasswordResetToken{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
