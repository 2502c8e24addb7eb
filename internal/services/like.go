package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/safetrade/safetrade-backend/internal/models"
	"gorm.io/gorm"
)

type LikeService struct {
	db *gorm.DB
}

func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{db: db}
}

// ToggleLike adds a like for the user on the product, or removes it if one
// already exists. Returns true when the like was added.
func (s *LikeService) ToggleLike(ctx context.Context, userID, productID uint) (bool, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).
		Where("id = ? AND status = ?", productID, models.ProductStatusActive).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrProductNotFound
		}
		return false, fmt.Errorf("%w: failed to fetch product: %v", ErrDatabaseQuery, err)
	}

	var existing models.ProductLike
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ?", productID, userID).
		First(&existing).Error

	if err == nil {
		if err := s.db.WithContext(ctx).Delete(&existing).Error; err != nil {
			return false, fmt.Errorf("failed to remove like: %v", err)
		}
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("%w: failed to check existing like: %v", ErrDatabaseQuery, err)
	}

	like := models.ProductLike{UserID: userID, ProductID: productID}
	if err := s.db.WithContext(ctx).Create(&like).Error; err != nil {
		return false, fmt.Errorf("failed to create like: %v", err)
	}
	return true, nil
}

// CountLikes returns how many users like the product.
func (s *LikeService) CountLikes(ctx context.Context, productID uint) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.ProductLike{}).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: failed to count likes: %v", ErrDatabaseQuery, err)
	}
	return count, nil
}
