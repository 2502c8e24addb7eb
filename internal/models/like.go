package models

import "time"

type ProductLike struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_product_likes_user_product"`
	ProductID uint      `json:"product_id" gorm:"not null;uniqueIndex:idx_product_likes_user_product"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User    User    `json:"user,omitempty"`
	Product Product `json:"product,omitempty"`
}

func (ProductLike) TableName() string {
	return "product_likes"
}
