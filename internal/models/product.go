package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductStatus is the listing's visibility state. The moderation engine is the
// only place where transition legality lives; the column itself accepts any value.
type ProductStatus string

const (
	ProductStatusActive      ProductStatus = "ACTIVE"
	ProductStatusReported    ProductStatus = "REPORTED"
	ProductStatusSuspended   ProductStatus = "SUSPENDED"
	ProductStatusBanned      ProductStatus = "BANNED"
	ProductStatusDeleted     ProductStatus = "DELETED"
	ProductStatusDeactivated ProductStatus = "DEACTIVATED"
)

func IsValidProductStatus(status ProductStatus) bool {
	switch status {
	case ProductStatusActive, ProductStatusReported, ProductStatusSuspended,
		ProductStatusBanned, ProductStatusDeleted, ProductStatusDeactivated:
		return true
	}
	return false
}

type Product struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	UserID      uint          `json:"user_id" gorm:"not null;index"`
	Name        string        `json:"name" gorm:"not null"`
	Description string        `json:"description"`
	Price       float64       `json:"price" gorm:"not null"`
	Category    string        `json:"category"`
	City        string        `json:"city"`
	Latitude    *float64      `json:"latitude,omitempty"`
	Longitude   *float64      `json:"longitude,omitempty"`
	Status      ProductStatus `json:"status" gorm:"default:ACTIVE;index"`
	Images      []Image       `json:"images" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Relations
	Owner User          `json:"owner,omitempty" gorm:"foreignKey:UserID"`
	Likes []ProductLike `json:"likes,omitempty"`
}

type Image struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ProductID   uint      `gorm:"not null;index" json:"product_id"`
	FileName    string    `gorm:"not null" json:"file_name"`
	S3Key       string    `gorm:"not null;unique" json:"s3_key"`
	S3URL       string    `gorm:"not null" json:"s3_url"`
	ContentType string    `gorm:"not null" json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Request structs for API
type CreateProductRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=255"`
	Description string  `json:"description" binding:"max=5000"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Category    string  `json:"category" binding:"max=100"`
	City        string  `json:"city" binding:"max=100"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Category    *string  `json:"category,omitempty"`
	City        *string  `json:"city,omitempty"`
}
