package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safetrade/safetrade-backend/internal/models"
	"github.com/safetrade/safetrade-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	QueryTimeout    = 30 * time.Second
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrImageNotFound   = errors.New("image not found")
	ErrInvalidFilter   = errors.New("invalid filter parameters")
	ErrDatabaseQuery   = errors.New("database query failed")
	ErrNotOwner        = errors.New("not the owner of this product")
)

type ProductService struct {
	db        *gorm.DB
	s3Service *S3Service
	geocoding *GeocodingService
	detection *DetectionService
}

func NewProductService(db *gorm.DB, s3Service *S3Service, geocoding *GeocodingService, detection *DetectionService) *ProductService {
	if db == nil {
		panic("database connection cannot be nil")
	}
	return &ProductService{
		db:        db,
		s3Service: s3Service,
		geocoding: geocoding,
		detection: detection,
	}
}

type ProductFilter struct {
	Category string  `form:"category" validate:"max=100"`
	City     string  `form:"city" validate:"max=100"`
	MinPrice float64 `form:"min_price" validate:"min=0"`
	MaxPrice float64 `form:"max_price" validate:"min=0"`
	Search   string  `form:"search" validate:"max=255"`
	Page     int     `form:"page" validate:"min=1"`
	Limit    int     `form:"limit" validate:"min=1,max=100"`
}

type ProductListResponse struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
	Pages    int              `json:"pages"`
}

// ValidateAndNormalize validates and normalizes filter parameters
func (f *ProductFilter) ValidateAndNormalize() error {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}

	if f.MinPrice < 0 || f.MaxPrice < 0 {
		return fmt.Errorf("%w: prices cannot be negative", ErrInvalidFilter)
	}
	if f.MinPrice > 0 && f.MaxPrice > 0 && f.MinPrice > f.MaxPrice {
		return fmt.Errorf("%w: min_price cannot be greater than max_price", ErrInvalidFilter)
	}

	f.Search = strings.TrimSpace(f.Search)
	f.Category = strings.TrimSpace(f.Category)
	f.City = strings.TrimSpace(f.City)

	if len(f.Search) > 255 {
		return fmt.Errorf("%w: search term too long", ErrInvalidFilter)
	}

	return nil
}

// GetProducts retrieves listings with filtering and pagination (public access -
// ACTIVE listings only).
func (s *ProductService) GetProducts(ctx context.Context, filter ProductFilter) (*ProductListResponse, error) {
	if err := filter.ValidateAndNormalize(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	var products []models.Product
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("status = ?", models.ProductStatusActive)
	query = s.applyFilters(query, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to count products: %v", ErrDatabaseQuery, err)
	}

	if total == 0 {
		return &ProductListResponse{
			Products: []models.Product{},
			Total:    0,
			Page:     filter.Page,
			Limit:    filter.Limit,
			Pages:    0,
		}, nil
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.
		Preload("Images").
		Offset(offset).
		Limit(filter.Limit).
		Order("created_at DESC").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to fetch products: %v", ErrDatabaseQuery, err)
	}

	pages := int(total) / filter.Limit
	if int(total)%filter.Limit > 0 {
		pages++
	}

	return &ProductListResponse{
		Products: products,
		Total:    total,
		Page:     filter.Page,
		Limit:    filter.Limit,
		Pages:    pages,
	}, nil
}

// GetProductByID retrieves a single ACTIVE listing by ID (public access).
func (s *ProductService) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: invalid product ID", ErrInvalidFilter)
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	var product models.Product
	if err := s.db.WithContext(ctx).
		Preload("Images").
		Where("id = ? AND status = ?", id, models.ProductStatusActive).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: failed to fetch product: %v", ErrDatabaseQuery, err)
	}

	return &product, nil
}

// ChangeStatus is the dumb status setter shared by the moderation engine and
// the detection callers. Transition legality lives entirely at the call sites.
func (s *ProductService) ChangeStatus(ctx context.Context, productID uint, status models.ProductStatus) error {
	result := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("%w: failed to change product status: %v", ErrDatabaseQuery, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// CreateProduct creates a listing for the given owner, geocodes its city
// best-effort, stores images on S3 and runs content detection. A dangerous
// verdict takes the fresh listing straight to REPORTED.
func (s *ProductService) CreateProduct(ctx context.Context, userID uint, req *models.CreateProductRequest, imageFiles []*multipart.FileHeader) (*models.Product, error) {
	if req == nil {
		return nil, errors.New("product request cannot be nil")
	}

	product := &models.Product{
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Category:    strings.TrimSpace(req.Category),
		City:        strings.TrimSpace(req.City),
		Status:      models.ProductStatusActive,
	}

	s.geocodeProduct(ctx, product)

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(product).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create product: %v", err)
	}

	if len(imageFiles) > 0 && s.s3Service != nil {
		uploadResults, err := s.s3Service.UploadMultipleImages(imageFiles)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to upload images: %v", err)
		}

		var images []models.Image
		for _, result := range uploadResults {
			images = append(images, models.Image{
				ProductID:   product.ID,
				FileName:    result.FileName,
				S3Key:       result.Key,
				S3URL:       result.URL,
				ContentType: result.ContentType,
				Size:        result.Size,
			})
		}

		if err := tx.Create(&images).Error; err != nil {
			tx.Rollback()
			var keys []string
			for _, result := range uploadResults {
				keys = append(keys, result.Key)
			}
			s.s3Service.DeleteMultipleImages(keys)
			return nil, fmt.Errorf("failed to create image records: %v", err)
		}

		product.Images = images
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %v", err)
	}

	s.runDetection(ctx, product)

	return product, nil
}

// UpdateProduct applies partial changes to an owned listing and re-runs
// content detection on the new text.
func (s *ProductService) UpdateProduct(ctx context.Context, userID, productID uint, req *models.UpdateProductRequest) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: failed to fetch product: %v", ErrDatabaseQuery, err)
	}
	if product.UserID != userID {
		return nil, ErrNotOwner
	}

	updateData := make(map[string]interface{})
	if req.Name != nil {
		updateData["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updateData["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, errors.New("price must be greater than 0")
		}
		updateData["price"] = *req.Price
	}
	if req.Category != nil {
		updateData["category"] = strings.TrimSpace(*req.Category)
	}
	if req.City != nil {
		updateData["city"] = strings.TrimSpace(*req.City)
	}

	if len(updateData) > 0 {
		if err := s.db.WithContext(ctx).Model(&product).Updates(updateData).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %v", err)
		}
	}

	if err := s.db.WithContext(ctx).Preload("Images").First(&product, productID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload product: %v", err)
	}

	if req.City != nil {
		s.geocodeProduct(ctx, &product)
		s.db.WithContext(ctx).Model(&product).
			Updates(map[string]interface{}{"latitude": product.Latitude, "longitude": product.Longitude})
	}

	s.runDetection(ctx, &product)

	return &product, nil
}

// DeleteProduct soft-deletes an owned listing by flipping it to DELETED; the
// row and its moderation history stay around.
func (s *ProductService) DeleteProduct(ctx context.Context, userID, productID uint) error {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("%w: failed to fetch product: %v", ErrDatabaseQuery, err)
	}
	if product.UserID != userID {
		return ErrNotOwner
	}

	return s.ChangeStatus(ctx, productID, models.ProductStatusDeleted)
}

// AddImages uploads additional images to an owned listing.
func (s *ProductService) AddImages(ctx context.Context, userID, productID uint, imageFiles []*multipart.FileHeader) ([]models.Image, error) {
	if len(imageFiles) == 0 {
		return nil, errors.New("no images provided")
	}
	if s.s3Service == nil {
		return nil, errors.New("image storage is not configured")
	}

	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: failed to fetch product: %v", ErrDatabaseQuery, err)
	}
	if product.UserID != userID {
		return nil, ErrNotOwner
	}

	uploadResults, err := s.s3Service.UploadMultipleImages(imageFiles)
	if err != nil {
		return nil, fmt.Errorf("failed to upload images: %v", err)
	}

	var images []models.Image
	for _, result := range uploadResults {
		images = append(images, models.Image{
			ProductID:   product.ID,
			FileName:    result.FileName,
			S3Key:       result.Key,
			S3URL:       result.URL,
			ContentType: result.ContentType,
			Size:        result.Size,
		})
	}

	if err := s.db.WithContext(ctx).Create(&images).Error; err != nil {
		var keys []string
		for _, result := range uploadResults {
			keys = append(keys, result.Key)
		}
		s.s3Service.DeleteMultipleImages(keys)
		return nil, fmt.Errorf("failed to create image records: %v", err)
	}

	return images, nil
}

// DeleteImage removes one image from an owned listing. The S3 object is
// deleted best-effort after the row goes away.
func (s *ProductService) DeleteImage(ctx context.Context, userID, productID uint, imageID uuid.UUID) error {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("%w: failed to fetch product: %v", ErrDatabaseQuery, err)
	}
	if product.UserID != userID {
		return ErrNotOwner
	}

	var image models.Image
	if err := s.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", imageID, productID).
		First(&image).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrImageNotFound
		}
		return fmt.Errorf("%w: failed to fetch image: %v", ErrDatabaseQuery, err)
	}

	if err := s.db.WithContext(ctx).Delete(&image).Error; err != nil {
		return fmt.Errorf("failed to delete image record: %v", err)
	}

	if s.s3Service != nil {
		if err := s.s3Service.DeleteImage(image.S3Key); err != nil {
			logger.Warnf("orphaned S3 object %s after image delete: %v", image.S3Key, err)
		}
	}

	return nil
}

// runDetection is the caller side of the detection contract: the pipeline only
// returns a verdict, flipping the listing to REPORTED is our job.
func (s *ProductService) runDetection(ctx context.Context, product *models.Product) {
	if s.detection == nil {
		return
	}

	dangerous, err := s.detection.DetectDangerousProductByID(ctx, product.ID)
	if err != nil {
		logger.Warnf("content detection failed for product %d: %v", product.ID, err)
		return
	}
	if !dangerous {
		return
	}

	if err := s.ChangeStatus(ctx, product.ID, models.ProductStatusReported); err != nil {
		logger.Errorf("product %d flagged dangerous but status change failed: %v", product.ID, err)
		return
	}
	product.Status = models.ProductStatusReported
}

// geocodeProduct resolves the listing's city to coordinates. Lookup failures
// leave the listing without coordinates, they never block the write.
func (s *ProductService) geocodeProduct(ctx context.Context, product *models.Product) {
	if s.geocoding == nil || product.City == "" {
		return
	}

	lat, lon, err := s.geocoding.Lookup(ctx, product.City)
	if err != nil {
		logger.Warnf("geocoding failed for %q: %v", product.City, err)
		return
	}
	product.Latitude = &lat
	product.Longitude = &lon
}

func (s *ProductService) applyFilters(query *gorm.DB, filter ProductFilter) *gorm.DB {
	if filter.Category != "" {
		query = query.Where("LOWER(category) LIKE ?", "%"+strings.ToLower(filter.Category)+"%")
	}
	if filter.City != "" {
		query = query.Where("LOWER(city) LIKE ?", "%"+strings.ToLower(filter.City)+"%")
	}
	if filter.MinPrice > 0 {
		query = query.Where("price >= ?", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		query = query.Where("price <= ?", filter.MaxPrice)
	}
	if filter.Search != "" {
		searchTerm := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(description) LIKE ?",
			searchTerm, searchTerm,
		)
	}
	return query
}

// GetCategories lists the distinct categories in use.
func (s *ProductService) GetCategories(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT category
		FROM products
		WHERE category IS NOT NULL AND category != ''
		ORDER BY category
	`

	categories := make([]string, 0)
	if err := s.db.WithContext(ctx).Raw(query).Scan(&categories).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to fetch categories: %v", ErrDatabaseQuery, err)
	}

	return categories, nil
}
