package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/safetrade/safetrade-backend/internal/models"
	"github.com/safetrade/safetrade-backend/pkg/logger"
	"gorm.io/gorm"
)

// DetectionService runs the classifier over listings and leaves a system
// incident behind for every dangerous one. It never changes product status;
// that stays with the caller.
type DetectionService struct {
	db         *gorm.DB
	classifier *Classifier
}

func NewDetectionService(db *gorm.DB, classifier *Classifier) *DetectionService {
	if db == nil {
		panic("database connection cannot be nil")
	}
	return &DetectionService{db: db, classifier: classifier}
}

// DetectDangerousProductByID classifies one product. On a dangerous verdict a
// system incident is written best-effort: a failed insert is logged and the
// verdict is still returned.
func (s *DetectionService) DetectDangerousProductByID(ctx context.Context, productID uint) (bool, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrProductNotFound
		}
		return false, fmt.Errorf("failed to fetch product: %w", err)
	}

	dangerous := s.classifier.IsDangerous(product.Name, product.Description)
	if dangerous {
		s.recordSystemIncident(ctx, product.ID)
	}
	return dangerous, nil
}

// DetectDangerousProducts sweeps every ACTIVE listing and returns the
// dangerous subset. Incident persistence stays best-effort per product, so a
// bad row never aborts the rest of the sweep.
func (s *DetectionService) DetectDangerousProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.ProductStatusActive).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch active products: %w", err)
	}

	var dangerous []models.Product
	for _, product := range products {
		if !s.classifier.IsDangerous(product.Name, product.Description) {
			continue
		}
		dangerous = append(dangerous, product)
		s.recordSystemIncident(ctx, product.ID)
	}
	return dangerous, nil
}

func (s *DetectionService) recordSystemIncident(ctx context.Context, productID uint) {
	comment := models.SystemDetectionComment
	incident := models.Incident{
		ProductID:  productID,
		Type:       models.IncidentTypeDangerous,
		Comment:    &comment,
		ReporterID: models.SystemReporterID,
		Status:     models.IncidentStatusPending,
		Phase:      models.IncidentPhaseInitial,
	}

	if err := s.db.WithContext(ctx).Create(&incident).Error; err != nil {
		logger.Warnf("failed to record system incident for product %d: %v", productID, err)
	}
}
