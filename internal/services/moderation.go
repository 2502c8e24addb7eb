package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/safetrade/safetrade-backend/internal/models"
	"github.com/safetrade/safetrade-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrIncidentNotFound       = errors.New("incident not found")
	ErrModeratorNotFound      = errors.New("moderator not found")
	ErrAlreadyAssigned        = errors.New("incident already assigned to a moderator")
	ErrAppealAlreadyAssigned  = errors.New("appeal already assigned to a moderator")
	ErrSelfReview             = errors.New("original moderator cannot handle the appeal")
	ErrInvalidAssignmentState = errors.New("incident not in a valid state for assignment")
	ErrInvalidIncidentType    = errors.New("invalid incident type")
	ErrInvalidIncidentStatus  = errors.New("invalid incident status")
	ErrInvalidResolution      = errors.New("resolution must be ACCEPTED or REJECTED")
	ErrProductNotSuspended    = errors.New("product is not suspended, nothing to appeal")
	ErrAppealAlreadyFiled     = errors.New("appeal already submitted for this incident")
	ErrNotProductOwner        = errors.New("only the product owner can appeal")
)

type ModerationService struct {
	db           *gorm.DB
	emailService *EmailService
}

func NewModerationService(db *gorm.DB, emailService *EmailService) *ModerationService {
	if db == nil {
		panic("database connection cannot be nil")
	}
	return &ModerationService{db: db, emailService: emailService}
}

type CreateReportRequest struct {
	ProductID  uint                `json:"product_id" binding:"required"`
	Type       models.IncidentType `json:"type" binding:"required"`
	Comment    *string             `json:"comment,omitempty"`
	ReporterID string              `json:"reporter_id"`
}

// resolvedProductStatus maps an incident's phase and final status to the
// product status the resolution must leave behind. A first-strike acceptance
// suspends the listing so the owner can still appeal; acceptance of the appeal
// verdict bans it for good. Rejection restores the listing in either phase.
func resolvedProductStatus(phase models.IncidentPhase, finalStatus models.IncidentStatus) (models.ProductStatus, bool) {
	switch finalStatus {
	case models.IncidentStatusRejected:
		return models.ProductStatusActive, true
	case models.IncidentStatusAccepted:
		if phase == models.IncidentPhaseAppeal {
			return models.ProductStatusBanned, true
		}
		return models.ProductStatusSuspended, true
	}
	return "", false
}

// CreateReport files an incident against a product and flips the product to
// REPORTED. Both writes happen in one transaction: a report that cannot take
// the product off the market is a failed report.
func (s *ModerationService) CreateReport(ctx context.Context, req CreateReportRequest) (*models.Incident, error) {
	if !models.IsValidIncidentType(req.Type) {
		return nil, ErrInvalidIncidentType
	}

	incident := models.Incident{
		ProductID:  req.ProductID,
		Type:       req.Type,
		Comment:    req.Comment,
		ReporterID: req.ReporterID,
		Status:     models.IncidentStatusPending,
		Phase:      models.IncidentPhaseInitial,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&incident).Error; err != nil {
			return fmt.Errorf("failed to create incident: %w", err)
		}

		result := tx.Model(&models.Product{}).
			Where("id = ?", req.ProductID).
			Update("status", models.ProductStatusReported)
		if result.Error != nil {
			return fmt.Errorf("failed to update product status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &incident, nil
}

// AssignModerator attaches a moderator to the incident's current review phase.
// The assignment is a conditional update on the unassigned column, so two
// racing moderators cannot both win: the second writer affects zero rows and
// is told the incident is already taken.
func (s *ModerationService) AssignModerator(ctx context.Context, incidentID, moderatorID uint) (*models.Incident, error) {
	var incident models.Incident
	if err := s.db.WithContext(ctx).First(&incident, incidentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIncidentNotFound
		}
		return nil, fmt.Errorf("failed to fetch incident: %w", err)
	}

	var moderator models.User
	if err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", moderatorID, true).
		First(&moderator).Error; err != nil {
		return nil, ErrModeratorNotFound
	}

	switch incident.Status {
	case models.IncidentStatusAppealed:
		if incident.ModeratorID != nil && *incident.ModeratorID == moderatorID {
			return nil, ErrSelfReview
		}
		result := s.db.WithContext(ctx).Model(&models.Incident{}).
			Where("id = ? AND appeal_moderator_id IS NULL", incidentID).
			Updates(map[string]interface{}{
				"appeal_moderator_id": moderatorID,
				"updated_at":          time.Now(),
			})
		if result.Error != nil {
			return nil, fmt.Errorf("failed to assign appeal moderator: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrAppealAlreadyAssigned
		}

	case models.IncidentStatusPending:
		result := s.db.WithContext(ctx).Model(&models.Incident{}).
			Where("id = ? AND moderator_id IS NULL", incidentID).
			Updates(map[string]interface{}{
				"moderator_id": moderatorID,
				"updated_at":   time.Now(),
			})
		if result.Error != nil {
			return nil, fmt.Errorf("failed to assign moderator: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrAlreadyAssigned
		}

	default:
		return nil, ErrInvalidAssignmentState
	}

	if err := s.db.WithContext(ctx).First(&incident, incidentID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload incident: %w", err)
	}
	return &incident, nil
}

// ResolveIncident records the moderator's verdict and projects it onto the
// product. The same operation serves the initial review and the appeal; the
// incident's phase decides between suspension and a permanent ban. The product
// update is best-effort, the incident verdict is authoritative either way.
func (s *ModerationService) ResolveIncident(ctx context.Context, incidentID uint, finalStatus models.IncidentStatus) (*models.Incident, error) {
	if finalStatus != models.IncidentStatusAccepted && finalStatus != models.IncidentStatusRejected {
		return nil, ErrInvalidResolution
	}

	var incident models.Incident
	if err := s.db.WithContext(ctx).First(&incident, incidentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIncidentNotFound
		}
		return nil, fmt.Errorf("failed to fetch incident: %w", err)
	}

	productStatus, ok := resolvedProductStatus(incident.Phase, finalStatus)
	if ok && incident.ProductID != 0 {
		result := s.db.WithContext(ctx).Model(&models.Product{}).
			Where("id = ?", incident.ProductID).
			Update("status", productStatus)
		if result.Error != nil {
			logger.Warnf("resolve incident %d: product %d status update failed: %v",
				incidentID, incident.ProductID, result.Error)
		}
	}

	result := s.db.WithContext(ctx).Model(&models.Incident{}).
		Where("id = ?", incidentID).
		Updates(map[string]interface{}{
			"status":     finalStatus,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update incident: %w", result.Error)
	}

	incident.Status = finalStatus
	s.notifyOwner(ctx, &incident, productStatus)

	return &incident, nil
}

// ManageAppeal re-opens an accepted incident for a second, independent review.
// Only allowed while the product sits in SUSPENDED, and only once.
func (s *ModerationService) ManageAppeal(ctx context.Context, incidentID uint, userID uint, reason string) (*models.Incident, error) {
	var incident models.Incident
	if err := s.db.WithContext(ctx).First(&incident, incidentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIncidentNotFound
		}
		return nil, fmt.Errorf("failed to fetch incident: %w", err)
	}

	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, incident.ProductID).Error; err != nil {
		return nil, ErrProductNotFound
	}

	if userID != 0 && product.UserID != userID {
		return nil, ErrNotProductOwner
	}
	if product.Status != models.ProductStatusSuspended {
		return nil, ErrProductNotSuspended
	}
	if incident.AppealReason != nil {
		return nil, ErrAppealAlreadyFiled
	}

	result := s.db.WithContext(ctx).Model(&models.Incident{}).
		Where("id = ?", incidentID).
		Updates(map[string]interface{}{
			"status":        models.IncidentStatusAppealed,
			"phase":         models.IncidentPhaseAppeal,
			"appeal_reason": reason,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to file appeal: %w", result.Error)
	}

	incident.Status = models.IncidentStatusAppealed
	incident.Phase = models.IncidentPhaseAppeal
	incident.AppealReason = &reason
	return &incident, nil
}

// UpdateIncidentStatus is the plain status setter behind the admin endpoint.
// It validates the enum but, like the product status projection, enforces no
// transition legality.
func (s *ModerationService) UpdateIncidentStatus(ctx context.Context, incidentID uint, status models.IncidentStatus) (*models.Incident, error) {
	if !models.IsValidIncidentStatus(status) {
		return nil, ErrInvalidIncidentStatus
	}

	result := s.db.WithContext(ctx).Model(&models.Incident{}).
		Where("id = ?", incidentID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update incident status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrIncidentNotFound
	}

	var incident models.Incident
	if err := s.db.WithContext(ctx).First(&incident, incidentID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload incident: %w", err)
	}
	return &incident, nil
}

// GetIncidentsByStatus lists incidents in one lifecycle state, newest first.
func (s *ModerationService) GetIncidentsByStatus(ctx context.Context, status models.IncidentStatus) ([]models.Incident, error) {
	if !models.IsValidIncidentStatus(status) {
		return nil, ErrInvalidIncidentStatus
	}

	var incidents []models.Incident
	if err := s.db.WithContext(ctx).
		Preload("Product").
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&incidents).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch incidents: %w", err)
	}
	return incidents, nil
}

// GetAllIncidents returns the full moderation backlog with product and
// moderator details joined in, for the dashboard.
func (s *ModerationService) GetAllIncidents(ctx context.Context) ([]models.Incident, error) {
	var incidents []models.Incident
	if err := s.db.WithContext(ctx).
		Preload("Product").
		Preload("Moderator").
		Preload("AppealModerator").
		Order("created_at DESC").
		Find(&incidents).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch incidents: %w", err)
	}
	return incidents, nil
}

// notifyOwner emails the product owner about the verdict. Failures are logged
// and never roll back the resolution.
func (s *ModerationService) notifyOwner(ctx context.Context, incident *models.Incident, productStatus models.ProductStatus) {
	if s.emailService == nil {
		return
	}

	var product models.Product
	if err := s.db.WithContext(ctx).Preload("Owner").First(&product, incident.ProductID).Error; err != nil {
		logger.Warnf("resolution mail for incident %d skipped: %v", incident.ID, err)
		return
	}
	if product.Owner.Email == "" {
		return
	}

	if err := s.emailService.SendModerationOutcomeEmail(product.Owner.Email, product.Name, incident.Status, productStatus); err != nil {
		logger.Warnf("failed to send resolution mail for incident %d: %v", incident.ID, err)
	}
}
