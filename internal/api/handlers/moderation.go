package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/safetrade/safetrade-backend/internal/models"
	"github.com/safetrade/safetrade-backend/internal/services"
	"github.com/safetrade/safetrade-backend/internal/utils"
	"github.com/safetrade/safetrade-backend/pkg/logger"
)

type ModerationHandler struct {
	moderationService *services.ModerationService
	detectionService  *services.DetectionService
}

func NewModerationHandler(moderationService *services.ModerationService, detectionService *services.DetectionService) *ModerationHandler {
	return &ModerationHandler{
		moderationService: moderationService,
		detectionService:  detectionService,
	}
}

// sendModerationError maps service sentinels onto the API error taxonomy:
// missing records are 404, precondition violations are 400, anything else 500.
func sendModerationError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, services.ErrIncidentNotFound):
		utils.SendNotFound(c, "Incident not found", err)
	case errors.Is(err, services.ErrProductNotFound):
		utils.SendNotFound(c, "Product not found", err)
	case errors.Is(err, services.ErrModeratorNotFound),
		errors.Is(err, services.ErrAlreadyAssigned),
		errors.Is(err, services.ErrAppealAlreadyAssigned),
		errors.Is(err, services.ErrSelfReview),
		errors.Is(err, services.ErrInvalidAssignmentState),
		errors.Is(err, services.ErrInvalidIncidentType),
		errors.Is(err, services.ErrInvalidIncidentStatus),
		errors.Is(err, services.ErrInvalidResolution),
		errors.Is(err, services.ErrProductNotSuspended),
		errors.Is(err, services.ErrAppealAlreadyFiled),
		errors.Is(err, services.ErrNotProductOwner):
		utils.SendError(c, http.StatusBadRequest, message, err)
	default:
		utils.SendInternalError(c, message, err)
	}
}

// GetIncidentsByStatus returns incidents in one lifecycle state.
func (h *ModerationHandler) GetIncidentsByStatus(c *gin.Context) {
	status := models.IncidentStatus(c.Param("status"))

	incidents, err := h.moderationService.GetIncidentsByStatus(c.Request.Context(), status)
	if err != nil {
		sendModerationError(c, "Failed to fetch incidents", err)
		return
	}

	utils.SendSuccess(c, "Incidents retrieved successfully", incidents)
}

// GetAllIncidents returns the full backlog with product and moderators joined.
func (h *ModerationHandler) GetAllIncidents(c *gin.Context) {
	incidents, err := h.moderationService.GetAllIncidents(c.Request.Context())
	if err != nil {
		sendModerationError(c, "Failed to fetch incidents", err)
		return
	}

	utils.SendSuccess(c, "Incidents retrieved successfully", incidents)
}

// CreateReport files a report against a product. The reporter is always the
// authenticated caller; the system reporter id is reserved for the detection
// pipeline.
func (h *ModerationHandler) CreateReport(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req services.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}
	req.ReporterID = strconv.FormatUint(uint64(userID), 10)

	incident, err := h.moderationService.CreateReport(c.Request.Context(), req)
	if err != nil {
		sendModerationError(c, "Failed to create report", err)
		return
	}

	utils.SendCreated(c, "Report created successfully", incident)
}

// UpdateIncidentStatus is the raw status setter (admin escape hatch).
func (h *ModerationHandler) UpdateIncidentStatus(c *gin.Context) {
	incidentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid incident ID")
		return
	}

	var req struct {
		Status models.IncidentStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	incident, err := h.moderationService.UpdateIncidentStatus(c.Request.Context(), uint(incidentID), req.Status)
	if err != nil {
		sendModerationError(c, "Failed to update incident status", err)
		return
	}

	utils.SendSuccess(c, "Incident status updated successfully", incident)
}

// AssignModerator attaches a moderator to the incident's current phase.
func (h *ModerationHandler) AssignModerator(c *gin.Context) {
	incidentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid incident ID")
		return
	}

	moderatorID, err := strconv.ParseUint(c.Param("moderator_id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid moderator ID")
		return
	}

	incident, err := h.moderationService.AssignModerator(c.Request.Context(), uint(incidentID), uint(moderatorID))
	if err != nil {
		sendModerationError(c, "Failed to assign moderator", err)
		return
	}

	utils.SendSuccess(c, "Moderator assigned successfully", incident)
}

// Appeal lets the product owner challenge an accepted incident once.
func (h *ModerationHandler) Appeal(c *gin.Context) {
	incidentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid incident ID")
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	// Admins may appeal on the owner's behalf; everyone else must own the
	// reported product.
	userID := c.GetUint("user_id")
	if c.GetString("user_role") == models.RoleAdmin {
		userID = 0
	}

	incident, err := h.moderationService.ManageAppeal(c.Request.Context(), uint(incidentID), userID, req.Reason)
	if err != nil {
		sendModerationError(c, "Failed to file appeal", err)
		return
	}

	utils.SendSuccess(c, "Appeal filed successfully", incident)
}

// ResolveIncident records the final verdict for the current review phase.
func (h *ModerationHandler) ResolveIncident(c *gin.Context) {
	incidentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid incident ID")
		return
	}

	var req struct {
		FinalStatus models.IncidentStatus `json:"final_status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	incident, err := h.moderationService.ResolveIncident(c.Request.Context(), uint(incidentID), req.FinalStatus)
	if err != nil {
		sendModerationError(c, "Failed to resolve incident", err)
		return
	}

	logger.Infof("incident %d resolved as %s by moderator %d", incident.ID, incident.Status, c.GetUint("user_id"))
	utils.SendSuccess(c, "Incident resolved successfully", incident)
}

// DetectDangerousProducts sweeps active listings and returns the dangerous
// subset.
func (h *ModerationHandler) DetectDangerousProducts(c *gin.Context) {
	products, err := h.detectionService.DetectDangerousProducts(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "Failed to run detection sweep", err)
		return
	}

	utils.SendSuccess(c, "Detection sweep completed", products)
}
