package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/safetrade/safetrade-backend/internal/services"
	"github.com/safetrade/safetrade-backend/internal/utils"
	"github.com/safetrade/safetrade-backend/pkg/logger"
)

type GeocodingHandler struct {
	geocodingService *services.GeocodingService
}

func NewGeocodingHandler(geocodingService *services.GeocodingService) *GeocodingHandler {
	return &GeocodingHandler{geocodingService: geocodingService}
}

// Search proxies address lookups for the frontend. Upstream failures degrade
// to an empty result set rather than an error.
func (h *GeocodingHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		utils.SendValidationError(c, "Query parameter 'q' is required")
		return
	}

	results, err := h.geocodingService.Search(c.Request.Context(), query)
	if err != nil {
		logger.Warnf("geocoding search for %q failed: %v", query, err)
		results = []services.GeocodingResult{}
	}

	utils.SendSuccess(c, "Geocoding results retrieved", results)
}
