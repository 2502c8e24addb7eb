package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/safetrade/safetrade-backend/internal/services"
	"github.com/safetrade/safetrade-backend/internal/utils"
)

type LikeHandler struct {
	likeService *services.LikeService
}

func NewLikeHandler(likeService *services.LikeService) *LikeHandler {
	return &LikeHandler{likeService: likeService}
}

func (h *LikeHandler) ToggleLike(c *gin.Context) {
	userID := c.GetUint("user_id")

	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid product ID")
		return
	}

	added, err := h.likeService.ToggleLike(c.Request.Context(), userID, uint(productID))
	if err != nil {
		sendProductError(c, "Failed to toggle like", err)
		return
	}

	message := "Like added successfully"
	if !added {
		message = "Like removed successfully"
	}
	utils.SendSuccess(c, message, nil)
}

func (h *LikeHandler) CountLikes(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid product ID")
		return
	}

	count, err := h.likeService.CountLikes(c.Request.Context(), uint(productID))
	if err != nil {
		utils.SendInternalError(c, "Failed to count likes", err)
		return
	}

	utils.SendSuccess(c, "Likes counted successfully", gin.H{"count": count})
}
