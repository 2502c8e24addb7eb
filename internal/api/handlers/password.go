package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safetrade/safetrade-backend/internal/services"
	"github.com/safetrade/safetrade-backend/internal/utils"
)

type PasswordHandler struct {
	authService *services.AuthService
}

func NewPasswordHandler(authService *services.AuthService) *PasswordHandler {
	return &PasswordHandler{authService: authService}
}

func (h *PasswordHandler) ForgotPassword(c *gin.Context) {
	var req services.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	if err := h.authService.ForgotPassword(req); err != nil {
		utils.SendInternalError(c, "Failed to process forgot password request", err)
		return
	}

	utils.SendSuccess(c, "If your email exists in our system, you will receive a password reset link shortly", nil)
}

func (h *PasswordHandler) ValidateResetToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.SendValidationError(c, "Reset token is required")
		return
	}

	user, err := h.authService.ValidateResetToken(token)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid or expired reset token", err)
		return
	}

	utils.SendSuccess(c, "Reset token is valid", gin.H{"email": user.Email})
}

func (h *PasswordHandler) ResetPassword(c *gin.Context) {
	var req services.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	if err := h.authService.ResetPassword(req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Failed to reset password", err)
		return
	}

	utils.SendSuccess(c, "Password reset successfully. Please login with your new password", nil)
}

func (h *PasswordHandler) ChangePassword(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		utils.SendUnauthorized(c, "Unauthorized")
		return
	}

	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	if err := h.authService.ChangePassword(userID, req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Failed to change password", err)
		return
	}

	utils.SendSuccess(c, "Password changed successfully", nil)
}
