package services

import (
	"crypto/tls"
	"fmt"

	"github.com/safetrade/safetrade-backend/internal/config"
	"github.com/safetrade/safetrade-backend/internal/models"
	"gopkg.in/gomail.v2"
)

type EmailService struct {
	config *config.Config
}

func NewEmailService(config *config.Config) *EmailService {
	return &EmailService{config: config}
}

func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	d.TLSConfig = &tls.Config{InsecureSkipVerify: true}

	return d.DialAndSend(m)
}

// SendModerationOutcomeEmail tells a listing owner how a report against their
// listing was resolved.
func (s *EmailService) SendModerationOutcomeEmail(ownerEmail, productName string, verdict models.IncidentStatus, productStatus models.ProductStatus) error {
	var subject, detail string
	switch productStatus {
	case models.ProductStatusSuspended:
		subject = "Your listing has been suspended"
		detail = "A moderator accepted a report against your listing. It is no longer visible. You may appeal this decision once from your dashboard."
	case models.ProductStatusBanned:
		subject = "Your listing has been permanently removed"
		detail = "The appeal review upheld the report against your listing. This decision is final."
	case models.ProductStatusActive:
		subject = "Your listing has been restored"
		detail = "A moderator dismissed the report against your listing. It is visible again."
	default:
		subject = "Update on your listing"
		detail = fmt.Sprintf("A report against your listing was resolved as %s.", verdict)
	}

	body := fmt.Sprintf(`
		<h2>%s</h2>
		<p>Listing: <strong>%s</strong></p>
		<p>%s</p>
		<p>Best regards,<br>The SafeTrade Moderation Team</p>
	`, subject, productName, detail)

	return s.SendEmail(ownerEmail, subject, body)
}

func (s *EmailService) SendPasswordResetEmail(email, resetToken, baseURL string) error {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", baseURL, resetToken)

	subject := "Password Reset Request"
	body := fmt.Sprintf(`
		<h2>Password Reset Request</h2>
		<p>We received a request to reset the password for the account associated with <strong>%s</strong>.</p>
		<p><a href="%s">Reset your password</a></p>
		<p>Or copy and paste this link in your browser:</p>
		<p>%s</p>
		<p>This link expires in 1 hour. If you didn't request a reset, ignore this email.</p>
		<p>Best regards,<br>The SafeTrade Team</p>
	`, email, resetLink, resetLink)

	return s.SendEmail(email, subject, body)
}
