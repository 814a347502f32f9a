// backend/src/services/email_service.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/duitku/backend/src/config"
	"github.com/username/duitku/backend/src/logger"
)

type EmailService interface {
	SendPasswordResetEmail(toEmail, username, token string) error
}

func NewEmailService() EmailService {
	if config.Cfg == nil {
		slog.Error("Configuration (config.Cfg) is nil. Email service will default to mock.")
		return &MockEmailService{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or SenderEmail missing). Falling back to MockEmailService.")
			return &MockEmailService{PasswordResetBaseURL: config.Cfg.PasswordResetBaseURL}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunEmailService{
			mg:                   mg,
			senderEmail:          config.Cfg.SenderEmail,
			senderName:           config.Cfg.SenderName,
			PasswordResetBaseURL: config.Cfg.PasswordResetBaseURL,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("SMTP configuration incomplete. Falling back to MockEmailService.")
			return &MockEmailService{PasswordResetBaseURL: config.Cfg.PasswordResetBaseURL}
		}
		return &SMTPEmailService{
			SMTPServer:           config.Cfg.SMTPServer,
			SMTPPort:             config.Cfg.SMTPPort,
			SMTPUser:             config.Cfg.SMTPUser,
			SMTPPassword:         config.Cfg.SMTPPassword,
			SenderEmail:          config.Cfg.SenderEmail,
			PasswordResetBaseURL: config.Cfg.PasswordResetBaseURL,
		}
	default:
		logger.L.Info("Defaulting to MockEmailService.")
		return &MockEmailService{PasswordResetBaseURL: config.Cfg.PasswordResetBaseURL}
	}
}

type SMTPEmailService struct {
	SMTPServer           string
	SMTPPort             int
	SMTPUser             string
	SMTPPassword         string
	SenderEmail          string
	PasswordResetBaseURL string
}

func (s *SMTPEmailService) SendPasswordResetEmail(toEmail, username, token string) error {
	from := s.SenderEmail
	to := []string{toEmail}
	subject := "Password Reset Request for Duitku (SMTP)"
	resetLink := fmt.Sprintf("%s?token=%s", s.PasswordResetBaseURL, token)
	body := fmt.Sprintf(`Hi %s,

    You requested a password reset for your Duitku account.
    Please click the following link to reset your password:
    %s

    If you did not request a password reset, please ignore this email. This link will expire in %s.

    Thanks,
    The Duitku Team (via SMTP)`, username, resetLink, config.Cfg.PasswordResetTokenExpiry.String())

	header := make(map[string]string)
	header["From"] = from
	header["To"] = toEmail
	header["Subject"] = subject
	header["MIME-version"] = "1.0"
	header["Content-Type"] = "text/plain; charset=\"UTF-8\""
	message := ""
	for k, v := range header {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body
	auth := smtp.PlainAuth("", s.SMTPUser, s.SMTPPassword, s.SMTPServer)
	addr := fmt.Sprintf("%s:%d", s.SMTPServer, s.SMTPPort)
	err := smtp.SendMail(addr, auth, from, to, []byte(message))
	if err != nil {
		logger.L.Error("Failed to send password reset email via SMTP", "error", err, "to", toEmail)
		return fmt.Errorf("failed to send password reset email via SMTP: %w", err)
	}
	logger.L.Info("Password reset email sent successfully via SMTP", "to", toEmail)
	return nil
}

type MailgunEmailService struct {
	mg                   mailgun.Mailgun
	senderEmail          string
	senderName           string
	PasswordResetBaseURL string
}

func (s *MailgunEmailService) SendPasswordResetEmail(toEmail, username, token string) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	subject := "Password Reset Request for Duitku"
	recipient := toEmail

	resetLink := fmt.Sprintf("%s?token=%s", s.PasswordResetBaseURL, token)

	plainTextBody := fmt.Sprintf(`Hi %s,

You requested a password reset for your Duitku account. Click the link below to choose a new password:
%s

If you did not request a password reset, please ignore this email. This link will expire in %s.

Thanks,
The Duitku Team`, username, resetLink, config.Cfg.PasswordResetTokenExpiry.String())

	htmlBody := fmt.Sprintf(`
	<html>
		<body style="font-family: Arial, sans-serif; line-height: 1.6;">
			<p>Hi %s,</p>
			<p>You requested a password reset for your Duitku account. Click the button below to choose a new password:</p>
			<p><a href="%s" target="_blank" style="color: #1a73e8; text-decoration: none; font-weight: bold; padding: 10px 15px; border: 1px solid #1a73e8; border-radius: 4px; background-color: #e8f0fe;">Reset Password</a></p>
			<p>If the button above doesn't work, you can copy and paste the following URL into your browser's address bar:</p>
			<p><a href="%s" target="_blank" style="color: #1a73e8;">%s</a></p>
			<p>If you did not request a password reset, please ignore this email. This link will expire in %s.</p>
			<p>Thanks,<br>The Duitku Team</p>
		</body>
	</html>`, username, resetLink, resetLink, resetLink, config.Cfg.PasswordResetTokenExpiry.String())

	message := s.mg.NewMessage(from, subject, plainTextBody, recipient)
	message.SetHtml(htmlBody)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()
	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send password reset email via Mailgun", "error", err, "to", toEmail, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed: %w. Response: %s", err, resp)
	}
	logger.L.Info("Password reset email sent successfully via Mailgun", "to", toEmail, "id", id, "mailgunResp", resp)
	return nil
}

// MockEmailService logs instead of sending. Used in development and as the
// fallback when a provider is misconfigured.
type MockEmailService struct {
	PasswordResetBaseURL string
}

func (s *MockEmailService) SendPasswordResetEmail(toEmail, username, token string) error {
	resetLink := fmt.Sprintf("%s?token=%s", s.PasswordResetBaseURL, token)
	if logger.L != nil {
		logger.L.Info("MOCK: password reset email", "to", toEmail, "username", username, "link", resetLink)
	} else {
		slog.Info("MOCK: password reset email", "to", toEmail, "username", username, "link", resetLink)
	}
	return nil
}
