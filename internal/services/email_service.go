package services

import (
	"fmt"

	"github.com/google/logger"
	"gopkg.in/gomail.v2"

	"kalyana/internal/models"
	"kalyana/internal/utils"
)

// OTPMailer delivers one-time codes. It reports whether delivery succeeded.
type OTPMailer interface {
	SendOTP(email, code string, purpose models.OTPPurpose) bool
}

type EmailService struct {
	dialer *gomail.Dialer
	from   string
	dryRun bool
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string, dryRun bool) *EmailService {
	var dialer *gomail.Dialer
	if smtpHost != "" {
		dialer = gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	}
	return &EmailService{dialer: dialer, from: fromEmail, dryRun: dryRun}
}

func (s *EmailService) SendOTP(email, code string, purpose models.OTPPurpose) bool {
	subject, heading := "Verify your Kalyana Connection account", "Complete your registration"
	if purpose == models.OTPPurposeReset {
		subject, heading = "Kalyana Connection password reset code", "Reset your password"
	}

	if s.dryRun {
		logger.Infof("[email][otp][dry-run] to=%s purpose=%s code=%s", utils.MaskEmail(email), purpose, code)
		return true
	}
	if s.dialer == nil || s.from == "" {
		logger.Warningf("[email][otp] smtp not configured, cannot send to %s", utils.MaskEmail(email))
		return false
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", subject)

	body := fmt.Sprintf(`
		<h3>%s</h3>
		<p>Your one-time code is <strong>%s</strong>.</p>
		<p>The code expires in %d minutes. If you did not request it, you can ignore this email.</p>
	`, heading, code, int(OTPTTL.Minutes()))
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		logger.Errorf("[email][otp] send to %s failed: %v", utils.MaskEmail(email), err)
		return false
	}
	logger.Infof("[email][otp] sent to=%s purpose=%s", utils.MaskEmail(email), purpose)
	return true
}
