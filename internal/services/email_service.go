package services

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"estatecrm/internal/models"
)

type EmailService interface {
	SendWelcomeEmail(member *models.TeamMember) error
	SendLeadAssignedEmail(member *models.TeamMember, lead *models.Lead) error
	SendFollowUpReminder(member *models.TeamMember, lead *models.Lead) error
	SendPropertyAlert(member *models.TeamMember, lead *models.Lead, property *models.Property) error
	SendPasswordResetEmail(email, token string) error
}

// Шлём через SMTP-релей Brevo; креды в конфиге.
type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return s.dialer.DialAndSend(m)
}

func (s *emailService) SendWelcomeEmail(member *models.TeamMember) error {
	body := fmt.Sprintf(`
		<h2>Welcome to the team, %s!</h2>
		<p>Your agent account has been created with the role <strong>%s</strong>.</p>
		<p>Ask your manager for your login credentials.</p>
		<p>Best regards,<br>EstateCRM</p>
	`, member.Name, member.Role)

	if err := s.send(member.Email, "Welcome to EstateCRM!", body); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}

func (s *emailService) SendLeadAssignedEmail(member *models.TeamMember, lead *models.Lead) error {
	body := fmt.Sprintf(`
		<h3>New lead assigned to you</h3>
		<p><strong>%s</strong> (%s, %s) has been assigned to you.</p>
		<p>Source: %s. Current status: %s.</p>
		<p>Please reach out within 24 hours.</p>
	`, lead.Name, lead.Phone, lead.City, lead.Source, lead.Status)

	if err := s.send(member.Email, fmt.Sprintf("New lead: %s", lead.Name), body); err != nil {
		return fmt.Errorf("failed to send assignment email: %w", err)
	}
	return nil
}

func (s *emailService) SendFollowUpReminder(member *models.TeamMember, lead *models.Lead) error {
	body := fmt.Sprintf(`
		<h3>Follow-up reminder</h3>
		<p>Lead <strong>%s</strong> (%s) is waiting in status <strong>%s</strong>.</p>
		<p>Last update: %s.</p>
	`, lead.Name, lead.Phone, lead.Status, lead.UpdatedAt.Format("02.01.2006"))

	if err := s.send(member.Email, fmt.Sprintf("Follow up: %s", lead.Name), body); err != nil {
		return fmt.Errorf("failed to send follow-up reminder: %w", err)
	}
	return nil
}

func (s *emailService) SendPropertyAlert(member *models.TeamMember, lead *models.Lead, property *models.Property) error {
	body := fmt.Sprintf(`
		<h3>New property matching your lead</h3>
		<p><strong>%s</strong> — %s in %s, %.0f.</p>
		<p>Your lead %s is looking in the same city.</p>
	`, property.Title, property.Type, property.City, property.Price, lead.Name)

	if err := s.send(member.Email, fmt.Sprintf("New listing in %s", property.City), body); err != nil {
		return fmt.Errorf("failed to send property alert: %w", err)
	}
	return nil
}

func (s *emailService) SendPasswordResetEmail(email, token string) error {
	body := fmt.Sprintf(`
		<h3>Password reset requested</h3>
		<p>We received a request to reset the password for your account.</p>
		<p>Use the following token to reset your password: <strong>%s</strong></p>
		<p>If you did not request this change, you can ignore this email.</p>
	`, token)

	if err := s.send(email, "Password reset request", body); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}
