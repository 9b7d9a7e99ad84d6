package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"estatecrm/internal/authz"
	"estatecrm/internal/models"
	"estatecrm/internal/repositories"
)

type TeamService struct {
	Repo   *repositories.TeamRepository
	Emails EmailService
}

func NewTeamService(repo *repositories.TeamRepository, emails EmailService) *TeamService {
	return &TeamService{Repo: repo, Emails: emails}
}

func (s *TeamService) Create(m *models.TeamMember) error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("name is required")
	}
	if !authz.ValidRole(m.Role) {
		return errors.New("invalid role")
	}
	if m.Status == "" {
		m.Status = models.MemberStatusActive
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}

	if err := s.Repo.Create(m); err != nil {
		return err
	}

	if s.Emails != nil {
		if err := s.Emails.SendWelcomeEmail(m); err != nil {
			// warn but do not fail creation
			log.Printf("[team] warning: failed to send welcome email to %s: %v", m.Email, err)
		}
	}
	return nil
}

func (s *TeamService) Update(m *models.TeamMember) error {
	if m.Role != "" && !authz.ValidRole(m.Role) {
		return errors.New("invalid role")
	}
	return s.Repo.Update(m)
}

func (s *TeamService) GetByID(id int) (*models.TeamMember, error) {
	return s.Repo.GetByID(id)
}

// Delete убирает агента; его лиды остаются с повисшим assigned_to_id —
// клиентский слой находит их через OrphanedLeads.
func (s *TeamService) Delete(id int) error {
	return s.Repo.Delete(id)
}

func (s *TeamService) List() ([]*models.TeamMember, error) {
	return s.Repo.List()
}
