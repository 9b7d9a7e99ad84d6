package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"estatecrm/internal/models"
	"estatecrm/internal/repositories"
)

type PropertyService struct {
	Repo     *repositories.PropertyRepository
	LeadRepo *repositories.LeadRepository
	TeamRepo *repositories.TeamRepository
	Emails   EmailService
}

func NewPropertyService(
	repo *repositories.PropertyRepository,
	leadRepo *repositories.LeadRepository,
	teamRepo *repositories.TeamRepository,
	emails EmailService,
) *PropertyService {
	return &PropertyService{Repo: repo, LeadRepo: leadRepo, TeamRepo: teamRepo, Emails: emails}
}

func (s *PropertyService) Create(p *models.Property) error {
	if strings.TrimSpace(p.Title) == "" {
		return errors.New("title is required")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = p.CreatedAt

	if err := s.Repo.Create(p); err != nil {
		return err
	}
	s.alertMatchingLeads(p)
	return nil
}

// alertMatchingLeads — письмо агентам лидов из того же города.
// Best effort: ошибка алерта не валит создание объекта.
func (s *PropertyService) alertMatchingLeads(p *models.Property) {
	if s.Emails == nil || s.LeadRepo == nil || s.TeamRepo == nil {
		return
	}
	leads, err := s.LeadRepo.ListByCity(p.City)
	if err != nil {
		log.Printf("[properties] warning: lead lookup for alerts failed: %v", err)
		return
	}
	for _, lead := range leads {
		if lead.AssignedToID == 0 {
			continue
		}
		member, err := s.TeamRepo.GetByID(lead.AssignedToID)
		if err != nil || member == nil {
			continue
		}
		if err := s.Emails.SendPropertyAlert(member, lead, p); err != nil {
			log.Printf("[properties] warning: alert to %s failed: %v", member.Email, err)
		}
	}
}

func (s *PropertyService) Update(p *models.Property) error {
	if strings.TrimSpace(p.Title) == "" {
		return errors.New("title is required")
	}
	p.UpdatedAt = time.Now()
	return s.Repo.Update(p)
}

func (s *PropertyService) GetByID(id int) (*models.Property, error) {
	return s.Repo.GetByID(id)
}

func (s *PropertyService) Delete(id int) error {
	return s.Repo.Delete(id)
}

func (s *PropertyService) List() ([]*models.Property, error) {
	return s.Repo.List()
}
