package services

import (
	"fmt"
	"time"

	"estatecrm/internal/models"
	"estatecrm/internal/repositories"
)

// DashboardService — агрегатная выборка трёх коллекций одним запросом
// клиента (вместо трёх раундтрипов).
type DashboardService struct {
	LeadRepo     *repositories.LeadRepository
	PropertyRepo *repositories.PropertyRepository
	TeamRepo     *repositories.TeamRepository
}

func NewDashboardService(
	leadRepo *repositories.LeadRepository,
	propertyRepo *repositories.PropertyRepository,
	teamRepo *repositories.TeamRepository,
) *DashboardService {
	return &DashboardService{LeadRepo: leadRepo, PropertyRepo: propertyRepo, TeamRepo: teamRepo}
}

type DashboardData struct {
	Leads      []*models.Lead       `json:"leads"`
	Properties []*models.Property   `json:"properties"`
	Team       []*models.TeamMember `json:"team"`
}

// Snapshot возвращает все три коллекции и время выборки.
func (s *DashboardService) Snapshot() (*DashboardData, string, error) {
	start := time.Now()

	leads, err := s.LeadRepo.List()
	if err != nil {
		return nil, "", fmt.Errorf("dashboard leads: %w", err)
	}
	properties, err := s.PropertyRepo.List()
	if err != nil {
		return nil, "", fmt.Errorf("dashboard properties: %w", err)
	}
	team, err := s.TeamRepo.List()
	if err != nil {
		return nil, "", fmt.Errorf("dashboard team: %w", err)
	}

	if leads == nil {
		leads = []*models.Lead{}
	}
	if properties == nil {
		properties = []*models.Property{}
	}
	if team == nil {
		team = []*models.TeamMember{}
	}

	data := &DashboardData{Leads: leads, Properties: properties, Team: team}
	return data, time.Since(start).Truncate(time.Microsecond).String(), nil
}
