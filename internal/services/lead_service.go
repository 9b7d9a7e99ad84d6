package services

import (
	"errors"
	"log"
	"time"

	"estatecrm/internal/models"
	"estatecrm/internal/repositories"
)

var (
	ErrLeadNotFound      = errors.New("lead not found")
	ErrPropertyNotFound  = errors.New("property not found")
	ErrMemberNotFound    = errors.New("team member not found")
	ErrMemberInactive    = errors.New("team member is inactive")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrLeadUnassigned    = errors.New("lead has no assigned agent")
)

type LeadService struct {
	Repo         *repositories.LeadRepository
	PropertyRepo *repositories.PropertyRepository
	TeamRepo     *repositories.TeamRepository
	Emails       EmailService
	Notifier     *TelegramNotifier
}

func NewLeadService(
	repo *repositories.LeadRepository,
	propertyRepo *repositories.PropertyRepository,
	teamRepo *repositories.TeamRepository,
	emails EmailService,
	notifier *TelegramNotifier,
) *LeadService {
	return &LeadService{
		Repo:         repo,
		PropertyRepo: propertyRepo,
		TeamRepo:     teamRepo,
		Emails:       emails,
		Notifier:     notifier,
	}
}

func (s *LeadService) Create(lead *models.Lead) error {
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}
	if lead.Source == "" {
		lead.Source = models.LeadSourceWebsite
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}
	lead.UpdatedAt = lead.CreatedAt

	if err := s.Repo.Create(lead); err != nil {
		return err
	}

	// уведомление — best effort, создание не валим
	if err := s.Notifier.NotifyNewLead(lead); err != nil {
		log.Printf("[leads] warning: telegram notify failed for lead %d: %v", lead.ID, err)
	}
	return nil
}

func (s *LeadService) Update(lead *models.Lead) error {
	lead.UpdatedAt = time.Now()
	return s.Repo.Update(lead)
}

func (s *LeadService) GetByID(id int) (*models.Lead, error) {
	return s.Repo.GetByID(id)
}

func (s *LeadService) Delete(id int) error {
	return s.Repo.Delete(id)
}

func (s *LeadService) List() ([]*models.Lead, error) {
	return s.Repo.List()
}

// ListMy — «только мои» лиды для роли agent.
func (s *LeadService) ListMy(memberID int) ([]*models.Lead, error) {
	return s.Repo.ListByAssignee(memberID)
}

func (s *LeadService) UpdateStatus(id int, to string) error {
	if !models.ValidLeadStatus(to) {
		return ErrInvalidTransition
	}
	lead, err := s.Repo.GetByID(id)
	if err != nil || lead == nil {
		return ErrLeadNotFound
	}
	if !canTransition(lead.Status, to, LeadTransitions) {
		return ErrInvalidTransition
	}
	return s.Repo.UpdateStatus(id, to)
}

// Assign назначает агента и шлёт ему письмо + пинг в чат.
func (s *LeadService) Assign(leadID, memberID int) (*models.Lead, error) {
	lead, err := s.Repo.GetByID(leadID)
	if err != nil || lead == nil {
		return nil, ErrLeadNotFound
	}
	member, err := s.TeamRepo.GetByID(memberID)
	if err != nil || member == nil {
		return nil, ErrMemberNotFound
	}
	if member.Status != models.MemberStatusActive {
		return nil, ErrMemberInactive
	}

	if err := s.Repo.UpdateAssignee(leadID, memberID); err != nil {
		return nil, err
	}
	lead.AssignedToID = memberID

	if s.Emails != nil {
		if err := s.Emails.SendLeadAssignedEmail(member, lead); err != nil {
			log.Printf("[leads] warning: assignment email to %s failed: %v", member.Email, err)
		}
	}
	if err := s.Notifier.NotifyAssignment(lead, member); err != nil {
		log.Printf("[leads] warning: telegram notify failed for lead %d: %v", leadID, err)
	}
	return lead, nil
}

// LinkProperty добавляет объект в interested_properties (set-union) и
// возвращает сырую json-строку колонки — её же отдаёт эндпоинт.
func (s *LeadService) LinkProperty(leadID, propertyID int) (string, error) {
	lead, err := s.Repo.GetByID(leadID)
	if err != nil || lead == nil {
		return "", ErrLeadNotFound
	}
	if _, err := s.PropertyRepo.GetByID(propertyID); err != nil {
		return "", ErrPropertyNotFound
	}

	for _, id := range lead.InterestedProperties {
		if id == propertyID {
			// уже есть — идемпотентно
			return s.Repo.UpdateInterested(leadID, lead.InterestedProperties)
		}
	}
	return s.Repo.UpdateInterested(leadID, append(lead.InterestedProperties, propertyID))
}

func (s *LeadService) UnlinkProperty(leadID, propertyID int) (string, error) {
	lead, err := s.Repo.GetByID(leadID)
	if err != nil || lead == nil {
		return "", ErrLeadNotFound
	}
	next := make([]int, 0, len(lead.InterestedProperties))
	for _, id := range lead.InterestedProperties {
		if id != propertyID {
			next = append(next, id)
		}
	}
	return s.Repo.UpdateInterested(leadID, next)
}

// Remind шлёт назначенному агенту письмо-напоминание о лиде.
func (s *LeadService) Remind(leadID int) error {
	lead, err := s.Repo.GetByID(leadID)
	if err != nil || lead == nil {
		return ErrLeadNotFound
	}
	if lead.AssignedToID == 0 {
		return ErrLeadUnassigned
	}
	member, err := s.TeamRepo.GetByID(lead.AssignedToID)
	if err != nil || member == nil {
		return ErrMemberNotFound
	}
	if s.Emails == nil {
		return nil
	}
	return s.Emails.SendFollowUpReminder(member, lead)
}
