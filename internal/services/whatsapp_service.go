package services

import (
	"fmt"
	"net/url"
	"strings"

	"estatecrm/internal/repositories"
)

// WhatsAppService строит wa.me deep link для приветствия лида.
// Само сообщение сервер НЕ отправляет — ссылку открывает агент.
type WhatsAppService struct {
	LeadRepo *repositories.LeadRepository
	TeamRepo *repositories.TeamRepository
}

func NewWhatsAppService(leadRepo *repositories.LeadRepository, teamRepo *repositories.TeamRepository) *WhatsAppService {
	return &WhatsAppService{LeadRepo: leadRepo, TeamRepo: teamRepo}
}

type WelcomeLink struct {
	WhatsAppURL string `json:"whatsappUrl"`
	LeadName    string `json:"leadName"`
	Agent       string `json:"agent"`
}

// digitsOnly — wa.me принимает номер без +, пробелов и скобок.
func digitsOnly(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (s *WhatsAppService) WelcomeLink(leadID int) (*WelcomeLink, error) {
	lead, err := s.LeadRepo.GetByID(leadID)
	if err != nil || lead == nil {
		return nil, ErrLeadNotFound
	}
	phone := digitsOnly(lead.Phone)
	if phone == "" {
		return nil, fmt.Errorf("lead %d has no usable phone number", leadID)
	}

	agentName := "our team"
	if lead.AssignedToID != 0 {
		if member, err := s.TeamRepo.GetByID(lead.AssignedToID); err == nil && member != nil {
			agentName = member.Name
		}
	}

	text := fmt.Sprintf(
		"Hello %s! This is %s from EstateCRM. Thank you for your interest, when would be a good time to talk about what you're looking for?",
		lead.Name, agentName,
	)
	link := &WelcomeLink{
		WhatsAppURL: fmt.Sprintf("https://wa.me/%s?text=%s", phone, url.QueryEscape(text)),
		LeadName:    lead.Name,
		Agent:       agentName,
	}
	return link, nil
}
