package models

import "time"

// Pipeline statuses for a lead.
const (
	LeadStatusNew         = "new"
	LeadStatusContacted   = "contacted"
	LeadStatusQualified   = "qualified"
	LeadStatusProposal    = "proposal"
	LeadStatusNegotiation = "negotiation"
	LeadStatusClosedWon   = "closed_won"
	LeadStatusClosedLost  = "closed_lost"
)

// Acquisition sources.
const (
	LeadSourceWebsite   = "website"
	LeadSourceFacebook  = "facebook"
	LeadSourceInstagram = "instagram"
	LeadSourceReferral  = "referral"
	LeadSourceWalkIn    = "walk_in"
	LeadSourcePhone     = "phone"
)

type Lead struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	City    string `json:"city"`
	Address string `json:"address,omitempty"`
	Status  string `json:"status"`
	Source  string `json:"source"`

	// Стабильный id агента вместо имени (имя меняется — ссылка живёт).
	// 0 = не назначен.
	AssignedToID int `json:"assigned_to_id"`

	// ID интересующих объектов; в БД лежит json-строкой (см. репозиторий).
	InterestedProperties []int `json:"interested_properties"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ValidLeadStatus(s string) bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
		LeadStatusProposal, LeadStatusNegotiation,
		LeadStatusClosedWon, LeadStatusClosedLost:
		return true
	}
	return false
}
