package models

import "time"

const (
	MemberStatusActive   = "active"
	MemberStatusInactive = "inactive"
)

// TeamMember represents an agent shown on the team page.
type TeamMember struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	Role     string    `json:"role"` // manager / super_agent / agent
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joined_at"`
}
