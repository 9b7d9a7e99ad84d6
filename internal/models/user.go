package models

import "time"

type User struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // не отдаём наружу
	Role         string `json:"role"`

	// Привязка аккаунта к карточке агента: лиды ссылаются на
	// team_members.id, скоуп роли agent считается по этому полю.
	// 0 = аккаунт без карточки (служебный).
	TeamMemberID int `json:"team_member_id"`

	CreatedAt time.Time `json:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}
