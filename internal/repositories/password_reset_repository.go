package repositories

import (
	"database/sql"
	"log"
	"time"

	"estatecrm/internal/models"
)

type PasswordResetRepository interface {
	Create(reset *models.PasswordReset) error
	GetByToken(token string) (*models.PasswordReset, error)
	MarkUsed(id int, usedAt time.Time) error
}

type passwordResetRepository struct {
	db *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) PasswordResetRepository {
	if db == nil {
		log.Fatalf("received nil database connection")
	}
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(reset *models.PasswordReset) error {
	const query = `
		INSERT INTO password_resets (user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.db.QueryRow(query, reset.UserID, reset.Token, reset.ExpiresAt, reset.CreatedAt).Scan(&reset.ID)
}

func (r *passwordResetRepository) GetByToken(token string) (*models.PasswordReset, error) {
	const query = `SELECT id, user_id, token, expires_at, used_at, created_at FROM password_resets WHERE token=$1`
	p := &models.PasswordReset{}
	if err := r.db.QueryRow(query, token).Scan(&p.ID, &p.UserID, &p.Token, &p.ExpiresAt, &p.UsedAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *passwordResetRepository) MarkUsed(id int, usedAt time.Time) error {
	const query = `UPDATE password_resets SET used_at=$1 WHERE id=$2`
	_, err := r.db.Exec(query, usedAt, id)
	return err
}
