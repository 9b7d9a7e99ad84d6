package repositories

import (
	"database/sql"
	"log"

	"estatecrm/internal/models"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	UpdatePassword(id int, passwordHash string) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	if db == nil {
		log.Fatalf("received nil database connection")
	}
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *models.User) error {
	const query = `
		INSERT INTO users (name, email, password_hash, role, team_member_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return r.db.QueryRow(query, user.Name, user.Email, user.PasswordHash, user.Role, user.TeamMemberID, user.CreatedAt).Scan(&user.ID)
}

func (r *userRepository) GetByID(id int) (*models.User, error) {
	const query = `SELECT id, name, email, password_hash, role, team_member_id, created_at FROM users WHERE id=$1`
	u := &models.User{}
	if err := r.db.QueryRow(query, id).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.TeamMemberID, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	const query = `SELECT id, name, email, password_hash, role, team_member_id, created_at FROM users WHERE email=$1`
	u := &models.User{}
	if err := r.db.QueryRow(query, email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.TeamMemberID, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) UpdatePassword(id int, passwordHash string) error {
	const query = `UPDATE users SET password_hash=$1 WHERE id=$2`
	_, err := r.db.Exec(query, passwordHash, id)
	return err
}
