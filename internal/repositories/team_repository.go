package repositories

import (
	"database/sql"
	"fmt"
	"log"

	"estatecrm/internal/models"
)

type TeamRepository struct {
	db *sql.DB
}

func NewTeamRepository(db *sql.DB) *TeamRepository {
	if db == nil {
		log.Fatalf("received nil database connection")
	}
	return &TeamRepository{db: db}
}

const memberColumns = `id, name, email, phone, role, status, joined_at`

func scanMember(row interface{ Scan(...any) error }) (*models.TeamMember, error) {
	m := &models.TeamMember{}
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Role, &m.Status, &m.JoinedAt); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *TeamRepository) Create(m *models.TeamMember) error {
	const query = `
		INSERT INTO team_members (name, email, phone, role, status, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return r.db.QueryRow(query, m.Name, m.Email, m.Phone, m.Role, m.Status, m.JoinedAt).Scan(&m.ID)
}

func (r *TeamRepository) Update(m *models.TeamMember) error {
	const query = `
		UPDATE team_members
		SET name=$1, email=$2, phone=$3, role=$4, status=$5
		WHERE id=$6
	`
	_, err := r.db.Exec(query, m.Name, m.Email, m.Phone, m.Role, m.Status, m.ID)
	return err
}

func (r *TeamRepository) GetByID(id int) (*models.TeamMember, error) {
	query := `SELECT ` + memberColumns + ` FROM team_members WHERE id=$1`
	return scanMember(r.db.QueryRow(query, id))
}

func (r *TeamRepository) Delete(id int) error {
	const query = `DELETE FROM team_members WHERE id=$1`
	_, err := r.db.Exec(query, id)
	return err
}

func (r *TeamRepository) List() ([]*models.TeamMember, error) {
	query := `SELECT ` + memberColumns + ` FROM team_members ORDER BY id`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query team members: %w", err)
	}
	defer rows.Close()

	var out []*models.TeamMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *TeamRepository) ListActive() ([]*models.TeamMember, error) {
	query := `SELECT ` + memberColumns + ` FROM team_members WHERE status=$1 ORDER BY id`
	rows, err := r.db.Query(query, models.MemberStatusActive)
	if err != nil {
		return nil, fmt.Errorf("query active team members: %w", err)
	}
	defer rows.Close()

	var out []*models.TeamMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
