package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"estatecrm/internal/models"
)

type LeadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	if db == nil {
		log.Fatalf("received nil database connection")
	}
	return &LeadRepository{db: db}
}

// interested_properties лежит в БД json-строкой ("[3,7]") — ровно то,
// что отдают link/unlink эндпоинты.
func encodeIDs(ids []int) string {
	if ids == nil {
		ids = []int{}
	}
	b, _ := json.Marshal(ids)
	return string(b)
}

func decodeIDs(raw string) []int {
	if raw == "" {
		return []int{}
	}
	var ids []int
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		log.Printf("[leads][repo] bad interested_properties payload %q: %v", raw, err)
		return []int{}
	}
	return ids
}

const leadColumns = `id, name, phone, email, city, address, status, source, assigned_to_id, interested_properties, notes, created_at, updated_at`

func scanLead(row interface{ Scan(...any) error }) (*models.Lead, error) {
	l := &models.Lead{}
	var props string
	if err := row.Scan(&l.ID, &l.Name, &l.Phone, &l.Email, &l.City, &l.Address,
		&l.Status, &l.Source, &l.AssignedToID, &props, &l.Notes,
		&l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.InterestedProperties = decodeIDs(props)
	return l, nil
}

func (r *LeadRepository) Create(lead *models.Lead) error {
	const query = `
		INSERT INTO leads (name, phone, email, city, address, status, source, assigned_to_id, interested_properties, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	return r.db.QueryRow(query,
		lead.Name, lead.Phone, lead.Email, lead.City, lead.Address,
		lead.Status, lead.Source, lead.AssignedToID,
		encodeIDs(lead.InterestedProperties), lead.Notes,
		lead.CreatedAt, lead.UpdatedAt,
	).Scan(&lead.ID)
}

func (r *LeadRepository) Update(lead *models.Lead) error {
	const query = `
		UPDATE leads
		SET name=$1, phone=$2, email=$3, city=$4, address=$5, status=$6, source=$7,
		    assigned_to_id=$8, interested_properties=$9, notes=$10, updated_at=$11
		WHERE id=$12
	`
	_, err := r.db.Exec(query,
		lead.Name, lead.Phone, lead.Email, lead.City, lead.Address,
		lead.Status, lead.Source, lead.AssignedToID,
		encodeIDs(lead.InterestedProperties), lead.Notes, lead.UpdatedAt, lead.ID)
	return err
}

func (r *LeadRepository) GetByID(id int) (*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id=$1`
	return scanLead(r.db.QueryRow(query, id))
}

func (r *LeadRepository) Delete(id int) error {
	const query = `DELETE FROM leads WHERE id=$1`
	_, err := r.db.Exec(query, id)
	return err
}

func (r *LeadRepository) UpdateStatus(id int, status string) error {
	const query = `UPDATE leads SET status=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.db.Exec(query, status, id)
	return err
}

func (r *LeadRepository) UpdateAssignee(id, memberID int) error {
	const query = `UPDATE leads SET assigned_to_id=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.db.Exec(query, memberID, id)
	return err
}

func (r *LeadRepository) UpdateInterested(id int, propertyIDs []int) (string, error) {
	const query = `UPDATE leads SET interested_properties=$1, updated_at=NOW() WHERE id=$2 RETURNING interested_properties`
	var raw string
	err := r.db.QueryRow(query, encodeIDs(propertyIDs), id).Scan(&raw)
	return raw, err
}

// List — порядок вставки и есть порядок показа.
func (r *LeadRepository) List() ([]*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads ORDER BY id`
	return r.queryLeads(query)
}

// ListByAssignee — «только мои» лиды для роли agent.
func (r *LeadRepository) ListByAssignee(memberID int) ([]*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE assigned_to_id=$1 ORDER BY id`
	return r.queryLeads(query, memberID)
}

func (r *LeadRepository) ListByCity(city string) ([]*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE city=$1 ORDER BY id`
	return r.queryLeads(query, city)
}

func (r *LeadRepository) CountByStatus(status string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM leads WHERE status=$1`, status).Scan(&count)
	return count, err
}

func (r *LeadRepository) queryLeads(query string, args ...any) ([]*models.Lead, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	var out []*models.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
