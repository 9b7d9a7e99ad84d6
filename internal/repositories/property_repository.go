package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"estatecrm/internal/models"
)

type PropertyRepository struct {
	db *sql.DB
}

func NewPropertyRepository(db *sql.DB) *PropertyRepository {
	if db == nil {
		log.Fatalf("received nil database connection")
	}
	return &PropertyRepository{db: db}
}

func encodeImages(urls []string) string {
	if urls == nil {
		urls = []string{}
	}
	b, _ := json.Marshal(urls)
	return string(b)
}

func decodeImages(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var urls []string
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		log.Printf("[properties][repo] bad images payload %q: %v", raw, err)
		return []string{}
	}
	return urls
}

const propertyColumns = `id, title, type, price, address, city, surface, bedrooms, bathrooms, images, description, created_at, updated_at`

func scanProperty(row interface{ Scan(...any) error }) (*models.Property, error) {
	p := &models.Property{}
	var images string
	if err := row.Scan(&p.ID, &p.Title, &p.Type, &p.Price, &p.Address, &p.City,
		&p.Surface, &p.Bedrooms, &p.Bathrooms, &images, &p.Description,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Images = decodeImages(images)
	return p, nil
}

func (r *PropertyRepository) Create(p *models.Property) error {
	const query = `
		INSERT INTO properties (title, type, price, address, city, surface, bedrooms, bathrooms, images, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	return r.db.QueryRow(query,
		p.Title, p.Type, p.Price, p.Address, p.City, p.Surface,
		p.Bedrooms, p.Bathrooms, encodeImages(p.Images), p.Description,
		p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
}

func (r *PropertyRepository) Update(p *models.Property) error {
	const query = `
		UPDATE properties
		SET title=$1, type=$2, price=$3, address=$4, city=$5, surface=$6,
		    bedrooms=$7, bathrooms=$8, images=$9, description=$10, updated_at=$11
		WHERE id=$12
	`
	_, err := r.db.Exec(query,
		p.Title, p.Type, p.Price, p.Address, p.City, p.Surface,
		p.Bedrooms, p.Bathrooms, encodeImages(p.Images), p.Description,
		p.UpdatedAt, p.ID)
	return err
}

func (r *PropertyRepository) GetByID(id int) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id=$1`
	return scanProperty(r.db.QueryRow(query, id))
}

func (r *PropertyRepository) Delete(id int) error {
	const query = `DELETE FROM properties WHERE id=$1`
	_, err := r.db.Exec(query, id)
	return err
}

func (r *PropertyRepository) List() ([]*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties ORDER BY id`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	defer rows.Close()

	var out []*models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
