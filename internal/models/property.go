package models

import "time"

const (
	PropertyTypeApartment = "apartment"
	PropertyTypeVilla     = "villa"
	PropertyTypeDuplex    = "duplex"
	PropertyTypeOffice    = "office"
	PropertyTypeShop      = "shop"
	PropertyTypeLand      = "land"
)

type Property struct {
	ID      int     `json:"id"`
	Title   string  `json:"title"`
	Type    string  `json:"type"`
	Price   float64 `json:"price"`
	Address string  `json:"address"`
	City    string  `json:"city"`
	Surface float64 `json:"surface"` // м²

	Bedrooms  int `json:"bedrooms"`
	Bathrooms int `json:"bathrooms"`

	// В БД json-строкой, как interested_properties у лида.
	Images []string `json:"images"`

	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
