package model

import (
	"time"
)

// Product is one catalog item. The catalog is a read-only input to
// generation on the chat path; nothing here mutates it.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
}
