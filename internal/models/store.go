package models

import "time"

type Store struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Address   string    `json:"address,omitempty"`
	OwnerID   *string   `json:"owner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StoreOwner is the resolved owner identity attached to admin store listings.
type StoreOwner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// StoreSummary decorates a store with its rounded average rating and,
// depending on the caller, the owner or the caller's own rating.
type StoreSummary struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Address       string      `json:"address,omitempty"`
	AverageRating float64     `json:"averageRating"`
	Owner         *StoreOwner `json:"owner,omitempty"`
	UserRating    *int        `json:"userRating,omitempty"`
}
