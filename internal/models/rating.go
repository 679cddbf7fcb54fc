package models

import "time"

const (
	RatingMin = 1
	RatingMax = 5
)

type Rating struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	StoreID   string    `json:"store_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidRating reports whether v is inside the allowed 1..5 range.
func ValidRating(v int) bool { return v >= RatingMin && v <= RatingMax }

// StoreRating is one rating row joined with the rater's name,
// as shown on the owner dashboard.
type StoreRating struct {
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}
