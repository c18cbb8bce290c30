package domain

import "time"

// User is the authenticated principal. TopPicks is an append-only list of
// purchased brands.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	TopPicks  []string  `json:"topPicks"`
	CreatedAt time.Time `json:"createdAt"`
}
