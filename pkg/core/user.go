package core

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account owner. Identity storage itself lives in the
// UserStore collaborator.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUser(name, email string) *User {
	return &User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now(),
	}
}
