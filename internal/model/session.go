package model

import "time"

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleReceptionist Role = "receptionist"
)

// LoginPath is where an unauthenticated user of the role is sent.
func (r Role) LoginPath() string {
	if r == RoleAdmin {
		return "/admin-login"
	}
	return "/receptionist-login"
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleReceptionist
}

type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// LoginResponse is the clinic API's answer to a receptionist login.
type LoginResponse struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

// Session is the server side record behind an issued token. Deleting it
// revokes the token.
type Session struct {
	ID         string    `json:"id"`
	Role       Role      `json:"role"`
	Identifier string    `json:"identifier"`
	Name       string    `json:"name,omitempty"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Role        Role      `json:"role"`
	Name        string    `json:"name,omitempty"`
}
