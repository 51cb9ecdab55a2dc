package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	UnnamedUser = "Unnamed User"
)

// User is a student profile. UID is the identity provider's uid.
type User struct {
	UID              string    `json:"uid" gorm:"primaryKey;size:128"`
	Email            string    `json:"email" gorm:"uniqueIndex"`
	FullName         string    `json:"full_name"`
	RegisterNumber   string    `json:"register_number" gorm:"index"`
	Batch            string    `json:"batch" gorm:"size:16"`
	ContactNumber    string    `json:"contact_number"`
	ProfileCompleted bool      `json:"profile_completed" gorm:"default:false"`
	Role             string    `json:"role" gorm:"size:16;default:user"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PublicProfile is what other users and exports may see. The contact number is private.
type PublicProfile struct {
	UID            string `json:"uid"`
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	RegisterNumber string `json:"register_number"`
	Batch          string `json:"batch"`
}

// Public strips private fields.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		UID:            u.UID,
		Email:          u.Email,
		FullName:       u.FullName,
		RegisterNumber: u.RegisterNumber,
		Batch:          u.Batch,
	}
}

// DisplayName is the name captured on posts and answers.
func (u *User) DisplayName() string {
	if u != nil && u.FullName != "" {
		return u.FullName
	}
	return ""
}

// UpdateProfileRequest is the profile form. Every field is required.
type UpdateProfileRequest struct {
	FullName       string `json:"full_name" validate:"required,min=2,max=100"`
	RegisterNumber string `json:"register_number" validate:"required,max=32"`
	Batch          string `json:"batch" validate:"required"`
	ContactNumber  string `json:"contact_number" validate:"required,max=20"`
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UID     string
	Email   string
	Name    string
	IsAdmin bool
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Actor converts verified claims into the caller identity.
func (c *JwtCustomClaims) Actor() Actor {
	return Actor{UID: c.UID, Email: c.Email, Name: c.Name, IsAdmin: c.Admin}
}
