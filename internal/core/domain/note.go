package domain

import (
	"github.com/google/uuid"
)

// Note is the part of a course note the payment flow reads.
// Notes themselves are managed elsewhere.
type Note struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	UploadedBy    uuid.UUID `json:"uploadedBy"`
	IsPremium     bool      `json:"isPremium"`
	Price         int64     `json:"price"` // minor units
	PaidDownloads int64     `json:"paidDownloads"`
}

// Role is the caller's role as carried in its access token.
type Role string

const (
	RoleStudent  Role = "student"
	RoleAdmin    Role = "admin"
	RolePlatform Role = "platform"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleAdmin, RolePlatform:
		return true
	}
	return false
}

// Caller is an authenticated identity.
type Caller struct {
	SubjectID uuid.UUID
	Role      Role
}
