package model

import "time"

type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

type CreateUserParams struct {
	Email        string
	PasswordHash string
}

// Profile attaches a role and family to an adult principal.
type Profile struct {
	UserID      string    `db:"user_id" json:"userId"`
	FamilyID    string    `db:"family_id" json:"familyId"`
	Role        Role      `db:"role" json:"role"`
	DisplayName *string   `db:"display_name" json:"displayName,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

type CreateProfileParams struct {
	UserID      string
	FamilyID    string
	Role        Role
	DisplayName *string
}

// Principal is the authenticated caller attached to a request context.
// For children, SessionToken references the server-side revocable session.
type Principal struct {
	Role         Role
	UserID       string
	FamilyID     string
	ChildID      string
	SessionToken string
}
