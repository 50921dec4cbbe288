package model

import "time"

// Family is the tenancy boundary; every row in the system is scoped to one family.
// FamilyCode is the human-facing 8-character pairing code.
type Family struct {
	ID          string    `db:"id" json:"id"`
	OwnerUserID string    `db:"owner_user_id" json:"ownerUserId"`
	FamilyCode  string    `db:"family_code" json:"familyCode"`
	ClanName    *string   `db:"clan_name" json:"clanName,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

type CreateFamilyParams struct {
	OwnerUserID string
	FamilyCode  string
	ClanName    *string
}

type Child struct {
	ID            string     `db:"id" json:"id"`
	FamilyID      string     `db:"family_id" json:"familyId"`
	FirstName     string     `db:"first_name" json:"firstName"`
	LastName      *string    `db:"last_name" json:"lastName,omitempty"`
	IsActive      bool       `db:"is_active" json:"isActive"`
	DeactivatedAt *time.Time `db:"deactivated_at" json:"deactivatedAt,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
}

type CreateChildParams struct {
	FamilyID  string
	FirstName string
	LastName  *string
}
