package model

import "time"

// AccessRequest is a child device's pairing request. It is created without
// authentication and becomes terminal once a parent or admin decides it.
type AccessRequest struct {
	ID           string              `db:"id" json:"id"`
	FamilyID     string              `db:"family_id" json:"familyId"`
	FirstName    string              `db:"first_name" json:"firstName"`
	LastName     *string             `db:"last_name" json:"lastName,omitempty"`
	DeviceID     string              `db:"device_id" json:"deviceId"`
	DeviceSecret string              `db:"device_secret" json:"-"`
	Status       AccessRequestStatus `db:"status" json:"status"`
	DecidedAt    *time.Time          `db:"decided_at" json:"decidedAt,omitempty"`
	DecidedBy    *string             `db:"decided_by" json:"decidedBy,omitempty"`
	ChildID      *string             `db:"child_id" json:"childId,omitempty"`
	CreatedAt    time.Time           `db:"created_at" json:"createdAt"`
}

type CreateAccessRequestParams struct {
	FamilyID     string
	FirstName    string
	LastName     *string
	DeviceID     string
	DeviceSecret string
}
