package model

import "time"

// DeviceBinding pairs one physical device (id + secret chosen by the device)
// with one child. Created exactly once per approved access request.
type DeviceBinding struct {
	ID           string     `db:"id" json:"id"`
	FamilyID     string     `db:"family_id" json:"familyId"`
	ChildID      string     `db:"child_id" json:"childId"`
	DeviceID     string     `db:"device_id" json:"deviceId"`
	DeviceSecret string     `db:"device_secret" json:"-"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	RevokedAt    *time.Time `db:"revoked_at" json:"revokedAt,omitempty"`
	RevokedBy    *string    `db:"revoked_by" json:"revokedBy,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}

type CreateDeviceBindingParams struct {
	FamilyID     string
	ChildID      string
	DeviceID     string
	DeviceSecret string
}

// ChildSession is the revocable bearer credential issued to a binding on
// approval. Valid only while both the session and its binding are active.
type ChildSession struct {
	ID        string     `db:"id" json:"id"`
	FamilyID  string     `db:"family_id" json:"familyId"`
	ChildID   string     `db:"child_id" json:"childId"`
	BindingID string     `db:"binding_id" json:"bindingId"`
	Token     string     `db:"token" json:"-"`
	IsActive  bool       `db:"is_active" json:"isActive"`
	RevokedAt *time.Time `db:"revoked_at" json:"revokedAt,omitempty"`
	RevokedBy *string    `db:"revoked_by" json:"revokedBy,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

type CreateChildSessionParams struct {
	FamilyID  string
	ChildID   string
	BindingID string
	Token     string
}

// SessionWithBinding carries a session together with the binding columns
// needed to verify device identity in one query.
type SessionWithBinding struct {
	ChildSession
	BindingDeviceID     string `db:"binding_device_id"`
	BindingDeviceSecret string `db:"binding_device_secret"`
	BindingIsActive     bool   `db:"binding_is_active"`
}
