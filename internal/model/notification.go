package model

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	NotifyAccessRequested  NotificationType = "access_requested"
	NotifyAccessDecided    NotificationType = "access_decided"
	NotifyQuestSubmitted   NotificationType = "quest_submitted"
	NotifyQuestReviewed    NotificationType = "quest_reviewed"
	NotifyPurchaseRequest  NotificationType = "purchase_requested"
	NotifyPurchaseDecided  NotificationType = "purchase_decided"
	NotifyWalletAdjusted   NotificationType = "wallet_adjusted"
	NotifyDeviceRevoked    NotificationType = "device_revoked"
	NotifyChildDeactivated NotificationType = "child_deactivated"
)

// Notification is a persisted event record, fanned out over Redis after the
// originating transaction commits.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	FamilyID  string           `db:"family_id" json:"familyId"`
	ToUserID  *string          `db:"to_user_id" json:"toUserId,omitempty"`
	NType     NotificationType `db:"n_type" json:"type"`
	Payload   json.RawMessage  `db:"payload" json:"payload,omitempty"`
	IsRead    bool             `db:"is_read" json:"isRead"`
	ReadAt    *time.Time       `db:"read_at" json:"readAt,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
}

type CreateNotificationParams struct {
	FamilyID string
	ToUserID *string
	NType    NotificationType
	Payload  json.RawMessage
}
