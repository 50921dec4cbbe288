package model

// Role is the closed set of principal roles.
type Role string

const (
	RoleParent Role = "parent"
	RoleAdmin  Role = "admin"
	RoleChild  Role = "child"
)

func (r Role) Valid() bool {
	switch r {
	case RoleParent, RoleAdmin, RoleChild:
		return true
	}
	return false
}

// Capability names a single guarded operation. Authorization checks go through
// Role.Can so the role/operation matrix stays in one place.
type Capability string

const (
	CapDecideAccessRequest Capability = "decide_access_request"
	CapRevokeDevices       Capability = "revoke_devices"
	CapDeactivateChild     Capability = "deactivate_child"
	CapAdjustWallet        Capability = "adjust_wallet"
	CapManageProducts      Capability = "manage_products"
	CapDecidePurchase      Capability = "decide_purchase"
	CapCreateQuest         Capability = "create_quest"
	CapReviewQuest         Capability = "review_quest"
	CapGrantAdmin          Capability = "grant_admin"
	CapPlatformAdmin       Capability = "platform_admin"

	CapSubmitQuest     Capability = "submit_quest"
	CapRequestPurchase Capability = "request_purchase"
	CapReadOwnWallet   Capability = "read_own_wallet"
)

var parentCapabilities = map[Capability]bool{
	CapDecideAccessRequest: true,
	CapRevokeDevices:       true,
	CapDeactivateChild:     true,
	CapAdjustWallet:        true,
	CapManageProducts:      true,
	CapDecidePurchase:      true,
	CapCreateQuest:         true,
	CapReviewQuest:         true,
}

var adminCapabilities = map[Capability]bool{
	CapDecideAccessRequest: true,
	CapRevokeDevices:       true,
	CapDeactivateChild:     true,
	CapAdjustWallet:        true,
	CapManageProducts:      true,
	CapDecidePurchase:      true,
	CapCreateQuest:         true,
	CapReviewQuest:         true,
	CapGrantAdmin:          true,
	CapPlatformAdmin:       true,
}

var childCapabilities = map[Capability]bool{
	CapSubmitQuest:     true,
	CapRequestPurchase: true,
	CapReadOwnWallet:   true,
}

func (r Role) Can(c Capability) bool {
	switch r {
	case RoleParent:
		return parentCapabilities[c]
	case RoleAdmin:
		return adminCapabilities[c]
	case RoleChild:
		return childCapabilities[c]
	}
	return false
}

// AccessRequestStatus tracks the pairing decision state machine.
type AccessRequestStatus string

const (
	AccessRequestPending  AccessRequestStatus = "pending"
	AccessRequestApproved AccessRequestStatus = "approved"
	AccessRequestRejected AccessRequestStatus = "rejected"
)

type PurchaseStatus string

const (
	PurchaseRequested PurchaseStatus = "requested"
	PurchaseApproved  PurchaseStatus = "approved"
	PurchaseRejected  PurchaseStatus = "rejected"
)

type AssigneeStatus string

const (
	AssigneeAssigned  AssigneeStatus = "assigned"
	AssigneeSubmitted AssigneeStatus = "submitted"
	AssigneeApproved  AssigneeStatus = "approved"
	AssigneeRejected  AssigneeStatus = "rejected"
)

type QuestStatus string

const (
	QuestActive   QuestStatus = "active"
	QuestArchived QuestStatus = "archived"
)

// TransactionType classifies ledger entries.
type TransactionType string

const (
	TxFreeze      TransactionType = "freeze"
	TxRefund      TransactionType = "refund"
	TxQuestReward TransactionType = "quest_reward"
	TxAdjustment  TransactionType = "adjustment"
)
