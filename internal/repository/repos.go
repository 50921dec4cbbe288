package repository

import (
	"github.com/famquest/family-server-go/internal/database"
)

// Repos bundles every repository bound to one DBTX. Services hold a pool-bound
// bundle for reads and build a transaction-bound bundle inside WithTx so a
// status flip and its ledger effect always share one transaction.
type Repos struct {
	Users          UserRepository
	Families       FamilyRepository
	Profiles       ProfileRepository
	Children       ChildRepository
	AccessRequests AccessRequestRepository
	Bindings       DeviceBindingRepository
	Sessions       ChildSessionRepository
	Wallets        WalletRepository
	Products       ShopProductRepository
	Purchases      ShopPurchaseRepository
	Quests         QuestRepository
	Assignees      QuestAssigneeRepository
	Evidence       QuestEvidenceRepository
	Notifications  NotificationRepository
}

func NewRepos(db database.DBTX) *Repos {
	return &Repos{
		Users:          NewUserRepository(db),
		Families:       NewFamilyRepository(db),
		Profiles:       NewProfileRepository(db),
		Children:       NewChildRepository(db),
		AccessRequests: NewAccessRequestRepository(db),
		Bindings:       NewDeviceBindingRepository(db),
		Sessions:       NewChildSessionRepository(db),
		Wallets:        NewWalletRepository(db),
		Products:       NewShopProductRepository(db),
		Purchases:      NewShopPurchaseRepository(db),
		Quests:         NewQuestRepository(db),
		Assignees:      NewQuestAssigneeRepository(db),
		Evidence:       NewQuestEvidenceRepository(db),
		Notifications:  NewNotificationRepository(db),
	}
}
