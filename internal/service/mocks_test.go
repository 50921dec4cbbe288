package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/famquest/family-server-go/internal/model"
	"github.com/famquest/family-server-go/internal/repository"
)

// stubTx hands every "transaction" the same repository bundle. Rollback is not
// simulated; tests assert on the errors that would trigger it.
func stubTx(r *repository.Repos) txRunner {
	return func(ctx context.Context, fn txFunc) error {
		return fn(r)
	}
}

// fakeWalletRepo is an in-memory wallet store with the same guarded-balance
// semantics as the SQL implementation, so ledger invariants can be asserted
// for real instead of mocked.
type fakeWalletRepo struct {
	mu      sync.Mutex
	wallets map[string]*model.Wallet
	txs     map[string][]model.WalletTransaction
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{
		wallets: make(map[string]*model.Wallet),
		txs:     make(map[string][]model.WalletTransaction),
	}
}

func (f *fakeWalletRepo) FindByID(_ context.Context, id string) (*model.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.wallets[id]; ok {
		copied := *w
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeWalletRepo) FindByChildID(_ context.Context, childID string) (*model.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.wallets {
		if w.ChildID == childID {
			copied := *w
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeWalletRepo) GetOrCreate(_ context.Context, childID, familyID string) (*model.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.wallets {
		if w.ChildID == childID {
			copied := *w
			return &copied, nil
		}
	}
	w := &model.Wallet{
		ID:        uuid.NewString(),
		FamilyID:  familyID,
		ChildID:   childID,
		Balance:   0,
		CreatedAt: time.Now(),
	}
	f.wallets[w.ID] = w
	copied := *w
	return &copied, nil
}

func (f *fakeWalletRepo) AddBalance(_ context.Context, walletID string, delta int64, guarded bool) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[walletID]
	if !ok {
		return 0, false, nil
	}
	if guarded && w.Balance+delta < 0 {
		return 0, false, nil
	}
	w.Balance += delta
	return w.Balance, true, nil
}

func (f *fakeWalletRepo) AddTransaction(_ context.Context, params model.CreateWalletTransactionParams) (*model.WalletTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx := model.WalletTransaction{
		ID:        uuid.NewString(),
		WalletID:  params.WalletID,
		Amount:    params.Amount,
		TxType:    params.TxType,
		Reason:    params.Reason,
		Note:      params.Note,
		Meta:      params.Meta,
		CreatedAt: time.Now(),
	}
	f.txs[params.WalletID] = append(f.txs[params.WalletID], tx)
	return &tx, nil
}

func (f *fakeWalletRepo) FindTransactions(_ context.Context, walletID string, limit int) ([]model.WalletTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	txs := f.txs[walletID]
	out := make([]model.WalletTransaction, 0, len(txs))
	for i := len(txs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, txs[i])
	}
	return out, nil
}

// balance returns the stored balance, bypassing the repository surface.
func (f *fakeWalletRepo) balance(walletID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wallets[walletID].Balance
}

// ledgerSum adds up every transaction amount for a wallet.
func (f *fakeWalletRepo) ledgerSum(walletID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	for _, tx := range f.txs[walletID] {
		sum += tx.Amount
	}
	return sum
}

func (f *fakeWalletRepo) seed(childID, familyID string, balance int64) *model.Wallet {
	w, _ := f.GetOrCreate(context.Background(), childID, familyID)
	if balance != 0 {
		f.mu.Lock()
		f.wallets[w.ID].Balance = balance
		f.txs[w.ID] = append(f.txs[w.ID], model.WalletTransaction{
			ID:       uuid.NewString(),
			WalletID: w.ID,
			Amount:   balance,
			TxType:   model.TxAdjustment,
			Reason:   "adjustment",
		})
		w.Balance = balance
		f.mu.Unlock()
	}
	return w
}

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) TouchLastLogin(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockFamilyRepo struct{ mock.Mock }

func (m *mockFamilyRepo) FindByID(ctx context.Context, id string) (*model.Family, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*model.Family), args.Error(1)
}

func (m *mockFamilyRepo) FindByCode(ctx context.Context, familyCode string) (*model.Family, error) {
	args := m.Called(ctx, familyCode)
	return args.Get(0).(*model.Family), args.Error(1)
}

func (m *mockFamilyRepo) Create(ctx context.Context, params model.CreateFamilyParams) (*model.Family, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*model.Family), args.Error(1)
}

func (m *mockFamilyRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Family, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]model.Family), args.Error(1)
}

type mockProfileRepo struct{ mock.Mock }

func (m *mockProfileRepo) FindByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *mockProfileRepo) FindAdultsByFamilyID(ctx context.Context, familyID string) ([]model.Profile, error) {
	args := m.Called(ctx, familyID)
	return args.Get(0).([]model.Profile), args.Error(1)
}

func (m *mockProfileRepo) Create(ctx context.Context, params model.CreateProfileParams) (*model.Profile, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *mockProfileRepo) UpdateRole(ctx context.Context, userID string, role model.Role) error {
	return m.Called(ctx, userID, role).Error(0)
}

func (m *mockProfileRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Profile, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]model.Profile), args.Error(1)
}

type mockChildRepo struct{ mock.Mock }

func (m *mockChildRepo) FindByID(ctx context.Context, id string) (*model.Child, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*model.Child), args.Error(1)
}

func (m *mockChildRepo) FindByFamilyID(ctx context.Context, familyID string, activeOnly bool) ([]model.Child, error) {
	args := m.Called(ctx, familyID, activeOnly)
	return args.Get(0).([]model.Child), args.Error(1)
}

func (m *mockChildRepo) Create(ctx context.Context, params model.CreateChildParams) (*model.Child, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*model.Child), args.Error(1)
}

func (m *mockChildRepo) Deactivate(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockChildRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Child, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]model.Child), args.Error(1)
}

type mockAccessRequestRepo struct{ mock.Mock }

func (m *mockAccessRequestRepo) FindByID(ctx context.Context, id string) (*model.AccessRequest, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*model.AccessRequest), args.Error(1)
}

func (m *mockAccessRequestRepo) FindPendingByFamilyID(ctx context.Context, familyID string) ([]model.AccessRequest, error) {
	args := m.Called(ctx, familyID)
	return args.Get(0).([]model.AccessRequest), args.Error(1)
}

func (m *mockAccessRequestRepo) Create(ctx context.Context, params model.CreateAccessRequestParams) (*model.AccessRequest, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*model.AccessRequest), args.Error(1)
}

func (m *mockAccessRequestRepo) MarkDecided(ctx context.Context, id string, status model.AccessRequestStatus, decidedBy string, childID *string) (bool, error) {
	args := m.Called(ctx, id, status, decidedBy, childID)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccessRequestRepo) DeleteStalePending(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAccessRequestRepo) FindAll(ctx context.Context, status string, limit, offset int) ([]model.AccessRequest, error) {
	args := m.Called(ctx, status, limit, offset)
	return args.Get(0).([]model.AccessRequest), args.Error(1)
}

type mockBindingRepo struct{ mock.Mock }

func (m *mockBindingRepo) FindByID(ctx context.Context, id string) (*model.DeviceBinding, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*model.DeviceBinding), args.Error(1)
}

func (m *mockBindingRepo) FindActiveByChildID(ctx context.Context, childID string) ([]model.DeviceBinding, error) {
	args := m.Called(ctx, childID)
	return args.Get(0).([]model.DeviceBinding), args.Error(1)
}

func (m *mockBindingRepo) Create(ctx context.Context, params model.CreateDeviceBindingParams) (*model.DeviceBinding, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*model.DeviceBinding), args.Error(1)
}

func (m *mockBindingRepo) RevokeActiveByChildID(ctx context.Context, childID, revokedBy string) (int64, error) {
	args := m.Called(ctx, childID, revokedBy)
	return args.Get(0).(int64), args.Error(1)
}

type mockSessionRepo struct{ mock.Mock }

func (m *mockSessionRepo) FindByToken(ctx context.Context, token string) (*model.SessionWithBinding, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(*model.SessionWithBinding), args.Error(1)
}

func (m *mockSessionRepo) FindActiveByDeviceID(ctx context.Context, deviceID string) ([]model.SessionWithBinding, error) {
	args := m.Called(ctx, deviceID)
	return args.Get(0).([]model.SessionWithBinding), args.Error(1)
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateChildSessionParams) (*model.ChildSession, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*model.ChildSession), args.Error(1)
}

func (m *mockSessionRepo) RevokeActiveByChildID(ctx context.Context, childID, revokedBy string) (int64, error) {
	args := m.Called(ctx, childID, revokedBy)
	return args.Get(0).(int64), args.Error(1)
}

type mockProductRepo struct{ mock.Mock }

func (m *mockProductRepo) FindByID(ctx context.Context, id string) (*model.ShopProduct, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*model.ShopProduct), args.Error(1)
}

func (m *mockProductRepo) FindByFamilyID(ctx context.Context, familyID string, activeOnly bool) ([]model.ShopProduct, error) {
	args := m.Called(ctx, familyID, activeOnly)
	return args.Get(0).([]model.ShopProduct), args.Error(1)
}

func (m *mockProductRepo) Create(ctx context.Context, params model.CreateShopProductParams) (*model.ShopProduct, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*model.ShopProduct), args.Error(1)
}

func (m *mockProductRepo) SetActive(ctx context.Context, id string, isActive bool) error {
	return m.Called(ctx, id, isActive).Error(0)
}

func (m *mockProductRepo) FindAll(ctx context.Context, limit, offset int) ([]model.ShopProduct, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]model.ShopProduct), args.Error(1)
}

type mockPurchaseRepo struct{ mock.Mock }

func (m *mockPurchaseRepo) FindByID(ctx context.Context, id string) (*model.ShopPurchase, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*model.ShopPurchase), args.Error(1)
}

func (m *mockPurchaseRepo) FindPendingByFamilyID(ctx context.Context, familyID string, limit int) ([]model.PendingPurchase, error) {
	args := m.Called(ctx, familyID, limit)
	return args.Get(0).([]model.PendingPurchase), args.Error(1)
}

func (m *mockPurchaseRepo) Create(ctx context.Context, params model.CreateShopPurchaseParams) (*model.ShopPurchase, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*model.ShopPurchase), args.Error(1)
}

func (m *mockPurchaseRepo) MarkDecided(ctx context.Context, id string, status model.PurchaseStatus, decidedBy string) (bool, error) {
	args := m.Called(ctx, id, status, decidedBy)
	return args.Bool(0), args.Error(1)
}

func (m *mockPurchaseRepo) FindAll(ctx context.Context, limit, offset int) ([]model.ShopPurchase, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]model.ShopPurchase), args.Error(1)
}

type mockQuestRepo struct{ mock.Mock }

func (m *mockQuestRepo) FindByID(ctx context.Context, id string) (*model.Quest, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*model.Quest), args.Error(1)
}

func (m *mockQuestRepo) FindByFamilyID(ctx context.Context, familyID string, limit int) ([]model.Quest, error) {
	args := m.Called(ctx, familyID, limit)
	return args.Get(0).([]model.Quest), args.Error(1)
}

func (m *mockQuestRepo) Create(ctx context.Context, params model.CreateQuestParams) (*model.Quest, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*model.Quest), args.Error(1)
}

func (m *mockQuestRepo) UpdateReward(ctx context.Context, id string, reward int64) error {
	return m.Called(ctx, id, reward).Error(0)
}

func (m *mockQuestRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Quest, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]model.Quest), args.Error(1)
}

type mockAssigneeRepo struct{ mock.Mock }

func (m *mockAssigneeRepo) FindByQuestAndChild(ctx context.Context, questID, childID string) (*model.QuestAssignee, error) {
	args := m.Called(ctx, questID, childID)
	return args.Get(0).(*model.QuestAssignee), args.Error(1)
}

func (m *mockAssigneeRepo) FindByChildID(ctx context.Context, childID string, limit int) ([]model.ChildAssignment, error) {
	args := m.Called(ctx, childID, limit)
	return args.Get(0).([]model.ChildAssignment), args.Error(1)
}

func (m *mockAssigneeRepo) FindSubmittedByFamilyID(ctx context.Context, familyID string, limit int) ([]model.ReviewItem, error) {
	args := m.Called(ctx, familyID, limit)
	return args.Get(0).([]model.ReviewItem), args.Error(1)
}

func (m *mockAssigneeRepo) Create(ctx context.Context, questID, childID string, rewardAmount int64) (*model.QuestAssignee, error) {
	args := m.Called(ctx, questID, childID, rewardAmount)
	return args.Get(0).(*model.QuestAssignee), args.Error(1)
}

func (m *mockAssigneeRepo) MarkSubmitted(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockAssigneeRepo) MarkReviewed(ctx context.Context, id string, status model.AssigneeStatus, comment *string) (bool, error) {
	args := m.Called(ctx, id, status, comment)
	return args.Bool(0), args.Error(1)
}

type mockEvidenceRepo struct{ mock.Mock }

func (m *mockEvidenceRepo) Create(ctx context.Context, questID, childID, objectKey string) (*model.QuestEvidence, error) {
	args := m.Called(ctx, questID, childID, objectKey)
	return args.Get(0).(*model.QuestEvidence), args.Error(1)
}

func (m *mockEvidenceRepo) FindLatest(ctx context.Context, questID, childID string) (*model.QuestEvidence, error) {
	args := m.Called(ctx, questID, childID)
	return args.Get(0).(*model.QuestEvidence), args.Error(1)
}

type mockNotificationRepo struct{ mock.Mock }

func (m *mockNotificationRepo) Create(ctx context.Context, params model.CreateNotificationParams) (*model.Notification, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*model.Notification), args.Error(1)
}

func (m *mockNotificationRepo) FindForUser(ctx context.Context, familyID, userID string, limit int) ([]model.Notification, error) {
	args := m.Called(ctx, familyID, userID, limit)
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id, familyID, userID string) (bool, error) {
	args := m.Called(ctx, id, familyID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockNotificationRepo) DeleteReadOlderThan(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}
