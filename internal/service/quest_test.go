package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/famquest/family-server-go/internal/errors"
	"github.com/famquest/family-server-go/internal/model"
	"github.com/famquest/family-server-go/internal/notify"
	"github.com/famquest/family-server-go/internal/repository"
)

type questFixture struct {
	svc       *QuestService
	wallets   *fakeWalletRepo
	quests    *mockQuestRepo
	assignees *mockAssigneeRepo
	evidence  *mockEvidenceRepo
	children  *mockChildRepo
	repos     *repository.Repos
}

func newQuestFixture() *questFixture {
	wallets := newFakeWalletRepo()
	quests := new(mockQuestRepo)
	assignees := new(mockAssigneeRepo)
	evidence := new(mockEvidenceRepo)
	children := new(mockChildRepo)
	repos := &repository.Repos{
		Wallets:   wallets,
		Quests:    quests,
		Assignees: assignees,
		Evidence:  evidence,
		Children:  children,
	}
	ledger := &LedgerService{repos: repos, inTx: stubTx(repos), notifier: notify.Noop{}}
	svc := &QuestService{
		repos:    repos,
		inTx:     stubTx(repos),
		ledger:   ledger,
		notifier: notify.Noop{},
	}
	return &questFixture{svc: svc, wallets: wallets, quests: quests, assignees: assignees, evidence: evidence, children: children, repos: repos}
}

func TestCreateQuestAssignsEachChild(t *testing.T) {
	f := newQuestFixture()
	ctx := context.Background()

	f.children.On("FindByID", mock.Anything, "child-1").Return(&model.Child{ID: "child-1", FamilyID: "fam-1", IsActive: true}, nil)
	f.children.On("FindByID", mock.Anything, "child-2").Return(&model.Child{ID: "child-2", FamilyID: "fam-1", IsActive: true}, nil)
	f.quests.On("Create", mock.Anything, mock.MatchedBy(func(p model.CreateQuestParams) bool {
		return p.Title == "Clean room" && p.Reward == 50 && p.QuestType == "one_time"
	})).Return(&model.Quest{ID: "quest-1", FamilyID: "fam-1", Reward: 50}, nil)
	f.assignees.On("Create", mock.Anything, "quest-1", "child-1", int64(50)).Return(&model.QuestAssignee{ID: "a1"}, nil)
	f.assignees.On("Create", mock.Anything, "quest-1", "child-2", int64(50)).Return(&model.QuestAssignee{ID: "a2"}, nil)

	quest, err := f.svc.CreateQuest(ctx, parentPrincipal(), CreateQuestInput{
		Title:    "Clean room",
		Reward:   50,
		ChildIDs: []string{"child-1", "child-2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "quest-1", quest.ID)
	f.assignees.AssertNumberOfCalls(t, "Create", 2)
}

func TestCreateQuestRejectsForeignChild(t *testing.T) {
	f := newQuestFixture()

	f.children.On("FindByID", mock.Anything, "child-9").Return(&model.Child{ID: "child-9", FamilyID: "fam-2", IsActive: true}, nil)

	_, err := f.svc.CreateQuest(context.Background(), parentPrincipal(), CreateQuestInput{
		Title:    "Clean room",
		Reward:   50,
		ChildIDs: []string{"child-9"},
	})
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
	f.quests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateQuestValidation(t *testing.T) {
	f := newQuestFixture()
	ctx := context.Background()

	_, err := f.svc.CreateQuest(ctx, parentPrincipal(), CreateQuestInput{Title: "", ChildIDs: []string{"c"}})
	assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))

	_, err = f.svc.CreateQuest(ctx, parentPrincipal(), CreateQuestInput{Title: "X", ChildIDs: nil})
	assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))

	_, err = f.svc.CreateQuest(ctx, parentPrincipal(), CreateQuestInput{Title: "X", Reward: -1, ChildIDs: []string{"c"}})
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
}

func TestReviewApprovedCreditsLockedReward(t *testing.T) {
	f := newQuestFixture()
	ctx := context.Background()
	w := f.wallets.seed("child-1", "fam-1", 0)

	// Quest reward was raised after assignment; the assignee keeps 50.
	f.quests.On("FindByID", mock.Anything, "quest-1").Return(&model.Quest{ID: "quest-1", FamilyID: "fam-1", Reward: 500}, nil)
	f.assignees.On("FindByQuestAndChild", mock.Anything, "quest-1", "child-1").Return(&model.QuestAssignee{
		ID: "a1", QuestID: "quest-1", ChildID: "child-1",
		Status: model.AssigneeSubmitted, RewardAmount: 50,
	}, nil)
	f.assignees.On("MarkReviewed", mock.Anything, "a1", model.AssigneeApproved, (*string)(nil)).Return(true, nil)

	err := f.svc.ReviewQuest(ctx, parentPrincipal(), "quest-1", "child-1", true, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(50), f.wallets.balance(w.ID))
	assert.Equal(t, f.wallets.balance(w.ID), f.wallets.ledgerSum(w.ID))
}

func TestReviewRejectedPaysNothing(t *testing.T) {
	f := newQuestFixture()
	w := f.wallets.seed("child-1", "fam-1", 0)
	comment := "photo is blurry"

	f.quests.On("FindByID", mock.Anything, "quest-1").Return(&model.Quest{ID: "quest-1", FamilyID: "fam-1"}, nil)
	f.assignees.On("FindByQuestAndChild", mock.Anything, "quest-1", "child-1").Return(&model.QuestAssignee{
		ID: "a1", Status: model.AssigneeSubmitted, RewardAmount: 50,
	}, nil)
	f.assignees.On("MarkReviewed", mock.Anything, "a1", model.AssigneeRejected, &comment).Return(true, nil)

	err := f.svc.ReviewQuest(context.Background(), parentPrincipal(), "quest-1", "child-1", false, &comment)
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.wallets.balance(w.ID))
}

func TestReviewRequiresSubmittedStatus(t *testing.T) {
	f := newQuestFixture()

	f.quests.On("FindByID", mock.Anything, "quest-1").Return(&model.Quest{ID: "quest-1", FamilyID: "fam-1"}, nil)
	f.assignees.On("FindByQuestAndChild", mock.Anything, "quest-1", "child-1").Return(&model.QuestAssignee{
		ID: "a1", Status: model.AssigneeAssigned, RewardAmount: 50,
	}, nil)

	err := f.svc.ReviewQuest(context.Background(), parentPrincipal(), "quest-1", "child-1", true, nil)
	assert.Equal(t, apperrors.ErrCodeInvalidState, apperrors.GetCode(err))
}

func TestReviewConcurrentDecision(t *testing.T) {
	f := newQuestFixture()
	w := f.wallets.seed("child-1", "fam-1", 0)

	f.quests.On("FindByID", mock.Anything, "quest-1").Return(&model.Quest{ID: "quest-1", FamilyID: "fam-1"}, nil)
	f.assignees.On("FindByQuestAndChild", mock.Anything, "quest-1", "child-1").Return(&model.QuestAssignee{
		ID: "a1", Status: model.AssigneeSubmitted, RewardAmount: 50,
	}, nil)
	f.assignees.On("MarkReviewed", mock.Anything, "a1", model.AssigneeApproved, (*string)(nil)).Return(false, nil)

	err := f.svc.ReviewQuest(context.Background(), parentPrincipal(), "quest-1", "child-1", true, nil)
	assert.Equal(t, apperrors.ErrCodeInvalidState, apperrors.GetCode(err))
	assert.Equal(t, int64(0), f.wallets.balance(w.ID))
}

func TestReviewCrossFamilyQuest(t *testing.T) {
	f := newQuestFixture()

	f.quests.On("FindByID", mock.Anything, "quest-1").Return(&model.Quest{ID: "quest-1", FamilyID: "fam-2"}, nil)

	err := f.svc.ReviewQuest(context.Background(), parentPrincipal(), "quest-1", "child-1", true, nil)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
}

func TestSubmitQuestRecordsEvidence(t *testing.T) {
	f := newQuestFixture()
	key := "evidence/photo.jpg"

	f.assignees.On("FindByQuestAndChild", mock.Anything, "quest-1", "child-1").Return(&model.QuestAssignee{
		ID: "a1", Status: model.AssigneeAssigned,
	}, nil)
	f.evidence.On("Create", mock.Anything, "quest-1", "child-1", key).Return(&model.QuestEvidence{ID: "e1"}, nil)
	f.assignees.On("MarkSubmitted", mock.Anything, "a1").Return(true, nil)

	err := f.svc.SubmitQuest(context.Background(), childPrincipal(), "quest-1", &key)
	require.NoError(t, err)
	f.evidence.AssertExpectations(t)
	f.assignees.AssertExpectations(t)
}

func TestSubmitQuestReviewedConcurrently(t *testing.T) {
	f := newQuestFixture()

	// The pre-check still sees status=submitted, but a review lands before the
	// guarded write; the update must not flip the approved assignee back.
	f.assignees.On("FindByQuestAndChild", mock.Anything, "quest-1", "child-1").Return(&model.QuestAssignee{
		ID: "a1", Status: model.AssigneeSubmitted,
	}, nil)
	f.assignees.On("MarkSubmitted", mock.Anything, "a1").Return(false, nil)

	err := f.svc.SubmitQuest(context.Background(), childPrincipal(), "quest-1", nil)
	assert.Equal(t, apperrors.ErrCodeInvalidState, apperrors.GetCode(err))
}

func TestSubmitQuestAfterReviewFails(t *testing.T) {
	f := newQuestFixture()

	f.assignees.On("FindByQuestAndChild", mock.Anything, "quest-1", "child-1").Return(&model.QuestAssignee{
		ID: "a1", Status: model.AssigneeApproved,
	}, nil)

	err := f.svc.SubmitQuest(context.Background(), childPrincipal(), "quest-1", nil)
	assert.Equal(t, apperrors.ErrCodeInvalidState, apperrors.GetCode(err))
}

func TestSubmitQuestWithoutAssignment(t *testing.T) {
	f := newQuestFixture()

	f.assignees.On("FindByQuestAndChild", mock.Anything, "quest-1", "child-1").Return((*model.QuestAssignee)(nil), nil)

	err := f.svc.SubmitQuest(context.Background(), childPrincipal(), "quest-1", nil)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
}

func TestSubmitQuestParentForbidden(t *testing.T) {
	f := newQuestFixture()

	err := f.svc.SubmitQuest(context.Background(), parentPrincipal(), "quest-1", nil)
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
}
