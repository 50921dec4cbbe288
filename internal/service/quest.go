package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/famquest/family-server-go/internal/audit"
	"github.com/famquest/family-server-go/internal/database"
	apperrors "github.com/famquest/family-server-go/internal/errors"
	"github.com/famquest/family-server-go/internal/model"
	"github.com/famquest/family-server-go/internal/notify"
	"github.com/famquest/family-server-go/internal/repository"
)

// QuestService runs the quest lifecycle: parents create quests and assign
// children, children submit completed work, parents review it. Each assignee
// carries the reward amount captured at assignment time, so later quest edits
// never change what an assigned child earns.
type QuestService struct {
	repos    *repository.Repos
	inTx     txRunner
	ledger   *LedgerService
	notifier notify.Sink
}

func NewQuestService(db *database.DB, ledger *LedgerService, notifier notify.Sink) *QuestService {
	return &QuestService{
		repos:    repository.NewRepos(db),
		inTx:     newTxRunner(db),
		ledger:   ledger,
		notifier: notifier,
	}
}

type CreateQuestInput struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Reward      int64      `json:"reward"`
	QuestType   string     `json:"questType,omitempty"`
	DueAt       *time.Time `json:"dueAt,omitempty"`
	ChildIDs    []string   `json:"childIds"`
}

// CreateQuest creates a quest and one assignee row per child, all in one
// transaction. Every child must belong to the actor's family.
func (s *QuestService) CreateQuest(ctx context.Context, actor *model.Principal, input CreateQuestInput) (*model.Quest, error) {
	if !actor.Role.Can(model.CapCreateQuest) {
		return nil, apperrors.Forbidden("Insufficient permissions")
	}
	if err := requireFamily(actor); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.MissingRequired("title")
	}
	if len(input.ChildIDs) == 0 {
		return nil, apperrors.MissingRequired("childIds")
	}
	if input.Reward < 0 {
		return nil, apperrors.InvalidInput("reward", "must not be negative")
	}

	questType := input.QuestType
	if questType == "" {
		questType = "one_time"
	}

	for _, childID := range input.ChildIDs {
		child, err := s.repos.Children.FindByID(ctx, childID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if child == nil || child.FamilyID != actor.FamilyID {
			return nil, apperrors.Forbidden("Child belongs to another family")
		}
	}

	var quest *model.Quest
	err := s.inTx(ctx, func(r *repository.Repos) error {
		var err error
		quest, err = r.Quests.Create(ctx, model.CreateQuestParams{
			FamilyID:    actor.FamilyID,
			CreatedBy:   actor.UserID,
			Title:       title,
			Description: input.Description,
			Reward:      input.Reward,
			QuestType:   questType,
			DueAt:       input.DueAt,
		})
		if err != nil {
			return apperrors.Database(err)
		}

		for _, childID := range input.ChildIDs {
			if _, err := r.Assignees.Create(ctx, quest.ID, childID, quest.Reward); err != nil {
				return apperrors.Database(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("quest_id", quest.ID).
		Str("family_id", actor.FamilyID).
		Int("assignees", len(input.ChildIDs)).
		Msg("quest created")

	return quest, nil
}

// UpdateQuestReward changes the reward for future assignments. Existing
// assignees keep the amount locked when they were assigned.
func (s *QuestService) UpdateQuestReward(ctx context.Context, actor *model.Principal, questID string, reward int64) error {
	if !actor.Role.Can(model.CapCreateQuest) {
		return apperrors.Forbidden("Insufficient permissions")
	}
	if reward < 0 {
		return apperrors.InvalidInput("reward", "must not be negative")
	}

	quest, err := s.familyQuest(ctx, actor.FamilyID, questID)
	if err != nil {
		return err
	}

	if err := s.repos.Quests.UpdateReward(ctx, quest.ID, reward); err != nil {
		return apperrors.Database(err)
	}
	return nil
}

func (s *QuestService) ListFamilyQuests(ctx context.Context, actor *model.Principal, limit int) ([]model.Quest, error) {
	if err := requireFamily(actor); err != nil {
		return nil, err
	}
	quests, err := s.repos.Quests.FindByFamilyID(ctx, actor.FamilyID, limit)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return quests, nil
}

// ListChildAssignments returns the child's own quest list.
func (s *QuestService) ListChildAssignments(ctx context.Context, actor *model.Principal, limit int) ([]model.ChildAssignment, error) {
	if !actor.Role.Can(model.CapSubmitQuest) {
		return nil, apperrors.Forbidden("Assignments are listed by children")
	}
	assignments, err := s.repos.Assignees.FindByChildID(ctx, actor.ChildID, limit)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return assignments, nil
}

// SubmitQuest marks the child's assignment submitted, optionally attaching an
// evidence object key. Resubmitting before review replaces the pending
// submission; a reviewed assignment is final.
func (s *QuestService) SubmitQuest(ctx context.Context, actor *model.Principal, questID string, evidenceKey *string) error {
	if !actor.Role.Can(model.CapSubmitQuest) {
		return apperrors.Forbidden("Quests are submitted by children")
	}

	assignee, err := s.repos.Assignees.FindByQuestAndChild(ctx, questID, actor.ChildID)
	if err != nil {
		return apperrors.Database(err)
	}
	if assignee == nil {
		return apperrors.NotFound("Assignment")
	}
	if assignee.Status == model.AssigneeApproved || assignee.Status == model.AssigneeRejected {
		return apperrors.InvalidState("Assignment already reviewed")
	}

	err = s.inTx(ctx, func(r *repository.Repos) error {
		if evidenceKey != nil && *evidenceKey != "" {
			if _, err := r.Evidence.Create(ctx, questID, actor.ChildID, *evidenceKey); err != nil {
				return apperrors.Database(err)
			}
		}
		submitted, err := r.Assignees.MarkSubmitted(ctx, assignee.ID)
		if err != nil {
			return apperrors.Database(err)
		}
		if !submitted {
			return apperrors.InvalidState("Assignment already reviewed")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(ctx, notify.Event{
		Type:     model.NotifyQuestSubmitted,
		FamilyID: actor.FamilyID,
		Payload: map[string]any{
			"questId": questID,
			"childId": actor.ChildID,
		},
	})

	return nil
}

// ListReviewQueue returns submitted assignments awaiting a parent decision.
func (s *QuestService) ListReviewQueue(ctx context.Context, actor *model.Principal, limit int) ([]model.ReviewItem, error) {
	if !actor.Role.Can(model.CapReviewQuest) {
		return nil, apperrors.Forbidden("Insufficient permissions")
	}
	if err := requireFamily(actor); err != nil {
		return nil, err
	}
	items, err := s.repos.Assignees.FindSubmittedByFamilyID(ctx, actor.FamilyID, limit)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return items, nil
}

// ReviewQuest approves or rejects a submitted assignment. Approval credits
// the locked reward in the same transaction as the status flip; the comment
// is recorded either way.
func (s *QuestService) ReviewQuest(ctx context.Context, actor *model.Principal, questID, childID string, approve bool, comment *string) error {
	if !actor.Role.Can(model.CapReviewQuest) {
		return apperrors.Forbidden("Insufficient permissions")
	}

	quest, err := s.familyQuest(ctx, actor.FamilyID, questID)
	if err != nil {
		return err
	}

	assignee, err := s.repos.Assignees.FindByQuestAndChild(ctx, quest.ID, childID)
	if err != nil {
		return apperrors.Database(err)
	}
	if assignee == nil {
		return apperrors.NotFound("Assignment")
	}
	if assignee.Status != model.AssigneeSubmitted {
		return apperrors.InvalidState("Assignment is not awaiting review")
	}

	status := model.AssigneeRejected
	if approve {
		status = model.AssigneeApproved
	}

	err = s.inTx(ctx, func(r *repository.Repos) error {
		reviewed, err := r.Assignees.MarkReviewed(ctx, assignee.ID, status, comment)
		if err != nil {
			return apperrors.Database(err)
		}
		if !reviewed {
			return apperrors.InvalidState("Assignment already reviewed")
		}

		if approve && assignee.RewardAmount > 0 {
			wallet, err := r.Wallets.GetOrCreate(ctx, childID, actor.FamilyID)
			if err != nil {
				return apperrors.Database(err)
			}
			if _, err := s.ledger.Credit(ctx, r, wallet.ID, assignee.RewardAmount, model.TxQuestReward, "quest_reward", nil, map[string]any{
				"questId": quest.ID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	audit.Log(ctx, audit.Event{
		Type:     audit.EventQuestReview,
		UserID:   actor.UserID,
		FamilyID: actor.FamilyID,
		ChildID:  childID,
		Details: map[string]interface{}{
			"quest_id": quest.ID,
			"status":   string(status),
		},
	})

	s.notifier.Notify(ctx, notify.Event{
		Type:     model.NotifyQuestReviewed,
		FamilyID: actor.FamilyID,
		Payload: map[string]any{
			"questId": quest.ID,
			"childId": childID,
			"status":  string(status),
			"reward":  assignee.RewardAmount,
		},
	})

	return nil
}

func (s *QuestService) familyQuest(ctx context.Context, familyID, questID string) (*model.Quest, error) {
	quest, err := s.repos.Quests.FindByID(ctx, questID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if quest == nil || quest.FamilyID != familyID {
		return nil, apperrors.NotFound("Quest")
	}
	return quest, nil
}
