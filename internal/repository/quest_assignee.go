package repository

import (
	"context"

	"github.com/famquest/family-server-go/internal/database"
	"github.com/famquest/family-server-go/internal/model"
)

type QuestAssigneeRepository interface {
	FindByQuestAndChild(ctx context.Context, questID, childID string) (*model.QuestAssignee, error)
	FindByChildID(ctx context.Context, childID string, limit int) ([]model.ChildAssignment, error)
	FindSubmittedByFamilyID(ctx context.Context, familyID string, limit int) ([]model.ReviewItem, error)
	Create(ctx context.Context, questID, childID string, rewardAmount int64) (*model.QuestAssignee, error)
	// MarkSubmitted flips an assigned or resubmitted assignee to submitted and
	// reports whether a row was updated; a terminal assignee stays untouched.
	MarkSubmitted(ctx context.Context, id string) (bool, error)
	// MarkReviewed flips a submitted assignee into approved/rejected and
	// reports whether a row was updated.
	MarkReviewed(ctx context.Context, id string, status model.AssigneeStatus, comment *string) (bool, error)
}

type questAssigneeRepo struct {
	db database.DBTX
}

func NewQuestAssigneeRepository(db database.DBTX) QuestAssigneeRepository {
	return &questAssigneeRepo{db: db}
}

func (r *questAssigneeRepo) FindByQuestAndChild(ctx context.Context, questID, childID string) (*model.QuestAssignee, error) {
	var a model.QuestAssignee
	err := r.db.GetContext(ctx, &a, `
		SELECT * FROM quest_assignees
		WHERE quest_id = $1 AND child_id = $2
	`, questID, childID)
	return HandleNotFound(&a, err)
}

func (r *questAssigneeRepo) FindByChildID(ctx context.Context, childID string, limit int) ([]model.ChildAssignment, error) {
	var assignments []model.ChildAssignment
	err := r.db.SelectContext(ctx, &assignments, `
		SELECT
			a.id AS assignment_id,
			a.quest_id,
			a.status,
			a.reward_amount,
			a.comment,
			a.created_at,
			q.title,
			q.due_at
		FROM quest_assignees a
		JOIN quests q ON q.id = a.quest_id
		WHERE a.child_id = $1
		ORDER BY a.created_at DESC
		LIMIT $2
	`, childID, limit)
	return assignments, err
}

func (r *questAssigneeRepo) FindSubmittedByFamilyID(ctx context.Context, familyID string, limit int) ([]model.ReviewItem, error) {
	var items []model.ReviewItem
	err := r.db.SelectContext(ctx, &items, `
		SELECT
			a.quest_id,
			a.child_id,
			a.submitted_at,
			q.title,
			TRIM(c.first_name || ' ' || COALESCE(c.last_name, '')) AS child_name,
			(
				SELECT e.object_key FROM quest_evidence e
				WHERE e.quest_id = a.quest_id AND e.child_id = a.child_id
				ORDER BY e.created_at DESC
				LIMIT 1
			) AS evidence_key
		FROM quest_assignees a
		JOIN quests q ON q.id = a.quest_id
		JOIN children c ON c.id = a.child_id
		WHERE q.family_id = $1 AND a.status = 'submitted'
		ORDER BY a.submitted_at DESC
		LIMIT $2
	`, familyID, limit)
	return items, err
}

func (r *questAssigneeRepo) Create(ctx context.Context, questID, childID string, rewardAmount int64) (*model.QuestAssignee, error) {
	var a model.QuestAssignee
	err := r.db.GetContext(ctx, &a, `
		INSERT INTO quest_assignees (quest_id, child_id, status, reward_amount)
		VALUES ($1, $2, 'assigned', $3)
		RETURNING *
	`, questID, childID, rewardAmount)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *questAssigneeRepo) MarkSubmitted(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE quest_assignees SET status = 'submitted', submitted_at = NOW()
		WHERE id = $1 AND status IN ('assigned', 'submitted')
	`, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func (r *questAssigneeRepo) MarkReviewed(ctx context.Context, id string, status model.AssigneeStatus, comment *string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE quest_assignees SET status = $2, comment = COALESCE($3, comment)
		WHERE id = $1 AND status = 'submitted'
	`, id, status, comment)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}
