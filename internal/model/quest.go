package model

import "time"

type Quest struct {
	ID          string      `db:"id" json:"id"`
	FamilyID    string      `db:"family_id" json:"familyId"`
	CreatedBy   string      `db:"created_by" json:"createdBy"`
	Title       string      `db:"title" json:"title"`
	Description *string     `db:"description" json:"description,omitempty"`
	Reward      int64       `db:"reward" json:"reward"`
	QuestType   string      `db:"quest_type" json:"questType"`
	Status      QuestStatus `db:"status" json:"status"`
	DueAt       *time.Time  `db:"due_at" json:"dueAt,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
}

type CreateQuestParams struct {
	FamilyID    string
	CreatedBy   string
	Title       string
	Description *string
	Reward      int64
	QuestType   string
	DueAt       *time.Time
}

// QuestAssignee is one child's run of a quest. RewardAmount is locked in at
// assignment time and does not follow later quest edits.
type QuestAssignee struct {
	ID           string         `db:"id" json:"id"`
	QuestID      string         `db:"quest_id" json:"questId"`
	ChildID      string         `db:"child_id" json:"childId"`
	Status       AssigneeStatus `db:"status" json:"status"`
	RewardAmount int64          `db:"reward_amount" json:"rewardAmount"`
	SubmittedAt  *time.Time     `db:"submitted_at" json:"submittedAt,omitempty"`
	Comment      *string        `db:"comment" json:"comment,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
}

type QuestEvidence struct {
	ID        string    `db:"id" json:"id"`
	QuestID   string    `db:"quest_id" json:"questId"`
	ChildID   string    `db:"child_id" json:"childId"`
	ObjectKey string    `db:"object_key" json:"objectKey"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ChildAssignment is the child-facing assignment projection.
type ChildAssignment struct {
	AssignmentID string         `db:"assignment_id" json:"assignmentId"`
	QuestID      string         `db:"quest_id" json:"questId"`
	Title        string         `db:"title" json:"title"`
	Status       AssigneeStatus `db:"status" json:"status"`
	RewardAmount int64          `db:"reward_amount" json:"rewardAmount"`
	Comment      *string        `db:"comment" json:"comment,omitempty"`
	DueAt        *time.Time     `db:"due_at" json:"dueAt,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
}

// ReviewItem is the parent review-queue projection.
type ReviewItem struct {
	QuestID     string     `db:"quest_id" json:"questId"`
	ChildID     string     `db:"child_id" json:"childId"`
	ChildName   string     `db:"child_name" json:"childName"`
	Title       string     `db:"title" json:"title"`
	SubmittedAt *time.Time `db:"submitted_at" json:"submittedAt,omitempty"`
	EvidenceKey *string    `db:"evidence_key" json:"evidenceKey,omitempty"`
}
