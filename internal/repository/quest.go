package repository

import (
	"context"

	"github.com/famquest/family-server-go/internal/database"
	"github.com/famquest/family-server-go/internal/model"
)

type QuestRepository interface {
	FindByID(ctx context.Context, id string) (*model.Quest, error)
	FindByFamilyID(ctx context.Context, familyID string, limit int) ([]model.Quest, error)
	Create(ctx context.Context, params model.CreateQuestParams) (*model.Quest, error)
	UpdateReward(ctx context.Context, id string, reward int64) error
	FindAll(ctx context.Context, limit, offset int) ([]model.Quest, error)
}

type questRepo struct {
	db database.DBTX
}

func NewQuestRepository(db database.DBTX) QuestRepository {
	return &questRepo{db: db}
}

func (r *questRepo) FindByID(ctx context.Context, id string) (*model.Quest, error) {
	var q model.Quest
	err := r.db.GetContext(ctx, &q, `SELECT * FROM quests WHERE id = $1`, id)
	return HandleNotFound(&q, err)
}

func (r *questRepo) FindByFamilyID(ctx context.Context, familyID string, limit int) ([]model.Quest, error) {
	var quests []model.Quest
	err := r.db.SelectContext(ctx, &quests, `
		SELECT * FROM quests
		WHERE family_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, familyID, limit)
	return quests, err
}

func (r *questRepo) Create(ctx context.Context, params model.CreateQuestParams) (*model.Quest, error) {
	var q model.Quest
	err := r.db.GetContext(ctx, &q, `
		INSERT INTO quests (family_id, created_by, title, description, reward, quest_type, status, due_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'active', $7)
		RETURNING *
	`, params.FamilyID, params.CreatedBy, params.Title, params.Description, params.Reward, params.QuestType, params.DueAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *questRepo) UpdateReward(ctx context.Context, id string, reward int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE quests SET reward = $2 WHERE id = $1`, id, reward)
	return err
}

func (r *questRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Quest, error) {
	var quests []model.Quest
	err := r.db.SelectContext(ctx, &quests, `
		SELECT * FROM quests
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return quests, err
}
