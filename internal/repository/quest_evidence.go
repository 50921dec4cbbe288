package repository

import (
	"context"

	"github.com/famquest/family-server-go/internal/database"
	"github.com/famquest/family-server-go/internal/model"
)

type QuestEvidenceRepository interface {
	Create(ctx context.Context, questID, childID, objectKey string) (*model.QuestEvidence, error)
	FindLatest(ctx context.Context, questID, childID string) (*model.QuestEvidence, error)
}

type questEvidenceRepo struct {
	db database.DBTX
}

func NewQuestEvidenceRepository(db database.DBTX) QuestEvidenceRepository {
	return &questEvidenceRepo{db: db}
}

func (r *questEvidenceRepo) Create(ctx context.Context, questID, childID, objectKey string) (*model.QuestEvidence, error) {
	var e model.QuestEvidence
	err := r.db.GetContext(ctx, &e, `
		INSERT INTO quest_evidence (quest_id, child_id, object_key)
		VALUES ($1, $2, $3)
		RETURNING *
	`, questID, childID, objectKey)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *questEvidenceRepo) FindLatest(ctx context.Context, questID, childID string) (*model.QuestEvidence, error) {
	var e model.QuestEvidence
	err := r.db.GetContext(ctx, &e, `
		SELECT * FROM quest_evidence
		WHERE quest_id = $1 AND child_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, questID, childID)
	return HandleNotFound(&e, err)
}
