package repository

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gorm.io/gorm"

	"github.com/easeaico/project-kokoro/internal/types"
)

// userRelationshipModel maps to the user_relationships table.
type userRelationshipModel struct {
	ID                   int
	UserID               string `gorm:"uniqueIndex"`
	TrustScore           float64
	FriendshipLevel      float64
	Familiarity          float64
	TotalInteractions    int `gorm:"default:0"`
	PositiveInteractions int `gorm:"default:0"`
	RelationshipType     string
	BotFeeling           string
	LastInteraction      *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (userRelationshipModel) TableName() string {
	return "user_relationships"
}

// RelationshipRepo accesses per-sender relationship rows.
type RelationshipRepo struct {
	db *gorm.DB
}

// NewRelationshipRepo returns a RelationshipRepo.
func NewRelationshipRepo(db *gorm.DB) *RelationshipRepo {
	return &RelationshipRepo{db: db}
}

// GetOrCreate returns the relationship row for a sender, lazily creating it.
// Privileged senders are seeded with the given trust score and the admin type.
func (r *RelationshipRepo) GetOrCreate(ctx context.Context, userID string, privileged bool, trustSeed float64) (types.UserRelationship, error) {
	var record userRelationshipModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = userRelationshipModel{
			UserID:           userID,
			RelationshipType: "regular",
			BotFeeling:       "neutral",
		}
		if privileged {
			record.TrustScore = trustSeed
			record.RelationshipType = "admin"
		}
		if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost a concurrent first-interaction race; the row exists now.
				if reread := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&record).Error; reread == nil {
					return relationshipFromModel(record), nil
				}
			}
			return types.UserRelationship{}, goerr.Wrap(err, "failed to create relationship", goerr.V("user_id", userID))
		}
		return relationshipFromModel(record), nil
	}
	if err != nil {
		return types.UserRelationship{}, goerr.Wrap(err, "failed to load relationship", goerr.V("user_id", userID))
	}
	return relationshipFromModel(record), nil
}

// Update writes the full relationship state, guarded on the total interaction
// count the caller read. Returns false when a concurrent writer won.
func (r *RelationshipRepo) Update(ctx context.Context, rel types.UserRelationship, expectedTotal int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&userRelationshipModel{}).
		Where("user_id = ?", rel.UserID).
		Where("total_interactions = ?", expectedTotal).
		Updates(map[string]any{
			"trust_score":           rel.TrustScore,
			"friendship_level":      rel.FriendshipLevel,
			"familiarity":           rel.Familiarity,
			"total_interactions":    rel.TotalInteractions,
			"positive_interactions": rel.PositiveInteractions,
			"relationship_type":     rel.RelationshipType,
			"bot_feeling":           rel.BotFeeling,
			"last_interaction":      time.Now(),
		})
	if res.Error != nil {
		return false, goerr.Wrap(res.Error, "failed to update relationship", goerr.V("user_id", rel.UserID))
	}
	return res.RowsAffected > 0, nil
}

func relationshipFromModel(record userRelationshipModel) types.UserRelationship {
	rel := types.UserRelationship{
		ID:                   record.ID,
		UserID:               record.UserID,
		TrustScore:           record.TrustScore,
		FriendshipLevel:      record.FriendshipLevel,
		Familiarity:          record.Familiarity,
		TotalInteractions:    record.TotalInteractions,
		PositiveInteractions: record.PositiveInteractions,
		RelationshipType:     record.RelationshipType,
		BotFeeling:           record.BotFeeling,
		CreatedAt:            record.CreatedAt,
		UpdatedAt:            record.UpdatedAt,
	}
	if record.LastInteraction != nil {
		rel.LastInteraction = *record.LastInteraction
	}
	return rel
}
