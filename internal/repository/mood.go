package repository

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gorm.io/gorm"

	"github.com/easeaico/project-kokoro/internal/types"
)

// botMoodModel maps to the bot_moods table. A single row holds the live state.
type botMoodModel struct {
	ID               int
	Valence          float64
	Arousal          float64
	Dominance        float64
	PrimaryMood      string
	MoodIntensity    float64
	EnergyLevel      float64
	SocialEngagement float64
	Confidence       float64
	InteractionCount int `gorm:"default:0"`
	MoodReason       string
	TriggerMemoryID  *int
	LastInteraction  *time.Time
	LastUpdated      *time.Time
}

func (botMoodModel) TableName() string {
	return "bot_moods"
}

// MoodRepo accesses the single mood row.
type MoodRepo struct {
	db *gorm.DB
}

// NewMoodRepo returns a MoodRepo.
func NewMoodRepo(db *gorm.DB) *MoodRepo {
	return &MoodRepo{db: db}
}

// Current returns the live mood row, inserting a neutral one on first access.
func (r *MoodRepo) Current(ctx context.Context) (types.BotMood, error) {
	var record botMoodModel
	err := r.db.WithContext(ctx).Order("id ASC").First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = botMoodModel{PrimaryMood: "neutral"}
		if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
			// A concurrent first access may have won the insert; fall back to a read.
			if reread := r.db.WithContext(ctx).Order("id ASC").First(&record).Error; reread != nil {
				return types.BotMood{}, goerr.Wrap(err, "failed to initialize mood row")
			}
		}
		return moodFromModel(record), nil
	}
	if err != nil {
		return types.BotMood{}, goerr.Wrap(err, "failed to load mood")
	}
	return moodFromModel(record), nil
}

// Update writes the full mood state, guarded on the interaction count the
// caller read. Returns false without error when a concurrent writer got there
// first, so the caller can re-read and retry.
func (r *MoodRepo) Update(ctx context.Context, mood types.BotMood, expectedCount int) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&botMoodModel{}).
		Where("id = ?", mood.ID).
		Where("interaction_count = ?", expectedCount).
		Updates(map[string]any{
			"valence":           mood.Valence,
			"arousal":           mood.Arousal,
			"dominance":         mood.Dominance,
			"primary_mood":      mood.PrimaryMood,
			"mood_intensity":    mood.MoodIntensity,
			"energy_level":      mood.EnergyLevel,
			"social_engagement": mood.SocialEngagement,
			"confidence":        mood.Confidence,
			"interaction_count": mood.InteractionCount,
			"mood_reason":       mood.MoodReason,
			"trigger_memory_id": mood.TriggerMemoryID,
			"last_interaction":  now,
			"last_updated":      now,
		})
	if res.Error != nil {
		return false, goerr.Wrap(res.Error, "failed to update mood")
	}
	return res.RowsAffected > 0, nil
}

func moodFromModel(record botMoodModel) types.BotMood {
	mood := types.BotMood{
		ID:               record.ID,
		Valence:          record.Valence,
		Arousal:          record.Arousal,
		Dominance:        record.Dominance,
		PrimaryMood:      record.PrimaryMood,
		MoodIntensity:    record.MoodIntensity,
		EnergyLevel:      record.EnergyLevel,
		SocialEngagement: record.SocialEngagement,
		Confidence:       record.Confidence,
		InteractionCount: record.InteractionCount,
		MoodReason:       record.MoodReason,
		TriggerMemoryID:  record.TriggerMemoryID,
	}
	if record.LastInteraction != nil {
		mood.LastInteraction = *record.LastInteraction
	}
	if record.LastUpdated != nil {
		mood.LastUpdated = *record.LastUpdated
	}
	return mood
}
