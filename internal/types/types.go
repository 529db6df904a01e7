// Package types holds the persisted domain structs shared across services.
package types

import "time"

// Link type vocabulary for directed memory relations.
const (
	LinkRelated     = "related"
	LinkContradicts = "contradicts"
	LinkSupersedes  = "supersedes"
	LinkCausedBy    = "caused_by"
	LinkPartOf      = "part_of"
)

// Memory is a versioned remembered fact. Evolving a memory appends a new row
// with Version+1 and ParentID set; the superseded row is never deleted.
type Memory struct {
	ID            int    `json:"id"`
	SimpleContent string `json:"simple_content"`
	FullContent   string `json:"full_content,omitempty"`
	Importance    int    `json:"importance"`
	Version       int    `json:"version"`
	ParentID      *int   `json:"parent_id,omitempty"`
	CreatedBy     string `json:"created_by"`
	// Categories carries the full paths hydrated from the association table.
	Categories []string `json:"categories"`
	Keywords   []string `json:"keywords,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	// VAD emotion attached at creation time, each axis in [-1,1].
	EmotionValence     float64 `json:"emotion_valence"`
	EmotionArousal     float64 `json:"emotion_arousal"`
	EmotionDominance   float64 `json:"emotion_dominance"`
	EmotionLabel       string  `json:"emotion_label,omitempty"`
	ContextTemporal    string  `json:"context_temporal,omitempty"`
	ContextSituational string  `json:"context_situational,omitempty"`
	// EvolutionTriggers lists ids of memories that caused a re-evaluation.
	EvolutionTriggers []int     `json:"evolution_triggers,omitempty"`
	AccessCount       int       `json:"access_count"`
	LastAccessed      time.Time `json:"last_accessed,omitempty"`
	Embedding         []float32 `json:"-"` // embedding vector, not serialized
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Category is a node of the hierarchical tag taxonomy.
type Category struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	FullPath string `json:"full_path"`
	ParentID *int   `json:"parent_id,omitempty"`
	// Advisory importance band for memories tagged with this category.
	ImportanceRangeMin int       `json:"importance_range_min"`
	ImportanceRangeMax int       `json:"importance_range_max"`
	CreatedAt          time.Time `json:"created_at"`
}

// MemoryLink is a directed typed edge between two memories. At most one edge
// may exist per (from, to, type) triple.
type MemoryLink struct {
	ID            int       `json:"id"`
	FromMemoryID  int       `json:"from_memory_id"`
	ToMemoryID    int       `json:"to_memory_id"`
	LinkType      string    `json:"link_type"`
	Strength      float64   `json:"strength"`
	Context       string    `json:"context,omitempty"`
	AutoGenerated bool      `json:"auto_generated"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// BotMood is the single evolving affective state of the agent.
type BotMood struct {
	ID               int     `json:"id"`
	Valence          float64 `json:"valence"`
	Arousal          float64 `json:"arousal"`
	Dominance        float64 `json:"dominance"`
	PrimaryMood      string  `json:"primary_mood"`
	MoodIntensity    float64 `json:"mood_intensity"`
	EnergyLevel      float64 `json:"energy_level"`
	SocialEngagement float64 `json:"social_engagement"`
	Confidence       float64 `json:"confidence"`
	InteractionCount int     `json:"interaction_count"`
	// MoodReason is a free-text audit trail for the latest delta.
	MoodReason      string    `json:"mood_reason,omitempty"`
	TriggerMemoryID *int      `json:"trigger_memory_id,omitempty"`
	LastInteraction time.Time `json:"last_interaction,omitempty"`
	LastUpdated     time.Time `json:"last_updated,omitempty"`
}

// UserRelationship tracks per-sender trust, familiarity, and friendship.
type UserRelationship struct {
	ID                   int       `json:"id"`
	UserID               string    `json:"user_id"`
	TrustScore           float64   `json:"trust_score"`
	FriendshipLevel      float64   `json:"friendship_level"`
	Familiarity          float64   `json:"familiarity"`
	TotalInteractions    int       `json:"total_interactions"`
	PositiveInteractions int       `json:"positive_interactions"`
	RelationshipType     string    `json:"relationship_type"`
	BotFeeling           string    `json:"bot_feeling"`
	LastInteraction      time.Time `json:"last_interaction,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// RetrievedMemory is a memory snippet returned by semantic search.
type RetrievedMemory struct {
	MemoryID   int       `json:"memory_id"`
	Content    string    `json:"content"`
	Importance int       `json:"importance"`
	Similarity float64   `json:"similarity"`
	CreatedAt  time.Time `json:"created_at"`
}

// ClampAxis bounds a VAD axis value to [-1,1].
func ClampAxis(v float64) float64 {
	switch {
	case v < -1:
		return -1
	case v > 1:
		return 1
	default:
		return v
	}
}

// ClampScore bounds a relationship score to [0,1].
func ClampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
