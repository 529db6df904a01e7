// Package handler is the outermost message boundary: it runs the analysis
// pipeline, commits the side effects the result implies, and always produces
// a usable reply context, whatever fails underneath.
package handler

import (
	"context"
	"log/slog"

	"github.com/easeaico/project-kokoro/internal/emotion"
	"github.com/easeaico/project-kokoro/internal/memory"
	"github.com/easeaico/project-kokoro/internal/mood"
	"github.com/easeaico/project-kokoro/internal/types"
)

// Relationship deltas applied per interaction, scaled by sentiment.
const (
	trustDeltaScale      = 0.02
	friendshipDeltaScale = 0.015
	familiarityDelta     = 0.01
	positiveValenceBar   = 0.1
)

// AnalysisPipeline runs the four reasoning stages.
type AnalysisPipeline interface {
	Analyze(ctx context.Context, text, senderID string, privileged bool, currentMood types.BotMood) (*emotion.AnalysisResult, error)
}

// MemoryWriter commits conditional memory creation.
type MemoryWriter interface {
	Create(ctx context.Context, in memory.CreateInput) (types.Memory, error)
}

// MoodApplier reads and updates the agent's mood.
type MoodApplier interface {
	Current(ctx context.Context) (types.BotMood, error)
	Apply(ctx context.Context, valenceDelta, arousalDelta, dominanceDelta float64, reason string, triggerMemoryID *int) (types.BotMood, error)
}

// RelationshipUpdater commits the per-sender counters.
type RelationshipUpdater interface {
	Get(ctx context.Context, senderID string, privileged bool) (types.UserRelationship, error)
	Update(ctx context.Context, senderID string, trustDelta, friendshipDelta, familiarityDelta float64, positive bool, interactionType string) (types.UserRelationship, error)
}

// Reply is the bundle the transport layer composes the outward message from.
type Reply struct {
	Respond bool
	Tone    string
	// Mood is the agent's state after this message was applied.
	Mood types.BotMood
	// Instruction is the reply-style guideline derived from the mood.
	Instruction string
	// MemoryID is set when the message was memorized.
	MemoryID *int
	// Degraded is set when analysis itself failed and defaults were used.
	Degraded bool
	Analysis *emotion.AnalysisResult
}

// MessageHandler wires the pipeline to the stores.
type MessageHandler struct {
	pipeline      AnalysisPipeline
	memories      MemoryWriter
	moods         MoodApplier
	relationships RelationshipUpdater
}

// NewMessageHandler returns a message handler.
func NewMessageHandler(pipeline AnalysisPipeline, memories MemoryWriter, moods MoodApplier, relationships RelationshipUpdater) *MessageHandler {
	return &MessageHandler{
		pipeline:      pipeline,
		memories:      memories,
		moods:         moods,
		relationships: relationships,
	}
}

// Handle processes one inbound message end to end. It never panics and never
// returns an unusable reply; failed side effects are logged and skipped, each
// component committing independently.
func (h *MessageHandler) Handle(ctx context.Context, text, senderID string, privileged bool) (reply Reply) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("message handling panic", "error", r, "sender_id", senderID)
			reply = fallbackReply()
		}
	}()

	currentMood, err := h.moods.Current(ctx)
	if err != nil {
		slog.Warn("failed to load mood snapshot, analyzing from neutral", "error", err.Error())
		currentMood = types.BotMood{PrimaryMood: "neutral"}
	}

	if _, err := h.relationships.Get(ctx, senderID, privileged); err != nil {
		slog.Warn("failed to load relationship", "error", err.Error(), "sender_id", senderID)
	}

	result, err := h.pipeline.Analyze(ctx, text, senderID, privileged, currentMood)
	if err != nil {
		slog.Error("analysis failed, replying with defaults", "error", err.Error(), "sender_id", senderID)
		return fallbackReply()
	}

	reply = Reply{
		Respond:  result.Response.ShouldRespond,
		Tone:     result.Response.ToneModifier,
		Mood:     currentMood,
		Analysis: result,
	}

	if result.Memorize.ShouldMemorize {
		mem, err := h.memories.Create(ctx, memory.CreateInput{
			SimpleContent:    result.Memorize.SimpleContent,
			FullContent:      result.Memorize.FullContent,
			Categories:       result.Memorize.Categories,
			Importance:       result.Memorize.ImportanceScore,
			CreatedBy:        senderID,
			Keywords:         result.Memorize.Keywords,
			EmotionValence:   result.Sentiment.Valence,
			EmotionArousal:   result.Sentiment.Arousal,
			EmotionDominance: result.Sentiment.Dominance,
			EmotionLabel:     result.Sentiment.Label,
		})
		if err != nil {
			slog.Error("failed to store memory, continuing", "error", err.Error(), "sender_id", senderID)
		} else {
			reply.MemoryID = &mem.ID
		}
	}

	updated, err := h.moods.Apply(ctx,
		result.MoodDelta.Valence,
		result.MoodDelta.Arousal,
		result.MoodDelta.Dominance,
		result.MoodDelta.Reason,
		reply.MemoryID,
	)
	if err != nil {
		slog.Error("failed to apply mood delta, keeping snapshot", "error", err.Error())
	} else {
		reply.Mood = updated
	}
	reply.Instruction = mood.Instruction(reply.Mood.PrimaryMood)

	positive := result.Sentiment.Valence > positiveValenceBar
	if _, err := h.relationships.Update(ctx, senderID,
		result.Sentiment.Valence*trustDeltaScale,
		result.Sentiment.Valence*friendshipDeltaScale,
		familiarityDelta,
		positive,
		"",
	); err != nil {
		slog.Error("failed to update relationship, continuing", "error", err.Error(), "sender_id", senderID)
	}

	return reply
}

func fallbackReply() Reply {
	return Reply{
		Respond:  true,
		Tone:     emotion.ToneProfessional,
		Mood:     types.BotMood{PrimaryMood: "neutral"},
		Degraded: true,
	}
}
