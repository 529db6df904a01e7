// Package mood maintains the agent's own affective state on the
// valence-arousal-dominance model.
package mood

import (
	"context"
	"math"

	"github.com/m-mizutani/goerr/v2"

	"github.com/easeaico/project-kokoro/internal/errs"
	"github.com/easeaico/project-kokoro/internal/types"
)

// maxApplyAttempts bounds the optimistic-concurrency retry loop.
const maxApplyAttempts = 5

// neutralDeadZone is the VAD radius treated as an unremarkable mood.
const neutralDeadZone = 0.15

// MoodRepo defines the storage surface the engine needs.
type MoodRepo interface {
	Current(ctx context.Context) (types.BotMood, error)
	Update(ctx context.Context, mood types.BotMood, expectedCount int) (bool, error)
}

// Engine owns the single live mood row.
type Engine struct {
	repo MoodRepo
}

// NewEngine returns a mood engine.
func NewEngine(repo MoodRepo) *Engine {
	return &Engine{repo: repo}
}

// Current returns the live mood, creating a neutral one if none exists.
func (e *Engine) Current(ctx context.Context) (types.BotMood, error) {
	return e.repo.Current(ctx)
}

// Apply adds the deltas to the current state, clamping each axis to [-1,1],
// and persists the result. Concurrent appliers are serialized by an optimistic
// retry loop; both writers' deltas land, neither is lost.
func (e *Engine) Apply(ctx context.Context, valenceDelta, arousalDelta, dominanceDelta float64, reason string, triggerMemoryID *int) (types.BotMood, error) {
	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		current, err := e.repo.Current(ctx)
		if err != nil {
			return types.BotMood{}, err
		}

		next := current
		next.Valence = types.ClampAxis(current.Valence + valenceDelta)
		next.Arousal = types.ClampAxis(current.Arousal + arousalDelta)
		next.Dominance = types.ClampAxis(current.Dominance + dominanceDelta)
		next.PrimaryMood = DeriveMood(next.Valence, next.Arousal, next.Dominance)
		next.MoodIntensity = intensity(next.Valence, next.Arousal, next.Dominance)
		next.EnergyLevel = (next.Arousal + 1) / 2
		next.SocialEngagement = types.ClampScore(0.6*(next.Valence+1)/2 + 0.4*(next.Dominance+1)/2)
		next.Confidence = (next.Dominance + 1) / 2
		next.InteractionCount = current.InteractionCount + 1
		next.MoodReason = reason
		next.TriggerMemoryID = triggerMemoryID

		ok, err := e.repo.Update(ctx, next, current.InteractionCount)
		if err != nil {
			return types.BotMood{}, err
		}
		if ok {
			return next, nil
		}
		// Another message won the write; re-read and re-apply our deltas.
	}
	return types.BotMood{}, goerr.Wrap(errs.ErrUnavailable, "mood update kept conflicting", goerr.V("attempts", maxApplyAttempts))
}

// DeriveMood maps a VAD point to its quadrant label. Dominance picks the
// label family within each quadrant.
func DeriveMood(valence, arousal, dominance float64) string {
	if math.Abs(valence) < neutralDeadZone && math.Abs(arousal) < neutralDeadZone {
		return "neutral"
	}
	switch {
	case valence >= 0 && arousal >= 0:
		if dominance >= 0 {
			return "excited"
		}
		return "happy"
	case valence >= 0 && arousal < 0:
		if dominance >= 0 {
			return "calm"
		}
		return "content"
	case valence < 0 && arousal >= 0:
		if dominance >= 0 {
			return "angry"
		}
		return "anxious"
	default:
		if dominance >= 0 {
			return "gloomy"
		}
		return "sad"
	}
}

// intensity is the normalized magnitude of the VAD vector.
func intensity(valence, arousal, dominance float64) float64 {
	return math.Sqrt(valence*valence+arousal*arousal+dominance*dominance) / math.Sqrt(3)
}

// Instruction returns a short reply-style guideline for the given mood label.
func Instruction(primaryMood string) string {
	switch primaryMood {
	case "excited", "happy":
		return "Warm and upbeat; it is fine to show enthusiasm."
	case "calm", "content":
		return "Relaxed and even; keep replies unhurried."
	case "angry":
		return "Curt and reserved; avoid warmth, stay civil."
	case "anxious":
		return "Hesitant and careful; hedge rather than assert."
	case "gloomy", "sad":
		return "Subdued and brief; mild melancholy is acceptable."
	default:
		return ""
	}
}
