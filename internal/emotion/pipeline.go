package emotion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/easeaico/project-kokoro/internal/errs"
	"github.com/easeaico/project-kokoro/internal/types"
)

// Stage-3 weights: how strongly estimated sentiment pulls the agent's mood.
const (
	valenceWeight   = 0.30
	arousalWeight   = 0.25
	dominanceWeight = 0.15

	// adminValenceFloor is the lowest valence delta a privileged sender's
	// message may inflict.
	adminValenceFloor = -0.1

	// intensityDamping halves deltas once the mood is already this intense.
	intensityDamping = 0.8

	// hostileValenceCutoff marks a message as strongly hostile.
	hostileValenceCutoff = -0.5
)

var (
	secondPersonMarkers = []string{
		"you",
		"your",
		"你",
	}
	thirdPartyMarkers = []string{
		"my boss",
		"my coworker",
		"my colleague",
		"my teacher",
		"that guy",
		"that woman",
		"him",
		"her",
		"them",
		"他",
		"她",
		"他们",
	}
)

// Analyzer estimates sentiment by delegating to an external reasoning service.
type Analyzer interface {
	EstimateSentiment(ctx context.Context, text string) (SentimentEstimate, error)
}

// Pipeline runs the four analysis stages in order. It is a pure function of
// its inputs plus the mood snapshot the caller passes in: it issues no
// storage calls itself.
type Pipeline struct {
	analyzer          Analyzer
	vocabulary        []string
	memorizeThreshold int
}

// NewPipeline returns a pipeline. analyzer may be nil, in which case Stage 1
// always uses the deterministic lexicon estimator. vocabulary is the category
// full-path set Stage 2 assigns from.
func NewPipeline(analyzer Analyzer, vocabulary []string, memorizeThreshold int) *Pipeline {
	if memorizeThreshold <= 0 {
		memorizeThreshold = 50
	}
	return &Pipeline{
		analyzer:          analyzer,
		vocabulary:        vocabulary,
		memorizeThreshold: memorizeThreshold,
	}
}

// Analyze runs all four stages and returns a complete result. It fails only
// on unrecoverable input; otherwise every stage output is present.
func (p *Pipeline) Analyze(ctx context.Context, text, senderID string, privileged bool, currentMood types.BotMood) (*AnalysisResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, goerr.Wrap(errs.ErrValidation, "message text must not be empty")
	}

	sentiment := p.estimate(ctx, text)
	memorize := decideMemorize(text, senderID, privileged, sentiment, p.vocabulary, p.memorizeThreshold)
	delta := computeMoodDelta(sentiment, currentMood, privileged)
	response := decideResponse(text, sentiment)

	return &AnalysisResult{
		Sentiment: sentiment,
		Memorize:  memorize,
		MoodDelta: delta,
		Response:  response,
	}, nil
}

// estimate is Stage 1. Delegation failures degrade to the lexicon estimator
// so the pipeline never returns a partial result.
func (p *Pipeline) estimate(ctx context.Context, text string) SentimentEstimate {
	baseline := estimateSentiment(text)
	if p.analyzer == nil {
		return baseline
	}

	est, err := p.analyzer.EstimateSentiment(ctx, text)
	if err != nil {
		slog.Warn("sentiment delegation failed, using lexicon estimate", "error", err.Error())
		return baseline
	}
	est.Valence = clamp(est.Valence)
	est.Arousal = clamp(est.Arousal)
	est.Dominance = clamp(est.Dominance)
	if est.Label == "" {
		est.Label = sentimentLabel(est.Valence)
	}
	// Token extraction stays lexicon-based regardless of the backend.
	est.PositiveTokens = baseline.PositiveTokens
	est.NegativeTokens = baseline.NegativeTokens
	est.Source = SourceLLM
	return est
}

// computeMoodDelta is Stage 3: it weights the sentiment estimate against the
// current mood and enforces the privileged-sender protection floor.
func computeMoodDelta(est SentimentEstimate, currentMood types.BotMood, privileged bool) MoodDelta {
	dv := est.Valence * valenceWeight
	da := est.Arousal * arousalWeight
	dd := est.Dominance * dominanceWeight

	// An already intense mood resists further swings.
	if currentMood.MoodIntensity >= intensityDamping {
		dv /= 2
		da /= 2
		dd /= 2
	}

	delta := MoodDelta{
		Valence:   dv,
		Arousal:   da,
		Dominance: dd,
		Reason:    fmt.Sprintf("%s message (valence %.2f)", est.Label, est.Valence),
	}
	if privileged && delta.Valence < adminValenceFloor {
		delta.Valence = adminValenceFloor
		delta.AdminProtectionApplied = true
		delta.Reason += ", admin protection applied"
	}
	return delta
}

// decideResponse is Stage 4: the safety filter suppresses replies to strong
// hostility aimed at the agent itself; hostility about a third party still
// gets one. The tone modifier comes from a small fixed vocabulary.
func decideResponse(text string, est SentimentEstimate) ResponsePolicy {
	lowered := strings.ToLower(text)

	if est.Valence <= hostileValenceCutoff &&
		containsAny(lowered, secondPersonMarkers) &&
		!containsAny(lowered, thirdPartyMarkers) {
		return ResponsePolicy{
			ShouldRespond: false,
			ToneModifier:  ToneCalming,
			Reason:        "hostility directed at the agent",
		}
	}

	policy := ResponsePolicy{ShouldRespond: true}
	switch {
	case est.Valence <= -0.3 && est.Arousal >= 0.3:
		policy.ToneModifier = ToneCalming
	case est.Valence <= -0.3:
		policy.ToneModifier = ToneCaring
	case est.Valence >= 0.5 && est.Arousal >= 0.3:
		policy.ToneModifier = ToneExcited
	default:
		policy.ToneModifier = ToneProfessional
	}
	return policy
}
