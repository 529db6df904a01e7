package emotion

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"

	"github.com/easeaico/project-kokoro/internal/errs"
	"github.com/easeaico/project-kokoro/internal/types"
)

var testVocabulary = []string{
	"personal.identity",
	"personal.profession",
	"interest.preference",
	"interest.tech_preference",
	"event.emotional",
	"event.milestone",
	"conversation.casual",
	"directive.admin",
	"relationship.trust",
}

type mockAnalyzer struct {
	est SentimentEstimate
	err error
}

func (m *mockAnalyzer) EstimateSentiment(ctx context.Context, text string) (SentimentEstimate, error) {
	return m.est, m.err
}

func newTestPipeline() *Pipeline {
	return NewPipeline(nil, testVocabulary, 50)
}

func TestAnalyzeRejectsBlankText(t *testing.T) {
	p := newTestPipeline()
	_, err := p.Analyze(context.Background(), "   ", "user-1", false, types.BotMood{})
	if !errs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAnalyzePositiveMessage(t *testing.T) {
	p := newTestPipeline()
	result, err := p.Analyze(context.Background(), "I love your help! You're amazing!", "user-1", false, types.BotMood{})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if result.Sentiment.Valence <= 0.5 {
		t.Fatalf("expected valence above 0.5, got %v", result.Sentiment.Valence)
	}
	if result.Sentiment.Label != "positive" {
		t.Fatalf("expected positive label, got %q", result.Sentiment.Label)
	}
	if result.MoodDelta.Valence <= 0 {
		t.Fatalf("expected positive valence delta, got %v", result.MoodDelta.Valence)
	}
	if result.Response.ToneModifier != ToneExcited {
		t.Fatalf("expected excited tone, got %q", result.Response.ToneModifier)
	}
	if !result.Response.ShouldRespond {
		t.Fatalf("expected a response")
	}
}

func TestAnalyzeAllStagesPopulated(t *testing.T) {
	p := newTestPipeline()
	result, err := p.Analyze(context.Background(), "hello there", "user-1", false, types.BotMood{})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if result.Sentiment.Label == "" {
		t.Fatalf("expected sentiment label")
	}
	if result.Memorize.ImportanceScore == 0 {
		t.Fatalf("expected importance score")
	}
	if result.MoodDelta.Reason == "" {
		t.Fatalf("expected mood delta reason")
	}
	if result.Response.ToneModifier == "" {
		t.Fatalf("expected tone modifier")
	}
}

func TestHostilityAtAgentSuppressesReply(t *testing.T) {
	p := newTestPipeline()
	result, err := p.Analyze(context.Background(), "I hate you, you are disgusting", "user-1", false, types.BotMood{})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if result.Response.ShouldRespond {
		t.Fatalf("expected suppressed reply, got tone %q", result.Response.ToneModifier)
	}
	if result.Response.ToneModifier != ToneCalming {
		t.Fatalf("expected calming tone, got %q", result.Response.ToneModifier)
	}
}

func TestHostilityAboutThirdPartyGetsReply(t *testing.T) {
	p := newTestPipeline()
	result, err := p.Analyze(context.Background(), "You know, I hate my boss so much", "user-1", false, types.BotMood{})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if !result.Response.ShouldRespond {
		t.Fatalf("expected a reply for third-party venting")
	}
}

func TestAdminProtectionFloor(t *testing.T) {
	p := newTestPipeline()

	hostile := "I hate you"
	priv, err := p.Analyze(context.Background(), hostile, "admin-1", true, types.BotMood{})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if priv.MoodDelta.Valence != adminValenceFloor {
		t.Fatalf("expected valence floored at %v, got %v", adminValenceFloor, priv.MoodDelta.Valence)
	}
	if !priv.MoodDelta.AdminProtectionApplied {
		t.Fatalf("expected admin protection flag")
	}
	if !strings.Contains(priv.MoodDelta.Reason, "admin protection") {
		t.Fatalf("expected reason to mention protection, got %q", priv.MoodDelta.Reason)
	}

	plain, err := p.Analyze(context.Background(), hostile, "user-1", false, types.BotMood{})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if plain.MoodDelta.Valence >= adminValenceFloor {
		t.Fatalf("expected unfloored delta below %v, got %v", adminValenceFloor, plain.MoodDelta.Valence)
	}
	if plain.MoodDelta.AdminProtectionApplied {
		t.Fatalf("did not expect protection flag for regular sender")
	}
}

func TestAdminProtectionNotFlaggedWhenUnneeded(t *testing.T) {
	p := newTestPipeline()
	result, err := p.Analyze(context.Background(), "thank you so much!", "admin-1", true, types.BotMood{})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if result.MoodDelta.AdminProtectionApplied {
		t.Fatalf("protection flag must only be set when the floor clamps")
	}
}

func TestIntenseMoodDampensDeltas(t *testing.T) {
	est := SentimentEstimate{Valence: 1.0, Arousal: 0.8, Dominance: 0.4}

	calm := computeMoodDelta(est, types.BotMood{}, false)
	intense := computeMoodDelta(est, types.BotMood{MoodIntensity: 0.9}, false)

	if intense.Valence != calm.Valence/2 {
		t.Fatalf("expected halved valence delta, got %v vs %v", intense.Valence, calm.Valence)
	}
	if intense.Arousal != calm.Arousal/2 {
		t.Fatalf("expected halved arousal delta, got %v vs %v", intense.Arousal, calm.Arousal)
	}
}

func TestToneModifierVocabulary(t *testing.T) {
	allowed := map[string]bool{
		ToneCaring:       true,
		ToneExcited:      true,
		ToneCalming:      true,
		ToneProfessional: true,
	}
	p := newTestPipeline()
	for _, text := range []string{
		"I love this!",
		"I am so sad and disappointed",
		"I hate everything right now!!",
		"what time is it",
		"my name is Ada and I work as a teacher",
	} {
		result, err := p.Analyze(context.Background(), text, "user-1", false, types.BotMood{})
		if err != nil {
			t.Fatalf("Analyze(%q) returned error: %v", text, err)
		}
		if !allowed[result.Response.ToneModifier] {
			t.Fatalf("Analyze(%q): tone %q outside vocabulary", text, result.Response.ToneModifier)
		}
	}
}

func TestEstimateDelegationFailureFallsBack(t *testing.T) {
	p := NewPipeline(&mockAnalyzer{err: goerr.New("backend down")}, testVocabulary, 50)
	result, err := p.Analyze(context.Background(), "I love this", "user-1", false, types.BotMood{})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if result.Sentiment.Source != SourceLexicon {
		t.Fatalf("expected lexicon fallback, got %q", result.Sentiment.Source)
	}
	if result.Sentiment.Valence <= 0 {
		t.Fatalf("expected positive fallback estimate, got %v", result.Sentiment.Valence)
	}
}

func TestEstimateDelegationKeepsLexiconTokens(t *testing.T) {
	p := NewPipeline(&mockAnalyzer{est: SentimentEstimate{Valence: 0.9, Arousal: 0.2}}, testVocabulary, 50)
	result, err := p.Analyze(context.Background(), "I love this", "user-1", false, types.BotMood{})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if result.Sentiment.Source != SourceLLM {
		t.Fatalf("expected llm source, got %q", result.Sentiment.Source)
	}
	if len(result.Sentiment.PositiveTokens) == 0 {
		t.Fatalf("expected lexicon tokens to be preserved")
	}
	if result.Sentiment.Label != "positive" {
		t.Fatalf("expected derived label, got %q", result.Sentiment.Label)
	}
}

func TestEstimateDelegationClampsOutOfRange(t *testing.T) {
	p := NewPipeline(&mockAnalyzer{est: SentimentEstimate{Valence: 3.0, Arousal: -2.0}}, testVocabulary, 50)
	result, err := p.Analyze(context.Background(), "whatever", "user-1", false, types.BotMood{})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if result.Sentiment.Valence != 1.0 || result.Sentiment.Arousal != -1.0 {
		t.Fatalf("expected clamped axes, got %v / %v", result.Sentiment.Valence, result.Sentiment.Arousal)
	}
}
