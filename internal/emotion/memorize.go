package emotion

import (
	"fmt"
	"math"
	"strings"
)

// Rune budgets for the two content views, roughly 500 and 4000 tokens.
const (
	simpleContentBudget = 1000
	fullContentBudget   = 8000
)

var (
	identityPatterns = []string{
		"my name is",
		"i am called",
		"call me",
		"my birthday",
		"i live in",
		"i was born",
		"我叫",
		"我住在",
		"我的生日",
	}
	professionPatterns = []string{
		"i work as",
		"i work at",
		"i'm a ",
		"i am a ",
		"my job",
		"my profession",
		"我是一名",
		"我的工作",
	}
	preferencePatterns = []string{
		"my favorite",
		"my favourite",
		"i prefer",
		"i like",
		"i enjoy",
		"i love",
		"我喜欢",
		"我最爱",
	}
	techTerms = []string{
		"code",
		"programming",
		"computer",
		"software",
		"linux",
		"editor",
		"keyboard",
		"phone",
		"game",
		"编程",
		"电脑",
	}
	memorizeDirectives = []string{
		"remember this",
		"remember that",
		"don't forget",
		"never forget",
		"you must remember",
		"important:",
		"记住",
		"别忘了",
	}
	adminMentions = []string{
		"admin",
		"administrator",
		"管理员",
	}
)

const (
	casualBaseImportance    = 20
	durableFactImportance   = 400
	emotionalSpikeBonus     = 400
	directiveBaseImportance = 5000
	highEmotionThreshold    = 0.7
)

// decideMemorize is Stage 2: given the sentiment estimate and the message,
// score its importance, compose both content views, and assign categories.
func decideMemorize(text, senderID string, privileged bool, est SentimentEstimate, vocabulary []string, threshold int) MemorizeDecision {
	lowered := strings.ToLower(text)

	identity := containsAny(lowered, identityPatterns)
	profession := containsAny(lowered, professionPatterns)
	preference := containsAny(lowered, preferencePatterns) && !strings.Contains(lowered, "i love you")
	directive := containsAny(lowered, memorizeDirectives) || (privileged && containsAny(lowered, adminMentions))
	emotionalSpike := math.Abs(est.Valence) >= highEmotionThreshold || est.Arousal >= highEmotionThreshold

	importance := casualBaseImportance
	if n := len([]rune(text)) / 40; n > 0 {
		importance += min(n, 30)
	}

	factCount := 0
	for _, hit := range []bool{identity, profession, preference} {
		if hit {
			factCount++
		}
	}
	if factCount > 0 {
		importance = durableFactImportance + 150*(factCount-1)
	}
	if emotionalSpike {
		importance += emotionalSpikeBonus
	}
	if directive {
		importance = directiveBaseImportance + importance
	} else if privileged {
		importance += 100
	}

	categories := pickCategories(vocabulary, identity, profession, preference, directive, emotionalSpike, lowered)

	label := est.Label
	decision := MemorizeDecision{
		ShouldMemorize:  importance >= threshold,
		ImportanceScore: importance,
		SimpleContent:   truncateRunes(fmt.Sprintf("%s: %s", senderID, strings.TrimSpace(text)), simpleContentBudget),
		FullContent: truncateRunes(fmt.Sprintf(
			"%s: %s\n\nsentiment: %s (valence=%.2f arousal=%.2f dominance=%.2f)",
			senderID, strings.TrimSpace(text), label, est.Valence, est.Arousal, est.Dominance,
		), fullContentBudget),
		Categories: categories,
		Keywords:   append(append([]string{}, est.PositiveTokens...), est.NegativeTokens...),
	}
	return decision
}

// pickCategories assigns category paths from the configured vocabulary. The
// result is never empty: unmatched messages fall back to the casual bucket or,
// failing that, the first known category.
func pickCategories(vocabulary []string, identity, profession, preference, directive, emotionalSpike bool, lowered string) []string {
	known := make(map[string]bool, len(vocabulary))
	for _, path := range vocabulary {
		known[path] = true
	}

	var picked []string
	add := func(path string) {
		if known[path] {
			picked = append(picked, path)
		}
	}

	if identity {
		add("personal.identity")
	}
	if profession {
		add("personal.profession")
	}
	if preference {
		if containsAny(lowered, techTerms) {
			add("interest.tech_preference")
		} else {
			add("interest.preference")
		}
	}
	if directive {
		add("directive.admin")
	}
	if emotionalSpike {
		add("event.emotional")
	}
	if len(picked) == 0 {
		add("conversation.casual")
	}
	if len(picked) == 0 && len(vocabulary) > 0 {
		picked = append(picked, vocabulary[0])
	}
	return picked
}

func truncateRunes(text string, budget int) string {
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	return string(runes[:budget])
}
