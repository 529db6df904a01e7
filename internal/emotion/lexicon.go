package emotion

import (
	"math"
	"strings"
	"unicode"
)

var (
	strongPositiveKeywords = []string{
		"love",
		"adore",
		"爱你",
		"好爱",
		"想你",
		"亲亲",
		"拥抱",
		"miss you",
	}
	positiveKeywords = []string{
		"like",
		"happy",
		"thank",
		"appreciate",
		"amazing",
		"wonderful",
		"great",
		"good",
		"sweet",
		"helpful",
		"喜欢",
		"开心",
		"谢谢",
		"感激",
		"温柔",
		"可爱",
		"贴心",
	}
	negativeKeywords = []string{
		"disappointed",
		"sad",
		"upset",
		"annoy",
		"terrible",
		"awful",
		"bad",
		"angry",
		"worst",
		"失望",
		"难过",
		"冷淡",
		"不喜欢",
		"讨厌",
		"烦",
		"生气",
	}
	strongNegativeKeywords = []string{
		"hate",
		"disgusting",
		"恨你",
		"讨厌你",
		"滚",
		"闭嘴",
		"恶心",
		"fuck",
	}

	intensifierKeywords = []string{
		"so ",
		"very",
		"really",
		"extremely",
		"absolutely",
		"非常",
		"太",
		"超级",
	}
	calmKeywords = []string{
		"calm",
		"tired",
		"sleepy",
		"relaxed",
		"quiet",
		"平静",
		"累了",
		"困了",
	}
	directiveKeywords = []string{
		"you must",
		"do it",
		"right now",
		"immediately",
		"listen to me",
		"必须",
		"马上",
		"立刻",
	}
	submissiveKeywords = []string{
		"please",
		"sorry",
		"maybe",
		"could you",
		"if you don't mind",
		"抱歉",
		"对不起",
		"麻烦",
	}
)

const (
	strongPositiveWeight = 0.6
	positiveWeight       = 0.3
	negativeWeight       = 0.35
	strongNegativeWeight = 0.6
)

// estimateSentiment is the deterministic Stage-1 estimator: it scores the VAD
// triple from keyword lexicons and surface features of the text.
func estimateSentiment(text string) SentimentEstimate {
	lowered := strings.ToLower(text)

	strongPos := matchKeywords(lowered, strongPositiveKeywords)
	pos := matchKeywords(lowered, positiveKeywords)
	neg := matchKeywords(lowered, negativeKeywords)
	strongNeg := matchKeywords(lowered, strongNegativeKeywords)

	valence := strongPositiveWeight*float64(len(strongPos)) +
		positiveWeight*float64(len(pos)) -
		negativeWeight*float64(len(neg)) -
		strongNegativeWeight*float64(len(strongNeg))

	arousal := 0.3 * math.Abs(valence)
	if n := strings.Count(text, "!") + strings.Count(text, "！"); n > 0 {
		arousal += min(0.45, 0.15*float64(n))
	}
	if containsAny(lowered, intensifierKeywords) {
		arousal += 0.2
	}
	if len(strongPos)+len(strongNeg) > 0 {
		arousal += 0.15
	}
	if shoutRatio(text) > 0.3 {
		arousal += 0.2
	}
	if containsAny(lowered, calmKeywords) {
		arousal -= 0.3
	}

	dominance := 0.0
	if containsAny(lowered, directiveKeywords) {
		dominance += 0.35
	}
	if len(strongNeg) > 0 {
		dominance += 0.15
	}
	if containsAny(lowered, submissiveKeywords) {
		dominance -= 0.25
	}
	if strings.Contains(text, "?") || strings.Contains(text, "？") {
		dominance -= 0.1
	}

	est := SentimentEstimate{
		Valence:        clamp(valence),
		Arousal:        clamp(arousal),
		Dominance:      clamp(dominance),
		PositiveTokens: append(strongPos, pos...),
		NegativeTokens: append(strongNeg, neg...),
		Source:         SourceLexicon,
	}
	est.Label = sentimentLabel(est.Valence)
	return est
}

func sentimentLabel(valence float64) string {
	switch {
	case valence > 0.3:
		return "positive"
	case valence < -0.3:
		return "negative"
	default:
		return "neutral"
	}
}

// matchKeywords returns each keyword present in the lowered text.
func matchKeywords(lowered string, keywords []string) []string {
	var matched []string
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(lowered, keyword) {
			matched = append(matched, strings.TrimSpace(keyword))
		}
	}
	return matched
}

func containsAny(lowered string, keywords []string) bool {
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// shoutRatio is the share of letters written in upper case.
func shoutRatio(text string) float64 {
	letters, uppers := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
		}
	}
	if letters < 6 {
		return 0
	}
	return float64(uppers) / float64(letters)
}

func clamp(v float64) float64 {
	switch {
	case v < -1:
		return -1
	case v > 1:
		return 1
	default:
		return v
	}
}
