package reviewer

import (
	"regexp"
	"strings"
)

// Free-text model output is parsed by ordered lists of pattern attempts,
// falling back to keyword-presence heuristics, and finally to "no parse".
// The fallback chain determines how often items are spuriously flagged, so
// it is deliberately explicit rather than inlined at each call site.

var answerPatterns = []*regexp.Regexp{
	// Standard requested format.
	regexp.MustCompile(`(?i)ANSWER:\s*([A-E])\b`),
	// Conversational phrasings.
	regexp.MustCompile(`(?i)(?:the answer is|I choose|I select|my answer is|final answer:?)\s*\(?([A-E])\)?`),
	// Standalone letter at the very end of the response.
	regexp.MustCompile(`\b([A-E])\s*$`),
}

// parseAnswer extracts a picked option letter from a self-answer response.
// The rationale is everything before the matched answer. Returns ok=false
// when no attempt matches.
func parseAnswer(content string) (letter, rationale string, ok bool) {
	trimmed := strings.TrimSpace(content)
	for _, pat := range answerPatterns {
		if m := pat.FindStringSubmatchIndex(trimmed); m != nil {
			letter = strings.ToUpper(trimmed[m[2]:m[3]])
			rationale = strings.TrimSpace(trimmed[:m[0]])
			return letter, rationale, true
		}
	}
	return "", "", false
}

var verdictPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)VERDICT:\s*(PASS|FAIL)`),          // standard
	regexp.MustCompile(`(?im)\*\*VERDICT:\s*(PASS|FAIL)\*\*`),  // markdown bold
	regexp.MustCompile(`(?im)VERDICT\s+(PASS|FAIL)`),           // no colon
	regexp.MustCompile(`(?im)^\s*VERDICT:\s*(PASS|FAIL)`),      // line start
	regexp.MustCompile(`(?im)VERDICT:\s*(PASS|FAIL)\s*$`),      // at end
}

var passPhrases = []string{
	"the question is sound", "is correct", "answer is correct",
	"scientifically sound", "suitable for training",
}

var failPhrases = []string{
	"incorrect", "flawed", "the answer is wrong", "problematic",
	"ambiguous answer", "not suitable",
}

var passBlockers = []string{
	"not correct", "incorrect", "flawed", "problematic",
	"significant issue", "ambiguous",
}

// parseVerdict extracts a PASS/FAIL verdict from a judge response. Returns
// ok=false when neither the patterns nor the keyword heuristics produce a
// definite verdict.
func parseVerdict(content string) (pass, ok bool) {
	trimmed := strings.TrimSpace(content)
	for _, pat := range verdictPatterns {
		if m := pat.FindStringSubmatch(trimmed); m != nil {
			return strings.EqualFold(m[1], "PASS"), true
		}
	}

	// Keyword-presence fallback.
	lower := strings.ToLower(trimmed)
	if containsAny(lower, passPhrases) && !containsAny(lower, passBlockers) {
		return true, true
	}
	if containsAny(lower, failPhrases) {
		return false, true
	}
	return false, false
}

// noIssuesSentinel is the critic's explicit all-clear marker.
const noIssuesSentinel = "NO ISSUES FOUND"

// critiqueFoundIssues reports whether the critique text raises issues, i.e.
// the explicit sentinel is absent.
func critiqueFoundIssues(content string) bool {
	return !strings.Contains(strings.ToUpper(content), noIssuesSentinel)
}

// parseAgreement extracts a binary AGREE/DISAGREE from a validator
// response. An AGREE with no DISAGREE anywhere wins; an explicit DISAGREE
// wins otherwise; anything else is unparseable.
func parseAgreement(content string) (agrees, ok bool) {
	upper := strings.ToUpper(strings.TrimSpace(content))
	hasAgree := strings.Contains(upper, "AGREE")
	hasDisagree := strings.Contains(upper, "DISAGREE")
	switch {
	case hasAgree && !hasDisagree:
		return true, true
	case hasDisagree:
		return false, true
	default:
		return false, false
	}
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
