package generator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/TowneMJ/gpqa-train/internal/store"
)

// Generated model responses arrive in one of two shapes: XML-tagged fields,
// or the model's natural markdown format (**Core Concept:**, **A)**-**E)**
// options, **Correct Answer: X**, **Explanation:**). XML is tried first.

var (
	conceptPattern     = regexp.MustCompile(`\*\*Core Concept:\*\*\s*(.+)`)
	optionMarker       = regexp.MustCompile(`\*\*([A-E])[\)\.]?\*\*`)
	correctPattern     = regexp.MustCompile(`\*\*Correct Answer[:\s]*([A-E])\*\*`)
	explanationPattern = regexp.MustCompile(`\*\*Explanation:\*\*`)
)

// Parse extracts structured question fields from a raw model response. A
// partial result is returned even when fields are missing; Validate decides
// whether it is usable.
func Parse(raw string) store.QuestionData {
	data := store.QuestionData{Raw: raw}
	if strings.TrimSpace(raw) == "" {
		return data
	}

	if q := extractTag(raw, "question"); q != "" {
		data.Question = q
		data.CoreConcept = extractTag(raw, "core_concept")
		data.Thinking = extractTag(raw, "thinking")
		data.CorrectAnswer = extractTag(raw, "correct")
		data.Incorrect1 = extractTag(raw, "incorrect_1")
		data.Incorrect2 = extractTag(raw, "incorrect_2")
		data.Incorrect3 = extractTag(raw, "incorrect_3")
		data.Incorrect4 = extractTag(raw, "incorrect_4")
		return data
	}

	return parseMarkdown(raw)
}

func extractTag(text, tag string) string {
	pattern := regexp.MustCompile(`(?s)<` + tag + `>(.*?)</` + tag + `>`)
	if m := pattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// parseMarkdown slices the response between option markers. Go's regexp has
// no lookahead, so option bodies are cut at the next marker position
// instead.
func parseMarkdown(raw string) store.QuestionData {
	data := store.QuestionData{Raw: raw}

	questionStart := 0
	if m := conceptPattern.FindStringSubmatchIndex(raw); m != nil {
		data.CoreConcept = strings.TrimSpace(raw[m[2]:m[3]])
		questionStart = m[1]
	}

	markers := optionMarker.FindAllStringSubmatchIndex(raw, -1)
	correctLoc := correctPattern.FindStringSubmatchIndex(raw)
	explLoc := explanationPattern.FindStringIndex(raw)

	// End of the options region: the Correct Answer marker, then the
	// Explanation marker, then end of text.
	optionsEnd := len(raw)
	if explLoc != nil {
		optionsEnd = explLoc[0]
	}
	if correctLoc != nil && correctLoc[0] < optionsEnd {
		optionsEnd = correctLoc[0]
	}

	options := map[string]string{}
	for i, m := range markers {
		letter := raw[m[2]:m[3]]
		bodyStart := m[1]
		bodyEnd := optionsEnd
		if i+1 < len(markers) && markers[i+1][0] < bodyEnd {
			bodyEnd = markers[i+1][0]
		}
		if bodyStart >= bodyEnd {
			continue
		}
		if _, seen := options[letter]; !seen {
			options[letter] = strings.TrimSpace(raw[bodyStart:bodyEnd])
		}
	}

	if len(markers) > 0 && markers[0][0] > questionStart {
		data.Question = strings.TrimSpace(raw[questionStart:markers[0][0]])
	}

	if explLoc != nil {
		data.Thinking = strings.TrimSpace(raw[explLoc[1]:])
	}

	var correctLetter string
	if correctLoc != nil {
		correctLetter = raw[correctLoc[2]:correctLoc[3]]
	}
	if correctLetter == "" {
		return data
	}
	correctText, ok := options[correctLetter]
	if !ok {
		return data
	}

	data.CorrectAnswer = correctText
	data.CorrectLetter = correctLetter

	var letters []string
	for l := range options {
		if l != correctLetter {
			letters = append(letters, l)
		}
	}
	sort.Strings(letters)

	assign := []struct {
		text   *string
		letter *string
	}{
		{&data.Incorrect1, &data.Incorrect1Letter},
		{&data.Incorrect2, &data.Incorrect2Letter},
		{&data.Incorrect3, &data.Incorrect3Letter},
		{&data.Incorrect4, &data.Incorrect4Letter},
	}
	for i, l := range letters {
		if i >= len(assign) {
			break
		}
		*assign[i].text = options[l]
		*assign[i].letter = l
	}

	return data
}

// Validate checks that a parsed response has the structure of a complete
// question.
func Validate(data store.QuestionData) error {
	required := []struct {
		name  string
		value string
	}{
		{"question", data.Question},
		{"correct_answer", data.CorrectAnswer},
		{"incorrect_1", data.Incorrect1},
		{"incorrect_2", data.Incorrect2},
		{"incorrect_3", data.Incorrect3},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("missing field: %s", f.name)
		}
	}

	if len(data.Question) < 50 {
		return fmt.Errorf("question too short")
	}
	if len(data.CorrectAnswer) < 10 {
		return fmt.Errorf("correct answer too short")
	}
	return nil
}
