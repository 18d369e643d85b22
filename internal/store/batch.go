package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/TowneMJ/gpqa-train/internal/models"
)

// BatchRecord is one generation attempt in a raw batch file. Only successful
// attempts carry usable question data.
type BatchRecord struct {
	Success    bool           `json:"success"`
	Validation string         `json:"validation,omitempty"`
	Error      string         `json:"error,omitempty"`
	Domain     string         `json:"domain,omitempty"`
	Topic      string         `json:"topic,omitempty"`
	Style      string         `json:"style,omitempty"`
	Concept    string         `json:"core_concept,omitempty"`
	Data       *QuestionData  `json:"data,omitempty"`
	Usage      map[string]int `json:"usage,omitempty"`
}

// QuestionData is the wire shape of a generated question inside a batch
// record.
type QuestionData struct {
	Question         string `json:"question"`
	CorrectAnswer    string `json:"correct_answer"`
	CorrectLetter    string `json:"correct_letter"`
	Incorrect1       string `json:"incorrect_1"`
	Incorrect1Letter string `json:"incorrect_1_letter"`
	Incorrect2       string `json:"incorrect_2"`
	Incorrect2Letter string `json:"incorrect_2_letter"`
	Incorrect3       string `json:"incorrect_3"`
	Incorrect3Letter string `json:"incorrect_3_letter"`
	Incorrect4       string `json:"incorrect_4"`
	Incorrect4Letter string `json:"incorrect_4_letter"`
	Thinking         string `json:"thinking"`
	CoreConcept      string `json:"core_concept,omitempty"`
	Raw              string `json:"raw,omitempty"`
}

// LoadBatch reads a raw batch file and extracts the valid questions in
// order. Each question keeps its original position in the batch as its
// index, even after failed attempts are filtered out. A malformed success
// record is skipped with a warning; an unreadable or unparseable file is a
// fatal error.
func LoadBatch(path string) ([]models.Question, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read batch file: %w", err)
	}

	var records []BatchRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, nil, fmt.Errorf("parse batch file %s: %w", path, err)
	}

	var questions []models.Question
	var warnings []string
	for i, rec := range records {
		if !rec.Success {
			continue
		}
		q, err := recordToQuestion(i, rec)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("record %d: %v", i, err))
			continue
		}
		questions = append(questions, q)
	}

	return questions, warnings, nil
}

func recordToQuestion(index int, rec BatchRecord) (models.Question, error) {
	d := rec.Data
	if d == nil {
		return models.Question{}, fmt.Errorf("success record has no data")
	}
	if strings.TrimSpace(d.Question) == "" {
		return models.Question{}, fmt.Errorf("missing question text")
	}
	if strings.TrimSpace(d.CorrectAnswer) == "" {
		return models.Question{}, fmt.Errorf("missing correct answer")
	}

	correctLabel := d.CorrectLetter
	if correctLabel == "" {
		correctLabel = "A"
	}

	var distractors []models.Distractor
	pairs := []struct{ text, label string }{
		{d.Incorrect1, d.Incorrect1Letter},
		{d.Incorrect2, d.Incorrect2Letter},
		{d.Incorrect3, d.Incorrect3Letter},
		{d.Incorrect4, d.Incorrect4Letter},
	}
	for i, p := range pairs {
		if strings.TrimSpace(p.text) == "" {
			continue
		}
		label := p.label
		if label == "" {
			label = string(rune('A' + i + 1))
		}
		distractors = append(distractors, models.Distractor{Text: p.text, Label: label})
	}
	if len(distractors) == 0 {
		return models.Question{}, fmt.Errorf("no distractors")
	}
	if len(distractors) > 4 {
		return models.Question{}, fmt.Errorf("too many distractors: %d", len(distractors))
	}

	domain := rec.Domain
	if domain == "" {
		domain = rec.Topic
	}
	if domain == "" {
		domain = "unknown"
	}

	concept := rec.Concept
	if concept == "" {
		concept = d.CoreConcept
	}

	style := rec.Style
	if style == "" {
		style = "unknown"
	}

	return models.Question{
		Index:         index,
		Text:          d.Question,
		CorrectAnswer: d.CorrectAnswer,
		CorrectLabel:  correctLabel,
		Distractors:   distractors,
		Reasoning:     d.Thinking,
		Domain:        domain,
		CoreConcept:   concept,
		Style:         style,
	}, nil
}

// Domains returns the sorted set of unique domains across the questions.
func Domains(questions []models.Question) []string {
	seen := map[string]bool{}
	for _, q := range questions {
		seen[q.Domain] = true
	}
	domains := make([]string, 0, len(seen))
	for d := range seen {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}

// MostRecentBatch returns the lexically last .json file in dir, which for
// timestamped batch names is the newest one.
func MostRecentBatch(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read batch dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no batch files in %s", dir)
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}
