package models

// Distractor is an incorrect answer option. Label is the option letter
// assigned at generation time, which survives any re-shuffling done during
// screening.
type Distractor struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Question is the unit of review: one generated multiple-choice question
// with its correct answer, 1-4 distractors, and provenance metadata.
type Question struct {
	// Index is the question's position in the source batch, assigned before
	// failed generation attempts are filtered out. It identifies the
	// question for the lifetime of a review session.
	Index int `json:"index"`

	Text          string       `json:"question"`
	CorrectAnswer string       `json:"correct_answer"`
	CorrectLabel  string       `json:"correct_letter"`
	Distractors   []Distractor `json:"distractors"`

	// Reasoning is the generator's explanation of the correct answer.
	Reasoning string `json:"thinking"`

	Domain      string `json:"domain"`
	CoreConcept string `json:"core_concept"`
	Style       string `json:"style"`
}

// Options returns all answer options as (label, text) pairs, correct answer
// first, in original-label form.
func (q *Question) Options() []Distractor {
	opts := make([]Distractor, 0, len(q.Distractors)+1)
	opts = append(opts, Distractor{Text: q.CorrectAnswer, Label: q.CorrectLabel})
	opts = append(opts, q.Distractors...)
	return opts
}
