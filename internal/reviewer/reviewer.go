// Package reviewer implements the model collaborators that screen generated
// questions: a self-answer check, a pass/fail judge, and a critique/validate
// pair. All reviewers share one contract and differ only in prompt
// construction and verdict parsing.
package reviewer

import (
	"context"
	"fmt"
	"strings"

	"github.com/TowneMJ/gpqa-train/internal/models"
)

// Reviewer produces a verdict for a question. prior carries another
// reviewer's verdict when the call should run in adjudication/validation
// mode. A returned error means the underlying model call failed; the caller
// degrades it to an indeterminate verdict rather than aborting the batch.
type Reviewer interface {
	Name() string
	Review(ctx context.Context, q models.Question, prior *models.Verdict) (models.Verdict, error)
}

// formatQuestion renders the question with its options in original-label
// form, the stated answer, and the generator's reasoning, for reviewers that
// see the full record.
func formatQuestion(q models.Question) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "QUESTION:\n%s\n\n", q.Text)
	sb.WriteString("OPTIONS:\n")
	fmt.Fprintf(&sb, "%s) %s\n", q.CorrectLabel, q.CorrectAnswer)
	for _, d := range q.Distractors {
		fmt.Fprintf(&sb, "%s) %s\n", d.Label, d.Text)
	}
	fmt.Fprintf(&sb, "\nSTATED CORRECT ANSWER: %s\n\n", q.CorrectLabel)
	fmt.Fprintf(&sb, "REASONING PROVIDED:\n%s", q.Reasoning)
	return sb.String()
}
