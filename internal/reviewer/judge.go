package reviewer

import (
	"context"
	"fmt"

	"github.com/TowneMJ/gpqa-train/internal/llm"
	"github.com/TowneMJ/gpqa-train/internal/models"
)

// Judge reviews the full question, including the stated answer and
// reasoning, and returns a PASS/FAIL verdict. When given a prior
// disagreeing self-answer verdict it runs in adjudication mode: the prior
// pick is quoted so the judge can weigh whether the alternative is
// defensible.
type Judge struct {
	caller llm.Caller
}

// NewJudge creates a pass/fail judge reviewer.
func NewJudge(caller llm.Caller) *Judge {
	return &Judge{caller: caller}
}

func (r *Judge) Name() string { return r.caller.Name() + "-judge" }

func (r *Judge) Review(ctx context.Context, q models.Question, prior *models.Verdict) (models.Verdict, error) {
	adjudicate := prior != nil && prior.Outcome == models.OutcomeFail && prior.AlternativeAnswer != ""

	var prompt string
	if adjudicate {
		priorRationale := prior.Rationale
		if priorRationale == "" {
			priorRationale = "No reasoning provided"
		}
		prompt = fmt.Sprintf(`Review this exam question. Be concise (under 300 words).

%s

---

CONTEXT: Another model selected %s instead of %s. Its reasoning:
%s

---

First line must be: VERDICT: PASS or VERDICT: FAIL

Then briefly explain (2-3 paragraphs max):
- Is %s unambiguously correct?
- Is %s defensible?
- Any logical flaws?`,
			formatQuestion(q), prior.AlternativeAnswer, q.CorrectLabel, priorRationale,
			q.CorrectLabel, prior.AlternativeAnswer)
	} else {
		prompt = fmt.Sprintf(`Review this exam question. Be concise (under 300 words).

%s

---

First line must be: VERDICT: PASS or VERDICT: FAIL

Then briefly explain (2-3 paragraphs max):
- Is the correct answer truly correct?
- Are any distractors arguably correct?
- Any logical flaws or inconsistencies?`, formatQuestion(q))
	}

	content, err := r.caller.Call(ctx, llm.Request{Prompt: prompt, MaxTokens: 4096, Temperature: 0.7})
	if err != nil {
		return models.Verdict{}, err
	}

	verdict := models.Verdict{
		Reviewer:    r.Name(),
		Rationale:   content,
		Adjudicated: adjudicate,
	}
	pass, ok := parseVerdict(content)
	switch {
	case !ok:
		verdict.Outcome = models.OutcomeIndeterminate
		verdict.Err = "could not parse a verdict from the response"
	case pass:
		verdict.Outcome = models.OutcomePass
	default:
		verdict.Outcome = models.OutcomeFail
	}
	return verdict, nil
}
