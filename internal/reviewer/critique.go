package reviewer

import (
	"context"
	"fmt"

	"github.com/TowneMJ/gpqa-train/internal/llm"
	"github.com/TowneMJ/gpqa-train/internal/models"
)

// Critic asks a model to enumerate any issues with the question, or emit an
// explicit all-clear sentinel. A clean critique is a pass; any issue found
// is a fail carrying the critique text.
type Critic struct {
	caller llm.Caller
}

// NewCritic creates a critique reviewer.
func NewCritic(caller llm.Caller) *Critic {
	return &Critic{caller: caller}
}

func (r *Critic) Name() string { return r.caller.Name() + "-critic" }

func (r *Critic) Review(ctx context.Context, q models.Question, _ *models.Verdict) (models.Verdict, error) {
	prompt := fmt.Sprintf(`You are a PhD-level scientist reviewing a graduate exam question for quality.

%s

---

Carefully evaluate this question for any issues:
1. Are there any factual or scientific inaccuracies?
2. Is the stated correct answer actually correct and unambiguous?
3. Are any of the distractors arguably correct or ambiguous?
4. Are there logical inconsistencies in the question setup or reasoning?
5. Are there any experimental conditions mentioned but not used?

If you find ANY issues, describe each one specifically and clearly.

If the question is sound with no issues, respond with exactly: %s

Be thorough but honest. Do not invent problems that don't exist.`, formatQuestion(q), noIssuesSentinel)

	content, err := r.caller.Call(ctx, llm.Request{Prompt: prompt, MaxTokens: 4096, Temperature: 0.7})
	if err != nil {
		return models.Verdict{}, err
	}

	verdict := models.Verdict{Reviewer: r.Name(), Rationale: content}
	if critiqueFoundIssues(content) {
		verdict.Outcome = models.OutcomeFail
	} else {
		verdict.Outcome = models.OutcomePass
	}
	return verdict, nil
}

// validatorSystem frames the validator's role for providers that support a
// system prompt.
const validatorSystem = `You are a PhD-level scientific reviewer. You will receive a candidate test question together with another AI reviewer's assessment of its quality. Your task is to judge that assessment, not to answer the question fresh. State AGREE or DISAGREE on the first line, then briefly explain why in 3-5 sentences.`

// Validator judges another reviewer's critique: a binary agree/disagree with
// the critique's issue-finding, given the critique text as context. It runs
// even on a clean critique, since judging a "no issues" finding is exactly
// its job.
type Validator struct {
	caller llm.Caller
}

// NewValidator creates a critique-validation reviewer.
func NewValidator(caller llm.Caller) *Validator {
	return &Validator{caller: caller}
}

func (r *Validator) Name() string { return r.caller.Name() + "-validator" }

func (r *Validator) Review(ctx context.Context, q models.Question, prior *models.Verdict) (models.Verdict, error) {
	var summary string
	if prior != nil && prior.Outcome == models.OutcomeFail {
		summary = fmt.Sprintf("The reviewer found the following issues:\n%s", prior.Rationale)
	} else {
		summary = "The reviewer found NO ISSUES with this question."
	}

	prompt := fmt.Sprintf(`Evaluate this test question and the reviewer's assessment.

QUESTION UNDER REVIEW:
%s

REVIEWER'S ASSESSMENT:
%s

State AGREE or DISAGREE with the assessment on the first line, then briefly explain why in 3-5 sentences.`, formatQuestion(q), summary)

	content, err := r.caller.Call(ctx, llm.Request{System: validatorSystem, Prompt: prompt, MaxTokens: 8192, Temperature: 0.1})
	if err != nil {
		return models.Verdict{}, err
	}

	verdict := models.Verdict{
		Reviewer:    r.Name(),
		Rationale:   content,
		Adjudicated: true,
	}
	agrees, ok := parseAgreement(content)
	switch {
	case !ok:
		verdict.Outcome = models.OutcomeIndeterminate
		verdict.Err = "could not determine agreement from the response"
	case agrees:
		verdict.Outcome = models.OutcomePass
	default:
		verdict.Outcome = models.OutcomeFail
	}
	return verdict, nil
}
