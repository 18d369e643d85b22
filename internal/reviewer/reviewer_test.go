package reviewer

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TowneMJ/gpqa-train/internal/llm"
	"github.com/TowneMJ/gpqa-train/internal/models"
)

// fakeCaller returns canned responses and records the requests it saw.
type fakeCaller struct {
	name     string
	respond  func(req llm.Request) (string, error)
	requests []llm.Request
}

func (f *fakeCaller) Name() string { return f.name }

func (f *fakeCaller) Call(_ context.Context, req llm.Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.respond(req)
}

func sampleQuestion() models.Question {
	return models.Question{
		Index:         3,
		Text:          "Which mechanism dominates for a tertiary alkyl halide in aqueous ethanol?",
		CorrectAnswer: "SN1 via a carbocation intermediate",
		CorrectLabel:  "B",
		Distractors: []models.Distractor{
			{Text: "SN2 backside attack", Label: "A"},
			{Text: "E2 anti-periplanar elimination", Label: "C"},
			{Text: "Radical chain substitution", Label: "D"},
		},
		Reasoning: "Tertiary substrates ionize readily and block backside attack.",
		Domain:    "organic chemistry",
	}
}

func TestShuffle_MapsBackToOriginalLabels(t *testing.T) {
	q := sampleQuestion()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 50; i++ {
		s := Shuffle(q, rng)

		require.Len(t, s.ToOriginal, 4)
		assert.Equal(t, "B", s.ToOriginal[s.CorrectLabel], "correct label must map back to the original correct label")

		seen := map[string]bool{}
		for fresh, orig := range s.ToOriginal {
			assert.Contains(t, []string{"A", "B", "C", "D"}, fresh)
			assert.False(t, seen[orig], "original label %s mapped twice", orig)
			seen[orig] = true
		}
	}
}

func TestShuffle_BlockContainsAllOptionTexts(t *testing.T) {
	q := sampleQuestion()
	s := Shuffle(q, rand.New(rand.NewSource(1)))

	assert.Contains(t, s.Block, q.Text)
	assert.Contains(t, s.Block, q.CorrectAnswer)
	for _, d := range q.Distractors {
		assert.Contains(t, s.Block, d.Text)
	}
	assert.NotContains(t, s.Block, "STATED CORRECT ANSWER", "self-answer prompt must not reveal the stated answer")
}

func TestSelfAnswer_PassWhenModelAgrees(t *testing.T) {
	q := sampleQuestion()
	caller := &fakeCaller{
		name: "kimi",
		respond: func(req llm.Request) (string, error) {
			// Pick whatever shuffled label carries the correct answer text,
			// whichever position the shuffle chose.
			for _, l := range []string{"A", "B", "C", "D"} {
				if containsOption(req.Prompt, l, q.CorrectAnswer) {
					return fmt.Sprintf("Ionization is rate limiting.\nANSWER: %s", l), nil
				}
			}
			return "ANSWER: A", nil
		},
	}

	r := NewSelfAnswer(caller, rand.New(rand.NewSource(42)))
	v, err := r.Review(context.Background(), q, nil)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomePass, v.Outcome)
	assert.Empty(t, v.AlternativeAnswer)
	assert.Equal(t, "kimi-self-answer", v.Reviewer)
}

func TestSelfAnswer_FailMapsPickToOriginalLabel(t *testing.T) {
	q := sampleQuestion()
	caller := &fakeCaller{
		name: "kimi",
		respond: func(req llm.Request) (string, error) {
			// Pick the shuffled label carrying the SN2 distractor, which is
			// original label A.
			for _, l := range []string{"A", "B", "C", "D"} {
				if containsOption(req.Prompt, l, "SN2 backside attack") {
					return "Backside attack looks right.\nANSWER: " + l, nil
				}
			}
			return "ANSWER: A", nil
		},
	}

	r := NewSelfAnswer(caller, rand.New(rand.NewSource(42)))
	v, err := r.Review(context.Background(), q, nil)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeFail, v.Outcome)
	assert.Equal(t, "A", v.AlternativeAnswer, "picked label must map back to the original label")
}

func TestSelfAnswer_UnparseableIsIndeterminate(t *testing.T) {
	caller := &fakeCaller{
		name:    "kimi",
		respond: func(llm.Request) (string, error) { return "It depends on the solvent.", nil },
	}

	r := NewSelfAnswer(caller, rand.New(rand.NewSource(1)))
	v, err := r.Review(context.Background(), sampleQuestion(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeIndeterminate, v.Outcome)
	assert.NotEmpty(t, v.Err)
	assert.False(t, v.Definite())
}

func containsOption(prompt, label, text string) bool {
	return strings.Contains(prompt, fmt.Sprintf("%s) %s", label, text))
}

func TestJudge_PassVerdict(t *testing.T) {
	caller := &fakeCaller{
		name:    "gemini",
		respond: func(llm.Request) (string, error) { return "VERDICT: PASS\nThe answer is well supported.", nil },
	}

	r := NewJudge(caller)
	v, err := r.Review(context.Background(), sampleQuestion(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomePass, v.Outcome)
	assert.False(t, v.Adjudicated)
	assert.Contains(t, caller.requests[0].Prompt, "STATED CORRECT ANSWER: B")
}

func TestJudge_AdjudicationQuotesPriorPick(t *testing.T) {
	caller := &fakeCaller{
		name:    "gemini",
		respond: func(llm.Request) (string, error) { return "VERDICT: FAIL\nThe alternative is defensible.", nil },
	}

	prior := &models.Verdict{
		Reviewer:          "kimi-self-answer",
		Outcome:           models.OutcomeFail,
		Rationale:         "Backside attack looks right.",
		AlternativeAnswer: "A",
	}

	r := NewJudge(caller)
	v, err := r.Review(context.Background(), sampleQuestion(), prior)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeFail, v.Outcome)
	assert.True(t, v.Adjudicated)
	assert.Contains(t, caller.requests[0].Prompt, "selected A instead of B")
	assert.Contains(t, caller.requests[0].Prompt, prior.Rationale)
}

func TestJudge_UnparseableIsIndeterminate(t *testing.T) {
	caller := &fakeCaller{
		name:    "gemini",
		respond: func(llm.Request) (string, error) { return "A thought-provoking question.", nil },
	}

	v, err := NewJudge(caller).Review(context.Background(), sampleQuestion(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeIndeterminate, v.Outcome)
}

func TestCritic_CleanCritiquePasses(t *testing.T) {
	caller := &fakeCaller{
		name:    "kimi",
		respond: func(llm.Request) (string, error) { return "NO ISSUES FOUND", nil },
	}

	v, err := NewCritic(caller).Review(context.Background(), sampleQuestion(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomePass, v.Outcome)
}

func TestCritic_IssuesFail(t *testing.T) {
	caller := &fakeCaller{
		name:    "kimi",
		respond: func(llm.Request) (string, error) { return "Issue 1: option C is also plausible under E1 conditions.", nil },
	}

	v, err := NewCritic(caller).Review(context.Background(), sampleQuestion(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeFail, v.Outcome)
	assert.Contains(t, v.Rationale, "Issue 1")
}

func TestValidator_AgreeWithCleanCritique(t *testing.T) {
	caller := &fakeCaller{
		name:    "gemini",
		respond: func(llm.Request) (string, error) { return "AGREE. The question has no defects.", nil },
	}

	prior := &models.Verdict{Reviewer: "kimi-critic", Outcome: models.OutcomePass, Rationale: "NO ISSUES FOUND"}
	v, err := NewValidator(caller).Review(context.Background(), sampleQuestion(), prior)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomePass, v.Outcome)
	assert.True(t, v.Adjudicated)
	assert.Contains(t, caller.requests[0].Prompt, "NO ISSUES")
	assert.NotEmpty(t, caller.requests[0].System)
}

func TestValidator_CritiqueTextForwardedOnFail(t *testing.T) {
	caller := &fakeCaller{
		name:    "gemini",
		respond: func(llm.Request) (string, error) { return "DISAGREE. The claimed flaw misreads the question.", nil },
	}

	prior := &models.Verdict{
		Reviewer:  "kimi-critic",
		Outcome:   models.OutcomeFail,
		Rationale: "Issue 1: two options are synonyms.",
	}
	v, err := NewValidator(caller).Review(context.Background(), sampleQuestion(), prior)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeFail, v.Outcome)
	assert.Contains(t, caller.requests[0].Prompt, "Issue 1: two options are synonyms.")
}
