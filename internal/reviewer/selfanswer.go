package reviewer

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/TowneMJ/gpqa-train/internal/llm"
	"github.com/TowneMJ/gpqa-train/internal/models"
)

// SelfAnswer asks a model to answer the question blind, without being told
// which option is stated correct. The options are re-shuffled into fresh
// labels first so the model cannot exploit positional bias; the picked label
// is mapped back to its original label for downstream disposition logic.
type SelfAnswer struct {
	caller llm.Caller
	rng    *rand.Rand
}

// NewSelfAnswer creates a self-answer reviewer. rng drives the option
// shuffle and is injectable for deterministic tests.
func NewSelfAnswer(caller llm.Caller, rng *rand.Rand) *SelfAnswer {
	return &SelfAnswer{caller: caller, rng: rng}
}

func (r *SelfAnswer) Name() string { return r.caller.Name() + "-self-answer" }

// Shuffled is a question's option set under fresh screening labels.
type Shuffled struct {
	// Block is the rendered question text with relabeled options.
	Block string
	// CorrectLabel is the fresh label now holding the correct answer.
	CorrectLabel string
	// ToOriginal maps each fresh label back to the original label.
	ToOriginal map[string]string
}

// Shuffle relabels the question's options A-E in random order.
func Shuffle(q models.Question, rng *rand.Rand) Shuffled {
	opts := q.Options()
	rng.Shuffle(len(opts), func(i, j int) {
		opts[i], opts[j] = opts[j], opts[i]
	})

	s := Shuffled{ToOriginal: make(map[string]string, len(opts))}
	var lines []string
	for i, opt := range opts {
		fresh := string(rune('A' + i))
		s.ToOriginal[fresh] = opt.Label
		if opt.Label == q.CorrectLabel {
			s.CorrectLabel = fresh
		}
		lines = append(lines, fmt.Sprintf("%s) %s", fresh, opt.Text))
	}
	s.Block = fmt.Sprintf("%s\n\n%s", q.Text, strings.Join(lines, "\n"))
	return s
}

func (r *SelfAnswer) Review(ctx context.Context, q models.Question, _ *models.Verdict) (models.Verdict, error) {
	shuffled := Shuffle(q, r.rng)

	prompt := fmt.Sprintf(`Answer this multiple choice question.

%s

Respond with ONLY:
1. A brief explanation (4-5 sentences max)
2. Your final answer in the format: ANSWER: X

Keep your response under 200 words total.`, shuffled.Block)

	content, err := r.caller.Call(ctx, llm.Request{Prompt: prompt, MaxTokens: 4096, Temperature: 0.3})
	if err != nil {
		return models.Verdict{}, err
	}

	verdict := models.Verdict{Reviewer: r.Name()}
	letter, rationale, ok := parseAnswer(content)
	if !ok {
		verdict.Outcome = models.OutcomeIndeterminate
		verdict.Rationale = content
		verdict.Err = "could not parse an answer from the response"
		return verdict, nil
	}

	verdict.Rationale = rationale
	if verdict.Rationale == "" {
		verdict.Rationale = content
	}

	if letter == shuffled.CorrectLabel {
		verdict.Outcome = models.OutcomePass
	} else {
		verdict.Outcome = models.OutcomeFail
		verdict.AlternativeAnswer = shuffled.ToOriginal[letter]
	}
	return verdict, nil
}
