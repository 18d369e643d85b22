// Package screen routes generated questions through reviewer collaborators
// and buckets each one into exactly one of expert-queue, auto-verified, or
// flagged-for-human.
package screen

import (
	"context"
	"fmt"
	"time"

	"github.com/TowneMJ/gpqa-train/internal/models"
	"github.com/TowneMJ/gpqa-train/internal/output"
	"github.com/TowneMJ/gpqa-train/internal/reviewer"
)

// Policy selects how reviewer verdicts combine into a screening decision.
type Policy string

const (
	// PolicyConjunctive auto-verifies iff every reviewer in the sequence
	// independently passes. A definite fail still lets the remaining
	// reviewers run, with the disputed verdict as adjudication context;
	// an indeterminate verdict ends the sequence.
	PolicyConjunctive Policy = "conjunctive"
	// PolicyCritiqueValidate auto-verifies iff the critic finds no issues
	// and the validator agrees with that finding. The validator always
	// runs: judging a "no issues" critique is specifically its job.
	PolicyCritiqueValidate Policy = "critique-validate"
)

// Config is the screening engine's injected configuration. There are no
// package-level singletons; clients, models, and scheduling all arrive here.
type Config struct {
	Policy    Policy
	Reviewers []reviewer.Reviewer

	// Delay is the mandatory minimum wait between consecutive collaborator
	// calls. Rate limiting is this engine's scheduling policy, not the
	// collaborator's.
	Delay time.Duration

	// Sleep is replaceable in tests.
	Sleep func(time.Duration)

	UI *output.UI
}

// Result is the partition of a batch into three disjoint buckets.
type Result struct {
	ExpertQueue  []models.ReviewItem
	FlaggedQueue []models.ReviewItem
	AutoVerified []models.ReviewItem
}

// Total returns the number of questions across all buckets.
func (r *Result) Total() int {
	return len(r.ExpertQueue) + len(r.FlaggedQueue) + len(r.AutoVerified)
}

// Engine runs questions through the configured reviewer sequence.
type Engine struct {
	cfg    Config
	called bool
}

// New creates a screening engine from the given config.
func New(cfg Config) (*Engine, error) {
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	switch cfg.Policy {
	case PolicyCritiqueValidate:
		if len(cfg.Reviewers) != 2 {
			return nil, fmt.Errorf("critique-validate policy needs exactly a critic and a validator, got %d reviewers", len(cfg.Reviewers))
		}
	case PolicyConjunctive, "":
		if len(cfg.Reviewers) == 0 {
			return nil, fmt.Errorf("conjunctive policy needs at least one reviewer")
		}
	default:
		return nil, fmt.Errorf("unknown screening policy %q", cfg.Policy)
	}
	return &Engine{cfg: cfg}, nil
}

// Screen partitions questions into expert-queue, flagged, and auto-verified
// buckets. Questions whose domain is in exemptDomains go straight to the
// expert queue without any collaborator call. One question's failure never
// aborts the batch: call and parse errors degrade to indeterminate verdicts
// and flag the question.
func (e *Engine) Screen(ctx context.Context, questions []models.Question, exemptDomains []string) *Result {
	exempt := make(map[string]bool, len(exemptDomains))
	for _, d := range exemptDomains {
		exempt[d] = true
	}

	res := &Result{}
	var toScreen []models.Question
	for _, q := range questions {
		if exempt[q.Domain] {
			res.ExpertQueue = append(res.ExpertQueue, models.ReviewItem{
				Question: q,
				Screening: models.ScreeningOutcome{
					Route: models.RouteExpert,
					Tag:   models.TagExpertVerified,
				},
				Disposition: models.DispositionPending,
			})
		} else {
			toScreen = append(toScreen, q)
		}
	}

	for i, q := range toScreen {
		if e.cfg.UI != nil {
			label := q.CoreConcept
			if label == "" {
				label = q.Domain
			}
			e.cfg.UI.Info("[%d/%d] %s", i+1, len(toScreen), truncate(label, 40))
		}

		outcome := e.screenOne(ctx, q)
		item := models.ReviewItem{
			Question:    q,
			Screening:   outcome,
			Disposition: models.DispositionPending,
		}
		if outcome.Route == models.RouteAutoVerified {
			res.AutoVerified = append(res.AutoVerified, item)
		} else {
			res.FlaggedQueue = append(res.FlaggedQueue, item)
		}
	}

	return res
}

// screenOne applies the configured policy to a single question.
func (e *Engine) screenOne(ctx context.Context, q models.Question) models.ScreeningOutcome {
	switch e.cfg.Policy {
	case PolicyCritiqueValidate:
		return e.critiqueValidate(ctx, q)
	default:
		return e.conjunctive(ctx, q)
	}
}

// conjunctive runs the reviewer sequence in order. A definite fail does not
// end the sequence: the remaining reviewers run with the disputed verdict as
// adjudication context, so the flagged item carries a second opinion on the
// disagreement. Only an indeterminate verdict stops the sequence early;
// partial verdicts gathered so far travel with the flagged item.
func (e *Engine) conjunctive(ctx context.Context, q models.Question) models.ScreeningOutcome {
	var verdicts []models.Verdict
	var disputed *models.Verdict
	for _, r := range e.cfg.Reviewers {
		v := e.review(ctx, r, q, disputed)
		verdicts = append(verdicts, v)
		e.report(v)
		switch v.Outcome {
		case models.OutcomePass:
		case models.OutcomeFail:
			dv := v
			disputed = &dv
		default:
			return models.ScreeningOutcome{
				Route:    models.RouteFlagged,
				Verdicts: verdicts,
				Tag:      models.TagHumanVerifiedFlag,
			}
		}
	}
	if disputed != nil {
		return models.ScreeningOutcome{
			Route:    models.RouteFlagged,
			Verdicts: verdicts,
			Tag:      models.TagHumanVerifiedFlag,
		}
	}
	return models.ScreeningOutcome{
		Route:    models.RouteAutoVerified,
		Verdicts: verdicts,
		Tag:      models.TagModelVerified,
	}
}

// critiqueValidate runs the critic and then, whenever a critique exists,
// the validator with that critique as context. Auto-verify requires a clean
// critique and an agreeing validator.
func (e *Engine) critiqueValidate(ctx context.Context, q models.Question) models.ScreeningOutcome {
	critic, validator := e.cfg.Reviewers[0], e.cfg.Reviewers[1]

	critique := e.review(ctx, critic, q, nil)
	e.report(critique)
	if !critique.Definite() {
		// No critique was produced, so there is nothing to validate.
		return models.ScreeningOutcome{
			Route:    models.RouteFlagged,
			Verdicts: []models.Verdict{critique},
			Tag:      models.TagHumanVerifiedFlag,
		}
	}

	validation := e.review(ctx, validator, q, &critique)
	e.report(validation)

	verdicts := []models.Verdict{critique, validation}
	if critique.Outcome == models.OutcomePass && validation.Outcome == models.OutcomePass {
		return models.ScreeningOutcome{
			Route:    models.RouteAutoVerified,
			Verdicts: verdicts,
			Tag:      models.TagModelVerified,
		}
	}
	return models.ScreeningOutcome{
		Route:    models.RouteFlagged,
		Verdicts: verdicts,
		Tag:      models.TagHumanVerifiedFlag,
	}
}

// review invokes a single reviewer, enforcing the inter-call delay and
// degrading call failures to indeterminate verdicts.
func (e *Engine) review(ctx context.Context, r reviewer.Reviewer, q models.Question, prior *models.Verdict) models.Verdict {
	if e.called && e.cfg.Delay > 0 {
		e.cfg.Sleep(e.cfg.Delay)
	}
	e.called = true

	v, err := r.Review(ctx, q, prior)
	if err != nil {
		return models.Verdict{
			Reviewer: r.Name(),
			Outcome:  models.OutcomeIndeterminate,
			Err:      err.Error(),
		}
	}
	return v
}

// report prints one verdict's outcome when a UI is attached.
func (e *Engine) report(v models.Verdict) {
	if e.cfg.UI == nil {
		return
	}
	switch v.Outcome {
	case models.OutcomePass:
		e.cfg.UI.Success("  %s: pass", v.Reviewer)
	case models.OutcomeFail:
		if v.AlternativeAnswer != "" {
			e.cfg.UI.Warning("  %s: picked %s instead", v.Reviewer, v.AlternativeAnswer)
		} else {
			e.cfg.UI.Warning("  %s: fail", v.Reviewer)
		}
	default:
		if v.Err != "" {
			e.cfg.UI.Warning("  %s: indeterminate (%s)", v.Reviewer, truncate(v.Err, 50))
		} else {
			e.cfg.UI.Warning("  %s: indeterminate", v.Reviewer)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
