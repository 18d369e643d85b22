package models

// Outcome is a single reviewer's tri-state judgment.
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
	// OutcomeIndeterminate means the reviewer's output could not be parsed
	// into a definite verdict, or the underlying call failed. It is never
	// coerced to pass or fail.
	OutcomeIndeterminate Outcome = "indeterminate"
)

// Verdict records one reviewer's judgment of a question.
type Verdict struct {
	Reviewer  string  `json:"reviewer"`
	Outcome   Outcome `json:"outcome"`
	Rationale string  `json:"rationale,omitempty"`

	// AlternativeAnswer is the original-label option a disagreeing
	// self-answer reviewer picked instead of the stated correct answer.
	AlternativeAnswer string `json:"alternative_answer,omitempty"`

	// Adjudicated is set when the reviewer was given another reviewer's
	// prior verdict as context.
	Adjudicated bool `json:"adjudicated,omitempty"`

	// Err holds the call or parse failure that degraded this verdict to
	// indeterminate.
	Err string `json:"error,omitempty"`
}

// Definite reports whether the verdict is a parseable pass or fail.
func (v Verdict) Definite() bool {
	return v.Outcome == OutcomePass || v.Outcome == OutcomeFail
}

// Route is the screening engine's disposition for a question.
type Route string

const (
	RouteExpert       Route = "expert"
	RouteAutoVerified Route = "auto-verified"
	RouteFlagged      Route = "flagged"
)

// Verification tags label how an item was (or must still be) verified.
const (
	TagExpertVerified    = "expert-verified"
	TagModelVerified     = "model-verified"
	TagHumanVerifiedFlag = "human-verified-flagged"
	TagHumanReviewNeeded = "human-review-needed"
)

// ScreeningOutcome is the result of running one question through the
// screening engine.
type ScreeningOutcome struct {
	Route    Route     `json:"route"`
	Verdicts []Verdict `json:"verdicts,omitempty"`
	// Tag is the verification tag the question would carry if verified as-is.
	Tag string `json:"verification_tag"`
	// Revoked marks an item that was auto-verified and later pulled back
	// into the human review queue.
	Revoked bool `json:"revoked,omitempty"`
}

// Flagged reports whether any recorded verdict was not a clean pass.
func (o ScreeningOutcome) Flagged() bool {
	return o.Route == RouteFlagged
}
