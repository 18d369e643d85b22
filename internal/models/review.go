package models

// Disposition is the human's per-item decision during a review session.
type Disposition string

const (
	DispositionPending   Disposition = "pending"
	DispositionVerified  Disposition = "verified"
	DispositionRejected  Disposition = "rejected"
	DispositionNeedsEdit Disposition = "needs-edit"
)

// Terminal reports whether the disposition ends review of an item for this
// session.
func (d Disposition) Terminal() bool {
	return d == DispositionVerified || d == DispositionRejected || d == DispositionNeedsEdit
}

// ReviewItem pairs a question with its screening outcome and the human
// review state that accumulates during a session. Mutable fields are owned
// exclusively by the session.
type ReviewItem struct {
	Question  Question
	Screening ScreeningOutcome

	Disposition Disposition
	Notes       string
	// Tag is the effective verification tag: screening-assigned unless the
	// human's decision overrides it.
	Tag string
}

// VerifiedQuestion is one entry in the verified output set.
type VerifiedQuestion struct {
	Question
	VerificationTag string `json:"verification_tag"`
	ReviewNotes     string `json:"review_notes"`
}

// RejectedQuestion is one entry in the rejected output set, carrying the
// reviewer audit trail that led to flagging.
type RejectedQuestion struct {
	Question
	ReviewStatus    Disposition `json:"review_status"`
	RejectionReason string      `json:"rejection_reason"`
	Verdicts        []Verdict   `json:"ai_verdicts,omitempty"`
}
