package session

import "github.com/TowneMJ/gpqa-train/internal/models"

// Partition splits the session into the verified and rejected output sets.
// Verified queue items and all remaining auto-verified items merge into the
// verified set, stamped with their effective verification tags. Rejected
// and needs-edit items merge into the rejected set with their notes and the
// full reviewer audit trail. Items still pending are dropped from both sets
// and returned as a count: a pending item is neither accepted nor rejected.
func (s *Session) Partition() (verified []models.VerifiedQuestion, rejected []models.RejectedQuestion, pending int) {
	for _, item := range s.queue {
		switch item.Disposition {
		case models.DispositionVerified:
			verified = append(verified, models.VerifiedQuestion{
				Question:        item.Question,
				VerificationTag: item.Tag,
				ReviewNotes:     item.Notes,
			})
		case models.DispositionRejected, models.DispositionNeedsEdit:
			rejected = append(rejected, models.RejectedQuestion{
				Question:        item.Question,
				ReviewStatus:    item.Disposition,
				RejectionReason: item.Notes,
				Verdicts:        item.Screening.Verdicts,
			})
		default:
			pending++
		}
	}

	for _, item := range s.auto {
		verified = append(verified, models.VerifiedQuestion{
			Question:        item.Question,
			VerificationTag: models.TagModelVerified,
		})
	}
	return verified, rejected, pending
}
