// Package session holds the mutable state of one human review run: the
// ordered review queue, the auto-verified set, a cursor, and per-item
// dispositions. All mutation goes through the session's methods so the same
// logic drives both the interactive console and the tests.
package session

import (
	"fmt"

	"github.com/TowneMJ/gpqa-train/internal/models"
	"github.com/TowneMJ/gpqa-train/internal/screen"
)

// Session is the state machine for one review run. It is single-threaded
// session state: created from a screening pass, mutated by user commands,
// and terminated by an explicit save or abandon.
type Session struct {
	queue  []*models.ReviewItem
	auto   []*models.ReviewItem
	cursor int

	// byIndex maps question identity to its queue item.
	byIndex map[int]*models.ReviewItem
}

// New builds a session from a screening result. Queue order is fixed at
// construction: expert-exempt items first, then flagged items. Auto-verified
// items never enter the queue unless explicitly revoked.
func New(res *screen.Result) *Session {
	s := &Session{byIndex: make(map[int]*models.ReviewItem)}
	for i := range res.ExpertQueue {
		s.push(&res.ExpertQueue[i])
	}
	for i := range res.FlaggedQueue {
		s.push(&res.FlaggedQueue[i])
	}
	for i := range res.AutoVerified {
		item := &res.AutoVerified[i]
		s.auto = append(s.auto, item)
	}
	return s
}

func (s *Session) push(item *models.ReviewItem) {
	s.queue = append(s.queue, item)
	s.byIndex[item.Question.Index] = item
}

// Len returns the review queue length.
func (s *Session) Len() int { return len(s.queue) }

// AutoLen returns the number of items still auto-verified.
func (s *Session) AutoLen() int { return len(s.auto) }

// Cursor returns the zero-based position of the current item.
func (s *Session) Cursor() int { return s.cursor }

// Current returns the item at the cursor, or nil for an empty queue.
func (s *Session) Current() *models.ReviewItem {
	if len(s.queue) == 0 {
		return nil
	}
	return s.queue[s.cursor]
}

// Items returns the review queue in order.
func (s *Session) Items() []*models.ReviewItem { return s.queue }

// AutoVerified returns the auto-verified set in order.
func (s *Session) AutoVerified() []*models.ReviewItem { return s.auto }

// Next advances the cursor. At the last item it is a clamped no-op and
// returns false; moving past an edge is reported, not an error.
func (s *Session) Next() bool {
	if s.cursor >= len(s.queue)-1 {
		return false
	}
	s.cursor++
	return true
}

// Prev moves the cursor back, clamping at the first item.
func (s *Session) Prev() bool {
	if s.cursor <= 0 {
		return false
	}
	s.cursor--
	return true
}

// Goto jumps to a 1-based queue position.
func (s *Session) Goto(pos int) error {
	if pos < 1 || pos > len(s.queue) {
		return fmt.Errorf("position %d out of range 1-%d", pos, len(s.queue))
	}
	s.cursor = pos - 1
	return nil
}

// Verify marks the current item verified, recording its effective
// verification tag. A flagged item verified by a human keeps the
// human-verified-flagged tag; an item revoked from auto-verification gets
// the same, since a human ended up judging it.
func (s *Session) Verify() error {
	item := s.Current()
	if item == nil {
		return fmt.Errorf("empty review queue")
	}
	item.Disposition = models.DispositionVerified
	tag := item.Screening.Tag
	if tag == models.TagHumanReviewNeeded {
		tag = models.TagHumanVerifiedFlag
	}
	item.Tag = tag
	return nil
}

// Reject marks the current item rejected with the given note. An empty note
// is allowed but must have been explicitly entered.
func (s *Session) Reject(note string) error {
	item := s.Current()
	if item == nil {
		return fmt.Errorf("empty review queue")
	}
	item.Disposition = models.DispositionRejected
	item.Notes = note
	return nil
}

// NeedsEdit marks the current item as needing edits, with a note describing
// what to change.
func (s *Session) NeedsEdit(note string) error {
	item := s.Current()
	if item == nil {
		return fmt.Errorf("empty review queue")
	}
	item.Disposition = models.DispositionNeedsEdit
	item.Notes = note
	return nil
}

// SetNote attaches a note to the current item without changing its
// disposition.
func (s *Session) SetNote(note string) error {
	item := s.Current()
	if item == nil {
		return fmt.Errorf("empty review queue")
	}
	item.Notes = note
	return nil
}

// Revoke removes the i-th auto-verified item, re-tags it as needing human
// review, and appends it to the end of the review queue as pending. This is
// the only mutation that grows the queue after construction.
func (s *Session) Revoke(i int) (*models.ReviewItem, error) {
	if i < 0 || i >= len(s.auto) {
		return nil, fmt.Errorf("auto-verified position %d out of range 0-%d", i, len(s.auto)-1)
	}
	item := s.auto[i]
	s.auto = append(s.auto[:i], s.auto[i+1:]...)

	item.Disposition = models.DispositionPending
	item.Notes = "revoked from auto-verified"
	item.Screening.Route = models.RouteFlagged
	item.Screening.Tag = models.TagHumanReviewNeeded
	item.Screening.Revoked = true
	s.push(item)
	return item, nil
}

// Summary is a point-in-time aggregate of the session.
type Summary struct {
	Pending      int
	Verified     int
	Rejected     int
	NeedsEdit    int
	AutoVerified int
	QueueLen     int
}

// Summarize counts queue items by disposition plus the auto-verified set.
func (s *Session) Summarize() Summary {
	sum := Summary{AutoVerified: len(s.auto), QueueLen: len(s.queue)}
	for _, item := range s.queue {
		switch item.Disposition {
		case models.DispositionVerified:
			sum.Verified++
		case models.DispositionRejected:
			sum.Rejected++
		case models.DispositionNeedsEdit:
			sum.NeedsEdit++
		default:
			sum.Pending++
		}
	}
	return sum
}
