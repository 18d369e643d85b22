// Package console is the interactive command interpreter for a review
// session. It reads commands from any io.Reader and writes through the
// shared UI, so the session logic underneath is testable without terminal
// I/O.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/TowneMJ/gpqa-train/internal/models"
	"github.com/TowneMJ/gpqa-train/internal/output"
	"github.com/TowneMJ/gpqa-train/internal/session"
)

// Console drives one review session from a command stream.
type Console struct {
	sess *session.Session
	in   *bufio.Scanner
	ui   *output.UI

	// ClearScreen emits an ANSI clear before each question view. Off by
	// default so captured output stays readable in tests.
	ClearScreen bool
}

// New creates a console over the given session, reading commands from in.
// sess may be nil if the console is only used for domain selection; Attach
// sets it before Run.
func New(sess *session.Session, in io.Reader, ui *output.UI) *Console {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Console{sess: sess, in: scanner, ui: ui}
}

// Attach sets the session the console drives. Domain selection happens
// before screening produces a session, so the console may exist first.
func (c *Console) Attach(sess *session.Session) { c.sess = sess }

// readLine prompts and reads one trimmed line. ok is false when input is
// exhausted, which ends the session without saving.
func (c *Console) readLine(prompt string) (line string, ok bool) {
	fmt.Fprint(c.ui.Out, prompt)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *Console) clear() {
	if c.ClearScreen {
		fmt.Fprint(c.ui.Out, "\x1b[2J\x1b[H")
	}
}

// SelectDomains interactively picks the expert-exempt domains. Invalid
// input re-prompts; it is never fatal.
func (c *Console) SelectDomains(domains []string) []string {
	c.clear()
	fmt.Fprintln(c.ui.Out, strings.Repeat("=", 70))
	fmt.Fprintln(c.ui.Out, "  SELECT DOMAINS FOR DIRECT EXPERT REVIEW")
	fmt.Fprintln(c.ui.Out, "  (These will skip model screening)")
	fmt.Fprintln(c.ui.Out, strings.Repeat("=", 70))
	for i, d := range domains {
		fmt.Fprintf(c.ui.Out, "  [%d] %s\n", i+1, d)
	}
	fmt.Fprintln(c.ui.Out, "\nEnter numbers separated by commas (e.g. '1,3,5'), 'all', or 'none':")

	for {
		line, ok := c.readLine("\n> ")
		if !ok {
			return nil
		}
		switch strings.ToLower(line) {
		case "", "none":
			return nil
		case "all":
			return append([]string(nil), domains...)
		}

		selected, err := parseSelection(line, domains)
		if err != nil {
			c.ui.Error("%v", err)
			continue
		}
		return selected
	}
}

// parseSelection resolves a comma-separated list of 1-based domain numbers.
func parseSelection(line string, domains []string) ([]string, error) {
	var selected []string
	for _, part := range strings.Split(line, ",") {
		part = strings.TrimSpace(part)
		idx, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid selection %q: enter numbers, 'all', or 'none'", part)
		}
		if idx < 1 || idx > len(domains) {
			return nil, fmt.Errorf("selection %d out of range 1-%d", idx, len(domains))
		}
		selected = append(selected, domains[idx-1])
	}
	return selected, nil
}

// Run executes the interactive review loop. It returns true when the user
// asked to save, false on quit-without-saving or exhausted input.
func (c *Console) Run() bool {
	for {
		if c.sess.Len() == 0 {
			if done, save := c.emptyQueueMenu(); done {
				return save
			}
			continue
		}

		item := c.sess.Current()
		c.showItem(item, c.sess.Cursor()+1, c.sess.Len())
		c.showCommands(item)

		cmd, ok := c.readLine("\n> ")
		if !ok {
			return false
		}

		switch strings.ToLower(cmd) {
		case "v":
			if err := c.sess.Verify(); err != nil {
				c.ui.Error("%v", err)
				continue
			}
			c.ui.Success("Marked as VERIFIED")
			c.sess.Next()
		case "r":
			note, ok := c.readLine("Rejection reason (optional): ")
			if !ok {
				return false
			}
			if err := c.sess.Reject(note); err != nil {
				c.ui.Error("%v", err)
				continue
			}
			c.ui.Success("Marked as REJECTED")
			c.sess.Next()
		case "e":
			note, ok := c.readLine("What needs editing? ")
			if !ok {
				return false
			}
			if err := c.sess.NeedsEdit(note); err != nil {
				c.ui.Error("%v", err)
				continue
			}
			c.ui.Success("Marked as NEEDS EDIT")
			c.sess.Next()
		case "n":
			note, ok := c.readLine("Note: ")
			if !ok {
				return false
			}
			if err := c.sess.SetNote(note); err != nil {
				c.ui.Error("%v", err)
				continue
			}
			c.ui.Info("Note added")
		case "f":
			c.showFull(item)
		case "a":
			c.showAnalysis(item)
		case "j":
			if !c.sess.Next() {
				c.ui.Info("Already at last question")
			}
		case "k":
			if !c.sess.Prev() {
				c.ui.Info("Already at first question")
			}
		case "g":
			c.gotoPrompt()
		case "s":
			c.showSummary()
		case "m":
			c.browseAutoVerified()
		case "w":
			return true
		case "q":
			confirm, ok := c.readLine("Quit without saving? (y/n): ")
			if !ok || strings.EqualFold(confirm, "y") {
				return false
			}
		default:
			c.ui.Error("Unknown command %q", cmd)
		}
	}
}

// emptyQueueMenu handles the case where screening left nothing for human
// review. done is false when a revoke repopulated the queue.
func (c *Console) emptyQueueMenu() (done, save bool) {
	c.ui.Info("No questions flagged for human review.")
	c.ui.Info("Auto-verified: %d questions", c.sess.AutoLen())
	fmt.Fprintln(c.ui.Out, "\nCommands:")
	fmt.Fprintln(c.ui.Out, "  [m] Browse model-verified questions")
	fmt.Fprintln(c.ui.Out, "  [w] Save & quit   [q] Quit without saving")

	for {
		cmd, ok := c.readLine("\n> ")
		if !ok {
			return true, false
		}
		switch strings.ToLower(cmd) {
		case "m":
			c.browseAutoVerified()
			if c.sess.Len() > 0 {
				return false, false
			}
		case "w":
			return true, true
		case "q":
			confirm, ok := c.readLine("Quit without saving? (y/n): ")
			if !ok || strings.EqualFold(confirm, "y") {
				return true, false
			}
		default:
			c.ui.Error("Unknown command %q", cmd)
		}
	}
}

func (c *Console) gotoPrompt() {
	line, ok := c.readLine("Go to question #: ")
	if !ok {
		return
	}
	num, err := strconv.Atoi(line)
	if err != nil {
		c.ui.Error("Invalid number %q", line)
		return
	}
	if err := c.sess.Goto(num); err != nil {
		c.ui.Error("%v", err)
	}
}

// browseAutoVerified pages through the auto-verified set and supports
// revoking an item back into the human review queue.
func (c *Console) browseAutoVerified() {
	if c.sess.AutoLen() == 0 {
		c.ui.Info("No auto-verified questions to browse.")
		return
	}

	current := 0
	for {
		auto := c.sess.AutoVerified()
		if len(auto) == 0 {
			c.ui.Info("No more auto-verified questions.")
			return
		}
		if current >= len(auto) {
			current = len(auto) - 1
		}
		item := auto[current]

		c.showItem(item, current+1, len(auto))
		fmt.Fprintf(c.ui.Out, "\nAuto-verified (%d/%d)\n", current+1, len(auto))
		fmt.Fprintln(c.ui.Out, "\nCommands:")
		fmt.Fprintln(c.ui.Out, "  [f] Full view   [a] Screening analysis   [j] Next   [k] Previous   [g] Go to #")
		fmt.Fprintln(c.ui.Out, "  [r] Revoke (move to human review)   [b] Back to review queue")

		cmd, ok := c.readLine("\n> ")
		if !ok {
			return
		}
		switch strings.ToLower(cmd) {
		case "f":
			c.showFull(item)
		case "a":
			c.showAnalysis(item)
		case "j":
			if current < len(auto)-1 {
				current++
			} else {
				c.ui.Info("Already at last question")
			}
		case "k":
			if current > 0 {
				current--
			} else {
				c.ui.Info("Already at first question")
			}
		case "g":
			line, ok := c.readLine("Go to question #: ")
			if !ok {
				return
			}
			num, err := strconv.Atoi(line)
			if err != nil || num < 1 || num > len(auto) {
				c.ui.Error("Invalid. Enter 1-%d", len(auto))
				continue
			}
			current = num - 1
		case "r":
			confirm, ok := c.readLine("Revoke auto-verification and move to human review? (y/n): ")
			if !ok {
				return
			}
			if !strings.EqualFold(confirm, "y") {
				continue
			}
			if _, err := c.sess.Revoke(current); err != nil {
				c.ui.Error("%v", err)
				continue
			}
			c.ui.Success("Moved to review queue (now %d questions)", c.sess.Len())
			return
		case "b":
			return
		default:
			c.ui.Error("Unknown command %q", cmd)
		}
	}
}

func (c *Console) showCommands(item *models.ReviewItem) {
	fmt.Fprintf(c.ui.Out, "\nStatus: %s\n", output.DispositionColor(string(item.Disposition)))
	fmt.Fprintln(c.ui.Out, "\nCommands:")
	fmt.Fprintln(c.ui.Out, "  [v] Verify   [r] Reject   [e] Needs edit   [n] Add note")
	fmt.Fprintln(c.ui.Out, "  [f] Full view   [a] Screening analysis   [j] Next   [k] Previous   [g] Go to #")
	fmt.Fprintf(c.ui.Out, "  [s] Summary   [m] Browse model-verified (%d)\n", c.sess.AutoLen())
	fmt.Fprintln(c.ui.Out, "  [w] Save & quit   [q] Quit without saving")
}

func (c *Console) showSummary() {
	sum := c.sess.Summarize()
	fmt.Fprintln(c.ui.Out, strings.Repeat("=", 70))
	fmt.Fprintln(c.ui.Out, "  REVIEW SUMMARY")
	fmt.Fprintln(c.ui.Out, strings.Repeat("=", 70))

	table := c.ui.Table([]string{"Disposition", "Count"})
	table.Append([]string{output.DispositionColor("verified"), strconv.Itoa(sum.Verified)})
	table.Append([]string{output.DispositionColor("rejected"), strconv.Itoa(sum.Rejected)})
	table.Append([]string{output.DispositionColor("needs-edit"), strconv.Itoa(sum.NeedsEdit)})
	table.Append([]string{output.DispositionColor("pending"), strconv.Itoa(sum.Pending)})
	table.Render()

	fmt.Fprintf(c.ui.Out, "\n  Auto-verified (model-verified): %d\n", sum.AutoVerified)
	totalVerified := sum.Verified + sum.AutoVerified
	fmt.Fprintf(c.ui.Out, "  Total verified: %d/%d\n", totalVerified, sum.QueueLen+sum.AutoVerified)

	// List items that will need attention after this session.
	for i, item := range c.sess.Items() {
		if item.Disposition == models.DispositionRejected || item.Disposition == models.DispositionNeedsEdit {
			concept := item.Question.CoreConcept
			if concept == "" {
				concept = item.Question.Domain
			}
			fmt.Fprintf(c.ui.Out, "  #%d [%s] %s: %s\n",
				i+1, item.Disposition, truncate(concept, 30), truncate(item.Notes, 40))
		}
	}
	fmt.Fprintln(c.ui.Out, strings.Repeat("=", 70))
}
