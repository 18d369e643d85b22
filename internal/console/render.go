package console

import (
	"fmt"
	"strings"

	"github.com/TowneMJ/gpqa-train/internal/models"
	"github.com/TowneMJ/gpqa-train/internal/output"
)

const rule = "----------------------------------------------------------------------"
const banner = "======================================================================"

// showItem renders the truncated question view with screening flags.
func (c *Console) showItem(item *models.ReviewItem, num, total int) {
	c.clear()
	q := item.Question

	fmt.Fprintln(c.ui.Out, banner)
	fmt.Fprintf(c.ui.Out, "  QUESTION %d/%d  |  Domain: %s\n", num, total, truncate(q.Domain, 35))
	if q.CoreConcept != "" {
		fmt.Fprintf(c.ui.Out, "  Core Concept: %s\n", truncate(q.CoreConcept, 55))
	}
	fmt.Fprintln(c.ui.Out, banner)

	c.showFlags(item)

	fmt.Fprintf(c.ui.Out, "\n%s\n\n", q.Text)

	fmt.Fprintln(c.ui.Out, rule)
	fmt.Fprintf(c.ui.Out, "CORRECT ANSWER (%s):\n  %s\n", q.CorrectLabel, truncate(q.CorrectAnswer, 500))

	fmt.Fprintln(c.ui.Out, rule)
	fmt.Fprintln(c.ui.Out, "DISTRACTORS:")
	for _, d := range q.Distractors {
		fmt.Fprintf(c.ui.Out, "  %s) %s\n", d.Label, truncate(d.Text, 200))
	}

	fmt.Fprintln(c.ui.Out, rule)
	fmt.Fprintf(c.ui.Out, "ORIGINAL REASONING:\n  %s\n", truncate(q.Reasoning, 500))

	// Show abbreviated screening rationale for flagged items.
	for _, v := range item.Screening.Verdicts {
		if v.Outcome == models.OutcomePass {
			continue
		}
		fmt.Fprintln(c.ui.Out, rule)
		fmt.Fprintf(c.ui.Out, "%s (%s, press 'a' for full):\n  %s\n",
			strings.ToUpper(v.Reviewer), v.Outcome, truncate(v.Rationale, 400))
	}

	fmt.Fprintln(c.ui.Out, banner)
}

// showFlags summarizes the screening outcome above the question text.
func (c *Console) showFlags(item *models.ReviewItem) {
	switch item.Screening.Route {
	case models.RouteExpert:
		fmt.Fprintln(c.ui.Out, "  DIRECT REVIEW (your expert domain)")
	case models.RouteAutoVerified:
		fmt.Fprintln(c.ui.Out, "  Auto-verified by model screening")
	default:
		if item.Screening.Revoked {
			fmt.Fprintln(c.ui.Out, "  "+output.Yellow("REVOKED from auto-verified"))
		}
		for _, v := range item.Screening.Verdicts {
			switch {
			case v.Err != "":
				fmt.Fprintf(c.ui.Out, "  %s\n", output.Yellow(fmt.Sprintf("%s: %s", v.Reviewer, truncate(v.Err, 40))))
			case v.Outcome == models.OutcomeFail && v.AlternativeAnswer != "":
				fmt.Fprintf(c.ui.Out, "  %s\n", output.Yellow(fmt.Sprintf("%s DISAGREED: picked %s instead of %s",
					v.Reviewer, v.AlternativeAnswer, item.Question.CorrectLabel)))
			case v.Outcome == models.OutcomeFail:
				fmt.Fprintf(c.ui.Out, "  %s\n", output.Yellow(v.Reviewer+": flagged, see rationale below"))
			case v.Outcome == models.OutcomePass:
				fmt.Fprintf(c.ui.Out, "  %s\n", output.Green(v.Reviewer+": pass"))
			}
		}
	}
	if item.Screening.Tag != "" {
		fmt.Fprintf(c.ui.Out, "  Tag: %s\n", output.TagColor(item.Screening.Tag))
	}
}

// showFull renders the question with nothing truncated.
func (c *Console) showFull(item *models.ReviewItem) {
	c.clear()
	q := item.Question

	fmt.Fprintln(c.ui.Out, banner)
	fmt.Fprintln(c.ui.Out, "  FULL QUESTION VIEW")
	fmt.Fprintln(c.ui.Out, banner)

	fmt.Fprintf(c.ui.Out, "\nQUESTION:\n%s\n\n", q.Text)
	fmt.Fprintln(c.ui.Out, rule)
	fmt.Fprintf(c.ui.Out, "CORRECT ANSWER (%s):\n%s\n\n", q.CorrectLabel, q.CorrectAnswer)
	fmt.Fprintln(c.ui.Out, rule)
	fmt.Fprintln(c.ui.Out, "DISTRACTORS:")
	for _, d := range q.Distractors {
		fmt.Fprintf(c.ui.Out, "\n%s) %s\n", d.Label, d.Text)
	}
	fmt.Fprintln(c.ui.Out, rule)
	fmt.Fprintf(c.ui.Out, "ORIGINAL REASONING:\n%s\n", q.Reasoning)
	fmt.Fprintln(c.ui.Out, banner)

	c.readLine("\nPress Enter to go back...")
}

// showAnalysis renders the full reviewer audit trail for an item.
func (c *Console) showAnalysis(item *models.ReviewItem) {
	c.clear()
	fmt.Fprintln(c.ui.Out, banner)
	fmt.Fprintln(c.ui.Out, "  FULL SCREENING ANALYSIS")
	fmt.Fprintln(c.ui.Out, banner)

	if len(item.Screening.Verdicts) == 0 {
		fmt.Fprintln(c.ui.Out, "\nNo screening data for this question.")
		c.readLine("\nPress Enter to go back...")
		return
	}

	for _, v := range item.Screening.Verdicts {
		fmt.Fprintf(c.ui.Out, "\n%s\n%s:\n%s\n", banner, strings.ToUpper(v.Reviewer), banner)

		switch v.Outcome {
		case models.OutcomePass:
			fmt.Fprintf(c.ui.Out, "\n%s\n", output.Green("Verdict: pass"))
		case models.OutcomeFail:
			if v.AlternativeAnswer != "" {
				fmt.Fprintf(c.ui.Out, "\n%s\n", output.Red(fmt.Sprintf("Picked %s (stated correct: %s)",
					v.AlternativeAnswer, item.Question.CorrectLabel)))
			} else {
				fmt.Fprintf(c.ui.Out, "\n%s\n", output.Red("Verdict: fail"))
			}
		default:
			fmt.Fprintf(c.ui.Out, "\n%s\n", output.Yellow("Verdict: indeterminate"))
		}

		if v.Adjudicated {
			fmt.Fprintln(c.ui.Out, "(given the prior reviewer's output as context)")
		}
		if v.Err != "" {
			fmt.Fprintf(c.ui.Out, "Error: %s\n", v.Err)
		}
		if v.Rationale != "" {
			fmt.Fprintf(c.ui.Out, "\nFULL RESPONSE:\n%s\n%s\n", strings.Repeat("-", 40), v.Rationale)
		} else {
			fmt.Fprintln(c.ui.Out, "\n(No rationale captured)")
		}
	}

	fmt.Fprintln(c.ui.Out, "\n"+banner)
	c.readLine("\nPress Enter to go back...")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
