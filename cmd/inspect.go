package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TowneMJ/gpqa-train/internal/store"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [batch-file]",
	Short: "Show batch statistics without reviewing",
	Long: `Inspect a batch file: question counts per domain and the distribution
of correct answer letters. A skewed letter distribution means the
generator is telegraphing the answer position. Without an argument the
most recent batch file is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspectRun(args)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func inspectRun(args []string) error {
	path, err := resolveBatchPath(args)
	if err != nil {
		return err
	}

	questions, warnings, err := store.LoadBatch(path)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		ui.Warning("%s: %s", path, w)
	}

	ui.Info("Batch: %s", path)
	ui.Info("Valid questions: %d", len(questions))
	if len(questions) == 0 {
		return nil
	}

	domainCounts := map[string]int{}
	letterCounts := map[string]int{}
	for _, q := range questions {
		domainCounts[q.Domain]++
		letterCounts[q.CorrectLabel]++
	}

	fmt.Fprintln(ui.Out)
	table := ui.Table([]string{"Domain", "Questions"})
	for _, d := range store.Domains(questions) {
		table.Append([]string{d, fmt.Sprintf("%d", domainCounts[d])})
	}
	table.Render()

	fmt.Fprintln(ui.Out)
	letters := ui.Table([]string{"Correct Letter", "Count", "Share"})
	for _, l := range []string{"A", "B", "C", "D", "E"} {
		n := letterCounts[l]
		if n == 0 {
			continue
		}
		letters.Append([]string{l, fmt.Sprintf("%d", n),
			fmt.Sprintf("%.0f%%", 100*float64(n)/float64(len(questions)))})
	}
	letters.Render()

	return nil
}
