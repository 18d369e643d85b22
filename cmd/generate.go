package cmd

import (
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TowneMJ/gpqa-train/internal/generator"
	"github.com/TowneMJ/gpqa-train/internal/store"
)

var (
	generateCount int
	generateModel string
)

// defaultStyles rotate across generation attempts so a batch does not
// converge on one question shape.
var defaultStyles = []string{
	"a direct conceptual question testing deep understanding",
	"an applied scenario requiring multi-step quantitative reasoning",
	"a question about an experimental result and its interpretation",
	"a compare-and-contrast question between closely related mechanisms",
	"an edge case or limiting behavior of a standard model",
}

var defaultDomains = []string{
	"organic chemistry",
	"quantum mechanics",
	"molecular biology",
	"astrophysics",
	"electromagnetism and optics",
	"genetics",
	"thermodynamics and statistical mechanics",
	"biochemistry",
	"relativity",
	"inorganic chemistry",
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a batch of candidate questions",
	Long: `Generate candidate multiple choice questions with the configured model
and write them to a timestamped batch file. Failed and invalid attempts
are recorded in the batch alongside successes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return generateRun(cmd)
	},
}

func init() {
	generateCmd.Flags().IntVarP(&generateCount, "count", "c", 0, "Number of questions to generate (default from config)")
	generateCmd.Flags().StringVar(&generateModel, "model", "", "Model name from the llm config block (default generate.model)")
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command) error {
	count := generateCount
	if count == 0 {
		count = viper.GetInt("generate.count")
	}
	model := generateModel
	if model == "" {
		model = viper.GetString("generate.model")
	}

	styles := viper.GetStringSlice("generate.styles")
	domains := viper.GetStringSlice("generate.domains")

	if dryRun {
		ui.DryRunMsg("Would generate %d questions with %s", count, model)
		ui.DryRunMsg("Domains: %v", domains)
		ui.DryRunMsg("Styles: %v", styles)
		return nil
	}

	caller, err := newCaller(model)
	if err != nil {
		return err
	}

	tr := openTranscript()
	if tr != nil {
		defer tr.Close()
		ui.VerboseLog("transcript run %s", tr.RunID())
	}

	gen, err := generator.New(generator.Config{
		Caller:     wrapTranscript(caller, tr),
		Styles:     styles,
		Domains:    domains,
		MaxRetries: viper.GetInt("generate.max_retries"),
		Delay:      viper.GetDuration("generate.delay"),
		RNG:        rand.New(rand.NewSource(time.Now().UnixNano())),
		UI:         ui,
	})
	if err != nil {
		return err
	}

	records, genErr := gen.Run(cmd.Context(), count)
	if len(records) == 0 {
		return genErr
	}

	path, err := store.WriteBatch(viper.GetString("batch_dir"), records)
	if err != nil {
		return err
	}

	success := 0
	for _, r := range records {
		if r.Success {
			success++
		}
	}
	ui.Success("Wrote %d questions (%d attempts) to %s", success, len(records), path)
	return genErr
}
