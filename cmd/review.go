package cmd

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TowneMJ/gpqa-train/internal/console"
	"github.com/TowneMJ/gpqa-train/internal/llm"
	"github.com/TowneMJ/gpqa-train/internal/reviewer"
	"github.com/TowneMJ/gpqa-train/internal/screen"
	"github.com/TowneMJ/gpqa-train/internal/session"
	"github.com/TowneMJ/gpqa-train/internal/store"
)

var (
	reviewPolicy string
	reviewDelay  time.Duration
)

var reviewCmd = &cobra.Command{
	Use:   "review [batch-file]",
	Short: "Screen a batch and review the results interactively",
	Long: `Screen a batch of generated questions through the configured reviewer
models, then walk the flagged and expert-domain questions in an
interactive review queue. Without an argument the most recent batch
file is used.

Domains you select at the start skip model screening entirely and go
straight to your review queue.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewRun(cmd, args)
	},
}

func init() {
	reviewCmd.Flags().StringVar(&reviewPolicy, "policy", "", "Screening policy: conjunctive or critique-validate (default from config)")
	reviewCmd.Flags().DurationVar(&reviewDelay, "delay", 0, "Minimum wait between model calls (default from config)")
	rootCmd.AddCommand(reviewCmd)
}

func reviewRun(cmd *cobra.Command, args []string) error {
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
	if len(questions) == 0 {
		return fmt.Errorf("no valid questions in %s", path)
	}
	ui.Info("Loaded %d questions from %s", len(questions), path)

	policy := screen.Policy(reviewPolicy)
	if policy == "" {
		policy = screen.Policy(viper.GetString("screen.policy"))
	}
	delay := reviewDelay
	if delay == 0 {
		delay = viper.GetDuration("screen.delay")
	}

	if dryRun {
		ui.DryRunMsg("Would screen %d questions with policy %s, reviewers %v",
			len(questions), policy, viper.GetStringSlice("screen.reviewers"))
		return nil
	}

	tr := openTranscript()
	if tr != nil {
		defer tr.Close()
		ui.VerboseLog("transcript run %s", tr.RunID())
	}

	reviewers, err := buildReviewers(policy, tr)
	if err != nil {
		return err
	}

	engine, err := screen.New(screen.Config{
		Policy:    policy,
		Reviewers: reviewers,
		Delay:     delay,
		UI:        ui,
	})
	if err != nil {
		return err
	}

	con := console.New(nil, os.Stdin, ui)
	con.ClearScreen = true
	exempt := con.SelectDomains(store.Domains(questions))

	res := engine.Screen(cmd.Context(), questions, exempt)
	ui.Info("Screening done: %d expert, %d auto-verified, %d flagged",
		len(res.ExpertQueue), len(res.AutoVerified), len(res.FlaggedQueue))

	sess := session.New(res)
	con.Attach(sess)

	if !con.Run() {
		ui.Warning("Session ended without saving")
		return nil
	}

	verified, rejected, pending := sess.Partition()
	if pending > 0 {
		ui.Warning("%d questions still pending were not saved", pending)
	}

	report, err := store.SaveResults(viper.GetString("verified_dir"), viper.GetString("rejected_dir"), verified, rejected)
	if err != nil {
		return err
	}

	if report.VerifiedCount > 0 {
		ui.Success("Saved %d verified questions to %s", report.VerifiedCount, report.VerifiedPath)
		for tag, n := range report.TagCounts {
			ui.Info("  %s: %d", tag, n)
		}
	}
	if report.RejectedCount > 0 {
		ui.Success("Saved %d rejected questions to %s", report.RejectedCount, report.RejectedPath)
	}
	return nil
}

func resolveBatchPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	return store.MostRecentBatch(viper.GetString("batch_dir"))
}

// buildReviewers assembles the reviewer sequence for a policy from the
// configured model names. Conjunctive uses the first model to re-answer the
// question blind and the rest as pass/fail judges; critique-validate needs
// exactly a critic and a validator.
func buildReviewers(policy screen.Policy, tr *llm.Transcript) ([]reviewer.Reviewer, error) {
	names := viper.GetStringSlice("screen.reviewers")
	if len(names) == 0 {
		return nil, fmt.Errorf("no reviewer models configured (screen.reviewers)")
	}

	callers := make([]llm.Caller, len(names))
	for i, name := range names {
		caller, err := newCaller(name)
		if err != nil {
			return nil, err
		}
		callers[i] = wrapTranscript(caller, tr)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	switch policy {
	case screen.PolicyCritiqueValidate:
		if len(callers) != 2 {
			return nil, fmt.Errorf("critique-validate needs exactly 2 reviewer models, got %d", len(callers))
		}
		return []reviewer.Reviewer{
			reviewer.NewCritic(callers[0]),
			reviewer.NewValidator(callers[1]),
		}, nil
	default:
		reviewers := make([]reviewer.Reviewer, len(callers))
		reviewers[0] = reviewer.NewSelfAnswer(callers[0], rng)
		for i := 1; i < len(callers); i++ {
			reviewers[i] = reviewer.NewJudge(callers[i])
		}
		return reviewers, nil
	}
}
