package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TowneMJ/gpqa-train/internal/store"
)

var compileOutput string

var compileCmd = &cobra.Command{
	Use:   "compile [reviewed-file...]",
	Short: "Merge reviewed files into one training dataset",
	Long: `Merge the verified question sets from multiple reviewed files into a
single JSON training file. Without arguments every reviewed file in
the verified directory is merged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return compileRun(args)
	},
}

func init() {
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "training_data.json", "Output file")
	rootCmd.AddCommand(compileCmd)
}

func compileRun(args []string) error {
	inputs := args
	if len(inputs) == 0 {
		var err error
		inputs, err = reviewedFiles(viper.GetString("verified_dir"))
		if err != nil {
			return err
		}
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no reviewed files to compile")
	}

	if dryRun {
		ui.DryRunMsg("Would compile %d files into %s", len(inputs), compileOutput)
		for _, in := range inputs {
			ui.DryRunMsg("  %s", in)
		}
		return nil
	}

	n, err := store.Compile(inputs, compileOutput)
	if err != nil {
		return err
	}
	ui.Success("Compiled %d questions from %d files into %s", n, len(inputs), compileOutput)
	return nil
}

func reviewedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read verified dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
