package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TowneMJ/gpqa-train/internal/llm"
	"github.com/TowneMJ/gpqa-train/internal/output"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui *output.UI

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "gpqa-train",
	Short: "Generate, screen, and review multiple choice training questions",
	Long: `gpqa-train builds datasets of graduate-level multiple choice questions.
It generates candidate questions with an LLM, screens them through
independent reviewer models, and runs an interactive review queue for
the questions the models could not agree on.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/gpqa-train/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "gpqa-train")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GPQA_TRAIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	viper.SetDefault("batch_dir", "batches")
	viper.SetDefault("verified_dir", "reviewed")
	viper.SetDefault("rejected_dir", "rejected")
	viper.SetDefault("transcript_dir", "logs")

	viper.SetDefault("screen.policy", "conjunctive")
	viper.SetDefault("screen.reviewers", []string{"kimi", "gemini"})
	viper.SetDefault("screen.delay", "2s")

	viper.SetDefault("retry.max_attempts", 4)
	viper.SetDefault("retry.backoff", "15s")

	viper.SetDefault("generate.model", "claude")
	viper.SetDefault("generate.count", 10)
	viper.SetDefault("generate.delay", "1s")
	viper.SetDefault("generate.max_retries", 5)
	viper.SetDefault("generate.styles", defaultStyles)
	viper.SetDefault("generate.domains", defaultDomains)

	viper.SetDefault("llm.kimi.provider", "openai")
	viper.SetDefault("llm.kimi.base_url", "https://integrate.api.nvidia.com/v1")
	viper.SetDefault("llm.kimi.model", "moonshotai/kimi-k2-instruct")
	viper.SetDefault("llm.gemini.provider", "openai")
	viper.SetDefault("llm.gemini.base_url", "https://generativelanguage.googleapis.com/v1beta/openai/")
	viper.SetDefault("llm.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("llm.claude.provider", "anthropic")
	viper.SetDefault("llm.claude.model", "claude-sonnet-4-20250514")

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun
}

// keyEnvFallbacks maps a provider name to the conventional API key env var
// for that service, checked when config supplies no key.
var keyEnvFallbacks = map[string]string{
	"kimi":   "NVIDIA_API_KEY",
	"gemini": "GEMINI_API_KEY",
	"claude": "ANTHROPIC_API_KEY",
}

// newCaller builds a retry-wrapped LLM caller for the named provider block
// under llm.<name> in config.
func newCaller(name string) (llm.Caller, error) {
	prefix := "llm." + name + "."
	if viper.GetString(prefix+"provider") == "" {
		return nil, fmt.Errorf("unknown model %q: no llm.%s block in config", name, name)
	}

	apiKey := viper.GetString(prefix + "api_key")
	if apiKey == "" {
		if env := keyEnvFallbacks[name]; env != "" {
			apiKey = os.Getenv(env)
		}
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no API key for model %q: set llm.%s.api_key or %s", name, name, keyEnvFallbacks[name])
	}

	caller, err := llm.New(llm.ProviderConfig{
		Provider:    viper.GetString(prefix + "provider"),
		Name:        name,
		APIKey:      apiKey,
		BaseURL:     viper.GetString(prefix + "base_url"),
		Model:       viper.GetString(prefix + "model"),
		Temperature: float32(viper.GetFloat64(prefix + "temperature")),
		MaxTokens:   viper.GetInt(prefix + "max_tokens"),
		TopP:        float32(viper.GetFloat64(prefix + "top_p")),
	})
	if err != nil {
		return nil, err
	}

	return llm.WithRetry(caller, llm.RetryConfig{
		MaxAttempts: viper.GetInt("retry.max_attempts"),
		Backoff:     viper.GetDuration("retry.backoff"),
	}), nil
}

// openTranscript starts a transcript log for this run under transcript_dir.
// A transcript failure is not fatal; the run proceeds unlogged.
func openTranscript() *llm.Transcript {
	tr, err := llm.NewTranscript(viper.GetString("transcript_dir"))
	if err != nil {
		ui.Warning("transcript disabled: %v", err)
		return nil
	}
	return tr
}

func wrapTranscript(caller llm.Caller, tr *llm.Transcript) llm.Caller {
	if tr == nil {
		return caller
	}
	return llm.WithTranscript(caller, tr)
}
