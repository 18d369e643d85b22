package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "gpqa-train"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage gpqa-train configuration.

Running bare 'gpqa-train config' is the same as 'gpqa-train config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# gpqa-train configuration
# See: gpqa-train config show (for effective values and sources)

# Batch files from 'generate' land here; 'review' reads the newest one.
# batch_dir: {{ .BatchDir }}

# Reviewed output directories
# verified_dir: {{ .VerifiedDir }}
# rejected_dir: {{ .RejectedDir }}

# Raw model call transcripts
# transcript_dir: {{ .TranscriptDir }}

screen:
  # Screening policy: "conjunctive" or "critique-validate"
  policy: "{{ .ScreenPolicy }}"

  # Reviewer model names, resolved against the llm blocks below.
  # Conjunctive: first model re-answers the question blind, the rest judge.
  # Critique-validate: exactly two models, critic then validator.
  reviewers: [{{ range $i, $r := .ScreenReviewers }}{{ if $i }}, {{ end }}"{{ $r }}"{{ end }}]

  # Minimum wait between model calls
  delay: "{{ .ScreenDelay }}"

retry:
  # Attempts per call when the provider rate-limits, including the first
  max_attempts: {{ .RetryMaxAttempts }}
  backoff: "{{ .RetryBackoff }}"

generate:
  # Model name from the llm blocks below
  model: "{{ .GenerateModel }}"
  count: {{ .GenerateCount }}

# Model endpoints. API keys may also come from NVIDIA_API_KEY,
# GEMINI_API_KEY, ANTHROPIC_API_KEY, or OPENAI_API_KEY.
llm:
  kimi:
    provider: "openai"
    base_url: "{{ .KimiBaseURL }}"
    model: "{{ .KimiModel }}"
    # api_key: ""
  gemini:
    provider: "openai"
    base_url: "{{ .GeminiBaseURL }}"
    model: "{{ .GeminiModel }}"
    # api_key: ""
  claude:
    provider: "anthropic"
    model: "{{ .ClaudeModel }}"
    # api_key: ""
`

type configTemplateData struct {
	BatchDir         string
	VerifiedDir      string
	RejectedDir      string
	TranscriptDir    string
	ScreenPolicy     string
	ScreenReviewers  []string
	ScreenDelay      string
	RetryMaxAttempts int
	RetryBackoff     string
	GenerateModel    string
	GenerateCount    int
	KimiBaseURL      string
	KimiModel        string
	GeminiBaseURL    string
	GeminiModel      string
	ClaudeModel      string
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	// Build template data from current viper values
	data := configTemplateData{
		BatchDir:         viper.GetString("batch_dir"),
		VerifiedDir:      viper.GetString("verified_dir"),
		RejectedDir:      viper.GetString("rejected_dir"),
		TranscriptDir:    viper.GetString("transcript_dir"),
		ScreenPolicy:     viper.GetString("screen.policy"),
		ScreenReviewers:  viper.GetStringSlice("screen.reviewers"),
		ScreenDelay:      viper.GetString("screen.delay"),
		RetryMaxAttempts: viper.GetInt("retry.max_attempts"),
		RetryBackoff:     viper.GetString("retry.backoff"),
		GenerateModel:    viper.GetString("generate.model"),
		GenerateCount:    viper.GetInt("generate.count"),
		KimiBaseURL:      viper.GetString("llm.kimi.base_url"),
		KimiModel:        viper.GetString("llm.kimi.model"),
		GeminiBaseURL:    viper.GetString("llm.gemini.base_url"),
		GeminiModel:      viper.GetString("llm.gemini.model"),
		ClaudeModel:      viper.GetString("llm.claude.model"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if dryRun {
		ui.DryRunMsg("Would create config file: %s", cfgPath)
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, buf.String())
		return nil
	}

	// Create config directory
	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configKeyInfo describes a config key for display purposes.
type configKeyInfo struct {
	Key    string
	EnvVar string
}

var configKeys = []configKeyInfo{
	{Key: "batch_dir", EnvVar: "GPQA_TRAIN_BATCH_DIR"},
	{Key: "verified_dir", EnvVar: "GPQA_TRAIN_VERIFIED_DIR"},
	{Key: "rejected_dir", EnvVar: "GPQA_TRAIN_REJECTED_DIR"},
	{Key: "transcript_dir", EnvVar: "GPQA_TRAIN_TRANSCRIPT_DIR"},
	{Key: "screen.policy", EnvVar: "GPQA_TRAIN_SCREEN_POLICY"},
	{Key: "screen.reviewers", EnvVar: "GPQA_TRAIN_SCREEN_REVIEWERS"},
	{Key: "screen.delay", EnvVar: "GPQA_TRAIN_SCREEN_DELAY"},
	{Key: "retry.max_attempts", EnvVar: "GPQA_TRAIN_RETRY_MAX_ATTEMPTS"},
	{Key: "retry.backoff", EnvVar: "GPQA_TRAIN_RETRY_BACKOFF"},
	{Key: "generate.model", EnvVar: "GPQA_TRAIN_GENERATE_MODEL"},
	{Key: "generate.count", EnvVar: "GPQA_TRAIN_GENERATE_COUNT"},
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if config file exists
	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	// Read config file values to determine file source
	fileValues := readConfigFileValues(cfgPath)

	for _, k := range configKeys {
		val := viper.Get(k.Key)
		source := detectSource(k.Key, k.EnvVar, fileValues)
		fmt.Fprintf(ui.Out, "  %-22s %v  %s\n", k.Key, val, source)
	}

	return nil
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	// Flatten nested keys with dot notation
	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key, envVar string, fileValues map[string]bool) string {
	if _, ok := os.LookupEnv(envVar); ok {
		return fmt.Sprintf("(env: %s)", envVar)
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set, set it to your preferred editor (e.g. export EDITOR=vim)")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'gpqa-train config init' first)", cfgPath)
	}

	if dryRun {
		ui.DryRunMsg("Would open %s in %s", cfgPath, editor)
		return nil
	}

	editCmd := exec.Command(editor, cfgPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}
