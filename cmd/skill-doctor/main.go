package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jingkaihe/skill-doctor/pkg/healthcheck"
	"github.com/jingkaihe/skill-doctor/pkg/logger"
	"github.com/jingkaihe/skill-doctor/pkg/presenter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func init() {
	// Environment variables
	viper.SetEnvPrefix("SKILL_DOCTOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./.skill-doctor")
	viper.AddConfigPath("$HOME/.skill-doctor")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()

	viper.SetDefault("log_level", logger.DefaultLevel)
	viper.SetDefault("log_format", logger.DefaultFormat)
	healthcheck.InitConfig()
}

var rootCmd = &cobra.Command{
	Use:   "skill-doctor [path]",
	Short: "Static health checks for SKILL.md skill collections",
	Long: `skill-doctor inspects a skill directory, or a directory of skills, and reports
orphaned resource files, broken resource references, manifest size budget
problems and trigger phrase overlap between sibling skills.

Running it with a path is the same as "skill-doctor check <path>".`,
	Args: cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return configureOutput(cmd)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			// Forward to the check command
			checkCmd.Run(cmd, args)
		} else {
			cmd.Help()
			os.Exit(1)
		}
	},
}

// configureOutput applies the logging and color settings shared by all commands
func configureOutput(cmd *cobra.Command) error {
	if err := logger.Configure(viper.GetString("log_level"), viper.GetString("log_format")); err != nil {
		return err
	}

	if colorMode, err := cmd.Flags().GetString("color"); err == nil && colorMode != "" {
		presenter.ApplyColorMode(presenter.ParseColorMode(colorMode))
	}
	presenter.SetQuiet(viper.GetBool("quiet"))

	return nil
}

type flagBinding struct {
	key  string
	flag string
}

func bindFlags(flags *pflag.FlagSet, bindings []flagBinding) {
	for _, b := range bindings {
		viper.BindPFlag(b.key, flags.Lookup(b.flag))
	}
}

func main() {
	defaults := healthcheck.DefaultConfig()

	// Threshold and selection flags
	flags := rootCmd.PersistentFlags()
	flags.Int("max-lines", defaults.Thresholds.MaxLines, "Maximum SKILL.md lines before an ERR budget finding")
	flags.Int("max-tokens", defaults.Thresholds.MaxTokens, "Maximum estimated SKILL.md tokens before a WARN budget finding")
	flags.Int("chars-per-token", defaults.Thresholds.CharsPerToken, "Characters per token used for the token estimate")
	flags.Int("min-trigger-length", defaults.Thresholds.MinTriggerLength, "Minimum length of a trigger token")
	flags.Float64("overlap-warn-ratio", defaults.Thresholds.OverlapWarnRatio, "Trigger overlap ratio above which overlap is a WARN")
	flags.Int("overlap-display-limit", defaults.Thresholds.OverlapDisplayLimit, "Shared trigger tokens listed per overlap finding")
	flags.StringSlice("ignore", defaults.Ignore, "Resource path patterns never reported as orphans (e.g. '**/.DS_Store')")
	flags.StringSlice("only", defaults.Only, "Only check skills whose name matches one of these patterns (e.g. 'pdf-*')")
	flags.Bool("include-incomplete", defaults.IncludeIncomplete, "Report subdirectories without SKILL.md as structure errors")
	flags.String("profile", defaults.Profile, "Threshold profile from the config file")

	// Output flags
	flags.String("log-level", logger.DefaultLevel, "Log level (panic, fatal, error, warn, info, debug, trace)")
	flags.String("log-format", logger.DefaultFormat, "Log format (fmt, json)")
	flags.String("color", "", "Color output (auto, always, never); defaults to SKILL_DOCTOR_COLOR")
	flags.BoolP("quiet", "q", false, "Suppress status messages; reports and failures are still printed")

	// Bind flags to viper
	bindFlags(flags, []flagBinding{
		{"thresholds.max_lines", "max-lines"},
		{"thresholds.max_tokens", "max-tokens"},
		{"thresholds.chars_per_token", "chars-per-token"},
		{"thresholds.min_trigger_length", "min-trigger-length"},
		{"thresholds.overlap_warn_ratio", "overlap-warn-ratio"},
		{"thresholds.overlap_display_limit", "overlap-display-limit"},
		{"ignore", "ignore"},
		{"only", "only"},
		{"include_incomplete", "include-incomplete"},
		{"profile", "profile"},
		{"log_level", "log-level"},
		{"log_format", "log-format"},
		{"quiet", "quiet"},
	})

	// The root command forwards to check, so it takes the same flags
	addCheckFlags(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(versionCmd)

	// Execute
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
