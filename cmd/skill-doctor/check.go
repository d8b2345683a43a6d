package main

import (
	"context"
	"io"
	"os"

	"github.com/jingkaihe/skill-doctor/pkg/healthcheck"
	"github.com/jingkaihe/skill-doctor/pkg/logger"
	"github.com/jingkaihe/skill-doctor/pkg/presenter"
	"github.com/spf13/cobra"
)

// CheckConfig holds configuration for the check command
type CheckConfig struct {
	Format string
}

// NewCheckConfig creates a new CheckConfig with default values
func NewCheckConfig() *CheckConfig {
	return &CheckConfig{
		Format: string(healthcheck.FormatText),
	}
}

// Validate validates the CheckConfig and returns an error if invalid
func (c *CheckConfig) Validate() error {
	_, err := healthcheck.ParseFormat(c.Format)
	return err
}

var checkCmd = &cobra.Command{
	Use:   "check <path>",
	Short: "Run health checks on a skill or a directory of skills",
	Long: `Run the health checks on a single skill directory (a directory holding SKILL.md)
or on a directory of skills.

A single skill is still compared against its sibling skills for trigger
overlap. The command exits with status 1 when any ERR finding is reported.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getCheckConfigFromFlags(cmd)

		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(1)
		}

		failed, err := runCheck(ctx, args[0], config, os.Stdout)
		if err != nil {
			presenter.Error(err, "")
			os.Exit(1)
		}
		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	addCheckFlags(checkCmd)
}

func addCheckFlags(cmd *cobra.Command) {
	defaults := NewCheckConfig()
	cmd.Flags().StringP("format", "f", defaults.Format, "Report format (text, json, yaml)")
}

// getCheckConfigFromFlags extracts check configuration from command flags
func getCheckConfigFromFlags(cmd *cobra.Command) *CheckConfig {
	config := NewCheckConfig()

	if format, err := cmd.Flags().GetString("format"); err == nil {
		config.Format = format
	}

	return config
}

// runCheck checks target with the configuration held by viper and writes the
// report to w. It reports whether the run found any ERR finding.
func runCheck(ctx context.Context, target string, config *CheckConfig, w io.Writer) (bool, error) {
	format, err := healthcheck.ParseFormat(config.Format)
	if err != nil {
		return false, err
	}

	runner, err := newRunnerFromViper()
	if err != nil {
		return false, err
	}

	report, err := runner.Run(ctx, target)
	if err != nil {
		return false, err
	}

	if err := healthcheck.WriteReport(w, report, format); err != nil {
		return false, err
	}

	summary := report.Summary()
	logger.G(ctx).WithFields(map[string]interface{}{
		"skills":   len(report.Skills),
		"errors":   summary.Errors,
		"warnings": summary.Warnings,
		"infos":    summary.Infos,
	}).Info("health check finished")

	return report.HasErrors(), nil
}

func newRunnerFromViper() (*healthcheck.Runner, error) {
	config, err := healthcheck.GetConfigFromViper()
	if err != nil {
		return nil, err
	}
	return healthcheck.NewRunner(config)
}
