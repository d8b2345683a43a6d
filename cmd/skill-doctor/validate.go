package main

import (
	"os"

	"github.com/jingkaihe/skill-doctor/pkg/healthcheck"
	"github.com/jingkaihe/skill-doctor/pkg/presenter"
	"github.com/jingkaihe/skill-doctor/pkg/skills"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ValidateConfig holds configuration for the validate command
type ValidateConfig struct {
	All       bool
	SkillsDir string
}

// NewValidateConfig creates a new ValidateConfig with default values
func NewValidateConfig() *ValidateConfig {
	return &ValidateConfig{
		All:       false,
		SkillsDir: "skills",
	}
}

var validateCmd = &cobra.Command{
	Use:   "validate [skill]",
	Short: "Validate skill frontmatter",
	Long: `Validate the SKILL.md frontmatter of one skill, or with --all of every
subdirectory of the skills directory.

A skill passes when its name is present, equals the directory name, uses only
lowercase letters, digits and inner hyphens and is at most 64 characters, its
description is present and at most 1024 characters, and SKILL.md is within
the max-lines budget.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getValidateConfigFromFlags(cmd)

		if len(args) == 0 && !config.All {
			cmd.Help()
			os.Exit(1)
		}

		problems, err := runValidate(args, config)
		if err != nil {
			presenter.Error(err, "")
			os.Exit(1)
		}

		if len(problems) > 0 {
			for _, problem := range problems {
				presenter.Failure(problem.Error())
			}
			os.Exit(1)
		}

		presenter.Success("All validations passed.")
	},
}

func init() {
	defaults := NewValidateConfig()
	validateCmd.Flags().Bool("all", defaults.All, "Validate every skill in the skills directory")
	validateCmd.Flags().String("skills-dir", defaults.SkillsDir, "Skills directory used by --all")
}

// getValidateConfigFromFlags extracts validate configuration from command flags
func getValidateConfigFromFlags(cmd *cobra.Command) *ValidateConfig {
	config := NewValidateConfig()

	if all, err := cmd.Flags().GetBool("all"); err == nil {
		config.All = all
	}
	if skillsDir, err := cmd.Flags().GetString("skills-dir"); err == nil {
		config.SkillsDir = skillsDir
	}

	return config
}

// runValidate returns the validation problems of the selected skills. An
// explicit skill argument takes precedence over --all.
func runValidate(args []string, config *ValidateConfig) ([]error, error) {
	checkConfig, err := healthcheck.GetConfigFromViper()
	if err != nil {
		return nil, err
	}
	maxLines := checkConfig.Thresholds.MaxLines

	if len(args) > 0 {
		if !isDirectory(args[0]) {
			return nil, errors.Errorf("%s is not a directory", args[0])
		}
		return skills.Problems(skills.Validate(args[0], maxLines)), nil
	}

	if !isDirectory(config.SkillsDir) {
		return nil, errors.Errorf("no skills directory found at %s", config.SkillsDir)
	}

	discovery, err := skills.NewDiscovery(skills.WithSkillDirs(config.SkillsDir), skills.WithIncomplete())
	if err != nil {
		return nil, err
	}
	dirs, err := discovery.DiscoverSkillDirs()
	if err != nil {
		return nil, err
	}

	return skills.Problems(skills.ValidateAll(dirs, maxLines)), nil
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
