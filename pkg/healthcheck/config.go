package healthcheck

import (
	"github.com/bmatcuk/doublestar/v4"
	"github.com/jingkaihe/skill-doctor/pkg/manifest"
	"github.com/jingkaihe/skill-doctor/pkg/skills"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Thresholds are the limits the checks classify against
type Thresholds struct {
	MaxLines            int     `mapstructure:"max_lines" json:"max_lines" yaml:"max_lines"`
	MaxTokens           int     `mapstructure:"max_tokens" json:"max_tokens" yaml:"max_tokens"`
	CharsPerToken       int     `mapstructure:"chars_per_token" json:"chars_per_token" yaml:"chars_per_token"`
	MinTriggerLength    int     `mapstructure:"min_trigger_length" json:"min_trigger_length" yaml:"min_trigger_length"`
	OverlapWarnRatio    float64 `mapstructure:"overlap_warn_ratio" json:"overlap_warn_ratio" yaml:"overlap_warn_ratio"`
	OverlapDisplayLimit int     `mapstructure:"overlap_display_limit" json:"overlap_display_limit" yaml:"overlap_display_limit"`
}

// DefaultThresholds returns the stock limits
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxLines:            500,
		MaxTokens:           5000,
		CharsPerToken:       4,
		MinTriggerLength:    manifest.DefaultMinTriggerLength,
		OverlapWarnRatio:    0.3,
		OverlapDisplayLimit: 5,
	}
}

// Validate returns an error if any limit is unusable
func (t Thresholds) Validate() error {
	if t.MaxLines <= 0 {
		return errors.Errorf("max_lines must be positive, got %d", t.MaxLines)
	}
	if t.MaxTokens <= 0 {
		return errors.Errorf("max_tokens must be positive, got %d", t.MaxTokens)
	}
	if t.CharsPerToken <= 0 {
		return errors.Errorf("chars_per_token must be positive, got %d", t.CharsPerToken)
	}
	if t.MinTriggerLength <= 0 {
		return errors.Errorf("min_trigger_length must be positive, got %d", t.MinTriggerLength)
	}
	if t.OverlapWarnRatio < 0 || t.OverlapWarnRatio > 1 {
		return errors.Errorf("overlap_warn_ratio must be between 0 and 1, got %v", t.OverlapWarnRatio)
	}
	if t.OverlapDisplayLimit <= 0 {
		return errors.Errorf("overlap_display_limit must be positive, got %d", t.OverlapDisplayLimit)
	}
	return nil
}

// Config holds everything a Runner needs for one invocation
type Config struct {
	Thresholds Thresholds `mapstructure:"thresholds"`

	// Ignore lists doublestar patterns of resource paths, relative to the
	// skill root, that are never reported as orphans.
	Ignore []string `mapstructure:"ignore"`

	// Only restricts the checked skills to names matching these glob
	// patterns. The trigger cohort is never restricted.
	Only []string `mapstructure:"only"`

	// IncludeIncomplete checks every non-hidden subdirectory of a skills
	// collection, so directories missing SKILL.md are reported.
	IncludeIncomplete bool `mapstructure:"include_incomplete"`

	Profile  string                            `mapstructure:"profile"`
	Profiles map[string]map[string]interface{} `mapstructure:"profiles"`
}

// DefaultConfig returns a Config with the stock thresholds and no filters
func DefaultConfig() Config {
	return Config{
		Thresholds: DefaultThresholds(),
	}
}

// Validate checks the thresholds and every pattern
func (c Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return errors.Wrap(err, "invalid thresholds")
	}
	for _, pattern := range c.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid ignore pattern: %q", pattern)
		}
	}
	if _, err := skills.CompilePatterns(c.Only); err != nil {
		return err
	}
	return nil
}

// InitConfig registers the configuration defaults with viper
func InitConfig() {
	defaults := DefaultThresholds()
	viper.SetDefault("thresholds.max_lines", defaults.MaxLines)
	viper.SetDefault("thresholds.max_tokens", defaults.MaxTokens)
	viper.SetDefault("thresholds.chars_per_token", defaults.CharsPerToken)
	viper.SetDefault("thresholds.min_trigger_length", defaults.MinTriggerLength)
	viper.SetDefault("thresholds.overlap_warn_ratio", defaults.OverlapWarnRatio)
	viper.SetDefault("thresholds.overlap_display_limit", defaults.OverlapDisplayLimit)
	viper.SetDefault("ignore", []string{})
	viper.SetDefault("only", []string{})
	viper.SetDefault("include_incomplete", false)
	viper.SetDefault("profile", "")
}

// GetConfigFromViper loads the configuration from viper and applies the
// active threshold profile on top of it
func GetConfigFromViper() (Config, error) {
	var config Config

	if err := viper.Unmarshal(&config); err != nil {
		return config, errors.Wrap(err, "failed to unmarshal configuration")
	}

	if err := config.applyProfile(); err != nil {
		return config, err
	}

	return config, config.Validate()
}

func (c *Config) applyProfile() error {
	if c.Profile == "" || c.Profile == "default" {
		return nil
	}

	profile, exists := c.Profiles[c.Profile]
	if !exists {
		return errors.Errorf("threshold profile '%s' not found", c.Profile)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &c.Thresholds,
		WeaklyTypedInput: true,
		ZeroFields:       false,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create profile decoder")
	}

	if err := decoder.Decode(profile); err != nil {
		return errors.Wrapf(err, "failed to apply threshold profile '%s'", c.Profile)
	}

	return nil
}
