package healthcheck

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jingkaihe/skill-doctor/pkg/logger"
	"github.com/jingkaihe/skill-doctor/pkg/manifest"
	"github.com/jingkaihe/skill-doctor/pkg/skills"
	"github.com/pkg/errors"
)

// Target is a resolved invocation target
type Target struct {
	Root   string   // Absolute, symlink-free path given by the user
	Single bool     // Whether Root is itself a skill directory
	Skills []string // Skill directories to check, in report order
	Cohort []string // Skill directories whose triggers are compared
}

// Runner orchestrates the checks across a skill collection
type Runner struct {
	config Config
}

// NewRunner creates a Runner after validating the configuration
func NewRunner(config Config) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Runner{config: config}, nil
}

// Config returns the configuration the runner was created with
func (r *Runner) Config() Config {
	return r.config
}

// Resolve works out which skills to check for target. A directory holding
// SKILL.md is a single skill compared against its siblings; any other
// directory is a collection whose skill subdirectories are all checked.
func (r *Runner) Resolve(target string) (*Target, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve %s", target)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, errors.Errorf("%s is not a directory", target)
	}
	if info, err := os.Stat(resolved); err != nil || !info.IsDir() {
		return nil, errors.Errorf("%s is not a directory", target)
	}

	t := &Target{Root: resolved}

	if manifest.Exists(resolved) {
		t.Single = true
		t.Skills = []string{resolved}
		t.Cohort = discoverCohort(filepath.Dir(resolved))
		if len(t.Cohort) == 0 {
			t.Cohort = []string{resolved}
		}
	} else {
		cohort, err := discover(resolved)
		if err != nil {
			return nil, err
		}
		t.Cohort = cohort
		t.Skills = cohort

		if r.config.IncludeIncomplete {
			if t.Skills, err = discover(resolved, skills.WithIncomplete()); err != nil {
				return nil, err
			}
		}
	}

	if len(t.Skills) == 0 {
		return nil, errors.Errorf("no skills found in %s", target)
	}

	filtered, err := skills.FilterByPatterns(t.Skills, r.config.Only)
	if err != nil {
		return nil, err
	}
	if len(filtered) == 0 {
		return nil, errors.Errorf("no skills in %s match %v", target, r.config.Only)
	}
	t.Skills = filtered

	return t, nil
}

func discover(dir string, opts ...skills.Option) ([]string, error) {
	discovery, err := skills.NewDiscovery(append([]skills.Option{skills.WithSkillDirs(dir)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return discovery.DiscoverSkillDirs()
}

// discoverCohort is best effort: an unreadable parent leaves the skill alone
func discoverCohort(dir string) []string {
	cohort, err := discover(dir)
	if err != nil {
		return nil
	}
	return cohort
}

// BuildTriggerMap extracts the trigger set of every skill that has a
// readable manifest
func BuildTriggerMap(ctx context.Context, skillDirs []string, minLength int) TriggerMap {
	triggers := make(TriggerMap, len(skillDirs))

	for _, dir := range skillDirs {
		if !manifest.Exists(dir) {
			continue
		}
		text, err := manifest.Load(dir)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("skill", filepath.Base(dir)).Warn("skipping skill in trigger map")
			continue
		}
		triggers[filepath.Base(dir)] = manifest.ExtractTriggers(manifest.FullDescription(text), minLength)
	}

	return triggers
}

// CheckSkill runs the checks for one skill in the order orphan, broken
// reference, budget and trigger overlap. A skill without a readable
// manifest gets a single structure finding instead.
func (r *Runner) CheckSkill(ctx context.Context, skillDir string, triggers TriggerMap) []Finding {
	if !manifest.Exists(skillDir) {
		return []Finding{newFinding(CategoryStructure, SeverityError, manifest.FileName+" not found")}
	}

	text, err := manifest.Load(skillDir)
	if err != nil {
		return []Finding{newFinding(CategoryStructure, SeverityError, fmt.Sprintf("%s could not be read: %v", manifest.FileName, err))}
	}

	findings := CheckOrphans(ctx, skillDir, text, r.config.Ignore)
	findings = append(findings, CheckReferences(skillDir, text)...)
	findings = append(findings, CheckBudget(text, r.config.Thresholds))
	findings = append(findings, CheckTriggerOverlap(filepath.Base(skillDir), triggers, r.config.Thresholds)...)

	return findings
}

// Run checks every skill selected by target and returns the report. Only a
// target that cannot be resolved produces an error.
func (r *Runner) Run(ctx context.Context, target string) (*Report, error) {
	ctx = logger.WithLogger(ctx, logger.G(ctx).WithField("run_id", uuid.NewString()))
	log := logger.G(ctx)

	t, err := r.Resolve(target)
	if err != nil {
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"root":   t.Root,
		"single": t.Single,
		"skills": len(t.Skills),
		"cohort": len(t.Cohort),
	}).Debug("resolved health check target")

	triggers := BuildTriggerMap(ctx, t.Cohort, r.config.Thresholds.MinTriggerLength)

	report := NewReport()
	for _, dir := range t.Skills {
		findings := r.CheckSkill(ctx, dir, triggers)
		report.Add(filepath.Base(dir), findings)
		log.WithField("skill", filepath.Base(dir)).WithField("findings", len(findings)).Debug("checked skill")
	}

	return report, nil
}
