package skills

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jingkaihe/skill-doctor/pkg/manifest"
	"github.com/pkg/errors"
)

// Discovery finds skill directories inside configured collection directories
type Discovery struct {
	skillDirs         []string
	includeIncomplete bool
}

// Option is a function that configures a Discovery
type Option func(*Discovery) error

// WithSkillDirs sets the collection directories to scan
func WithSkillDirs(dirs ...string) Option {
	return func(d *Discovery) error {
		d.skillDirs = dirs
		return nil
	}
}

// WithDefaultDirs scans the conventional skill collection directories
func WithDefaultDirs() Option {
	return func(d *Discovery) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		d.skillDirs = []string{
			"./skills",                                   // Repository layout
			"./.claude/skills",                           // Project-local skills
			filepath.Join(homeDir, ".claude", "skills"), // User-global skills
		}
		return nil
	}
}

// WithIncomplete also returns non-hidden subdirectories that lack SKILL.md,
// so that callers can report them
func WithIncomplete() Option {
	return func(d *Discovery) error {
		d.includeIncomplete = true
		return nil
	}
}

// NewDiscovery creates a new skill discovery instance
func NewDiscovery(opts ...Option) (*Discovery, error) {
	d := &Discovery{}

	if len(opts) == 0 {
		if err := WithDefaultDirs()(d); err != nil {
			return nil, err
		}
		return d, nil
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// DiscoverSkillDirs returns the skill directories of every configured
// collection. Entries of one collection are sorted by name; when the same
// name appears in several collections the first one wins. Collections that
// do not exist are skipped.
func (d *Discovery) DiscoverSkillDirs() ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)

	for _, dir := range d.skillDirs {
		found, err := d.discoverSkillsFromDir(dir)
		if err != nil {
			return nil, err
		}
		for _, skillDir := range found {
			name := filepath.Base(skillDir)
			if seen[name] {
				continue
			}
			seen[name] = true
			dirs = append(dirs, skillDir)
		}
	}

	return dirs, nil
}

// discoverSkillsFromDir lists skill directories directly inside dir.
// Symlinked directories are followed.
func (d *Discovery) discoverSkillsFromDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read skills directory %s", dir)
	}

	var dirs []string
	for _, entry := range entries {
		entryPath := filepath.Join(dir, entry.Name())

		info, err := os.Stat(entryPath)
		if err != nil || !info.IsDir() {
			continue
		}

		if manifest.Exists(entryPath) {
			dirs = append(dirs, entryPath)
			continue
		}

		if d.includeIncomplete && !strings.HasPrefix(entry.Name(), ".") {
			dirs = append(dirs, entryPath)
		}
	}

	return dirs, nil
}
