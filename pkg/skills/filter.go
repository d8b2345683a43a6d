package skills

import (
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// CompilePatterns compiles skill name patterns such as "pdf-*" or "{lint,format}"
func CompilePatterns(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid skill name pattern %q", pattern)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// FilterByPatterns keeps the skill directories whose name matches any of the
// patterns, preserving order. If patterns is empty all directories are returned.
func FilterByPatterns(dirs []string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return dirs, nil
	}

	globs, err := CompilePatterns(patterns)
	if err != nil {
		return nil, err
	}

	filtered := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		name := filepath.Base(dir)
		for _, g := range globs {
			if g.Match(name) {
				filtered = append(filtered, dir)
				break
			}
		}
	}
	return filtered, nil
}
