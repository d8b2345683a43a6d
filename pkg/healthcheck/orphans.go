package healthcheck

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/jingkaihe/skill-doctor/pkg/logger"
	"github.com/jingkaihe/skill-doctor/pkg/manifest"
)

const (
	scriptsDir    = "scripts"
	referencesDir = "references"
	assetsDir     = "assets"
)

// ResourceDirs are the recognized resource subdirectories in scan order
var ResourceDirs = []string{scriptsDir, referencesDir, assetsDir}

// CheckOrphans reports resource files that the manifest text never mentions.
// A file counts as mentioned when its slash-separated path relative to the
// skill root, or any of its ancestor directories followed by "/", appears
// anywhere in text. Coverage is plain substring containment.
//
// Mentioning "scripts/" anywhere exempts the whole assets directory, since
// assets are usually consumed by a script rather than named individually.
func CheckOrphans(ctx context.Context, skillDir, text string, ignore []string) []Finding {
	var findings []Finding

	assetsCovered := strings.Contains(text, scriptsDir+"/") && isDir(filepath.Join(skillDir, assetsDir))

	for _, name := range ResourceDirs {
		if !isDir(filepath.Join(skillDir, name)) {
			continue
		}
		if name == assetsDir && assetsCovered {
			logger.G(ctx).WithField("skill", filepath.Base(skillDir)).Debug("assets covered by scripts reference")
			continue
		}

		for _, rel := range resourceFiles(ctx, skillDir, name) {
			if isIgnored(rel, ignore) || isReferenced(rel, text) {
				continue
			}
			findings = append(findings, newFinding(
				CategoryOrphan,
				SeverityWarn,
				fmt.Sprintf("%s -- not referenced in %s", rel, manifest.FileName),
			))
		}
	}

	return findings
}

// resourceFiles lists the regular files under the resource directory name
// as slash paths relative to skillDir. A symlinked resource directory is
// resolved before the walk, and entries are visited in lexical order.
func resourceFiles(ctx context.Context, skillDir, name string) []string {
	var files []string

	root, err := filepath.EvalSymlinks(filepath.Join(skillDir, name))
	if err != nil {
		logger.G(ctx).WithError(err).WithField("directory", name).Warn("skipping unresolvable resource directory")
		return nil
	}

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.G(ctx).WithError(err).WithField("path", path).Warn("skipping unreadable resource entry")
			return nil
		}
		if d.IsDir() || !isRegularFile(path, d) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		files = append(files, name+"/"+filepath.ToSlash(rel))
		return nil
	})

	return files
}

func isReferenced(rel, text string) bool {
	if strings.Contains(text, rel) {
		return true
	}

	parts := strings.Split(rel, "/")
	for i := 1; i < len(parts); i++ {
		if strings.Contains(text, strings.Join(parts[:i], "/")+"/") {
			return true
		}
	}

	return false
}

func isIgnored(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// isRegularFile follows symlinks so that a link to a file counts as a file
func isRegularFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
