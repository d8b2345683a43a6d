package skills

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
	"github.com/jingkaihe/skill-doctor/pkg/manifest"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

const (
	// MaxNameLength is the longest allowed skill name
	MaxNameLength = 64
	// MaxDescriptionLength is the longest allowed skill description
	MaxDescriptionLength = 1024
)

var namePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// LoadSkill loads the skill in dir, parsing its frontmatter as YAML.
// Frontmatter that is not valid YAML, such as a plain description holding
// "Use when: ..." or several quoted phrases, falls back to the flat
// key/value reading used by the health checks. Missing frontmatter yields
// empty metadata.
func LoadSkill(dir string) (*Skill, error) {
	content, err := os.ReadFile(manifest.Path(dir))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse markdown")
	}

	text := string(content)

	var name, description string
	metaData, err := meta.TryGet(pctx)
	if err != nil {
		fields := manifest.ParseFrontmatter(text)
		name, description = fields["name"], fields["description"]
	} else {
		name, _ = metaData["name"].(string)
		description, _ = metaData["description"].(string)
	}

	return &Skill{
		Name:        name,
		Description: strings.TrimSpace(description),
		Directory:   dir,
		LineCount:   len(manifest.SplitLines(text)),
	}, nil
}

// Validate checks the name and description rules of the skill in dir.
// All problems are returned together as a *multierror.Error, each prefixed
// with the directory name.
func Validate(dir string, maxLines int) error {
	dirName := filepath.Base(filepath.Clean(dir))

	if !manifest.Exists(dir) {
		return multierror.Append(nil, errors.Errorf("%s: missing %s", dirName, manifest.FileName))
	}

	skill, err := LoadSkill(dir)
	if err != nil {
		return multierror.Append(nil, errors.Wrap(err, dirName))
	}

	var result *multierror.Error
	fail := func(format string, args ...interface{}) {
		result = multierror.Append(result, errors.Errorf("%s: %s", dirName, fmt.Sprintf(format, args...)))
	}

	name := skill.Name
	switch {
	case name == "":
		fail("frontmatter missing 'name'")
	case name != dirName:
		fail("name '%s' does not match directory name", name)
	}
	if name != "" && !namePattern.MatchString(name) {
		fail("name '%s' contains invalid characters", name)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		fail("name exceeds %d chars", MaxNameLength)
	}

	if skill.Description == "" {
		fail("frontmatter missing 'description'")
	}
	if utf8.RuneCountInString(skill.Description) > MaxDescriptionLength {
		fail("description exceeds %d chars", MaxDescriptionLength)
	}

	if skill.LineCount > maxLines {
		fail("%s has %d lines (max %d)", manifest.FileName, skill.LineCount, maxLines)
	}

	return result.ErrorOrNil()
}

// ValidateAll validates every directory and combines the problems
func ValidateAll(dirs []string, maxLines int) error {
	var result *multierror.Error
	for _, dir := range dirs {
		if err := Validate(dir, maxLines); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Problems flattens a validation error into its individual problems
func Problems(err error) []error {
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		return merr.Errors
	}
	return []error{err}
}
