// Package manifest reads SKILL.md manifests. It extracts the key/value pairs
// of the leading frontmatter block, reconstructs the full description value
// and derives the trigger tokens quoted inside it.
//
// Frontmatter is not parsed as YAML. ParseFrontmatter is a flat field
// lookup, while FullDescription also follows block scalars and indented
// continuation lines.
package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

const (
	// FileName is the manifest file every skill directory must contain
	FileName = "SKILL.md"

	delimiter      = "---"
	descriptionKey = "description"
)

// Manifest is the parsed frontmatter of one SKILL.md
type Manifest struct {
	Name        string
	Description string
	Fields      map[string]string
}

// Parse builds a Manifest from raw manifest text. Text without a frontmatter
// block yields an empty Manifest.
func Parse(text string) Manifest {
	fields := ParseFrontmatter(text)
	return Manifest{
		Name:        fields["name"],
		Description: FullDescription(text),
		Fields:      fields,
	}
}

// Path returns the manifest path inside skillDir
func Path(skillDir string) string {
	return filepath.Join(skillDir, FileName)
}

// Exists reports whether skillDir holds a manifest
func Exists(skillDir string) bool {
	_, err := os.Stat(Path(skillDir))
	return err == nil
}

// Load reads the manifest of skillDir with line endings normalized to "\n"
func Load(skillDir string) (string, error) {
	content, err := os.ReadFile(Path(skillDir))
	if err != nil {
		return "", errors.Wrap(err, "failed to read skill manifest")
	}
	return normalizeNewlines(string(content)), nil
}

func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// SplitLines splits text into lines at "\n", "\r\n" and "\r", and at the
// other line boundaries of Unicode text: vertical tab, form feed, the
// file, group and record separators, NEL, and the line and paragraph
// separators. A trailing boundary does not produce an extra empty line and
// empty text has no lines at all.
func SplitLines(text string) []string {
	var lines []string

	start := 0
	for i, r := range text {
		if i < start {
			continue
		}
		if !isLineBoundary(r) {
			continue
		}
		lines = append(lines, text[start:i])
		start = i + utf8.RuneLen(r)
		if r == '\r' && strings.HasPrefix(text[start:], "\n") {
			start++
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}

	return lines
}

func isLineBoundary(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// frontmatterBlock returns the text between the opening marker and the next
// occurrence of the marker. The closing marker is located by substring
// search, not by matching a whole line.
func frontmatterBlock(text string) (string, bool) {
	if !strings.HasPrefix(text, delimiter) {
		return "", false
	}
	rest := text[len(delimiter):]
	end := strings.Index(rest, delimiter)
	if end == -1 {
		return "", false
	}
	return rest[:end], true
}

// ParseFrontmatter returns the key/value pairs of the frontmatter block.
// Each line is split at its first colon and both halves are trimmed; lines
// without a colon are ignored. Missing markers yield an empty map.
func ParseFrontmatter(text string) map[string]string {
	fields := make(map[string]string)

	block, ok := frontmatterBlock(text)
	if !ok {
		return fields
	}

	for _, line := range SplitLines(strings.TrimSpace(block)) {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return fields
}

// FullDescription returns the whole description value joined into a single
// line. Block scalars ("description: >" or "description: |") collect the
// indented lines that follow; a plain value also absorbs indented
// continuation lines. The first unindented line ends the value.
func FullDescription(text string) string {
	block, ok := frontmatterBlock(text)
	if !ok {
		return ""
	}

	prefix := descriptionKey + ":"
	var parts []string
	capturing := false

	for _, line := range SplitLines(strings.TrimSpace(block)) {
		if !capturing {
			if !strings.HasPrefix(line, prefix) {
				continue
			}
			capturing = true
			value := strings.TrimSpace(strings.TrimPrefix(line, prefix))
			if strings.HasPrefix(value, ">") || strings.HasPrefix(value, "|") {
				continue
			}
			parts = append(parts, value)
			continue
		}

		if !strings.HasPrefix(line, "  ") && !strings.HasPrefix(line, "\t") {
			break
		}
		parts = append(parts, strings.TrimSpace(line))
	}

	return strings.Join(parts, " ")
}
