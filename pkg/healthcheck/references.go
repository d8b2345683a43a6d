package healthcheck

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/jingkaihe/skill-doctor/pkg/manifest"
)

// backtickReference matches `scripts/...`, `references/...` and `assets/...`
// spans without nested backticks or whitespace. Whitespace covers the Unicode
// space separators, NEL and the information separators as well as ASCII.
var backtickReference = regexp.MustCompile("`((?:scripts|references|assets)/[^`\\s\\p{Z}\\x{85}\\x{1c}-\\x{1f}]+)`")

// CheckReferences reports every backtick-quoted resource path in text that
// does not exist under skillDir. Each occurrence is reported with its
// 1-based line number; repeated references are not merged.
func CheckReferences(skillDir, text string) []Finding {
	var findings []Finding

	for i, line := range manifest.SplitLines(text) {
		for _, match := range backtickReference.FindAllStringSubmatch(line, -1) {
			ref := match[1]
			if _, err := os.Stat(filepath.Join(skillDir, filepath.FromSlash(ref))); err == nil {
				continue
			}
			findings = append(findings, newFinding(
				CategoryBroken,
				SeverityError,
				fmt.Sprintf("%s -- referenced at line %d but missing", ref, i+1),
			))
		}
	}

	return findings
}
