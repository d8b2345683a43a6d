package healthcheck

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jingkaihe/skill-doctor/pkg/manifest"
)

// TriggerMap maps skill names to their trigger sets
type TriggerMap map[string]manifest.TriggerSet

// Names returns the skill names in lexicographic order
func (m TriggerMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Similarity returns the shared tokens of a and b and their
// intersection-over-union ratio
func Similarity(a, b manifest.TriggerSet) (manifest.TriggerSet, float64) {
	shared := a.Intersect(b)
	union := a.Union(b)
	if union.Len() == 0 {
		return shared, 0
	}
	return shared, float64(shared.Len()) / float64(union.Len())
}

// CheckTriggerOverlap compares the triggers of the named skill with every
// other skill in triggers. Skills sharing no token are skipped, and a skill
// without triggers gets no findings at all.
func CheckTriggerOverlap(name string, triggers TriggerMap, thresholds Thresholds) []Finding {
	own := triggers[name]
	if own.Len() == 0 {
		return nil
	}

	var findings []Finding
	for _, other := range triggers.Names() {
		if other == name {
			continue
		}

		shared, ratio := Similarity(own, triggers[other])
		if shared.Len() == 0 {
			continue
		}

		severity := SeverityInfo
		if ratio > thresholds.OverlapWarnRatio {
			severity = SeverityWarn
		}

		findings = append(findings, newFinding(
			CategoryTrigger,
			severity,
			fmt.Sprintf("overlap with %s: %s (%.2f)", other, formatTokens(shared.Sorted(), thresholds.OverlapDisplayLimit), ratio),
		))
	}

	return findings
}

func formatTokens(tokens []string, limit int) string {
	if len(tokens) <= limit {
		return strings.Join(tokens, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(tokens[:limit], ", "), len(tokens)-limit)
}
