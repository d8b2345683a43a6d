package healthcheck

import (
	"fmt"
	"unicode/utf8"

	"github.com/jingkaihe/skill-doctor/pkg/manifest"
)

// CheckBudget measures the manifest size. The token count is a character
// count divided by a fixed ratio, not a real tokenizer. Exactly one finding
// is returned, with severity OK when both limits hold.
func CheckBudget(text string, thresholds Thresholds) Finding {
	lineCount := len(manifest.SplitLines(text))
	tokenEstimate := utf8.RuneCountInString(text) / thresholds.CharsPerToken

	severity := SeverityOK
	switch {
	case lineCount > thresholds.MaxLines:
		severity = SeverityError
	case tokenEstimate > thresholds.MaxTokens:
		severity = SeverityWarn
	}

	return newFinding(
		CategoryBudget,
		severity,
		fmt.Sprintf("%d/%d lines, ~%d/%d tokens", lineCount, thresholds.MaxLines, tokenEstimate, thresholds.MaxTokens),
	)
}
