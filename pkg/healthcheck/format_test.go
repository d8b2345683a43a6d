package healthcheck

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func disableColor(t *testing.T) {
	t.Helper()
	previous := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = previous })
}

func sampleReport() *Report {
	report := NewReport()
	report.Add("alpha", []Finding{
		newFinding(CategoryOrphan, SeverityWarn, "scripts/x.py -- not referenced in SKILL.md"),
		newFinding(CategoryBroken, SeverityError, "references/gone.md -- referenced at line 3 but missing"),
		newFinding(CategoryBudget, SeverityOK, "10/500 lines, ~20/5000 tokens"),
		newFinding(CategoryTrigger, SeverityInfo, "overlap with beta: cleanup (0.25)"),
	})
	report.Add("beta", nil)
	report.Add("gamma", []Finding{
		newFinding(CategoryStructure, SeverityError, "SKILL.md not found"),
	})
	return report
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"text", "json", "yaml", "JSON"} {
		format, err := ParseFormat(name)
		require.NoError(t, err)
		assert.Contains(t, Formats, format)
	}

	_, err := ParseFormat("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported report format")
}

func TestWriteReportText(t *testing.T) {
	disableColor(t)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, sampleReport(), FormatText))

	expected := `=== Skill Doctor ===
Skills: 3 found

-- alpha --
  [orphan]   WARN  scripts/x.py -- not referenced in SKILL.md
  [broken]   ERR   references/gone.md -- referenced at line 3 but missing
  [budget]   OK    10/500 lines, ~20/5000 tokens
  [trigger]  INFO  overlap with beta: cleanup (0.25)

-- beta --
  All checks passed.

-- gamma --
  [structure]ERR   SKILL.md not found

-- SUMMARY --
ERR: 2 | WARN: 1 | INFO: 1
`
	assert.Equal(t, expected, buf.String())
}

func TestWriteReportTextEmpty(t *testing.T) {
	disableColor(t)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, NewReport(), FormatText))
	assert.Equal(t, "=== Skill Doctor ===\nSkills: 0 found\n\n-- SUMMARY --\nERR: 0 | WARN: 0 | INFO: 0\n", buf.String())
}

func TestWriteReportTextColor(t *testing.T) {
	previous := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = previous })

	report := NewReport()
	report.Add("alpha", []Finding{newFinding(CategoryBroken, SeverityError, "missing")})

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, report, FormatText))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "ERR  ")
}

func TestWriteReportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, sampleReport(), FormatJSON))

	var decoded struct {
		Skills []struct {
			Name     string    `json:"name"`
			Findings []Finding `json:"findings"`
		} `json:"skills"`
		Summary Summary `json:"summary"`
		Failed  bool    `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	require.Len(t, decoded.Skills, 3)
	assert.Equal(t, "alpha", decoded.Skills[0].Name)
	assert.Len(t, decoded.Skills[0].Findings, 4)
	assert.Equal(t, CategoryTrigger, decoded.Skills[0].Findings[3].Category)
	assert.NotNil(t, decoded.Skills[1].Findings)
	assert.Empty(t, decoded.Skills[1].Findings)
	assert.Equal(t, Summary{Errors: 2, Warnings: 1, Infos: 1}, decoded.Summary)
	assert.True(t, decoded.Failed)
	assert.Contains(t, buf.String(), `"findings": []`)
}

func TestWriteReportYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, sampleReport(), FormatYAML))

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, true, decoded["failed"])
	summary, ok := decoded["summary"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 2, summary["errors"])
	assert.Contains(t, buf.String(), "severity: ERR")
	assert.Contains(t, buf.String(), "- name: beta\n    findings: []")
}

func TestReportSchema(t *testing.T) {
	schema := ReportSchema()
	require.NotNil(t, schema)

	data, err := json.Marshal(schema)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"skills"`)
	assert.Contains(t, string(data), `"summary"`)
	assert.Contains(t, string(data), `"failed"`)
	assert.Contains(t, string(data), `"structure"`)
}
