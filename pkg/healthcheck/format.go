package healthcheck

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format is a report output format
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the supported output formats
var Formats = []Format{FormatText, FormatJSON, FormatYAML}

// ParseFormat validates a user supplied format name
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(name, string(f)) {
			return f, nil
		}
	}
	return "", errors.Errorf("unsupported report format %q, must be one of: text, json, yaml", name)
}

// reportDocument is the structured rendering of a Report
type reportDocument struct {
	Skills  []SkillResult `json:"skills" yaml:"skills" jsonschema:"description=Checked skills in report order"`
	Summary Summary       `json:"summary" yaml:"summary" jsonschema:"description=Finding counts by severity"`
	Failed  bool          `json:"failed" yaml:"failed" jsonschema:"description=True when at least one ERR finding exists"`
}

func newReportDocument(report *Report) reportDocument {
	skills := report.Skills
	if skills == nil {
		skills = []SkillResult{}
	}
	return reportDocument{
		Skills:  skills,
		Summary: report.Summary(),
		Failed:  report.HasErrors(),
	}
}

// ReportSchema returns the JSON schema of the json and yaml report formats
func ReportSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(reportDocument{})
}

// WriteReport renders report to w in the given format
func WriteReport(w io.Writer, report *Report, format Format) error {
	switch format {
	case FormatText, "":
		return writeText(w, report)
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return errors.Wrap(encoder.Encode(newReportDocument(report)), "failed to encode report as json")
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(newReportDocument(report)); err != nil {
			return errors.Wrap(err, "failed to encode report as yaml")
		}
		return errors.Wrap(encoder.Close(), "failed to encode report as yaml")
	default:
		return errors.Errorf("unsupported report format %q", format)
	}
}

var severityColors = map[Severity]*color.Color{
	SeverityError: color.New(color.FgRed, color.Bold),
	SeverityWarn:  color.New(color.FgYellow, color.Bold),
	SeverityInfo:  color.New(color.FgCyan),
	SeverityOK:    color.New(color.FgGreen),
}

func writeText(w io.Writer, report *Report) error {
	var b strings.Builder

	b.WriteString("=== Skill Doctor ===\n")
	fmt.Fprintf(&b, "Skills: %d found\n\n", len(report.Skills))

	for _, skill := range report.Skills {
		fmt.Fprintf(&b, "-- %s --\n", skill.Name)
		if len(skill.Findings) == 0 {
			b.WriteString("  All checks passed.\n")
		}
		for _, f := range skill.Findings {
			category := fmt.Sprintf("%-11s", "["+string(f.Category)+"]")
			severity := fmt.Sprintf("%-5s", string(f.Severity))
			if c, ok := severityColors[f.Severity]; ok {
				severity = c.Sprint(severity)
			}
			fmt.Fprintf(&b, "  %s%s %s\n", category, severity, f.Message)
		}
		b.WriteString("\n")
	}

	summary := report.Summary()
	b.WriteString("-- SUMMARY --\n")
	fmt.Fprintf(&b, "ERR: %d | WARN: %d | INFO: %d\n", summary.Errors, summary.Warnings, summary.Infos)

	_, err := io.WriteString(w, b.String())
	return errors.Wrap(err, "failed to write report")
}
