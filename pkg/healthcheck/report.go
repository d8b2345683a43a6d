package healthcheck

// SkillResult holds the findings of one skill in check order
type SkillResult struct {
	Name     string    `json:"name" yaml:"name"`
	Findings []Finding `json:"findings" yaml:"findings"`
}

// Summary counts findings by severity across a whole report
type Summary struct {
	Errors   int `json:"errors" yaml:"errors"`
	Warnings int `json:"warnings" yaml:"warnings"`
	Infos    int `json:"infos" yaml:"infos"`
}

// Report is the result of one run, with skills in the order they were checked
type Report struct {
	Skills []SkillResult
}

// NewReport creates an empty report
func NewReport() *Report {
	return &Report{}
}

// Add appends the findings of a skill
func (r *Report) Add(name string, findings []Finding) {
	if findings == nil {
		findings = []Finding{}
	}
	r.Skills = append(r.Skills, SkillResult{
		Name:     name,
		Findings: findings,
	})
}

// Findings returns the findings recorded for the named skill
func (r *Report) Findings(name string) ([]Finding, bool) {
	for _, skill := range r.Skills {
		if skill.Name == name {
			return skill.Findings, true
		}
	}
	return nil, false
}

// Summary counts ERR, WARN and INFO findings. OK findings are not counted.
func (r *Report) Summary() Summary {
	var s Summary
	for _, skill := range r.Skills {
		for _, f := range skill.Findings {
			switch f.Severity {
			case SeverityError:
				s.Errors++
			case SeverityWarn:
				s.Warnings++
			case SeverityInfo:
				s.Infos++
			}
		}
	}
	return s
}

// HasErrors reports whether any finding has ERR severity
func (r *Report) HasErrors() bool {
	return r.Summary().Errors > 0
}
