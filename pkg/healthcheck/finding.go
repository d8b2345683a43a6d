// Package healthcheck inspects a collection of skills and reports orphaned
// resource files, broken resource references, oversized manifests and
// colliding trigger phrases between sibling skills. It never modifies the
// inspected tree.
package healthcheck

// Category identifies the check that produced a finding
type Category string

const (
	CategoryStructure Category = "structure"
	CategoryOrphan    Category = "orphan"
	CategoryBroken    Category = "broken"
	CategoryBudget    Category = "budget"
	CategoryTrigger   Category = "trigger"
)

// Severity indicates how serious a finding is
type Severity string

const (
	SeverityError Severity = "ERR"
	SeverityWarn  Severity = "WARN"
	SeverityInfo  Severity = "INFO"
	SeverityOK    Severity = "OK"
)

// Finding is a single check result
type Finding struct {
	Category Category `json:"category" yaml:"category" jsonschema:"enum=structure,enum=orphan,enum=broken,enum=budget,enum=trigger"`
	Severity Severity `json:"severity" yaml:"severity" jsonschema:"enum=ERR,enum=WARN,enum=INFO,enum=OK"`
	Message  string   `json:"message" yaml:"message"`
}

func newFinding(category Category, severity Severity, message string) Finding {
	return Finding{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}
