package types

import "strings"

const (
	ColumnOrgDisplayName = "ORG_DISPLAY_NAME"
	ColumnIssueSeverity  = "ISSUE_SEVERITY"
	ColumnIssueStatus    = "ISSUE_STATUS"

	UnknownIssueStatus = "Unknown"
)

type IssueRow map[string]string

type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// ParseSeverity matches case-insensitively against the four known labels only.
func ParseSeverity(value string) (Severity, bool) {
	value = strings.TrimSpace(value)
	for _, severity := range Severities {
		if strings.EqualFold(string(severity), value) {
			return severity, true
		}
	}
	return "", false
}

type SeverityCounts struct {
	Critical int
	High     int
	Medium   int
	Low      int
}

func (counts *SeverityCounts) Add(severity Severity) {
	switch severity {
	case SeverityCritical:
		counts.Critical++
	case SeverityHigh:
		counts.High++
	case SeverityMedium:
		counts.Medium++
	case SeverityLow:
		counts.Low++
	}
}

type SummaryRow struct {
	OrgDisplayName string
	Counts         SeverityCounts
}

var SummaryHeader = []string{ColumnOrgDisplayName, "CRITICAL", "HIGH", "MEDIUM", "LOW"}

type StatusSummary struct {
	Status string
	Rows   []SummaryRow
}
