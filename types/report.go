package types

type Report struct {
	Date   string       `json:"date"`
	OrgID  string       `json:"org_id,omitempty"`
	Report ReportDetail `json:"report"`
}

type ReportDetail struct {
	Critical ReportStats `json:"critical"`
	High     ReportStats `json:"high"`
	Medium   ReportStats `json:"medium"`
	Low      ReportStats `json:"low"`
}

type ReportStats struct {
	Total    int `json:"total"`
	Open     int `json:"open"`
	Ignored  int `json:"ignored"`
	Resolved int `json:"resolved"`
}

func (detail *ReportDetail) Stats(severity Severity) *ReportStats {
	switch severity {
	case SeverityCritical:
		return &detail.Critical
	case SeverityHigh:
		return &detail.High
	case SeverityMedium:
		return &detail.Medium
	case SeverityLow:
		return &detail.Low
	}
	return nil
}

func (stats *ReportStats) Add(status string) {
	stats.Total++
	switch status {
	case "Open":
		stats.Open++
	case "Ignored":
		stats.Ignored++
	case "Resolved":
		stats.Resolved++
	}
}
