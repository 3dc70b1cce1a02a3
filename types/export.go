package types

import "strings"

type ExportScopeKind string

const (
	ExportScopeGroup ExportScopeKind = "groups"
	ExportScopeOrg   ExportScopeKind = "orgs"
)

// ExportScope is the REST path segment pair an export job lives under, e.g. groups/<id>.
type ExportScope struct {
	Kind ExportScopeKind
	ID   string
}

func (scope ExportScope) Path() string {
	return string(scope.Kind) + "/" + scope.ID
}

type ExportStatus string

const (
	ExportStatusPending  ExportStatus = "PENDING"
	ExportStatusStarted  ExportStatus = "STARTED"
	ExportStatusFinished ExportStatus = "FINISHED"
	ExportStatusErrored  ExportStatus = "ERRORED"
)

func ParseExportStatus(status string) ExportStatus {
	return ExportStatus(strings.ToUpper(strings.TrimSpace(status)))
}

func (status ExportStatus) IsTerminal() bool {
	switch status {
	case ExportStatusFinished,
		ExportStatusErrored:
		return true
	default:
		return false
	}
}

type ExportRequest struct {
	Data ExportRequestData `json:"data"`
}

type ExportRequestData struct {
	Type       string                  `json:"type"`
	Attributes ExportRequestAttributes `json:"attributes"`
}

type ExportRequestAttributes struct {
	Columns              []string      `json:"columns"`
	Dataset              string        `json:"dataset"`
	Filters              ExportFilters `json:"filters"`
	Formats              []string      `json:"formats"`
	URLExpirationSeconds int           `json:"url_expiration_seconds,omitempty"`
}

type ExportFilters struct {
	Introduced DateRange `json:"introduced"`
}

type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type ExportResult struct {
	URL      string `json:"url"`
	RowCount int    `json:"row_count"`
	FileSize int    `json:"file_size"`
}

// ExportJob is the decoded view of a job status or export payload. Raw keeps
// the body exactly as the API returned it.
type ExportJob struct {
	ID       string
	Status   ExportStatus
	RowCount int
	Results  []ExportResult
	Raw      []byte
}

type ExportJobEnvelope struct {
	Data struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		Attributes struct {
			Status   string         `json:"status"`
			RowCount int            `json:"row_count"`
			Results  []ExportResult `json:"results"`
		} `json:"attributes"`
	} `json:"data"`
}

func (envelope ExportJobEnvelope) ToExportJob(raw []byte) *ExportJob {
	return &ExportJob{
		ID:       envelope.Data.ID,
		Status:   ParseExportStatus(envelope.Data.Attributes.Status),
		RowCount: envelope.Data.Attributes.RowCount,
		Results:  envelope.Data.Attributes.Results,
		Raw:      raw,
	}
}
