package export

import "github.com/ben-hur-snyk/snyk-scripts/types"

const (
	requestType = "resource"
	dataset     = "issues"
	formatCSV   = "csv"
)

var GroupIssueColumns = []string{
	"GROUP_PUBLIC_ID",
	"GROUP_SLUG",
	"ORG_PUBLIC_ID",
	"ORG_DISPLAY_NAME",
	"ISSUE_SEVERITY_RANK",
	"ISSUE_SEVERITY",
	"SCORE",
	"PROBLEM_TITLE",
	"CVE",
	"CWE",
	"PROJECT_NAME",
	"PROJECT_URL",
	"FIRST_INTRODUCED",
	"PRODUCT_NAME",
	"ISSUE_URL",
	"ISSUE_STATUS",
}

var OrgIssueColumns = []string{
	"PROJECT_NAME",
	"ISSUE_SEVERITY",
	"SCORE",
	"PROBLEM_TITLE",
	"FIRST_INTRODUCED",
	"PRODUCT_NAME",
	"ISSUE_URL",
	"ISSUE_STATUS",
}

// NewGroupIssuesRequest builds the group-wide issues export with pre-signed
// URLs that expire after urlExpirationSeconds.
func NewGroupIssuesRequest(introducedFrom string, introducedTo string, urlExpirationSeconds int) types.ExportRequest {
	request := newIssuesRequest(GroupIssueColumns, introducedFrom, introducedTo)
	request.Data.Attributes.URLExpirationSeconds = urlExpirationSeconds
	return request
}

func NewOrgIssuesRequest(introducedFrom string, introducedTo string) types.ExportRequest {
	return newIssuesRequest(OrgIssueColumns, introducedFrom, introducedTo)
}

func newIssuesRequest(columns []string, introducedFrom string, introducedTo string) types.ExportRequest {
	return types.ExportRequest{
		Data: types.ExportRequestData{
			Type: requestType,
			Attributes: types.ExportRequestAttributes{
				Columns: append([]string(nil), columns...),
				Dataset: dataset,
				Filters: types.ExportFilters{
					Introduced: types.DateRange{From: introducedFrom, To: introducedTo},
				},
				Formats: []string{formatCSV},
			},
		},
	}
}
