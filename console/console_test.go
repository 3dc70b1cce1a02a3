package console

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ben-hur-snyk/snyk-scripts/types"
)

func newTestConsole() (*bytes.Buffer, *Console) {
	out := &bytes.Buffer{}
	console := NewConsole(out)
	console.NoColor = true
	return out, console
}

func TestConsole_Lines(t *testing.T) {
	out, console := newTestConsole()

	console.Step(2, "Starting export job...")
	console.Success("Export job started with ID: %s", "export-1")
	console.Field("Group ID", "group-1")
	console.Error("HTTP Error", errors.New("unexpected status code: 500"))

	assert.Equal(t, "Step 2: Starting export job...\n"+
		"✓ Export job started with ID: export-1\n"+
		"Group ID: group-1\n"+
		"HTTP Error: unexpected status code: 500\n", out.String())
}

func TestConsole_Banner(t *testing.T) {
	out, console := newTestConsole()

	console.Banner("SUMMARY")

	lines := bytes.Split(bytes.TrimRight(out.Bytes(), "\n"), []byte("\n"))
	assert.Len(t, lines, 3)
	assert.Equal(t, "SUMMARY", string(bytes.TrimSpace(lines[1])))
	assert.Equal(t, lines[0], lines[2])
}

func TestConsole_SummaryTablesSkipsEmptyStatuses(t *testing.T) {
	out, console := newTestConsole()

	console.SummaryTables([]types.StatusSummary{
		{Status: "Ignored"},
		{Status: "Open", Rows: []types.SummaryRow{{OrgDisplayName: "acme", Counts: types.SeverityCounts{Critical: 4, Low: 1}}}},
	})

	output := out.String()
	assert.NotContains(t, output, "Status: Ignored")
	assert.Contains(t, output, "Results Review - Status: Open")
	assert.Contains(t, output, "ORG_DISPLAY_NAME")
	assert.Contains(t, output, "acme")
	assert.Regexp(t, `acme\s+\|\s+4\s+\|\s+0\s+\|\s+0\s+\|\s+1`, output)
}

func TestConsole_SummaryTablesWithoutData(t *testing.T) {
	out, console := newTestConsole()

	console.SummaryTables(nil)

	assert.Equal(t, "No summary data to display.\n", out.String())
}

func TestConsole_ReportTable(t *testing.T) {
	out, console := newTestConsole()
	report := &types.Report{Date: "2025-06-01", OrgID: "org-1"}
	report.Report.High = types.ReportStats{Total: 3, Open: 2, Resolved: 1}

	console.ReportTable(report)

	output := out.String()
	assert.Contains(t, output, "Status report org-1 - 2025-06-01")
	assert.Regexp(t, `High\s+\|\s+3\s+\|\s+2\s+\|\s+0\s+\|\s+1`, output)
}

func TestSpinner_UpdateAndStop(t *testing.T) {
	_, console := newTestConsole()

	spinner := console.Spinner("Waiting for export to complete...")
	spinner.Update("Checking export status (attempt 2)...")
	spinner.Stop()

	assert.Equal(t, " Checking export status (attempt 2)...", spinner.spinner.Suffix)
}
