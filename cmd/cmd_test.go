package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ben-hur-snyk/snyk-scripts/export"
	"github.com/ben-hur-snyk/snyk-scripts/logging"
	"github.com/ben-hur-snyk/snyk-scripts/targets"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	root.AddCommand(newDeleteTargetsCmd(), newExportVulnsCmd(), newStatusReportCmd())

	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDeleteTargets_MissingConfiguration(t *testing.T) {
	t.Setenv("SNYK_TOKEN", "")

	_, err := executeCommand(t, "delete-targets")

	var cfgErr *configError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "SNYK_TOKEN environment variable is not set")
	assert.Contains(t, err.Error(), "--org-id is required")
}

func TestDeleteTargets_EndToEnd(t *testing.T) {
	t.Setenv("SNYK_TOKEN", "secret")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token secret", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/rest/orgs/org-1/targets":
			fmt.Fprint(w, `{"data":[{"id":"t1","attributes":{"display_name":"repo-a"}},{"id":"t2","attributes":{"display_name":"repo-b"},"meta":{"locked":true}}],"links":{}}`)
		case r.Method == http.MethodDelete && r.URL.Path == "/rest/orgs/org-1/targets/t1":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodDelete && r.URL.Path == "/rest/orgs/org-1/targets/t2":
			http.Error(w, "locked", http.StatusConflict)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	workingFolder := t.TempDir()
	output, err := executeCommand(t, "delete-targets", "--org-id", "org-1", "--api-base-url", server.URL, "--working-folder", workingFolder)

	assert.ErrorIs(t, err, targets.ErrTargetsFailed)
	assert.Contains(t, output, "Successfully deleted target: repo-a (t1)")
	assert.Contains(t, output, "Failed to delete target: repo-b (t2)")
	assert.Contains(t, output, "Total targets: 2")
	assert.Contains(t, output, "Failed: 1")

	for _, name := range []string{targets.TargetsFileName, targets.SuccessfulTargetsFileName, targets.FailedTargetsFileName} {
		assert.FileExists(t, filepath.Join(workingFolder, name))
	}

	failed, err := os.ReadFile(filepath.Join(workingFolder, targets.FailedTargetsFileName))
	require.NoError(t, err)
	assert.Contains(t, string(failed), `"locked": true`)
}

func TestExportVulns_EndToEnd(t *testing.T) {
	t.Setenv("SNYK_TOKEN", "secret")

	var polls atomic.Int32
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/groups/group-1/export":
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.WriteHeader(http.StatusAccepted)
			fmt.Fprint(w, `{"data":{"id":"export-1"}}`)
		case "/rest/groups/group-1/jobs/export/export-1":
			if polls.Add(1) < 2 {
				fmt.Fprint(w, `{"data":{"id":"export-1","attributes":{"status":"PENDING"}}}`)
				return
			}
			fmt.Fprintf(w, `{"data":{"id":"export-1","attributes":{"status":"FINISHED","row_count":3,"results":[{"url":"%s/files/1"},{"url":""}]}}}`, server.URL)
		case "/files/1":
			assert.Empty(t, r.Header.Get("Authorization"))
			fmt.Fprint(w, "ORG_DISPLAY_NAME,ISSUE_SEVERITY,ISSUE_STATUS\nacme,High,Open\nacme,high,Open\nacme,Low,Resolved\n")
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	outputFolder := filepath.Join(t.TempDir(), "results")
	require.NoError(t, os.MkdirAll(outputFolder, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(outputFolder, "stale.csv"), []byte("old"), 0644))

	output, err := executeCommand(t, "export-vulns",
		"--group-id", "group-1",
		"--date-from", "2025-01-01",
		"--date-to", "2025-01-31",
		"--output-folder", outputFolder,
		"--api-url", server.URL,
		"--poll-interval", "1ms",
	)

	require.NoError(t, err)
	assert.Equal(t, int32(2), polls.Load())
	assert.Contains(t, output, "Export job started with ID: export-1")
	assert.Contains(t, output, "Downloaded 1 CSV file(s)")
	assert.Contains(t, output, "Results Review - Status: Open")

	assert.NoFileExists(t, filepath.Join(outputFolder, "stale.csv"))
	assert.FileExists(t, filepath.Join(outputFolder, "result.json"))
	assert.FileExists(t, filepath.Join(outputFolder, "csv_1.csv"))
	assert.NoFileExists(t, filepath.Join(outputFolder, "csv_2.csv"))
	assert.FileExists(t, filepath.Join(outputFolder, "issues-Resolved.csv"))
	assert.FileExists(t, filepath.Join(outputFolder, logging.LogFileName(time.Now())))

	summary, err := os.ReadFile(filepath.Join(outputFolder, "summary-Open.csv"))
	require.NoError(t, err)
	assert.Equal(t, "ORG_DISPLAY_NAME,CRITICAL,HIGH,MEDIUM,LOW\nacme,0,2,0,0\n", string(summary))
}

func TestExportVulns_ErroredJobDownloadsNothing(t *testing.T) {
	t.Setenv("SNYK_TOKEN", "secret")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/groups/group-1/export":
			fmt.Fprint(w, `{"data":{"id":"export-1"}}`)
		case "/rest/groups/group-1/jobs/export/export-1":
			fmt.Fprint(w, `{"data":{"id":"export-1","attributes":{"status":"ERRORED"}}}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	outputFolder := t.TempDir()
	_, err := executeCommand(t, "export-vulns",
		"--group-id", "group-1",
		"--date-from", "2025-01-01",
		"--date-to", "2025-01-31",
		"--output-folder", outputFolder,
		"--api-url", server.URL,
		"--poll-interval", "1ms",
	)

	assert.ErrorIs(t, err, export.ErrExportErrored)
	assert.NoFileExists(t, filepath.Join(outputFolder, "result.json"))
	matches, _ := filepath.Glob(filepath.Join(outputFolder, "csv_*.csv"))
	assert.Empty(t, matches)
}

func TestStatusReport_EndToEnd(t *testing.T) {
	t.Setenv("SNYK_TOKEN", "secret")

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/orgs/org-1/export":
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			fmt.Fprint(w, `{"data":{"id":"export-1"}}`)
		case "/rest/orgs/org-1/jobs/export/export-1":
			fmt.Fprint(w, `{"data":{"id":"export-1","attributes":{}}}`)
		case "/rest/orgs/org-1/export/export-1":
			fmt.Fprintf(w, `{"data":{"id":"export-1","attributes":{"row_count":2,"results":[{"url":"%s/files/1"}]}}}`, server.URL)
		case "/files/1":
			fmt.Fprint(w, "PROJECT_NAME,ISSUE_SEVERITY,ISSUE_STATUS\np,Critical,Open\np,Critical,Ignored\n")
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	outputFolder := t.TempDir()
	output, err := executeCommand(t, "status-report",
		"--org-id", "org-1",
		"--output-folder", outputFolder,
		"--api-url", server.URL,
		"--poll-interval", "1ms",
	)

	require.NoError(t, err)
	assert.Contains(t, output, "Total records processed: 2")
	assert.FileExists(t, filepath.Join(outputFolder, "csv", "csv_file_1.csv"))

	content, err := os.ReadFile(filepath.Join(outputFolder, fmt.Sprintf("report_%s.json", time.Now().Format("2006-01-02"))))
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal(content, &report))
	assert.Equal(t, "org-1", report["org_id"])
	critical := report["report"].(map[string]any)["critical"].(map[string]any)
	assert.Equal(t, float64(2), critical["total"])
	assert.Equal(t, float64(1), critical["open"])
	assert.Equal(t, float64(1), critical["ignored"])
}
