package artifacts

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ben-hur-snyk/snyk-scripts/types"
)

type mockDownloader struct {
	payloads map[string]string
	calls    []string
}

func (m *mockDownloader) Download(ctx context.Context, downloadURL string) ([]byte, error) {
	m.calls = append(m.calls, downloadURL)
	payload, ok := m.payloads[downloadURL]
	if !ok {
		return nil, errors.New("403 Forbidden")
	}
	return []byte(payload), nil
}

func newTestArtifactClient(fs afero.Fs, downloader IDownloader) *ArtifactClient {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewArtifactClient(fs, "/results", GroupCsvFileFormat, downloader, logger)
}

func TestDownloadAll_SkipsEmptyUrls(t *testing.T) {
	fs := afero.NewMemMapFs()
	downloader := &mockDownloader{payloads: map[string]string{
		"https://s3/a": "A",
		"https://s3/c": "C",
	}}
	results := []types.ExportResult{{URL: "https://s3/a"}, {URL: ""}, {URL: "https://s3/c"}}

	logger, hook := logtest.NewNullLogger()
	client := NewArtifactClient(fs, "/results", GroupCsvFileFormat, downloader, logger)

	progress := []int{}
	files, err := client.DownloadAll(context.Background(), results, func(index int, total int) {
		assert.Equal(t, 3, total)
		progress = append(progress, index)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"/results/csv_1.csv", "/results/csv_3.csv"}, files)
	assert.Equal(t, []int{1, 2, 3}, progress)
	assert.Len(t, downloader.calls, 2)

	exists, _ := afero.Exists(fs, "/results/csv_2.csv")
	assert.False(t, exists)
	content, err := afero.ReadFile(fs, "/results/csv_3.csv")
	require.NoError(t, err)
	assert.Equal(t, "C", string(content))

	warnings := []string{}
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings = append(warnings, entry.Message)
		}
	}
	assert.Equal(t, []string{"Result 2 has no URL, skipping"}, warnings)
}

func TestDownloadAll_ContinuesAfterFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	downloader := &mockDownloader{payloads: map[string]string{"https://s3/b": "B"}}
	results := []types.ExportResult{{URL: "https://s3/expired"}, {URL: "https://s3/b"}}

	files, err := newTestArtifactClient(fs, downloader).DownloadAll(context.Background(), results, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"/results/csv_2.csv"}, files)
}

func TestDownloadAll_OrgFileNames(t *testing.T) {
	fs := afero.NewMemMapFs()
	downloader := &mockDownloader{payloads: map[string]string{"https://s3/a": "A"}}
	client := newTestArtifactClient(fs, downloader)
	client.OutputFolderPath = "/report/csv"
	client.CsvFileNameFormat = OrgCsvFileFormat

	files, err := client.DownloadAll(context.Background(), []types.ExportResult{{URL: "https://s3/a"}}, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"/report/csv/csv_file_1.csv"}, files)
}

func TestSaveResult(t *testing.T) {
	fs := afero.NewMemMapFs()
	job := &types.ExportJob{ID: "export-1", Raw: []byte(`{"data":{"id":"export-1"}}`)}

	path, err := newTestArtifactClient(fs, &mockDownloader{}).SaveResult(job)

	require.NoError(t, err)
	assert.Equal(t, "/results/result.json", path)
	content, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.JSONEq(t, string(job.Raw), string(content))
	assert.Contains(t, string(content), "\n  \"data\"")
}

func TestSaveResult_InvalidPayload(t *testing.T) {
	_, err := newTestArtifactClient(afero.NewMemMapFs(), &mockDownloader{}).SaveResult(&types.ExportJob{ID: "export-1"})
	assert.Error(t, err)
}
