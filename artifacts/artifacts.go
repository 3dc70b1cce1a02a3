package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	jsonclient "github.com/ben-hur-snyk/snyk-scripts/json"
	"github.com/ben-hur-snyk/snyk-scripts/types"
)

const (
	ResultFileName = "result.json"

	GroupCsvFileFormat = "csv_%d.csv"
	OrgCsvFileFormat   = "csv_file_%d.csv"
)

type IDownloader interface {
	Download(ctx context.Context, downloadURL string) ([]byte, error)
}

type IArtifactClient interface {
	SaveResult(job *types.ExportJob) (string, error)
	DownloadAll(ctx context.Context, results []types.ExportResult, notify DownloadNotify) ([]string, error)
}

// DownloadNotify reports progress as index of total, starting at 1.
type DownloadNotify func(index int, total int)

type ArtifactClient struct {
	Fs                afero.Fs
	OutputFolderPath  string
	CsvFileNameFormat string
	Downloader        IDownloader
	JsonClient        jsonclient.IJsonClient
	Logger            *logrus.Logger
}

func NewArtifactClient(fs afero.Fs, outputFolderPath string, csvFileNameFormat string, downloader IDownloader, logger *logrus.Logger) *ArtifactClient {
	return &ArtifactClient{
		Fs:                fs,
		OutputFolderPath:  outputFolderPath,
		CsvFileNameFormat: csvFileNameFormat,
		Downloader:        downloader,
		JsonClient:        jsonclient.NewJsonClient(fs, outputFolderPath, logger),
		Logger:            logger,
	}
}

// SaveResult persists the job payload as returned by the API, re-indented.
func (artifactClient *ArtifactClient) SaveResult(job *types.ExportJob) (string, error) {
	if len(job.Raw) == 0 || !json.Valid(job.Raw) {
		return "", fmt.Errorf("export job %s has no valid JSON payload", job.ID)
	}
	path, err := artifactClient.JsonClient.Export(json.RawMessage(job.Raw), ResultFileName)
	if err != nil {
		return "", err
	}
	artifactClient.Logger.Infof("Result saved to %s", path)
	return path, nil
}

// DownloadAll fetches every result with a URL into a numbered CSV file named
// after its position in results. A failed download is logged and skipped.
// The returned paths are the files actually written.
func (artifactClient *ArtifactClient) DownloadAll(ctx context.Context, results []types.ExportResult, notify DownloadNotify) ([]string, error) {
	if err := artifactClient.Fs.MkdirAll(artifactClient.OutputFolderPath, 0755); err != nil {
		return nil, fmt.Errorf("error creating folder %s: %w", artifactClient.OutputFolderPath, err)
	}

	files := []string{}
	for i, result := range results {
		index := i + 1
		if notify != nil {
			notify(index, len(results))
		}

		if result.URL == "" {
			artifactClient.Logger.Warnf("Result %d has no URL, skipping", index)
			continue
		}
		if err := ctx.Err(); err != nil {
			return files, err
		}

		data, err := artifactClient.Downloader.Download(ctx, result.URL)
		if err != nil {
			artifactClient.Logger.Errorf("Failed to download result %d: %v", index, err)
			continue
		}

		filePath := filepath.Join(artifactClient.OutputFolderPath, fmt.Sprintf(artifactClient.CsvFileNameFormat, index))
		if err := afero.WriteFile(artifactClient.Fs, filePath, data, 0644); err != nil {
			artifactClient.Logger.Errorf("Failed to write %s: %v", filePath, err)
			continue
		}

		artifactClient.Logger.Infof("Downloaded %s (%d bytes)", filePath, len(data))
		files = append(files, filePath)
	}

	return files, nil
}
