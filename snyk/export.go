package snyk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ben-hur-snyk/snyk-scripts/types"
)

var ErrMissingExportID = errors.New("no export ID in response")

type IExportClient interface {
	StartExport(ctx context.Context, scope types.ExportScope, request types.ExportRequest) (string, error)
	GetExportJob(ctx context.Context, scope types.ExportScope, exportID string) (*types.ExportJob, error)
	GetExport(ctx context.Context, scope types.ExportScope, exportID string) (*types.ExportJob, error)
	Download(ctx context.Context, downloadURL string) ([]byte, error)
}

func (client *Client) StartExport(ctx context.Context, scope types.ExportScope, request types.ExportRequest) (string, error) {
	exportURL := client.restURL(scope.Path()+"/export", nil)

	var envelope types.ExportJobEnvelope
	if _, err := client.doJSON(ctx, http.MethodPost, exportURL, request, ExportTimeout, &envelope); err != nil {
		return "", fmt.Errorf("error starting export for %s: %w", scope.Path(), err)
	}
	if envelope.Data.ID == "" {
		return "", ErrMissingExportID
	}
	return envelope.Data.ID, nil
}

// GetExportJob reads the job status endpoint. Once FINISHED the payload also
// lists the downloadable results.
func (client *Client) GetExportJob(ctx context.Context, scope types.ExportScope, exportID string) (*types.ExportJob, error) {
	return client.getExportPayload(ctx, client.restURL(fmt.Sprintf("%s/jobs/export/%s", scope.Path(), url.PathEscape(exportID)), nil))
}

func (client *Client) GetExport(ctx context.Context, scope types.ExportScope, exportID string) (*types.ExportJob, error) {
	return client.getExportPayload(ctx, client.restURL(fmt.Sprintf("%s/export/%s", scope.Path(), url.PathEscape(exportID)), nil))
}

func (client *Client) getExportPayload(ctx context.Context, payloadURL string) (*types.ExportJob, error) {
	var envelope types.ExportJobEnvelope
	body, err := client.doJSON(ctx, http.MethodGet, payloadURL, nil, ExportTimeout, &envelope)
	if err != nil {
		return nil, fmt.Errorf("error checking export status: %w", err)
	}
	return envelope.ToExportJob(body), nil
}

// Download fetches a pre-signed artifact URL; no authorization header is sent.
func (client *Client) Download(ctx context.Context, downloadURL string) ([]byte, error) {
	res, err := client.do(ctx, http.MethodGet, downloadURL, nil, nil, DownloadTimeout)
	if err != nil {
		return nil, fmt.Errorf("error downloading artifact: %w", err)
	}
	return res.Body, nil
}
