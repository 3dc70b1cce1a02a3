package snyk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ben-hur-snyk/snyk-scripts/types"
)

type ITargetClient interface {
	ListTargets(ctx context.Context, orgID string) ([]types.Target, error)
	DeleteTarget(ctx context.Context, orgID string, targetID string) error
}

// ListTargets walks every page of the org's targets. Any failure aborts the
// whole listing.
func (client *Client) ListTargets(ctx context.Context, orgID string) ([]types.Target, error) {
	query := url.Values{}
	query.Set("exclude_empty", "false")
	query.Set("limit", "100")
	pageURL := client.restURL(fmt.Sprintf("orgs/%s/targets", url.PathEscape(orgID)), query)

	targets := []types.Target{}
	for page := 1; pageURL != ""; page++ {
		var targetPage types.TargetPage
		if _, err := client.doJSON(ctx, http.MethodGet, pageURL, nil, ListTimeout, &targetPage); err != nil {
			return nil, fmt.Errorf("error fetching targets: %w", err)
		}

		targets = append(targets, targetPage.Data...)
		client.Logger.Debugf("Fetched page %d with %d target(s)", page, len(targetPage.Data))

		pageURL = ""
		if targetPage.Links.Next != "" {
			pageURL = client.resolveLink(targetPage.Links.Next)
		}
	}

	return targets, nil
}

func (client *Client) DeleteTarget(ctx context.Context, orgID string, targetID string) error {
	deleteURL := client.restURL(fmt.Sprintf("orgs/%s/targets/%s", url.PathEscape(orgID), url.PathEscape(targetID)), nil)

	if _, err := client.do(ctx, http.MethodDelete, deleteURL, nil, client.Headers(), DeleteTimeout); err != nil {
		return fmt.Errorf("error deleting target %s: %w", targetID, err)
	}
	return nil
}
