package snyk

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/sirupsen/logrus"
)

var ErrUnexpectedStatusCode = errors.New("unexpected status code")

// Per-call socket timeouts.
const (
	ListTimeout     = 30 * time.Second
	DeleteTimeout   = 30 * time.Second
	ExportTimeout   = 60 * time.Second
	DownloadTimeout = 300 * time.Second
)

type Client struct {
	BaseURL    string
	APIVersion string
	Token      string
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

func NewClient(baseURL string, apiVersion string, token string, httpClient *http.Client, logger *logrus.Logger) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIVersion: apiVersion,
		Token:      token,
		HTTPClient: httpClient,
		Logger:     logger,
	}
}

// NewHttpClient returns a client with certificate verification on unless
// insecureSkipTLSVerify is set.
func NewHttpClient(insecureSkipTLSVerify bool) *http.Client {
	transport := cleanhttp.DefaultPooledTransport()
	if insecureSkipTLSVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicit opt-out
	}
	return &http.Client{Transport: transport}
}

func (client *Client) Headers() http.Header {
	headers := http.Header{}
	headers.Set("Authorization", fmt.Sprintf("token %s", client.Token))
	headers.Set("Content-Type", "application/json")
	return headers
}

func (client *Client) restURL(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("version", client.APIVersion)
	return fmt.Sprintf("%s/rest/%s?%s", client.BaseURL, strings.TrimLeft(path, "/"), query.Encode())
}

// resolveLink turns a pagination link into an absolute URL. The API returns
// links relative to the base URL.
func (client *Client) resolveLink(link string) string {
	if parsed, err := url.Parse(link); err == nil && parsed.IsAbs() {
		return link
	}
	return client.BaseURL + link
}

type response struct {
	StatusCode int
	Body       []byte
}

func (client *Client) do(ctx context.Context, method string, requestURL string, payload any, headers http.Header, timeout time.Duration) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("error marshaling request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	client.Logger.Tracef("%s %s", method, requestURL)

	res, err := client.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &response{StatusCode: res.StatusCode, Body: resBody}, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatusCode, res.StatusCode, strings.TrimSpace(string(resBody)))
	}

	return &response{StatusCode: res.StatusCode, Body: resBody}, nil
}

func (client *Client) doJSON(ctx context.Context, method string, requestURL string, payload any, timeout time.Duration, out any) ([]byte, error) {
	res, err := client.do(ctx, method, requestURL, payload, client.Headers(), timeout)
	if err != nil {
		return nil, err
	}
	if out != nil {
		if err := json.Unmarshal(res.Body, out); err != nil {
			return nil, fmt.Errorf("error unmarshaling response: %w", err)
		}
	}
	return res.Body, nil
}
