package factcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultRequestTimeout = 30 * time.Second

// HTTPClient talks to the external fact-check service over HTTP/JSON.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, apiKey, userAgent string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &HTTPClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

// Submit starts a verification job for a URL.
func (c *HTTPClient) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode submit request: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, c.baseURL+"/fact-check", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var resp SubmitResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode submit response: %w", err)
	}
	if resp.JobID == "" {
		return nil, fmt.Errorf("submit response missing job_id")
	}

	return &resp, nil
}

// Status performs a single non-blocking status check.
func (c *HTTPClient) Status(ctx context.Context, jobID string) (*StatusResponse, error) {
	data, err := c.do(ctx, http.MethodGet, c.jobURL(jobID)+"/status", nil)
	if err != nil {
		return nil, err
	}

	var resp StatusResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}

	return &resp, nil
}

// Result fetches the verdict payload of a finished job. The raw document is
// preserved alongside the interpreted fields.
func (c *HTTPClient) Result(ctx context.Context, jobID string) (*Result, error) {
	data, err := c.do(ctx, http.MethodGet, c.jobURL(jobID)+"/result", nil)
	if err != nil {
		return nil, err
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode result payload: %w", err)
	}
	result.Raw = json.RawMessage(data)

	return &result, nil
}

// Cancel asks the service to stop a job. Best-effort: callers are expected
// to ignore failures beyond logging.
func (c *HTTPClient) Cancel(ctx context.Context, jobID string) error {
	_, err := c.do(ctx, http.MethodDelete, c.jobURL(jobID), nil)
	return err
}

func (c *HTTPClient) jobURL(jobID string) string {
	return c.baseURL + "/fact-check/" + jobID
}

func (c *HTTPClient) do(ctx context.Context, method, url string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fact-check service request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(data), 512)}
	}

	return data, nil
}

// HTTPError is a non-2xx response from the external service.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("fact-check service returned HTTP %d: %s", e.StatusCode, e.Body)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
