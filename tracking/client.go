package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultURI is where a locally run tracking server listens.
const DefaultURI = "http://localhost:5000"

// Client is the HTTP implementation of Store, speaking to a Server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the tracking server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) GetOrCreateExperiment(ctx context.Context, name string) (Experiment, error) {
	var exp Experiment
	err := c.doJSON(ctx, http.MethodPost, "/api/experiments", experimentRequest{Name: name}, &exp)
	return exp, err
}

func (c *Client) ListExperiments(ctx context.Context) ([]Experiment, error) {
	var exps []Experiment
	err := c.doJSON(ctx, http.MethodGet, "/api/experiments", nil, &exps)
	return exps, err
}

func (c *Client) CreateRun(ctx context.Context, experimentName, runName string) (Run, error) {
	var run Run
	err := c.doJSON(ctx, http.MethodPost, "/api/runs", createRunRequest{
		Experiment: experimentName,
		Name:       runName,
	}, &run)
	return run, err
}

func (c *Client) EndRun(ctx context.Context, runID string, status RunStatus) error {
	return c.doJSON(ctx, http.MethodPost, "/api/runs/"+url.PathEscape(runID)+"/end", endRunRequest{Status: status}, nil)
}

func (c *Client) GetRun(ctx context.Context, runID string) (Run, error) {
	var run Run
	err := c.doJSON(ctx, http.MethodGet, "/api/runs/"+url.PathEscape(runID), nil, &run)
	return run, err
}

func (c *Client) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	path := "/api/runs"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var runs []Run
	err := c.doJSON(ctx, http.MethodGet, path, nil, &runs)
	return runs, err
}

func (c *Client) LogParam(ctx context.Context, runID, key, value string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/runs/"+url.PathEscape(runID)+"/params",
		paramRequest{Key: key, Value: value}, nil)
}

func (c *Client) LogMetric(ctx context.Context, runID, key string, value float64) error {
	return c.doJSON(ctx, http.MethodPost, "/api/runs/"+url.PathEscape(runID)+"/metrics",
		metricRequest{Key: key, Value: value}, nil)
}

func (c *Client) LogArtifact(ctx context.Context, runID, name string, data []byte) error {
	apiURL := c.baseURL + "/api/runs/" + url.PathEscape(runID) + "/artifacts/" + name

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, apiURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload artifact %s: %w", name, err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

func (c *Client) GetArtifact(ctx context.Context, runID, name string) ([]byte, error) {
	apiURL := c.baseURL + "/api/runs/" + url.PathEscape(runID) + "/artifacts/" + name

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch artifact %s: %w", name, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

// Close is a no-op; the HTTP client holds no resources worth releasing.
func (c *Client) Close() error {
	return nil
}

// doJSON issues a request with an optional JSON body and decodes the
// response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// checkStatus maps HTTP errors back to store errors; 404 becomes
// ErrNotFound so errors.Is works across the wire.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("tracking server error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
