package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stockbot/state"
	"stockbot/types"
)

// DataResponse mirrors GET /api/data.
type DataResponse struct {
	Companies  []types.Company  `json:"companies"`
	Catalysts  []types.Catalyst `json:"catalysts"`
	Digests    []types.Digest   `json:"digests"`
	TweetCount int              `json:"tweetCount"`
}

// TriggerResult is the common part of every trigger response.
type TriggerResult struct {
	Success bool   `json:"success"`
	RunID   string `json:"runId"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client is a thin HTTP client for the service API.
type Client struct {
	baseURL string
	client  *http.Client

	// Triggers run synchronously on the server and can take minutes.
	triggerClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		client:        &http.Client{Timeout: 5 * time.Second},
		triggerClient: &http.Client{Timeout: 30 * time.Minute},
	}
}

// GetStatus fetches the current run status.
func (c *Client) GetStatus() (*state.StatusResponse, error) {
	var status state.StatusResponse
	if err := c.get("/api/status", &status); err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return &status, nil
}

// GetData fetches companies, catalysts and digests.
func (c *Client) GetData() (*DataResponse, error) {
	var data DataResponse
	if err := c.get("/api/data", &data); err != nil {
		return nil, fmt.Errorf("failed to get data: %w", err)
	}
	return &data, nil
}

// Trigger posts to one of the trigger routes. Runs that failed on the server
// are returned as a result with Success false, not as an error.
func (c *Client) Trigger(path string, body any) (*TriggerResult, error) {
	payload := []byte("{}")
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, err
		}
	}

	resp, err := c.triggerClient.Post(c.baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to trigger %s: %w", path, err)
	}
	defer resp.Body.Close()

	var result TriggerResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("server returned %d: %w", resp.StatusCode, err)
	}
	return &result, nil
}

func (c *Client) get(path string, out any) error {
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
