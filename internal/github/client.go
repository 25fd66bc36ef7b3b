package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.github.com"

// Client talks to the GitHub REST API (comment publishing) and fetches
// unified diffs from diff_url locations. All requests are bounded by
// the underlying http.Client timeout.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		token:      token,
	}
}

// FetchDiff does a plain GET against diffURL and returns the unified
// diff text. diff_url targets are served without authentication for
// public repositories; the token is sent anyway so private ones work.
func (c *Client) FetchDiff(ctx context.Context, diffURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, diffURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating diff request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching diff: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching diff: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading diff body: %w", err)
	}

	return string(body), nil
}

// PostComment posts text as a comment on the given PR. GitHub treats
// PR comments as issue comments, hence the /issues/ path.
func (c *Client) PostComment(ctx context.Context, repo string, number int64, text string) error {
	payload, err := json.Marshal(map[string]string{"body": text})
	if err != nil {
		return fmt.Errorf("marshaling comment: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/issues/%d/comments", c.baseURL, repo, number)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating comment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting comment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("posting comment: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
