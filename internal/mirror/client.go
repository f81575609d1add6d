// Package mirror keeps local table files consistent with a remote
// Git-hosted copy through a contents-style REST API.
//
// The remote stores each table file at a path within a repository branch.
// GET returns the object's metadata and base64 content along with an
// opaque revision marker (the blob SHA); PUT creates or updates the
// object, carrying a commit message, the new base64 content, the target
// branch, and the prior revision marker when updating. Supplying a stale
// marker makes the remote reject the write instead of silently
// overwriting another session's push.
package mirror

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a thin HTTP client for the remote contents API.
// Reads work unauthenticated against a public repository; writes
// require the bearer token.
type Client struct {
	baseURL    string
	owner      string
	repo       string
	branch     string
	token      string
	httpClient *http.Client
}

// ClientConfig holds the remote repository coordinates.
type ClientConfig struct {
	// APIBase is the API root, e.g. https://api.github.com.
	APIBase string

	// Owner and Repo identify the repository holding the table files.
	Owner string
	Repo  string

	// Branch is the target branch. Defaults to "main".
	Branch string

	// Token is the bearer token for writes. May be empty for
	// read-only use against a public repository.
	Token string
}

// NewClient creates a contents API client.
func NewClient(cfg ClientConfig) *Client {
	branch := cfg.Branch
	if branch == "" {
		branch = "main"
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.APIBase, "/"),
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		branch:  branch,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Object is the remote's view of one file.
type Object struct {
	// Content is the decoded file content.
	Content []byte

	// Revision is the opaque marker identifying this content version.
	// It must accompany the next update of the same path.
	Revision string
}

// contentResponse mirrors the API's GET response shape.
type contentResponse struct {
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// putRequest mirrors the API's PUT request shape.
type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

// Get retrieves the object at path on the configured branch.
// Returns ErrNotFound if the path does not exist.
func (c *Client) Get(ctx context.Context, path string) (*Object, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.contentsURL(path), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrRemoteUnavailable, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if err := c.checkStatus(resp.StatusCode, path, body); err != nil {
		return nil, err
	}

	var cr contentResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("parsing response for %s: %w", path, err)
	}

	content, err := decodeContent(cr)
	if err != nil {
		return nil, fmt.Errorf("decoding content of %s: %w", path, err)
	}

	return &Object{Content: content, Revision: cr.SHA}, nil
}

// Put creates or updates the object at path on the configured branch.
//
// revision must be the marker from the most recent Get of the same path,
// or empty when creating a new object. A stale marker yields ErrConflict;
// the remote content is left untouched in that case.
func (c *Client) Put(ctx context.Context, path, message string, content []byte, revision string) (*Object, error) {
	payload := putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  c.branch,
		SHA:     revision,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.contentsURL(path), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: PUT %s: %v", ErrRemoteUnavailable, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if err := c.checkStatus(resp.StatusCode, path, respBody); err != nil {
		return nil, err
	}

	// The update response nests the new blob under "content".
	var ur struct {
		Content contentResponse `json:"content"`
	}
	if err := json.Unmarshal(respBody, &ur); err != nil {
		return nil, fmt.Errorf("parsing response for %s: %w", path, err)
	}

	return &Object{Content: content, Revision: ur.Content.SHA}, nil
}

// contentsURL builds the API URL for a path on the configured branch.
func (c *Client) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		c.baseURL, c.owner, c.repo, path, url.QueryEscape(c.branch))
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// checkStatus maps HTTP status codes onto the package's sentinel errors.
func (c *Client) checkStatus(status int, path string, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s (status %d)", ErrUnauthorized, path, status)
	case status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		// Both statuses are used for revision mismatches depending on
		// whether the path moved or the SHA went stale.
		return fmt.Errorf("%w: %s", ErrConflict, path)
	case status >= 500:
		return fmt.Errorf("%w: %s (status %d)", ErrRemoteUnavailable, path, status)
	default:
		return fmt.Errorf("unexpected status %d on %s: %s", status, path, truncate(body, 200))
	}
}

// decodeContent handles the API's base64 content, which arrives with
// embedded newlines every 60 characters.
func decodeContent(cr contentResponse) ([]byte, error) {
	if cr.Encoding != "" && cr.Encoding != "base64" {
		return nil, fmt.Errorf("unsupported encoding %q", cr.Encoding)
	}
	cleaned := strings.ReplaceAll(cr.Content, "\n", "")
	return base64.StdEncoding.DecodeString(cleaned)
}

func truncate(b []byte, n int) string {
	s := string(b)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
