package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ttbonn/reviewagent/internal/adapter/httpx"
	"github.com/ttbonn/reviewagent/internal/domain"
)

const (
	serviceName = "github"

	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of an error response body is carried
	// into error messages and logs.
	maxErrorBody = 512
)

// Client is an HTTP client for the GitHub REST API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	retryConf  httpx.RetryConfig
	logger     httpx.Logger
}

// NewClient creates a new GitHub API client with the given token.
// The token should be a personal access token or GITHUB_TOKEN from Actions.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryConf:  httpx.DefaultRetryConfig(),
		logger:     httpx.SilentLogger{},
	}
}

// SetBaseURL sets a custom base URL (for testing or GitHub Enterprise).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetRetryConfig overrides the retry behavior.
func (c *Client) SetRetryConfig(conf httpx.RetryConfig) {
	c.retryConf = conf
}

// SetLogger installs a structured logger for API calls.
func (c *Client) SetLogger(logger httpx.Logger) {
	c.logger = logger
}

// GetPullRequest fetches pull request metadata.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (domain.PullRequest, error) {
	var payload pullRequestPayload
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, number)
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return domain.PullRequest{}, fmt.Errorf("get pull request %s/%s#%d: %w", owner, repo, number, err)
	}
	return payload.toDomain(), nil
}

// ListPullRequestFiles fetches the changed files of a pull request,
// including each file's raw patch text when the host provides one.
func (c *Client) ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]domain.FileChange, error) {
	var payload []filePayload
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/files", owner, repo, number)
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, fmt.Errorf("list files for %s/%s#%d: %w", owner, repo, number, err)
	}

	files := make([]domain.FileChange, 0, len(payload))
	for _, f := range payload {
		files = append(files, f.toDomain())
	}
	return files, nil
}

// CreateReview posts a pull request review with inline comments.
func (c *Client) CreateReview(ctx context.Context, input CreateReviewInput) (*CreateReviewResponse, error) {
	body := struct {
		CommitID string          `json:"commit_id,omitempty"`
		Event    ReviewEvent     `json:"event"`
		Body     string          `json:"body"`
		Comments []ReviewComment `json:"comments,omitempty"`
	}{
		CommitID: input.CommitSHA,
		Event:    input.Event,
		Body:     input.Body,
		Comments: input.Comments,
	}

	var resp CreateReviewResponse
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/reviews", input.Owner, input.Repo, input.PullNumber)
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, fmt.Errorf("create review on %s/%s#%d: %w", input.Owner, input.Repo, input.PullNumber, err)
	}
	return &resp, nil
}

// ListReviews fetches the submitted reviews on a pull request.
func (c *Client) ListReviews(ctx context.Context, owner, repo string, number int) ([]domain.ReviewSummary, error) {
	var payload []reviewPayload
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/reviews", owner, repo, number)
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, fmt.Errorf("list reviews for %s/%s#%d: %w", owner, repo, number, err)
	}

	reviews := make([]domain.ReviewSummary, 0, len(payload))
	for _, r := range payload {
		reviews = append(reviews, r.toDomain())
	}
	return reviews, nil
}

// GetCombinedStatus fetches the aggregate commit status for a ref.
func (c *Client) GetCombinedStatus(ctx context.Context, owner, repo, ref string) (domain.CombinedStatus, error) {
	var payload combinedStatusPayload
	path := fmt.Sprintf("/repos/%s/%s/commits/%s/status", owner, repo, ref)
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return domain.CombinedStatus{}, fmt.Errorf("combined status for %s/%s@%s: %w", owner, repo, ref, err)
	}
	return domain.CombinedStatus{State: payload.State, TotalCount: payload.TotalCount}, nil
}

// MergePullRequest merges an open pull request using the given method
// (merge, squash, or rebase).
func (c *Client) MergePullRequest(ctx context.Context, owner, repo string, number int, method, commitTitle string) (MergeResult, error) {
	body := struct {
		CommitTitle string `json:"commit_title,omitempty"`
		MergeMethod string `json:"merge_method"`
	}{
		CommitTitle: commitTitle,
		MergeMethod: method,
	}

	var result MergeResult
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/merge", owner, repo, number)
	if err := c.do(ctx, http.MethodPut, path, body, &result); err != nil {
		return MergeResult{}, fmt.Errorf("merge %s/%s#%d: %w", owner, repo, number, err)
	}
	return result, nil
}

// GetRef resolves a branch ref (e.g. "heads/main") to its commit SHA.
func (c *Client) GetRef(ctx context.Context, owner, repo, ref string) (string, error) {
	var payload struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	path := fmt.Sprintf("/repos/%s/%s/git/ref/%s", owner, repo, ref)
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return "", fmt.Errorf("get ref %s on %s/%s: %w", ref, owner, repo, err)
	}
	return payload.Object.SHA, nil
}

// CreateRef creates a new branch ref pointing at the given commit.
func (c *Client) CreateRef(ctx context.Context, owner, repo, ref, sha string) error {
	body := struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	}{
		Ref: "refs/" + ref,
		SHA: sha,
	}
	path := fmt.Sprintf("/repos/%s/%s/git/refs", owner, repo)
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("create ref %s on %s/%s: %w", ref, owner, repo, err)
	}
	return nil
}

// DeleteRef deletes a branch ref (e.g. "heads/feature-x").
func (c *Client) DeleteRef(ctx context.Context, owner, repo, ref string) error {
	path := fmt.Sprintf("/repos/%s/%s/git/refs/%s", owner, repo, ref)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete ref %s on %s/%s: %w", ref, owner, repo, err)
	}
	return nil
}

// CreateFile commits a new file on a branch via the contents API.
func (c *Client) CreateFile(ctx context.Context, owner, repo, path, branch, message string, content []byte) error {
	body := struct {
		Message string `json:"message"`
		Content string `json:"content"`
		Branch  string `json:"branch,omitempty"`
	}{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  branch,
	}
	apiPath := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, path)
	if err := c.do(ctx, http.MethodPut, apiPath, body, nil); err != nil {
		return fmt.Errorf("create file %s on %s/%s: %w", path, owner, repo, err)
	}
	return nil
}

// CreateIssue opens a new issue.
func (c *Client) CreateIssue(ctx context.Context, owner, repo, title, issueBody string, labels []string) (domain.Issue, error) {
	body := struct {
		Title  string   `json:"title"`
		Body   string   `json:"body"`
		Labels []string `json:"labels,omitempty"`
	}{
		Title:  title,
		Body:   issueBody,
		Labels: labels,
	}

	var payload issuePayload
	path := fmt.Sprintf("/repos/%s/%s/issues", owner, repo)
	if err := c.do(ctx, http.MethodPost, path, body, &payload); err != nil {
		return domain.Issue{}, fmt.Errorf("create issue on %s/%s: %w", owner, repo, err)
	}
	return payload.toDomain(), nil
}

// CreateIssueComment posts a general comment on an issue or pull request.
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, number int, comment string) error {
	body := struct {
		Body string `json:"body"`
	}{Body: comment}

	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, repo, number)
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("comment on %s/%s#%d: %w", owner, repo, number, err)
	}
	return nil
}

// CreatePull opens a new pull request from head into base.
func (c *Client) CreatePull(ctx context.Context, owner, repo, title, prBody, head, base string) (domain.PullRequest, error) {
	body := struct {
		Title string `json:"title"`
		Body  string `json:"body"`
		Head  string `json:"head"`
		Base  string `json:"base"`
	}{
		Title: title,
		Body:  prBody,
		Head:  head,
		Base:  base,
	}

	var payload pullRequestPayload
	path := fmt.Sprintf("/repos/%s/%s/pulls", owner, repo)
	if err := c.do(ctx, http.MethodPost, path, body, &payload); err != nil {
		return domain.PullRequest{}, fmt.Errorf("create pull request on %s/%s: %w", owner, repo, err)
	}
	return payload.toDomain(), nil
}

// do executes one API call with retry, decoding a JSON response into out
// when out is non-nil. Request bodies are re-marshaled per attempt so a
// retry never reuses a consumed reader.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	url := c.baseURL + path

	return httpx.RetryWithBackoff(ctx, func(ctx context.Context) error {
		start := time.Now()
		c.logger.LogRequest(ctx, httpx.RequestLog{
			Service:   serviceName,
			Method:    method,
			Endpoint:  path,
			Timestamp: start,
			Token:     c.token,
		})

		var reader io.Reader
		if jsonBody != nil {
			reader = bytes.NewReader(jsonBody)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return &httpx.Error{
				Type:    httpx.ErrTypeInvalidRequest,
				Message: err.Error(),
				Service: serviceName,
			}
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/vnd.github+json")
		if jsonBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			transportErr := httpx.NewTransportError(serviceName, err.Error())
			c.logger.LogError(ctx, httpx.ErrorLog{
				Service:   serviceName,
				Endpoint:  path,
				Timestamp: time.Now(),
				Duration:  time.Since(start),
				Error:     transportErr,
				Retryable: true,
			})
			return transportErr
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			apiErr := httpx.FromStatusCode(serviceName, resp.StatusCode, string(snippet))
			c.logger.LogError(ctx, httpx.ErrorLog{
				Service:    serviceName,
				Endpoint:   path,
				Timestamp:  time.Now(),
				Duration:   time.Since(start),
				Error:      apiErr,
				StatusCode: resp.StatusCode,
				Retryable:  apiErr.IsRetryable(),
			})
			return apiErr
		}

		c.logger.LogResponse(ctx, httpx.ResponseLog{
			Service:    serviceName,
			Method:     method,
			Endpoint:   path,
			Timestamp:  time.Now(),
			Duration:   time.Since(start),
			StatusCode: resp.StatusCode,
		})

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &httpx.Error{
				Type:    httpx.ErrTypeUnknown,
				Message: fmt.Sprintf("decode response: %v", err),
				Service: serviceName,
			}
		}
		return nil
	}, c.retryConf)
}
