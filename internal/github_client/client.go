package github_client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rizkywidodo/TugasAkhir/internal/models"

	"go.uber.org/zap"
)

var (
	// ErrInvalidURL means the URL does not look like a GitHub issue link.
	// It is reported before any network call is made.
	ErrInvalidURL = errors.New("invalid GitHub issue URL")
	// ErrIssueNotFound means the issue resource could not be retrieved.
	ErrIssueNotFound = errors.New("issue not found")
)

// Issue is the fetch result: the issue title plus the ordered comment list,
// where the non-empty issue body is comment #0 attributed to the issue author
// and the remaining comments follow in API (oldest-first) order.
type Issue struct {
	Title    string
	Number   string
	Comments []models.Comment
}

// Client fetches issues and their comments from the GitHub REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a GitHub API client. The token is optional; when a token
// is rejected with a 401 the request is retried once anonymously so an
// expired credential degrades to anonymous rate limits instead of failing.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type issuePayload struct {
	Title string     `json:"title"`
	Body  string     `json:"body"`
	User  githubUser `json:"user"`
}

type commentPayload struct {
	Body string     `json:"body"`
	User githubUser `json:"user"`
}

type githubUser struct {
	Login string `json:"login"`
}

// ParseIssueURL splits an issue URL path into owner, repo and issue number.
// The path must have exactly the shape /{owner}/{repo}/issues/{number}.
func ParseIssueURL(issueURL string) (owner, repo, number string, err error) {
	parsed, err := url.Parse(issueURL)
	if err != nil {
		return "", "", "", ErrInvalidURL
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) != 4 || parts[2] != "issues" {
		return "", "", "", ErrInvalidURL
	}

	return parts[0], parts[1], parts[3], nil
}

// FetchIssue retrieves an issue's title and ordered comment sequence. A
// failure to fetch the comments list degrades to an empty comment list with a
// warning; a failure to fetch the issue itself is ErrIssueNotFound.
func (c *Client) FetchIssue(ctx context.Context, issueURL string) (*Issue, error) {
	owner, repo, number, err := ParseIssueURL(issueURL)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Fetching GitHub issue",
		zap.String("owner", owner),
		zap.String("repo", repo),
		zap.String("issue", number))

	issueAPI := fmt.Sprintf("%s/repos/%s/%s/issues/%s", c.baseURL, owner, repo, number)

	var issue issuePayload
	status, err := c.getJSON(ctx, issueAPI, &issue)
	if err != nil {
		return nil, fmt.Errorf("fetching issue: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: GitHub returned status %d", ErrIssueNotFound, status)
	}

	comments := make([]models.Comment, 0)
	if body := strings.TrimSpace(issue.Body); body != "" {
		comments = append(comments, models.Comment{
			Author:      loginOrUnknown(issue.User.Login),
			Text:        body,
			IssueNumber: number,
		})
	}

	var rawComments []commentPayload
	status, err = c.getJSON(ctx, issueAPI+"/comments", &rawComments)
	if err != nil || status != http.StatusOK {
		c.logger.Warn("Failed to fetch issue comments, continuing with issue body only",
			zap.Int("status", status), zap.Error(err))
	} else {
		for _, comment := range rawComments {
			text := strings.TrimSpace(comment.Body)
			if text == "" {
				continue
			}
			comments = append(comments, models.Comment{
				Author:      loginOrUnknown(comment.User.Login),
				Text:        text,
				IssueNumber: number,
			})
		}
	}

	c.logger.Info("Extracted issue comments",
		zap.String("title", issue.Title),
		zap.Int("comments", len(comments)))

	return &Issue{Title: issue.Title, Number: number, Comments: comments}, nil
}

// getJSON performs an authenticated GET, retrying once without credentials
// when a configured token is rejected with 401.
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) (int, error) {
	resp, err := c.doGet(ctx, endpoint, c.token)
	if err != nil {
		return 0, err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.token != "" {
		resp.Body.Close()
		c.logger.Warn("GitHub token rejected, retrying anonymously", zap.String("endpoint", endpoint))
		resp, err = c.doGet(ctx, endpoint, "")
		if err != nil {
			return 0, err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("parsing response: %w", err)
	}
	return resp.StatusCode, nil
}

func (c *Client) doGet(ctx context.Context, endpoint, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "Issue-Classifier")
	if token != "" {
		req.Header.Set("Authorization", "token "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

func loginOrUnknown(login string) string {
	if login == "" {
		return "Unknown"
	}
	return login
}
