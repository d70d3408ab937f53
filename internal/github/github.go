package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	gh "github.com/google/go-github/v47/github"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
)

// ErrNotFound is returned when a pull request or file does not exist.
var ErrNotFound = errors.New("not found")

// Repo identifies a repository as owner/name.
type Repo struct {
	Owner string
	Name  string
}

func (r Repo) String() string { return r.Owner + "/" + r.Name }

// ParseRepo parses "owner/name".
func ParseRepo(s string) (Repo, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repo{}, fmt.Errorf("invalid repository %q, want owner/name", s)
	}
	return Repo{Owner: owner, Name: name}, nil
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/\s]+)`)
)

// ParseRemoteURL extracts owner/name from a git remote URL.
func ParseRemoteURL(remote string) (Repo, error) {
	remote = strings.TrimSuffix(strings.TrimSpace(remote), ".git")
	if m := httpsRemoteRe.FindStringSubmatch(remote); len(m) == 3 {
		return Repo{Owner: m[1], Name: m[2]}, nil
	}
	if m := sshRemoteRe.FindStringSubmatch(remote); len(m) == 3 {
		return Repo{Owner: m[1], Name: m[2]}, nil
	}
	return Repo{}, fmt.Errorf("cannot parse owner/repo from remote URL: %s", remote)
}

// PullRequest is the metadata sift needs from a pull request.
type PullRequest struct {
	Number  int
	Title   string
	Body    string
	HeadSHA string
	BaseRef string
}

// Client wraps a go-github client.
type Client struct {
	gh     *gh.Client
	logger hclog.Logger
}

// NewClient creates a client authenticated with token. apiURL overrides the
// API root for GitHub Enterprise (for example https://ghe.example.com/api/v3).
func NewClient(token, apiURL string, logger hclog.Logger) (*Client, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	client := gh.NewClient(httpClient)
	if apiURL != "" {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		base, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("parsing GitHub API URL: %w", err)
		}
		client.BaseURL = base
	}
	return &Client{gh: client, logger: logger.Named("github")}, nil
}

// PullRequest fetches pull request metadata.
func (c *Client) PullRequest(ctx context.Context, repo Repo, number int) (*PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, repo.Owner, repo.Name, number)
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("fetching PR %s#%d", repo, number))
	}
	return &PullRequest{
		Number:  pr.GetNumber(),
		Title:   pr.GetTitle(),
		Body:    pr.GetBody(),
		HeadSHA: pr.GetHead().GetSHA(),
		BaseRef: pr.GetBase().GetRef(),
	}, nil
}

// PullRequestDiff fetches the unified diff of a pull request.
func (c *Client) PullRequestDiff(ctx context.Context, repo Repo, number int) (string, error) {
	raw, _, err := c.gh.PullRequests.GetRaw(ctx, repo.Owner, repo.Name, number, gh.RawOptions{Type: gh.Diff})
	if err != nil {
		return "", wrapError(err, fmt.Sprintf("fetching diff for PR %s#%d", repo, number))
	}
	return raw, nil
}

// Files returns a fetcher that reads files of repo.
func (c *Client) Files(repo Repo) *Files {
	return &Files{client: c, repo: repo}
}

// Files reads repository files through the contents API.
type Files struct {
	client *Client
	repo   Repo
}

// FileContent returns the decoded content of path at ref.
func (f *Files) FileContent(ctx context.Context, path, ref string) (string, error) {
	opts := &gh.RepositoryContentGetOptions{Ref: ref}
	file, _, _, err := f.client.gh.Repositories.GetContents(ctx, f.repo.Owner, f.repo.Name, path, opts)
	if err != nil {
		return "", wrapError(err, "fetching "+path)
	}
	if file == nil {
		return "", fmt.Errorf("%s is a directory: %w", path, ErrNotFound)
	}
	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return content, nil
}

// ReviewComment is an inline comment on the new side of the diff.
type ReviewComment struct {
	Path string
	Line int
	Body string
}

// ReviewRequest is a pull request review to post.
type ReviewRequest struct {
	CommitID string
	Body     string
	Event    string
	Comments []ReviewComment
}

// PostReview posts a review. When GitHub rejects the inline comments (a line
// outside the diff yields 422), the review is retried with the body only.
func (c *Client) PostReview(ctx context.Context, repo Repo, number int, req ReviewRequest) error {
	err := c.createReview(ctx, repo, number, req)
	var ghErr *gh.ErrorResponse
	if err != nil && len(req.Comments) > 0 && errors.As(err, &ghErr) &&
		ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusUnprocessableEntity {
		c.logger.Warn("inline comments rejected, posting summary only", "pr", number, "comments", len(req.Comments))
		req.Comments = nil
		err = c.createReview(ctx, repo, number, req)
	}
	if err != nil {
		return wrapError(err, fmt.Sprintf("posting review to %s#%d", repo, number))
	}
	return nil
}

func (c *Client) createReview(ctx context.Context, repo Repo, number int, req ReviewRequest) error {
	event := req.Event
	if event == "" {
		event = "COMMENT"
	}
	payload := &gh.PullRequestReviewRequest{
		Body:  gh.String(req.Body),
		Event: gh.String(event),
	}
	if req.CommitID != "" {
		payload.CommitID = gh.String(req.CommitID)
	}
	for _, cm := range req.Comments {
		payload.Comments = append(payload.Comments, &gh.DraftReviewComment{
			Path: gh.String(cm.Path),
			Line: gh.Int(cm.Line),
			Side: gh.String("RIGHT"),
			Body: gh.String(cm.Body),
		})
	}
	_, _, err := c.gh.PullRequests.CreateReview(ctx, repo.Owner, repo.Name, number, payload)
	return err
}

func wrapError(err error, action string) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", action, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", action, err)
}
