package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
)

// DefaultTimeout bounds a single GitHub API call
const DefaultTimeout = 30 * time.Second

// Client implements the APIClient interface using the GitHub REST API.
// Reads are retried on network and rate limit failures; writes are sent
// exactly once so a retry can never duplicate a remote side effect.
type Client struct {
	client  *github.Client
	timeout time.Duration
	retry   *RetryConfig
}

// NewClient creates a new GitHub API client with the provided token
func NewClient(token string) *Client {
	return &Client{
		client:  github.NewClient(newHTTPClient(token)),
		timeout: DefaultTimeout,
		retry:   DefaultRetryConfig(),
	}
}

// SetBaseURL points the client at another API root, such as a GitHub
// Enterprise server or a test double.
func (c *Client) SetBaseURL(rawURL string) error {
	if !strings.HasSuffix(rawURL, "/") {
		rawURL += "/"
	}
	baseURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid GitHub API URL %q: %w", rawURL, err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return fmt.Errorf("invalid GitHub API URL %q: scheme and host are required", rawURL)
	}
	c.client.BaseURL = baseURL
	return nil
}

// SetTimeout sets the deadline applied to each API call
func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.timeout = timeout
	}
}

// SetRetryConfig replaces the retry policy used for reads
func (c *Client) SetRetryConfig(config *RetryConfig) {
	if config != nil {
		c.retry = config
	}
}

// read runs an idempotent call under the per-call timeout with retries
func (c *Client) read(ctx context.Context, resource string, call func(ctx context.Context) error) error {
	return WithRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		if err := call(ctx); err != nil {
			return WrapGitHubError(err, resource)
		}
		return nil
	}, c.retry)
}

// write runs a mutating call once under the per-call timeout
func (c *Client) write(ctx context.Context, resource string, call func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := call(ctx); err != nil {
		return WrapGitHubError(err, resource)
	}
	return nil
}

// GetOrganization retrieves an organisation by name
func (c *Client) GetOrganization(ctx context.Context, name string) (*Organization, error) {
	var org *github.Organization

	err := c.read(ctx, fmt.Sprintf("organisation %s", name), func(ctx context.Context) error {
		var err error
		org, _, err = c.client.Organizations.Get(ctx, name)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Organization{
		Login:   org.GetLogin(),
		Name:    org.GetName(),
		HTMLURL: org.GetHTMLURL(),
	}, nil
}

// GetUser retrieves an account by login
func (c *Client) GetUser(ctx context.Context, login string) (*User, error) {
	var user *github.User

	err := c.read(ctx, fmt.Sprintf("user %s", login), func(ctx context.Context) error {
		var err error
		user, _, err = c.client.Users.Get(ctx, login)
		return err
	})
	if err != nil {
		return nil, err
	}

	return convertGitHubUser(user), nil
}

// AuthenticatedUser returns the login and classic scopes of the token
func (c *Client) AuthenticatedUser(ctx context.Context) (*TokenInfo, error) {
	var (
		user *github.User
		resp *github.Response
	)

	err := c.read(ctx, "user (authenticated)", func(ctx context.Context) error {
		var err error
		user, resp, err = c.client.Users.Get(ctx, "")
		return err
	})
	if err != nil {
		return nil, err
	}

	info := &TokenInfo{User: user.GetLogin(), Scopes: []string{}}
	if resp != nil && resp.Response != nil {
		info.Scopes = parseScopes(resp.Header)
	}
	return info, nil
}

// GetRepository retrieves a repository by owner and name
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*Repository, error) {
	var repo *github.Repository

	err := c.read(ctx, fmt.Sprintf("repository %s/%s", owner, name), func(ctx context.Context) error {
		var err error
		repo, _, err = c.client.Repositories.Get(ctx, owner, name)
		return err
	})
	if err != nil {
		return nil, err
	}

	return convertGitHubRepository(repo), nil
}

// ListOrganizationRepositories lists every repository of an organisation
func (c *Client) ListOrganizationRepositories(ctx context.Context, org string) ([]Repository, error) {
	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var repos []Repository
	for {
		var (
			page []*github.Repository
			resp *github.Response
		)
		err := c.read(ctx, fmt.Sprintf("repository list %s", org), func(ctx context.Context) error {
			var err error
			page, resp, err = c.client.Repositories.ListByOrg(ctx, org, opts)
			return err
		})
		if err != nil {
			return nil, err
		}

		for _, repo := range page {
			repos = append(repos, *convertGitHubRepository(repo))
		}

		if resp == nil || resp.NextPage == 0 {
			return repos, nil
		}
		opts.Page = resp.NextPage
	}
}

// ListUserRepositories lists every repository owned by a personal account
func (c *Client) ListUserRepositories(ctx context.Context, user string) ([]Repository, error) {
	opts := &github.RepositoryListByUserOptions{
		Type:        "owner",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var repos []Repository
	for {
		var (
			page []*github.Repository
			resp *github.Response
		)
		err := c.read(ctx, fmt.Sprintf("repository list %s", user), func(ctx context.Context) error {
			var err error
			page, resp, err = c.client.Repositories.ListByUser(ctx, user, opts)
			return err
		})
		if err != nil {
			return nil, err
		}

		for _, repo := range page {
			repos = append(repos, *convertGitHubRepository(repo))
		}

		if resp == nil || resp.NextPage == 0 {
			return repos, nil
		}
		opts.Page = resp.NextPage
	}
}

// CreateRepository creates a repository with issues enabled. An empty org
// creates it under the authenticated user.
func (c *Client) CreateRepository(ctx context.Context, org, name string) (*Repository, error) {
	repo := &github.Repository{
		Name:      github.String(name),
		HasIssues: github.Bool(true),
	}

	var created *github.Repository

	err := c.write(ctx, fmt.Sprintf("repository %s/%s", org, name), func(ctx context.Context) error {
		var err error
		created, _, err = c.client.Repositories.Create(ctx, org, repo)
		return err
	})
	if err != nil {
		return nil, err
	}

	return convertGitHubRepository(created), nil
}

// DeleteRepository removes a repository
func (c *Client) DeleteRepository(ctx context.Context, owner, name string) error {
	return c.write(ctx, fmt.Sprintf("repository %s/%s", owner, name), func(ctx context.Context) error {
		_, err := c.client.Repositories.Delete(ctx, owner, name)
		return err
	})
}

// CreateIssue opens a new issue
func (c *Client) CreateIssue(ctx context.Context, owner, repo string, issue IssueRequest) (*Hazard, error) {
	labels := append([]string(nil), issue.Labels...)
	request := &github.IssueRequest{
		Title:  github.String(issue.Title),
		Body:   github.String(issue.Body),
		Labels: &labels,
	}

	var created *github.Issue

	err := c.write(ctx, fmt.Sprintf("issue %s/%s", owner, repo), func(ctx context.Context) error {
		var err error
		created, _, err = c.client.Issues.Create(ctx, owner, repo, request)
		return err
	})
	if err != nil {
		return nil, err
	}

	return convertGitHubIssue(created), nil
}

// GetIssue retrieves one issue. Pull requests share the issue number space
// and are reported as not found.
func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (*Hazard, error) {
	resource := fmt.Sprintf("issue %s/%s#%d", owner, repo, number)
	var issue *github.Issue

	err := c.read(ctx, resource, func(ctx context.Context) error {
		var err error
		issue, _, err = c.client.Issues.Get(ctx, owner, repo, number)
		return err
	})
	if err != nil {
		return nil, err
	}

	if issue.IsPullRequest() {
		notFound := NewGitHubError(ErrorTypeNotFound, "Number refers to a pull request, not an issue", nil)
		notFound.Resource = resource
		return nil, notFound
	}

	return convertGitHubIssue(issue), nil
}

// ListIssues lists every issue in the given state, newest first, skipping
// pull requests.
func (c *Client) ListIssues(ctx context.Context, owner, repo string, state HazardState) ([]Hazard, error) {
	opts := &github.IssueListByRepoOptions{
		State:       string(state),
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	hazards := []Hazard{}
	for {
		var (
			page []*github.Issue
			resp *github.Response
		)
		err := c.read(ctx, fmt.Sprintf("issue list %s/%s", owner, repo), func(ctx context.Context) error {
			var err error
			page, resp, err = c.client.Issues.ListByRepo(ctx, owner, repo, opts)
			return err
		})
		if err != nil {
			return nil, err
		}

		for _, issue := range page {
			if issue.IsPullRequest() {
				continue
			}
			hazards = append(hazards, *convertGitHubIssue(issue))
		}

		if resp == nil || resp.NextPage == 0 {
			return hazards, nil
		}
		opts.Page = resp.NextPage
	}
}

// ListComments returns the comment thread of an issue, oldest first
func (c *Client) ListComments(ctx context.Context, owner, repo string, number int) ([]Comment, error) {
	opts := &github.IssueListCommentsOptions{
		Sort:        github.String("created"),
		Direction:   github.String("asc"),
		ListOptions: github.ListOptions{PerPage: 100},
	}

	comments := []Comment{}
	for {
		var (
			page []*github.IssueComment
			resp *github.Response
		)
		err := c.read(ctx, fmt.Sprintf("issue %s/%s#%d comments", owner, repo, number), func(ctx context.Context) error {
			var err error
			page, resp, err = c.client.Issues.ListComments(ctx, owner, repo, number, opts)
			return err
		})
		if err != nil {
			return nil, err
		}

		for _, comment := range page {
			comments = append(comments, convertGitHubComment(comment))
		}

		if resp == nil || resp.NextPage == 0 {
			return comments, nil
		}
		opts.Page = resp.NextPage
	}
}

// CreateComment appends a comment to an issue
func (c *Client) CreateComment(ctx context.Context, owner, repo string, number int, body string) (*Comment, error) {
	var created *github.IssueComment

	err := c.write(ctx, fmt.Sprintf("issue %s/%s#%d", owner, repo, number), func(ctx context.Context) error {
		var err error
		created, _, err = c.client.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{
			Body: github.String(body),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	comment := convertGitHubComment(created)
	return &comment, nil
}

func convertGitHubUser(user *github.User) *User {
	return &User{
		Login: user.GetLogin(),
		Name:  user.GetName(),
		Type:  user.GetType(),
	}
}

func convertGitHubRepository(repo *github.Repository) *Repository {
	return &Repository{
		ID:          repo.GetID(),
		Owner:       repo.GetOwner().GetLogin(),
		Name:        repo.GetName(),
		FullName:    repo.GetFullName(),
		Description: repo.GetDescription(),
		Private:     repo.GetPrivate(),
		HTMLURL:     repo.GetHTMLURL(),
		CloneURL:    repo.GetCloneURL(),
		CreatedAt:   repo.GetCreatedAt().Time,
		UpdatedAt:   repo.GetUpdatedAt().Time,
	}
}

func convertGitHubIssue(issue *github.Issue) *Hazard {
	labels := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labels = append(labels, label.GetName())
	}

	return &Hazard{
		Number:       issue.GetNumber(),
		Title:        issue.GetTitle(),
		Body:         issue.GetBody(),
		Labels:       labels,
		State:        HazardState(issue.GetState()),
		CommentCount: issue.GetComments(),
		URL:          issue.GetHTMLURL(),
		Author:       issue.GetUser().GetLogin(),
		CreatedAt:    issue.GetCreatedAt().Time,
	}
}

func convertGitHubComment(comment *github.IssueComment) Comment {
	return Comment{
		ID:        comment.GetID(),
		Body:      comment.GetBody(),
		Author:    comment.GetUser().GetLogin(),
		CreatedAt: comment.GetCreatedAt().Time,
	}
}
