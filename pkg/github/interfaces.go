package github

import "context"

// APIClient defines the GitHub API operations the hazard log relies on
type APIClient interface {
	// Account operations
	GetOrganization(ctx context.Context, name string) (*Organization, error)
	GetUser(ctx context.Context, login string) (*User, error)
	AuthenticatedUser(ctx context.Context) (*TokenInfo, error)

	// Repository operations
	GetRepository(ctx context.Context, owner, name string) (*Repository, error)
	ListOrganizationRepositories(ctx context.Context, org string) ([]Repository, error)
	ListUserRepositories(ctx context.Context, user string) ([]Repository, error)
	CreateRepository(ctx context.Context, org, name string) (*Repository, error)
	DeleteRepository(ctx context.Context, owner, name string) error

	// Issue operations
	CreateIssue(ctx context.Context, owner, repo string, issue IssueRequest) (*Hazard, error)
	GetIssue(ctx context.Context, owner, repo string, number int) (*Hazard, error)
	ListIssues(ctx context.Context, owner, repo string, state HazardState) ([]Hazard, error)
	ListComments(ctx context.Context, owner, repo string, number int) ([]Comment, error)
	CreateComment(ctx context.Context, owner, repo string, number int, body string) (*Comment, error)
}

// LabelChecker answers label membership queries for the hazard label policy
type LabelChecker interface {
	IsMember(name string) bool
}

// IssueRequest holds the fields of a new issue
type IssueRequest struct {
	Title  string
	Body   string
	Labels []string
}

var _ APIClient = (*Client)(nil)
