package controller

import (
	"time"

	"hazardlog/pkg/github"
)

// DefaultLabelsFile is the label policy looked up next to the config file
const DefaultLabelsFile = "hazard_labels.yml"

// Option configures New
type Option func(*options)

type options struct {
	username     *string
	token        *string
	organisation *string
	repo         *string
	email        *string
	repoPath     *string

	labelsPath string
	apiBaseURL string
	timeout    time.Duration
	retry      *github.RetryConfig
	remote     string
	branch     string
}

// WithUsername overrides GITHUB_USERNAME. An empty value is still an
// override and fails validation.
func WithUsername(username string) Option {
	return func(o *options) { o.username = &username }
}

// WithToken overrides GITHUB_TOKEN
func WithToken(token string) Option {
	return func(o *options) { o.token = &token }
}

// WithOrganisation overrides GITHUB_ORGANISATION
func WithOrganisation(organisation string) Option {
	return func(o *options) { o.organisation = &organisation }
}

// WithRepo overrides GITHUB_REPO
func WithRepo(repo string) Option {
	return func(o *options) { o.repo = &repo }
}

// WithEmail overrides EMAIL
func WithEmail(email string) Option {
	return func(o *options) { o.email = &email }
}

// WithRepoPath sets the local working tree. It defaults to the directory
// holding the config file.
func WithRepoPath(path string) Option {
	return func(o *options) { o.repoPath = &path }
}

// WithLabelsPath sets the label policy file
func WithLabelsPath(path string) Option {
	return func(o *options) { o.labelsPath = path }
}

// WithAPIBaseURL points the GitHub client at another API root
func WithAPIBaseURL(url string) Option {
	return func(o *options) { o.apiBaseURL = url }
}

// WithTimeout bounds every GitHub API call
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) { o.timeout = timeout }
}

// WithRetryConfig replaces the retry policy for GitHub reads
func WithRetryConfig(config *github.RetryConfig) Option {
	return func(o *options) { o.retry = config }
}

// WithRemote sets the git remote CommitAndPush pushes to
func WithRemote(remote string) Option {
	return func(o *options) { o.remote = remote }
}

// WithBranch sets the branch CommitAndPush pushes. It defaults to the
// checked out branch.
func WithBranch(branch string) Option {
	return func(o *options) { o.branch = branch }
}
