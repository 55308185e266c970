package github

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"pkt.systems/pslog"
)

// HazardTracker files, lists and comments on the hazards of one repository
type HazardTracker struct {
	api    APIClient
	labels LabelChecker
	owner  string
	repo   string

	mu     sync.Mutex
	domain string
}

// NewHazardTracker creates a tracker for owner/repo. Labels are checked
// against labels before anything is sent to GitHub.
func NewHazardTracker(api APIClient, labels LabelChecker, owner, repo string) *HazardTracker {
	return &HazardTracker{
		api:    api,
		labels: labels,
		owner:  owner,
		repo:   repo,
	}
}

func (t *HazardTracker) logger(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx).With("repo", t.owner+"/"+t.repo)
}

// LogHazard files a new hazard. Arguments and labels are validated locally
// first, so an invalid request never reaches GitHub. The issue create is
// sent exactly once.
func (t *HazardTracker) LogHazard(ctx context.Context, title, body string, labels []string) (*Hazard, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: hazard title is required", ErrInvalidArgument)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: at least one hazard label is required", ErrInvalidArgument)
	}
	for _, label := range labels {
		if t.labels == nil || !t.labels.IsMember(label) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
		}
	}

	if err := t.requireRepository(ctx); err != nil {
		return nil, err
	}

	hazard, err := t.api.CreateIssue(ctx, t.owner, t.repo, IssueRequest{
		Title:  title,
		Body:   body,
		Labels: dedupe(labels),
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrRepositoryNotFound, t.owner, t.repo)
		}
		return nil, err
	}
	hazard.Comments = []Comment{}

	t.logger(ctx).Info("hazard logged", "number", hazard.Number, "labels", strings.Join(hazard.Labels, ","))
	return hazard, nil
}

// OpenHazards lists the open hazards, newest first
func (t *HazardTracker) OpenHazards(ctx context.Context) ([]Hazard, error) {
	hazards, err := t.api.ListIssues(ctx, t.owner, t.repo, HazardOpen)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrRepositoryNotFound, t.owner, t.repo)
		}
		return nil, err
	}
	return hazards, nil
}

// Hazard returns one hazard together with its comment thread
func (t *HazardTracker) Hazard(ctx context.Context, number int) (*Hazard, error) {
	hazard, err := t.getHazard(ctx, number)
	if err != nil {
		return nil, err
	}

	comments, err := t.api.ListComments(ctx, t.owner, t.repo, number)
	if err != nil {
		return nil, err
	}
	hazard.Comments = comments
	return hazard, nil
}

// AddComment appends comment to hazard number. A zero number means the
// caller did not say which hazard to comment on.
func (t *HazardTracker) AddComment(ctx context.Context, number int, comment string) (*Comment, error) {
	if number <= 0 {
		return nil, fmt.Errorf("%w: hazard number is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(comment) == "" {
		return nil, fmt.Errorf("%w: comment is required", ErrInvalidArgument)
	}

	if _, err := t.getHazard(ctx, number); err != nil {
		return nil, err
	}

	created, err := t.api.CreateComment(ctx, t.owner, t.repo, number, comment)
	if err != nil {
		return nil, err
	}

	t.logger(ctx).Info("hazard comment added", "number", number, "comment_id", created.ID)
	return created, nil
}

// RepositoryDomainName returns the owner namespace GitHub reports for the
// repository. The first successful lookup is cached; while the repository
// does not exist the configured organisation is returned.
func (t *HazardTracker) RepositoryDomainName(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.domain != "" {
		return t.domain, nil
	}

	repo, err := t.api.GetRepository(ctx, t.owner, t.repo)
	if err != nil {
		if IsNotFound(err) {
			return t.owner, nil
		}
		return "", err
	}

	t.domain = repo.Owner
	if t.domain == "" {
		t.domain = t.owner
	}
	return t.domain, nil
}

// getHazard fetches hazard number, telling a missing repository apart from
// a missing hazard.
func (t *HazardTracker) getHazard(ctx context.Context, number int) (*Hazard, error) {
	hazard, err := t.api.GetIssue(ctx, t.owner, t.repo, number)
	if err == nil {
		return hazard, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	if repoErr := t.requireRepository(ctx); repoErr != nil {
		return nil, repoErr
	}
	return nil, fmt.Errorf("%w: #%d in %s/%s", ErrHazardNotFound, number, t.owner, t.repo)
}

func (t *HazardTracker) requireRepository(ctx context.Context) error {
	exists, err := repositoryExists(ctx, t.api, t.owner, t.repo)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s/%s", ErrRepositoryNotFound, t.owner, t.repo)
	}
	return nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
