package controller

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"hazardlog/internal/git"
	"hazardlog/pkg/config"
	"hazardlog/pkg/github"
	"hazardlog/pkg/labels"
)

// Controller ties the identity, the GitHub client, the label policy and the
// local working tree together. It serves one repository and one caller.
type Controller struct {
	identity Identity
	store    *config.Store

	client    *github.Client
	validator *github.Validator
	repos     *github.RepositoryManager
	hazards   *github.HazardTracker
	syncer    *git.Syncer

	taxonomy  *labels.Taxonomy
	labelsErr error
}

// New builds a controller from the config file at configPath. Each identity
// field comes from its override option when given, otherwise from the file.
// Every invalid field is reported at once in a config.ValidationErrors. New
// makes no network calls.
func New(configPath string, opts ...Option) (*Controller, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var verrs config.ValidationErrors

	store, err := config.Load(configPath)
	if err != nil {
		verrs.Add(FieldPath, configPath, err.Error())
	}

	lookup := func(override *string, key string) string {
		if override != nil {
			return strings.TrimSpace(*override)
		}
		if store == nil {
			return ""
		}
		value, _ := store.Get(key)
		return strings.TrimSpace(value)
	}

	id := Identity{
		Username:     lookup(o.username, config.KeyGitHubUsername),
		Token:        lookup(o.token, config.KeyGitHubToken),
		Organisation: lookup(o.organisation, config.KeyGitHubOrganisation),
		Repo:         lookup(o.repo, config.KeyGitHubRepo),
		Email:        lookup(o.email, config.KeyEmail),
	}

	required := []struct {
		field string
		key   string
		value string
	}{
		{FieldUsername, config.KeyGitHubUsername, id.Username},
		{FieldToken, config.KeyGitHubToken, id.Token},
		{FieldOrganisation, config.KeyGitHubOrganisation, id.Organisation},
		{FieldRepo, config.KeyGitHubRepo, id.Repo},
		{FieldEmail, config.KeyEmail, id.Email},
	}
	for _, r := range required {
		if r.value == "" {
			verrs.Add(r.field, "", fmt.Sprintf("%s is required", r.key))
		}
	}
	if id.Email != "" && !validEmail(id.Email) {
		verrs.Add(FieldEmail, id.Email, "not a valid email address")
	}

	switch {
	case o.repoPath != nil:
		id.RepoPath = strings.TrimSpace(*o.repoPath)
		if id.RepoPath == "" {
			verrs.Add(FieldRepoPath, "", "local repository path is required")
		}
	case store != nil:
		id.RepoPath = filepath.Dir(store.Path())
	}

	if verrs.HasErrors() {
		return nil, verrs
	}

	labelsPath := o.labelsPath
	if labelsPath == "" {
		labelsPath = filepath.Join(filepath.Dir(store.Path()), DefaultLabelsFile)
	}

	client := github.NewClient(id.Token)
	if o.apiBaseURL != "" {
		if err := client.SetBaseURL(o.apiBaseURL); err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}
	}
	client.SetTimeout(o.timeout)
	client.SetRetryConfig(o.retry)

	c := &Controller{
		identity:  id,
		store:     store,
		client:    client,
		validator: github.NewValidator(client),
		repos:     github.NewRepositoryManager(client),
		syncer: git.NewSyncer(git.Config{
			Dir:     id.RepoPath,
			Remote:  o.remote,
			Branch:  o.branch,
			Author:  git.Author{Name: id.Username, Email: id.Email},
			Token:   id.Token,
			Exclude: []string{store.Path()},
		}),
	}

	c.taxonomy, c.labelsErr = labels.Load(labelsPath)
	var checker github.LabelChecker
	if c.taxonomy != nil {
		checker = c.taxonomy
	}
	c.hazards = github.NewHazardTracker(client, checker, id.Organisation, id.Repo)

	return c, nil
}

// Identity returns the validated identity
func (c *Controller) Identity() Identity {
	return c.identity
}

// Config returns the config store the identity was read from
func (c *Controller) Config() *config.Store {
	return c.store
}

// CheckCredentials classifies the identity against GitHub. Authentication
// failures are returned as errors, not as a CredentialCheck.
func (c *Controller) CheckCredentials(ctx context.Context) (github.CredentialCheck, error) {
	return c.validator.Check(ctx, github.Target{
		Organisation: c.identity.Organisation,
		Username:     c.identity.Username,
		Repo:         c.identity.Repo,
	})
}

// MissingScopes returns the token scopes the hazard log needs but the
// token lacks. Fine-grained tokens never report missing scopes.
func (c *Controller) MissingScopes(ctx context.Context) ([]string, error) {
	info, err := c.client.AuthenticatedUser(ctx)
	if err != nil {
		return nil, err
	}
	return info.MissingScopes(), nil
}

// OrganisationExists reports whether the configured organisation resolves
func (c *Controller) OrganisationExists(ctx context.Context) (bool, error) {
	return c.repos.OrganisationExists(ctx, c.identity.Organisation)
}

// ListRepositories lists the repositories of the configured organisation
func (c *Controller) ListRepositories(ctx context.Context) ([]github.Repository, error) {
	return c.repos.ListRepositories(ctx, c.identity.Organisation)
}

// RepositoryExists reports whether the configured repository exists
func (c *Controller) RepositoryExists(ctx context.Context) (bool, error) {
	return c.repos.Exists(ctx, c.identity.Organisation, c.identity.Repo)
}

// CreateRepository creates the configured repository, or returns it when it
// already exists
func (c *Controller) CreateRepository(ctx context.Context) (*github.Repository, error) {
	return c.repos.Create(ctx, c.identity.Organisation, c.identity.Repo)
}

// DeleteRepository deletes the configured repository. Deleting a missing
// repository succeeds.
func (c *Controller) DeleteRepository(ctx context.Context) error {
	return c.repos.Delete(ctx, c.identity.Organisation, c.identity.Repo)
}

// LogHazard files a hazard with labels from the policy
func (c *Controller) LogHazard(ctx context.Context, title, body string, hazardLabels []string) (*github.Hazard, error) {
	if c.labelsErr != nil {
		return nil, c.labelsErr
	}
	return c.hazards.LogHazard(ctx, title, body, hazardLabels)
}

// OpenHazards lists the open hazards, newest first
func (c *Controller) OpenHazards(ctx context.Context) ([]github.Hazard, error) {
	return c.hazards.OpenHazards(ctx)
}

// Hazard returns hazard number with its comments
func (c *Controller) Hazard(ctx context.Context, number int) (*github.Hazard, error) {
	return c.hazards.Hazard(ctx, number)
}

// AddComment comments on hazard number
func (c *Controller) AddComment(ctx context.Context, number int, comment string) (*github.Comment, error) {
	return c.hazards.AddComment(ctx, number, comment)
}

// AvailableLabels returns the label policy at the requested detail
func (c *Controller) AvailableLabels(detail labels.Detail) (labels.Listing, error) {
	if c.labelsErr != nil {
		return labels.Listing{}, c.labelsErr
	}
	return c.taxonomy.List(detail)
}

// LabelNames returns the names of every label in the policy
func (c *Controller) LabelNames() ([]string, error) {
	if c.labelsErr != nil {
		return nil, c.labelsErr
	}
	return c.taxonomy.Names(), nil
}

// IsValidLabel reports whether name is in the policy. It is false for every
// name when the policy could not be loaded.
func (c *Controller) IsValidLabel(name string) bool {
	return c.taxonomy != nil && c.taxonomy.IsMember(name)
}

// RepositoryDomainName returns the owner namespace of the repository
func (c *Controller) RepositoryDomainName(ctx context.Context) (string, error) {
	return c.hazards.RepositoryDomainName(ctx)
}

// CommitAndPush commits every change in the working tree and pushes it
func (c *Controller) CommitAndPush(ctx context.Context, message string) (*git.SyncResult, error) {
	return c.syncer.CommitAndPush(ctx, message)
}
