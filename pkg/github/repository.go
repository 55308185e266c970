package github

import (
	"context"
	"fmt"
	"strings"

	"pkt.systems/pslog"
)

type ownerKind int

const (
	ownerMissing ownerKind = iota
	ownerOrganisation
	ownerPersonal
)

// resolveOwner determines whether name is an organisation, the personal
// namespace of the authenticated user, or neither.
func resolveOwner(ctx context.Context, api APIClient, name string) (ownerKind, error) {
	if !isValidLogin(name) {
		return ownerMissing, nil
	}

	_, err := api.GetOrganization(ctx, name)
	if err == nil {
		return ownerOrganisation, nil
	}
	if !IsNotFound(err) {
		return ownerMissing, err
	}

	info, err := api.AuthenticatedUser(ctx)
	if err != nil {
		return ownerMissing, err
	}
	if strings.EqualFold(info.User, name) {
		return ownerPersonal, nil
	}
	return ownerMissing, nil
}

// RepositoryManager checks, creates and deletes repositories.
// Create and Delete are idempotent: creating an existing repository returns
// it unchanged, deleting a missing repository succeeds without a request.
type RepositoryManager struct {
	api APIClient
}

// NewRepositoryManager creates a repository manager backed by api
func NewRepositoryManager(api APIClient) *RepositoryManager {
	return &RepositoryManager{api: api}
}

// OrganisationExists reports whether name is an organisation or the
// authenticated user's own namespace
func (m *RepositoryManager) OrganisationExists(ctx context.Context, name string) (bool, error) {
	kind, err := resolveOwner(ctx, m.api, name)
	if err != nil {
		return false, err
	}
	return kind != ownerMissing, nil
}

// ListRepositories lists the repositories owned by org
func (m *RepositoryManager) ListRepositories(ctx context.Context, org string) ([]Repository, error) {
	kind, err := resolveOwner(ctx, m.api, org)
	if err != nil {
		return nil, err
	}

	switch kind {
	case ownerOrganisation:
		return m.api.ListOrganizationRepositories(ctx, org)
	case ownerPersonal:
		return m.api.ListUserRepositories(ctx, org)
	default:
		return nil, fmt.Errorf("%w: %q", ErrOrganisationNotFound, org)
	}
}

// Exists reports whether org/name exists. It is the same lookup the
// credential check uses for its repository step.
func (m *RepositoryManager) Exists(ctx context.Context, org, name string) (bool, error) {
	return repositoryExists(ctx, m.api, org, name)
}

// Create creates org/name, returning the existing repository when it is
// already there.
func (m *RepositoryManager) Create(ctx context.Context, org, name string) (*Repository, error) {
	log := pslog.Ctx(ctx).With("org", org, "repo", name)

	if !isValidRepoName(name) {
		return nil, fmt.Errorf("%w: repository name %q", ErrInvalidArgument, name)
	}

	existing, err := m.api.GetRepository(ctx, org, name)
	if err == nil {
		log.Info("repository already exists")
		return existing, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	kind, err := resolveOwner(ctx, m.api, org)
	if err != nil {
		return nil, err
	}

	var created *Repository
	switch kind {
	case ownerOrganisation:
		created, err = m.api.CreateRepository(ctx, org, name)
	case ownerPersonal:
		created, err = m.api.CreateRepository(ctx, "", name)
	default:
		return nil, fmt.Errorf("cannot create %s/%s: %w", org, name, ErrOrganisationNotFound)
	}
	if err != nil {
		return nil, err
	}

	log.Info("repository created")
	return created, nil
}

// Delete removes org/name. A repository that does not exist is left alone.
func (m *RepositoryManager) Delete(ctx context.Context, org, name string) error {
	log := pslog.Ctx(ctx).With("org", org, "repo", name)

	exists, err := repositoryExists(ctx, m.api, org, name)
	if err != nil {
		return err
	}
	if !exists {
		log.Info("repository already absent")
		return nil
	}

	if err := m.api.DeleteRepository(ctx, org, name); err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}

	log.Info("repository deleted")
	return nil
}
