package github

import (
	"context"
	"fmt"
	"regexp"
)

// CredentialCheck is the outcome of probing GitHub with a credential set
type CredentialCheck int

const (
	// CheckRepoExists means organisation, username and repository all resolve
	CheckRepoExists CredentialCheck = iota
	// CheckRepoDoesNotExist means the account is usable but the repository is missing
	CheckRepoDoesNotExist
	// CheckUsernameBad means the username does not resolve to an account
	CheckUsernameBad
	// CheckOrganisationBad means the organisation does not resolve
	CheckOrganisationBad
)

// String returns the stable name of the outcome
func (c CredentialCheck) String() string {
	switch c {
	case CheckRepoExists:
		return "REPO_EXISTS"
	case CheckRepoDoesNotExist:
		return "REPO_DOES_NOT_EXIST"
	case CheckUsernameBad:
		return "USERNAME_BAD"
	case CheckOrganisationBad:
		return "ORGANISATION_BAD"
	default:
		return fmt.Sprintf("CredentialCheck(%d)", int(c))
	}
}

// Target names the account and repository a credential check looks up
type Target struct {
	Organisation string
	Username     string
	Repo         string
}

var (
	validLogin    = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?$`)
	validRepoName = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// isValidLogin reports whether name could be a GitHub user or organisation
// login: alphanumerics and hyphens, no leading or trailing hyphen, at most
// 39 characters.
func isValidLogin(name string) bool {
	return len(name) > 0 && len(name) <= 39 && validLogin.MatchString(name)
}

// isValidRepoName reports whether name could be a GitHub repository name
func isValidRepoName(name string) bool {
	return len(name) > 0 && len(name) <= 100 && name != "." && name != ".." && validRepoName.MatchString(name)
}

// Validator classifies a credential set against the GitHub API
type Validator struct {
	api APIClient
}

// NewValidator creates a validator backed by api
func NewValidator(api APIClient) *Validator {
	return &Validator{api: api}
}

// Check looks up the organisation, then the username, then the repository,
// stopping at the first that does not resolve. Failures other than "not
// found", such as a rejected token, are returned as errors rather than
// folded into an outcome. Check has no side effects.
func (v *Validator) Check(ctx context.Context, target Target) (CredentialCheck, error) {
	kind, err := resolveOwner(ctx, v.api, target.Organisation)
	if err != nil {
		return 0, err
	}
	if kind == ownerMissing {
		return CheckOrganisationBad, nil
	}

	userExists, err := accountExists(ctx, v.api, target.Username)
	if err != nil {
		return 0, err
	}
	if !userExists {
		return CheckUsernameBad, nil
	}

	repoExists, err := repositoryExists(ctx, v.api, target.Organisation, target.Repo)
	if err != nil {
		return 0, err
	}
	if !repoExists {
		return CheckRepoDoesNotExist, nil
	}
	return CheckRepoExists, nil
}

// accountExists reports whether login resolves to a GitHub account
func accountExists(ctx context.Context, api APIClient, login string) (bool, error) {
	if !isValidLogin(login) {
		return false, nil
	}

	_, err := api.GetUser(ctx, login)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// repositoryExists reports whether owner/name resolves to a repository
func repositoryExists(ctx context.Context, api APIClient, owner, name string) (bool, error) {
	if !isValidLogin(owner) || !isValidRepoName(name) {
		return false, nil
	}

	_, err := api.GetRepository(ctx, owner, name)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
