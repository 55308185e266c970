//go:build integration && github_e2e
// +build integration,github_e2e

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"hazardlog/pkg/controller"
	hgithub "hazardlog/pkg/github"
)

// These tests run against real GitHub. They require:
// - GITHUB_E2E_TESTS=true
// - HAZARDLOG_E2E_ENV pointing at an env file whose organisation and
//   repository exist, with a label policy next to it
// - a token allowed to create and delete repositories in that organisation
func e2eEnv(t *testing.T) string {
	t.Helper()
	if os.Getenv("GITHUB_E2E_TESTS") != "true" {
		t.Skip("Skipping E2E tests. Set GITHUB_E2E_TESTS=true to run.")
	}
	envPath := os.Getenv("HAZARDLOG_E2E_ENV")
	if envPath == "" {
		t.Skip("HAZARDLOG_E2E_ENV not set, skipping E2E tests")
	}
	return envPath
}

func TestGitHubE2ECredentials(t *testing.T) {
	envPath := e2eEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		opts []controller.Option
		want hgithub.CredentialCheck
	}{
		{
			name: "configured repository",
			want: hgithub.CheckRepoExists,
		},
		{
			name: "repository does not exist",
			opts: []controller.Option{controller.WithRepo("test-repo-does-not-exist")},
			want: hgithub.CheckRepoDoesNotExist,
		},
		{
			name: "username bad",
			opts: []controller.Option{controller.WithUsername("111222333444abccba")},
			want: hgithub.CheckUsernameBad,
		},
		{
			name: "organisation bad",
			opts: []controller.Option{controller.WithOrganisation("111222333444abccba")},
			want: hgithub.CheckOrganisationBad,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, err := controller.New(envPath, tt.opts...)
			if err != nil {
				t.Fatalf("Failed to build controller: %v", err)
			}

			got, err := ctrl.CheckCredentials(ctx)
			if err != nil {
				t.Fatalf("Credential check failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestGitHubE2ERepositoryLifecycle(t *testing.T) {
	envPath := e2eEnv(t)
	ctx := context.Background()

	repoName := fmt.Sprintf("hazardlog-test-%d", time.Now().Unix())
	ctrl, err := controller.New(envPath, controller.WithRepo(repoName))
	if err != nil {
		t.Fatalf("Failed to build controller: %v", err)
	}
	id := ctrl.Identity()

	defer cleanupTestRepository(t, id.Token, id.Organisation, repoName)

	exists, err := ctrl.OrganisationExists(ctx)
	if err != nil || !exists {
		t.Fatalf("Expected organisation %s to exist: %v", id.Organisation, err)
	}

	if _, err := ctrl.CreateRepository(ctx); err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	verifyRepositoryExists(t, id.Token, id.Organisation, repoName)

	repos, err := ctrl.ListRepositories(ctx)
	if err != nil {
		t.Fatalf("Failed to list repositories: %v", err)
	}
	found := false
	for _, repo := range repos {
		if repo.Name == repoName {
			found = true
		}
	}
	if !found {
		t.Errorf("Repository %s missing from listing", repoName)
	}

	if err := ctrl.DeleteRepository(ctx); err != nil {
		t.Fatalf("Failed to delete repository: %v", err)
	}
	exists, err = ctrl.RepositoryExists(ctx)
	if err != nil {
		t.Fatalf("Failed to look up repository: %v", err)
	}
	if exists {
		t.Errorf("Repository %s still exists after delete", repoName)
	}
}

func TestGitHubE2EHazards(t *testing.T) {
	envPath := e2eEnv(t)
	ctx := context.Background()

	ctrl, err := controller.New(envPath)
	if err != nil {
		t.Fatalf("Failed to build controller: %v", err)
	}
	id := ctrl.Identity()
	defer closeAllIssues(t, id.Token, id.Organisation, id.Repo)

	names, err := ctrl.LabelNames()
	if err != nil || len(names) == 0 {
		t.Fatalf("Label policy is required for hazard tests: %v", err)
	}

	title := fmt.Sprintf("E2E hazard %d", time.Now().Unix())
	hazard, err := ctrl.LogHazard(ctx, title, "Logged by the integration tests", names[:1])
	if err != nil {
		t.Fatalf("Failed to log hazard: %v", err)
	}

	open, err := ctrl.OpenHazards(ctx)
	if err != nil {
		t.Fatalf("Failed to list hazards: %v", err)
	}
	if len(open) == 0 || open[0].Number != hazard.Number {
		t.Errorf("Expected hazard #%d to be listed first", hazard.Number)
	}

	if _, err := ctrl.AddComment(ctx, hazard.Number, "Reviewed by the integration tests"); err != nil {
		t.Fatalf("Failed to add comment: %v", err)
	}

	got, err := ctrl.Hazard(ctx, hazard.Number)
	if err != nil {
		t.Fatalf("Failed to get hazard: %v", err)
	}
	if len(got.Comments) != 1 {
		t.Errorf("Expected 1 comment, got %d", len(got.Comments))
	}

	domain, err := ctrl.RepositoryDomainName(ctx)
	if err != nil {
		t.Fatalf("Failed to get domain name: %v", err)
	}
	t.Logf("✓ Repository domain: %s", domain)
}

func newGitHubClient(token string) *github.Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	return github.NewClient(oauth2.NewClient(context.Background(), ts))
}

func verifyRepositoryExists(t *testing.T, token, owner, repoName string) {
	repo, _, err := newGitHubClient(token).Repositories.Get(context.Background(), owner, repoName)
	if err != nil {
		t.Fatalf("Failed to verify repository exists: %v", err)
	}

	if repo.GetName() != repoName {
		t.Errorf("Repository name mismatch: expected %s, got %s", repoName, repo.GetName())
	}

	t.Logf("✓ Verified repository exists: %s/%s", owner, repoName)
}

// cleanupTestRepository removes a test repository
func cleanupTestRepository(t *testing.T, token, owner, repoName string) {
	ctx := context.Background()
	client := newGitHubClient(token)

	_, resp, err := client.Repositories.Get(ctx, owner, repoName)
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			t.Logf("Repository %s/%s doesn't exist, no cleanup needed", owner, repoName)
			return
		}
		t.Logf("Warning: Failed to check if repository exists for cleanup: %v", err)
		return
	}

	if _, err := client.Repositories.Delete(ctx, owner, repoName); err != nil {
		t.Logf("Warning: Failed to cleanup test repository %s/%s: %v", owner, repoName, err)
		return
	}

	t.Logf("✓ Cleaned up test repository: %s/%s", owner, repoName)
}

// closeAllIssues closes every open issue the tests left behind
func closeAllIssues(t *testing.T, token, owner, repoName string) {
	ctx := context.Background()
	client := newGitHubClient(token)

	issues, _, err := client.Issues.ListByRepo(ctx, owner, repoName, &github.IssueListByRepoOptions{State: "open"})
	if err != nil {
		t.Logf("Warning: Failed to list issues for cleanup: %v", err)
		return
	}

	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		_, _, err := client.Issues.Edit(ctx, owner, repoName, issue.GetNumber(), &github.IssueRequest{State: github.String("closed")})
		if err != nil {
			t.Logf("Warning: Failed to close issue #%d: %v", issue.GetNumber(), err)
		}
	}
}
