// Package githubtest provides an in-memory GitHub REST API for tests. It
// understands the organisation, user, repository, issue and comment routes
// the hazard log uses and records every request it serves.
package githubtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-github/v66/github"
)

// Request is one request served by the fake
type Request struct {
	Method string
	Path   string
}

// Issue is the fake's record of an issue or pull request
type Issue struct {
	Number      int
	Title       string
	Body        string
	Labels      []string
	State       string
	Author      string
	PullRequest bool
	Comments    []string
	CreatedAt   time.Time
}

type repository struct {
	id      int64
	owner   string
	name    string
	private bool
	issues  []*Issue
	created time.Time
}

type failure struct {
	status  int
	message string
}

// Server is a fake GitHub API served over HTTP
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	login    string
	token    string
	scopes   string
	users    map[string]string
	orgs     map[string]string
	repos    map[string]*repository
	nextID   int64
	requests []Request
	failures map[string][]failure
	clock    time.Time
}

// NewServer starts a fake GitHub whose token belongs to login. The server is
// closed when the test ends.
func NewServer(t testing.TB, login string) *Server {
	t.Helper()

	s := &Server{
		login:    login,
		scopes:   "repo, delete_repo",
		users:    map[string]string{strings.ToLower(login): login},
		orgs:     map[string]string{},
		repos:    map[string]*repository{},
		failures: map[string][]failure{},
		clock:    time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /user", s.handleAuthenticatedUser)
	mux.HandleFunc("GET /users/{login}", s.handleGetUser)
	mux.HandleFunc("GET /users/{login}/repos", s.handleListUserRepos)
	mux.HandleFunc("GET /orgs/{org}", s.handleGetOrg)
	mux.HandleFunc("GET /orgs/{org}/repos", s.handleListOrgRepos)
	mux.HandleFunc("POST /orgs/{org}/repos", s.handleCreateOrgRepo)
	mux.HandleFunc("POST /user/repos", s.handleCreateUserRepo)
	mux.HandleFunc("GET /repos/{owner}/{repo}", s.handleGetRepo)
	mux.HandleFunc("DELETE /repos/{owner}/{repo}", s.handleDeleteRepo)
	mux.HandleFunc("GET /repos/{owner}/{repo}/issues", s.handleListIssues)
	mux.HandleFunc("POST /repos/{owner}/{repo}/issues", s.handleCreateIssue)
	mux.HandleFunc("GET /repos/{owner}/{repo}/issues/{number}", s.handleGetIssue)
	mux.HandleFunc("GET /repos/{owner}/{repo}/issues/{number}/comments", s.handleListComments)
	mux.HandleFunc("POST /repos/{owner}/{repo}/issues/{number}/comments", s.handleCreateComment)

	s.Server = httptest.NewServer(s.middleware(mux))
	t.Cleanup(s.Close)
	return s
}

// RequireToken makes every request without this bearer token fail with 401
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// SetScopes sets the X-OAuth-Scopes header reported for the token
func (s *Server) SetScopes(scopes string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes = scopes
}

// AddUser registers a personal account
func (s *Server) AddUser(login string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(login)] = login
}

// AddOrg registers an organisation
func (s *Server) AddOrg(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs[strings.ToLower(name)] = name
}

// AddRepo registers an existing repository
func (s *Server) AddRepo(owner, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addRepoLocked(owner, name)
}

// AddPullRequest opens a pull request in owner/repo and returns its number
func (s *Server) AddPullRequest(owner, repo, title string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.repos[repoKey(owner, repo)]
	if r == nil {
		r = s.addRepoLocked(owner, repo)
	}
	issue := s.newIssueLocked(r, title, "", nil)
	issue.PullRequest = true
	return issue.Number
}

// HasRepo reports whether owner/name exists
func (s *Server) HasRepo(owner, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.repos[repoKey(owner, name)]
	return ok
}

// Issues returns copies of the issues of owner/repo in creation order
func (s *Server) Issues(owner, repo string) []Issue {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.repos[repoKey(owner, repo)]
	if r == nil {
		return nil
	}
	issues := make([]Issue, 0, len(r.issues))
	for _, issue := range r.issues {
		cp := *issue
		cp.Labels = append([]string(nil), issue.Labels...)
		cp.Comments = append([]string(nil), issue.Comments...)
		issues = append(issues, cp)
	}
	return issues
}

// CloseAllIssues closes every open issue of owner/repo out of band
func (s *Server) CloseAllIssues(owner, repo string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r := s.repos[repoKey(owner, repo)]; r != nil {
		for _, issue := range r.issues {
			issue.State = "closed"
		}
	}
}

// FailNext makes the next request matching method and path fail with
// status. Calls queue up, so several failures can be injected at once.
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := method + " " + path
	s.failures[key] = append(s.failures[key], failure{status: status, message: http.StatusText(status)})
}

// Requests returns every request served so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountRequests counts served requests with method whose path starts with prefix
func (s *Server) CountRequests(method, prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.requests {
		if r.Method == method && strings.HasPrefix(r.Path, prefix) {
			n++
		}
	}
	return n
}

// CountMutations counts served POST, PATCH, PUT and DELETE requests
func (s *Server) CountMutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.requests {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			n++
		}
	}
	return n
}

// ResetRequests forgets the recorded requests
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path})

		key := r.Method + " " + r.URL.Path
		var injected *failure
		if queued := s.failures[key]; len(queued) > 0 {
			injected = &queued[0]
			s.failures[key] = queued[1:]
		}
		token := s.token
		scopes := s.scopes
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-OAuth-Scopes", scopes)

		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			writeMessage(w, http.StatusUnauthorized, "Bad credentials")
			return
		}
		if injected != nil {
			writeMessage(w, injected.status, injected.message)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleAuthenticatedUser(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, http.StatusOK, &github.User{
		Login: github.String(s.login),
		Type:  github.String("User"),
	})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	login := strings.ToLower(r.PathValue("login"))
	if name, ok := s.users[login]; ok {
		writeJSON(w, http.StatusOK, &github.User{Login: github.String(name), Type: github.String("User")})
		return
	}
	if name, ok := s.orgs[login]; ok {
		writeJSON(w, http.StatusOK, &github.User{Login: github.String(name), Type: github.String("Organization")})
		return
	}
	writeMessage(w, http.StatusNotFound, "Not Found")
}

func (s *Server) handleGetOrg(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, ok := s.orgs[strings.ToLower(r.PathValue("org"))]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, &github.Organization{
		Login:   github.String(name),
		HTMLURL: github.String("https://github.com/" + name),
	})
}

func (s *Server) handleListOrgRepos(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, ok := s.orgs[strings.ToLower(r.PathValue("org"))]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, s.reposOwnedByLocked(org))
}

func (s *Server) handleListUserRepos(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[strings.ToLower(r.PathValue("login"))]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, s.reposOwnedByLocked(user))
}

func (s *Server) handleCreateOrgRepo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, ok := s.orgs[strings.ToLower(r.PathValue("org"))]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Not Found")
		return
	}
	s.createRepoLocked(w, r, org)
}

func (s *Server) handleCreateUserRepo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createRepoLocked(w, r, s.login)
}

func (s *Server) createRepoLocked(w http.ResponseWriter, r *http.Request, owner string) {
	var req github.Repository
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GetName() == "" {
		writeMessage(w, http.StatusUnprocessableEntity, "Validation Failed")
		return
	}

	if _, exists := s.repos[repoKey(owner, req.GetName())]; exists {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "Repository creation failed.",
			"errors": []map[string]string{{
				"resource": "Repository",
				"code":     "custom",
				"field":    "name",
				"message":  "name already exists on this account",
			}},
		})
		return
	}

	repo := s.addRepoLocked(owner, req.GetName())
	repo.private = req.GetPrivate()
	writeJSON(w, http.StatusCreated, toGitHubRepository(repo))
}

func (s *Server) handleGetRepo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.repoLocked(r)
	if repo == nil {
		writeMessage(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, toGitHubRepository(repo))
}

func (s *Server) handleDeleteRepo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.repoLocked(r)
	if repo == nil {
		writeMessage(w, http.StatusNotFound, "Not Found")
		return
	}
	delete(s.repos, repoKey(repo.owner, repo.name))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListIssues(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.repoLocked(r)
	if repo == nil {
		writeMessage(w, http.StatusNotFound, "Not Found")
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		state = "open"
	}

	issues := make([]*github.Issue, 0, len(repo.issues))
	for i := len(repo.issues) - 1; i >= 0; i-- {
		issue := repo.issues[i]
		if state != "all" && issue.State != state {
			continue
		}
		issues = append(issues, toGitHubIssue(repo, issue))
	}
	writeJSON(w, http.StatusOK, issues)
}

func (s *Server) handleCreateIssue(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.repoLocked(r)
	if repo == nil {
		writeMessage(w, http.StatusNotFound, "Not Found")
		return
	}

	var req github.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GetTitle() == "" {
		writeMessage(w, http.StatusUnprocessableEntity, "Validation Failed")
		return
	}

	var labels []string
	if req.Labels != nil {
		labels = append(labels, *req.Labels...)
	}
	issue := s.newIssueLocked(repo, req.GetTitle(), req.GetBody(), labels)
	writeJSON(w, http.StatusCreated, toGitHubIssue(repo, issue))
}

func (s *Server) handleGetIssue(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, issue := s.issueLocked(r)
	if issue == nil {
		writeMessage(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, toGitHubIssue(repo, issue))
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, issue := s.issueLocked(r)
	if issue == nil {
		writeMessage(w, http.StatusNotFound, "Not Found")
		return
	}

	comments := make([]*github.IssueComment, 0, len(issue.Comments))
	for i, body := range issue.Comments {
		comments = append(comments, toGitHubComment(issue, i, body, s.login))
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, issue := s.issueLocked(r)
	if issue == nil {
		writeMessage(w, http.StatusNotFound, "Not Found")
		return
	}

	var req github.IssueComment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GetBody() == "" {
		writeMessage(w, http.StatusUnprocessableEntity, "Validation Failed")
		return
	}

	issue.Comments = append(issue.Comments, req.GetBody())
	writeJSON(w, http.StatusCreated, toGitHubComment(issue, len(issue.Comments)-1, req.GetBody(), s.login))
}

func (s *Server) addRepoLocked(owner, name string) *repository {
	s.nextID++
	repo := &repository{
		id:      s.nextID,
		owner:   owner,
		name:    name,
		created: s.tickLocked(),
	}
	s.repos[repoKey(owner, name)] = repo
	return repo
}

func (s *Server) newIssueLocked(repo *repository, title, body string, labels []string) *Issue {
	issue := &Issue{
		Number:    len(repo.issues) + 1,
		Title:     title,
		Body:      body,
		Labels:    labels,
		State:     "open",
		Author:    s.login,
		CreatedAt: s.tickLocked(),
	}
	repo.issues = append(repo.issues, issue)
	return issue
}

func (s *Server) tickLocked() time.Time {
	s.clock = s.clock.Add(time.Minute)
	return s.clock
}

func (s *Server) repoLocked(r *http.Request) *repository {
	return s.repos[repoKey(r.PathValue("owner"), r.PathValue("repo"))]
}

func (s *Server) issueLocked(r *http.Request) (*repository, *Issue) {
	repo := s.repoLocked(r)
	if repo == nil {
		return nil, nil
	}
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number < 1 || number > len(repo.issues) {
		return repo, nil
	}
	return repo, repo.issues[number-1]
}

func (s *Server) reposOwnedByLocked(owner string) []*github.Repository {
	var names []string
	for key, repo := range s.repos {
		if strings.EqualFold(repo.owner, owner) {
			names = append(names, key)
		}
	}
	sort.Strings(names)

	repos := make([]*github.Repository, 0, len(names))
	for _, key := range names {
		repos = append(repos, toGitHubRepository(s.repos[key]))
	}
	return repos
}

func repoKey(owner, name string) string {
	return strings.ToLower(owner + "/" + name)
}

func toGitHubRepository(repo *repository) *github.Repository {
	fullName := repo.owner + "/" + repo.name
	return &github.Repository{
		ID:        github.Int64(repo.id),
		Name:      github.String(repo.name),
		FullName:  github.String(fullName),
		Owner:     &github.User{Login: github.String(repo.owner)},
		Private:   github.Bool(repo.private),
		HasIssues: github.Bool(true),
		HTMLURL:   github.String("https://github.com/" + fullName),
		CloneURL:  github.String("https://github.com/" + fullName + ".git"),
		CreatedAt: &github.Timestamp{Time: repo.created},
		UpdatedAt: &github.Timestamp{Time: repo.created},
	}
}

func toGitHubIssue(repo *repository, issue *Issue) *github.Issue {
	labels := make([]*github.Label, 0, len(issue.Labels))
	for _, name := range issue.Labels {
		labels = append(labels, &github.Label{Name: github.String(name)})
	}

	url := fmt.Sprintf("https://github.com/%s/%s/issues/%d", repo.owner, repo.name, issue.Number)
	gh := &github.Issue{
		Number:    github.Int(issue.Number),
		Title:     github.String(issue.Title),
		Body:      github.String(issue.Body),
		State:     github.String(issue.State),
		Labels:    labels,
		Comments:  github.Int(len(issue.Comments)),
		HTMLURL:   github.String(url),
		User:      &github.User{Login: github.String(issue.Author)},
		CreatedAt: &github.Timestamp{Time: issue.CreatedAt},
	}
	if issue.PullRequest {
		gh.PullRequestLinks = &github.PullRequestLinks{URL: github.String(url)}
	}
	return gh
}

func toGitHubComment(issue *Issue, index int, body, author string) *github.IssueComment {
	return &github.IssueComment{
		ID:        github.Int64(int64(issue.Number*1000 + index + 1)),
		Body:      github.String(body),
		User:      &github.User{Login: github.String(author)},
		CreatedAt: &github.Timestamp{Time: issue.CreatedAt.Add(time.Duration(index+1) * time.Second)},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
