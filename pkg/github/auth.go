package github

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// requiredScopes are the classic token scopes the hazard log needs: repo to
// file issues and create repositories, delete_repo to remove them.
var requiredScopes = []string{"repo", "delete_repo"}

// newHTTPClient returns an HTTP client that authenticates every request
// with token.
func newHTTPClient(token string) *http.Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	return oauth2.NewClient(context.Background(), ts)
}

// parseScopes reads the X-OAuth-Scopes header of a GitHub response
func parseScopes(header http.Header) []string {
	scopes := []string{}
	if scopeHeader := header.Get("X-OAuth-Scopes"); scopeHeader != "" {
		scopes = strings.Split(strings.ReplaceAll(scopeHeader, " ", ""), ",")
	}
	return scopes
}

// MissingScopes returns the required scopes the token does not carry.
// Fine-grained tokens report no scopes at all; for them nothing is reported
// missing and GitHub enforces permissions per request.
func (t *TokenInfo) MissingScopes() []string {
	if len(t.Scopes) == 0 {
		return nil
	}

	scopeMap := make(map[string]bool)
	for _, scope := range t.Scopes {
		scopeMap[scope] = true
	}

	var missing []string
	for _, required := range requiredScopes {
		if !scopeMap[required] {
			missing = append(missing, required)
		}
	}
	return missing
}
