package controller

import (
	"fmt"
	"regexp"
)

// Field names reported in config.ValidationErrors
const (
	FieldPath         = "path"
	FieldUsername     = "username"
	FieldToken        = "token"
	FieldOrganisation = "organisation"
	FieldRepo         = "repo"
	FieldEmail        = "email"
	FieldRepoPath     = "repo_path"
)

var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s.]+$`)

// Identity is the validated credential set every remote call is scoped to
type Identity struct {
	Username     string `json:"username"`
	Token        string `json:"-"`
	Organisation string `json:"organisation"`
	Repo         string `json:"repo"`
	Email        string `json:"email"`
	RepoPath     string `json:"repo_path"`
}

// String formats the identity without the token
func (i Identity) String() string {
	return fmt.Sprintf("%s <%s> %s/%s (%s)", i.Username, i.Email, i.Organisation, i.Repo, i.RepoPath)
}

// FullName returns organisation/repo
func (i Identity) FullName() string {
	return i.Organisation + "/" + i.Repo
}

func validEmail(email string) bool {
	return emailShape.MatchString(email)
}
