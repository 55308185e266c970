package github

import "time"

// Repository represents a GitHub repository
type Repository struct {
	ID          int64     `json:"id"`
	Owner       string    `json:"owner"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	Private     bool      `json:"private"`
	HTMLURL     string    `json:"html_url"`
	CloneURL    string    `json:"clone_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Organization represents a GitHub organisation
type Organization struct {
	Login   string `json:"login"`
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

// User represents a GitHub account
type User struct {
	Login string `json:"login"`
	Name  string `json:"name"`
	Type  string `json:"type"`
}

// HazardState is the lifecycle state of a hazard
type HazardState string

const (
	HazardOpen   HazardState = "open"
	HazardClosed HazardState = "closed"
)

// Hazard is a hazard record, stored as one GitHub issue
type Hazard struct {
	Number       int         `json:"number"`
	Title        string      `json:"title"`
	Body         string      `json:"body"`
	Labels       []string    `json:"labels"`
	State        HazardState `json:"state"`
	Comments     []Comment   `json:"comments"`
	CommentCount int         `json:"comment_count"`
	URL          string      `json:"url"`
	Author       string      `json:"author"`
	CreatedAt    time.Time   `json:"created_at"`
}

// HasLabel reports whether the hazard carries label
func (h *Hazard) HasLabel(label string) bool {
	for _, l := range h.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Comment is one entry of a hazard's comment thread
type Comment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenInfo contains information about the authenticated token
type TokenInfo struct {
	User   string   `json:"user"`
	Scopes []string `json:"scopes"`
}
