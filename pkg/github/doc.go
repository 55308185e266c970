// Package github talks to the GitHub REST API on behalf of one hazard log
// repository.
//
// The package includes:
// - Client, a go-github wrapper with per-call timeouts and retries for reads
// - Validator, which classifies a credential set into a CredentialCheck
// - RepositoryManager for idempotent repository existence, creation and deletion
// - HazardTracker for filing, listing and commenting on hazards (issues)
package github
