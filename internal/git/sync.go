package git

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/containerd/errdefs"
	"pkt.systems/pslog"
)

var (
	// ErrInvalidArgument reports a sync request that cannot be carried out
	ErrInvalidArgument = fmt.Errorf("invalid argument: %w", errdefs.ErrInvalidArgument)
	// ErrNotRepository reports a repository path that is not a git working tree
	ErrNotRepository = fmt.Errorf("not a git working tree: %w", errdefs.ErrNotFound)
	// ErrPushRejected reports a push the remote refused, such as a non-fast-forward
	ErrPushRejected = fmt.Errorf("push rejected: %w", errdefs.ErrFailedPrecondition)
)

// DefaultRemote is the remote pushed to when none is configured
const DefaultRemote = "origin"

// Author identifies the person commits are recorded for
type Author struct {
	Name  string
	Email string
}

// Config describes a working tree and where it is pushed
type Config struct {
	Dir    string
	Remote string
	// Branch defaults to the checked out branch
	Branch string
	Author Author
	// Token authenticates HTTPS pushes. It is passed per command and never
	// written to git config.
	Token string
	// Exclude lists files that are never staged, such as the env file
	// holding Token. Paths outside Dir are ignored.
	Exclude []string
}

// SyncResult describes what CommitAndPush did
type SyncResult struct {
	Committed bool   `json:"committed"`
	Commit    string `json:"commit,omitempty"`
	Branch    string `json:"branch"`
	Pushed    bool   `json:"pushed"`
	UpToDate  bool   `json:"up_to_date"`
}

// Syncer commits the working tree and pushes it to the remote
type Syncer struct {
	cfg Config
}

// NewSyncer creates a syncer for cfg
func NewSyncer(cfg Config) *Syncer {
	if cfg.Remote == "" {
		cfg.Remote = DefaultRemote
	}
	return &Syncer{cfg: cfg}
}

// CommitAndPush stages every change, commits it with message when anything
// is staged, then pushes the branch. A remote that already has the branch
// is a success. A rejected push is returned as ErrPushRejected and is never
// retried or forced.
func (s *Syncer) CommitAndPush(ctx context.Context, message string) (*SyncResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: commit message is required", ErrInvalidArgument)
	}

	dir := s.cfg.Dir
	log := pslog.Ctx(ctx).With("dir", dir, "remote", s.cfg.Remote)

	if !IsWorkTree(ctx, dir) {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, dir)
	}

	branch := s.cfg.Branch
	if branch == "" {
		current, err := CurrentBranch(ctx, dir)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot push a detached HEAD: %v", ErrInvalidArgument, err)
		}
		branch = current
	}
	result := &SyncResult{Branch: branch}

	if err := AddAll(ctx, dir, s.excluded()...); err != nil {
		return nil, err
	}
	staged, err := HasStagedChanges(ctx, dir)
	if err != nil {
		return nil, err
	}
	if staged {
		if _, err := Commit(ctx, dir, message, s.cfg.Author); err != nil {
			return nil, err
		}
		result.Committed = true
		log.Info("changes committed", "branch", branch)
	} else {
		log.Debug("nothing to commit", "branch", branch)
	}

	head, err := Head(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: branch %s has no commits to push", ErrInvalidArgument, branch)
	}
	result.Commit = head

	upToDate, err := s.push(ctx, branch)
	if err != nil {
		return nil, err
	}
	result.Pushed = true
	result.UpToDate = upToDate

	log.Info("branch pushed", "branch", branch, "commit", head, "up_to_date", upToDate)
	return result, nil
}

// excluded returns the Exclude entries that fall inside Dir, relative to it
func (s *Syncer) excluded() []string {
	dir := resolvePath(s.cfg.Dir)
	var rel []string
	for _, path := range s.cfg.Exclude {
		r, err := filepath.Rel(dir, resolvePath(path))
		if err != nil || r == "." || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
			continue
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	return rel
}

// resolvePath makes path absolute and resolves symlinks in the longest
// existing prefix, so paths that do not exist yet still compare.
func resolvePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path
	}
	return filepath.Join(resolvePath(parent), filepath.Base(path))
}

func (s *Syncer) push(ctx context.Context, branch string) (bool, error) {
	var args []string
	if s.cfg.Token != "" {
		args = append(args, "-c", extraHeaderKey+authHeader(s.cfg.Token))
	}
	args = append(args, "push", "--porcelain", s.cfg.Remote, "HEAD:refs/heads/"+branch)

	out, err := run(ctx, s.cfg.Dir, []string{"GIT_TERMINAL_PROMPT=0"}, args...)
	status := parsePorcelain(out)
	if err != nil {
		if status == pushRejected {
			return false, fmt.Errorf("%w: %s to %s/%s", ErrPushRejected, branch, s.cfg.Remote, branch)
		}
		return false, err
	}
	return status == pushUpToDate, nil
}

func authHeader(token string) string {
	creds := base64.StdEncoding.EncodeToString([]byte("x-access-token:" + token))
	return "AUTHORIZATION: basic " + creds
}

type pushStatus int

const (
	pushUnknown pushStatus = iota
	pushUpdated
	pushUpToDate
	pushRejected
)

// parsePorcelain reads the ref status lines of git push --porcelain
func parsePorcelain(out string) pushStatus {
	status := pushUnknown
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 2 || line[1] != '\t' {
			continue
		}
		switch line[0] {
		case '!':
			return pushRejected
		case '=':
			if status == pushUnknown {
				status = pushUpToDate
			}
		case ' ', '+', '*', '-':
			status = pushUpdated
		}
	}
	return status
}

// IsPushRejected reports whether err is a rejected push
func IsPushRejected(err error) bool {
	return errors.Is(err, ErrPushRejected)
}
