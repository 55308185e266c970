// Package git drives the git executable for the hazard log working tree.
package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"pkt.systems/pslog"
)

const extraHeaderKey = "http.extraheader="

// Run executes a git command in the provided directory.
func Run(ctx context.Context, dir string, args ...string) (string, error) {
	return run(ctx, dir, nil, args...)
}

func run(ctx context.Context, dir string, env []string, args ...string) (string, error) {
	printable := strings.Join(redactArgs(args), " ")
	log := pslog.Ctx(ctx).With("dir", dir, "args", printable)
	log.Debug("git run start")

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		preview := strings.TrimSpace(string(output))
		truncated := false
		if len(preview) > 200 {
			preview = preview[:200]
			truncated = true
		}
		log.Warn("git run failed", "err", err, "output", preview, "truncated", truncated)
		return string(output), fmt.Errorf("git %s failed: %w (%s)", printable, err, strings.TrimSpace(string(output)))
	}
	log.Debug("git run ok", "output_len", len(output))
	return string(output), nil
}

// redactArgs hides credentials passed through -c http.extraheader
func redactArgs(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		if strings.HasPrefix(strings.ToLower(arg), extraHeaderKey) {
			out[i] = arg[:len(extraHeaderKey)] + "<redacted>"
			continue
		}
		out[i] = arg
	}
	return out
}

// AddAll stages every change in the work tree except the excluded paths,
// which are relative to dir.
func AddAll(ctx context.Context, dir string, exclude ...string) error {
	args := []string{"add", "-A", "--", ":/"}
	for _, path := range exclude {
		args = append(args, ":(exclude)"+path)
	}
	_, err := Run(ctx, dir, args...)
	return err
}

// Commit creates a commit with the provided message and author.
func Commit(ctx context.Context, dir, message string, author Author) (string, error) {
	return Run(ctx, dir,
		"-c", "user.name="+author.Name,
		"-c", "user.email="+author.Email,
		"commit", "-m", message)
}

// HasStagedChanges reports whether the index differs from HEAD.
func HasStagedChanges(ctx context.Context, dir string) (bool, error) {
	out, err := Run(ctx, dir, "diff", "--cached", "--name-only")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// Head returns the commit HEAD points at.
func Head(ctx context.Context, dir string) (string, error) {
	out, err := Run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// CurrentBranch returns the short name of the checked out branch. It works
// on a branch without commits.
func CurrentBranch(ctx context.Context, dir string) (string, error) {
	out, err := Run(ctx, dir, "symbolic-ref", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// IsWorkTree reports whether dir is inside a git working tree.
func IsWorkTree(ctx context.Context, dir string) bool {
	out, err := Run(ctx, dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}
