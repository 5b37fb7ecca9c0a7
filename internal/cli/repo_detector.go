package cli

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// GetRepoRoot returns the root directory of the git repository containing dir
func GetRepoRoot(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s is not inside a git repository: %w", dir, err)
	}

	return strings.TrimSpace(string(output)), nil
}

// DetectRepoID names the repository at root as owner/repo from its origin
// remote, falling back to the directory name when there is no usable remote.
func DetectRepoID(ctx context.Context, root string) string {
	cmd := exec.CommandContext(ctx, "git", "config", "--get", "remote.origin.url")
	cmd.Dir = root
	output, err := cmd.Output()
	if err == nil {
		if owner, repo, err := parseGitURL(strings.TrimSpace(string(output))); err == nil {
			return owner + "/" + repo
		}
	}
	return filepath.Base(root)
}

// parseGitURL extracts owner and repo name from various git URL formats
func parseGitURL(url string) (owner, repo string, err error) {
	if url == "" {
		return "", "", fmt.Errorf("empty remote URL")
	}

	// Handle SSH URLs: git@github.com:owner/repo.git
	if strings.HasPrefix(url, "git@") {
		parts := strings.Split(url, ":")
		if len(parts) != 2 {
			return "", "", fmt.Errorf("invalid SSH URL format")
		}
		path := strings.TrimSuffix(parts[1], ".git")
		pathParts := strings.Split(path, "/")
		if len(pathParts) != 2 {
			return "", "", fmt.Errorf("invalid repository path in SSH URL")
		}
		return pathParts[0], pathParts[1], nil
	}

	// Handle URL forms: https://host/owner/repo.git, ssh://git@host/owner/repo.git
	for _, scheme := range []string{"https://", "http://", "ssh://", "git://"} {
		if !strings.HasPrefix(url, scheme) {
			continue
		}
		trimmed := strings.TrimSuffix(strings.TrimSuffix(url, "/"), ".git")
		parts := strings.Split(strings.TrimPrefix(trimmed, scheme), "/")
		if len(parts) < 3 {
			return "", "", fmt.Errorf("invalid %s URL format", strings.TrimSuffix(scheme, "://"))
		}
		return parts[len(parts)-2], parts[len(parts)-1], nil
	}

	return "", "", fmt.Errorf("unsupported URL format: %s", url)
}
