// Package gitsource keeps a local checkout of a remote git repository.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
)

// cloneDepth limits clones and pulls to the latest commit. Pulls into a
// shallow checkout must ask for the same depth or go-git fails to find the
// missing history.
const cloneDepth = 1

func cloneOptions(url string, progress io.Writer) *git.CloneOptions {
	return &git.CloneOptions{URL: url, Depth: cloneDepth, Progress: progress}
}

func pullOptions(progress io.Writer) *git.PullOptions {
	return &git.PullOptions{RemoteName: "origin", Depth: cloneDepth, Progress: progress}
}

// Sync clones a git repository if it doesn't exist at the given path,
// or pulls the latest changes if it does. Progress output goes to progress
// when it is not nil.
func Sync(ctx context.Context, url, localPath string, progress io.Writer) error {
	_, err := os.Stat(localPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Info("cloning repository", "url", url, "path", localPath)
		_, err := git.PlainCloneContext(ctx, localPath, false, cloneOptions(url, progress))
		if err != nil {
			os.RemoveAll(localPath)
			return fmt.Errorf("failed to clone repo %s: %w", url, err)
		}
	case err == nil:
		slog.Info("pulling repository", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}

		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}

		err = worktree.PullContext(ctx, pullOptions(progress))
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}
	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}
	return nil
}
