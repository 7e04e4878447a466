// Package importer loads Markdown flashcards from a local directory or a
// git repository into a user's collection, skipping cards the user
// already has.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/conorfennell/flashlearn/internal/domain"
	"github.com/conorfennell/flashlearn/internal/gitsource"
	"github.com/conorfennell/flashlearn/internal/knol"
	"github.com/conorfennell/flashlearn/internal/parser"
	"github.com/conorfennell/flashlearn/internal/storage"
)

const (
	SourceLocal = "local"
	SourceGit   = "git"
)

// Store is the persistence the importer needs.
type Store interface {
	InsertSource(ctx context.Context, userID domain.UserID, path, sourceType string) (int64, error)
	FindSource(ctx context.Context, userID domain.UserID, path string) (*storage.Source, error)
	SourcesByUser(ctx context.Context, userID domain.UserID) ([]storage.Source, error)
	UpdateSourceLastScanned(ctx context.Context, sourceID int64) error
	FlashcardHashes(ctx context.Context, userID domain.UserID) (map[string]bool, error)
	InsertFlashcards(ctx context.Context, userID domain.UserID, source domain.Source, generationID string, drafts []domain.Draft) ([]domain.Flashcard, error)
}

// SyncFunc brings a local checkout of a git repository up to date.
type SyncFunc func(ctx context.Context, url, localPath string, progress io.Writer) error

// Report summarizes one import.
type Report struct {
	Source     string
	Files      int
	Parsed     int
	Inserted   int
	Duplicates int
	Incomplete int
	Errors     []error
}

type Importer struct {
	store    Store
	reposDir string
	sync     SyncFunc
	progress io.Writer
	logger   *slog.Logger
}

func New(store Store, reposDir string, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, reposDir: reposDir, sync: gitsource.Sync, logger: logger}
}

// WithProgress sends git clone and pull progress to w.
func (im *Importer) WithProgress(w io.Writer) *Importer {
	im.progress = w
	return im
}

// Import reads flashcards from target, a directory or a git URL, into the
// collection of userID. The source is remembered for later re-imports.
func (im *Importer) Import(ctx context.Context, userID domain.UserID, target string) (*Report, error) {
	sourceType := SourceLocal
	if IsGitURL(target) {
		sourceType = SourceGit
	} else {
		abs, err := filepath.Abs(target)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", target, err)
		}
		target = abs
	}

	src, err := im.store.FindSource(ctx, userID, target)
	if err != nil {
		return nil, err
	}
	if src == nil {
		id, err := im.store.InsertSource(ctx, userID, target, sourceType)
		if err != nil {
			return nil, err
		}
		src = &storage.Source{ID: id, UserID: userID, Path: target, Type: sourceType}
	}
	return im.reconcile(ctx, *src)
}

// ImportAll re-imports every source userID has imported from before.
func (im *Importer) ImportAll(ctx context.Context, userID domain.UserID) ([]*Report, error) {
	sources, err := im.store.SourcesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	reports := make([]*Report, 0, len(sources))
	var errs []error
	for _, src := range sources {
		r, err := im.reconcile(ctx, src)
		if err != nil {
			im.logger.Error("import failed", "user_id", userID, "source", src.Path, "error", err)
			errs = append(errs, err)
			continue
		}
		reports = append(reports, r)
	}
	return reports, errors.Join(errs...)
}

func (im *Importer) reconcile(ctx context.Context, src storage.Source) (*Report, error) {
	dir := src.Path
	if src.Type == SourceGit {
		local, err := gitURLToLocalPath(filepath.Join(im.reposDir, strconv.FormatInt(int64(src.UserID), 10)), src.Path)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create repos directory: %w", err)
		}
		if err := im.sync(ctx, src.Path, local, im.progress); err != nil {
			return nil, err
		}
		dir = local
	}

	report := &Report{Source: src.Path}
	var drafts []domain.Draft
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		report.Files++
		f, err := os.Open(path)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("opening %s: %w", path, err))
			return nil
		}
		defer f.Close()
		fileDrafts, incomplete, err := parser.ParseCounting(f)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("parsing %s: %w", path, err))
		}
		report.Incomplete += incomplete
		drafts = append(drafts, fileDrafts...)
		return ctx.Err()
	})
	if walkErr != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", dir, walkErr)
	}
	report.Parsed = len(drafts)

	known, err := im.store.FlashcardHashes(ctx, src.UserID)
	if err != nil {
		return nil, err
	}
	fresh := make([]domain.Draft, 0, len(drafts))
	for _, d := range drafts {
		h := knol.Hash(d)
		if known[h] {
			report.Duplicates++
			continue
		}
		known[h] = true
		fresh = append(fresh, d)
	}

	if len(fresh) > 0 {
		inserted, err := im.store.InsertFlashcards(ctx, src.UserID, domain.SourceImport, "", fresh)
		if err != nil {
			return nil, err
		}
		report.Inserted = len(inserted)
	}

	if err := im.store.UpdateSourceLastScanned(ctx, src.ID); err != nil {
		im.logger.Warn("failed to update last scanned for source", "source_id", src.ID, "error", err)
	}

	im.logger.Info("import complete",
		"user_id", src.UserID,
		"source", src.Path,
		"files", report.Files,
		"parsed", report.Parsed,
		"inserted", report.Inserted,
		"duplicates", report.Duplicates,
		"errors", len(report.Errors),
	)
	return report, nil
}

// IsGitURL reports whether target looks like a remote git repository.
func IsGitURL(target string) bool {
	if strings.HasPrefix(target, "git@") {
		return true
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https", "ssh", "git":
		return u.Host != ""
	}
	return false
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || parsedURL.Host == "" {
		// scp-like syntax: git@github.com:owner/repo.git
		if user, rest, ok := strings.Cut(repoURL, "@"); ok && user != "" {
			if host, repoPath, ok := strings.Cut(rest, ":"); ok && host != "" && repoPath != "" {
				return safeJoin(baseDir, host, strings.TrimSuffix(repoPath, ".git"))
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}
	return safeJoin(baseDir, parsedURL.Hostname(), strings.TrimSuffix(parsedURL.Path, ".git"))
}

// safeJoin joins the parts under baseDir and refuses paths that escape it.
func safeJoin(baseDir string, parts ...string) (string, error) {
	p := filepath.Join(append([]string{baseDir}, parts...)...)
	rel, err := filepath.Rel(baseDir, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("git URL maps outside the repos directory: %s", p)
	}
	return p, nil
}
