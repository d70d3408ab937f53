package gitctx

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// ErrNotFound is returned when a file does not exist at a revision.
var ErrNotFound = errors.New("not found")

// Repo is an opened local repository.
type Repo struct {
	repo *git.Repository
	root string
}

// Meta describes the checked out revision.
type Meta struct {
	Root   string
	Head   string
	Branch string
}

// Open opens the repository containing path.
func Open(path string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening git repository at %s: %w", path, err)
	}
	r := &Repo{repo: repo}
	if wt, err := repo.Worktree(); err == nil {
		r.root = wt.Filesystem.Root()
	}
	return r, nil
}

// Root returns the worktree root, or "" for bare repositories.
func (r *Repo) Root() string { return r.root }

// Meta returns the HEAD commit and branch. A repository without commits
// yields an empty Head.
func (r *Repo) Meta() (Meta, error) {
	meta := Meta{Root: r.root}
	ref, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return meta, nil
	}
	if err != nil {
		return meta, fmt.Errorf("resolving HEAD: %w", err)
	}
	meta.Head = ref.Hash().String()
	if ref.Name().IsBranch() {
		meta.Branch = ref.Name().Short()
	}
	return meta, nil
}

// RemoteURL returns the first URL of the named remote.
func (r *Repo) RemoteURL(name string) (string, error) {
	remote, err := r.repo.Remote(name)
	if err != nil {
		return "", fmt.Errorf("remote %s: %w", name, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", name)
	}
	return urls[0], nil
}

func (r *Repo) commit(rev string) (*object.Commit, error) {
	if rev == "" {
		rev = "HEAD"
	}
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", rev, err)
	}
	c, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("reading commit %s: %w", rev, err)
	}
	return c, nil
}

// CommitDiff returns the diff a commit introduced against its first parent.
// A root commit is diffed against the empty tree.
func (r *Repo) CommitDiff(ctx context.Context, rev string) (string, error) {
	c, err := r.commit(rev)
	if err != nil {
		return "", err
	}
	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return "", fmt.Errorf("reading parent of %s: %w", rev, err)
		}
		if parentTree, err = parent.Tree(); err != nil {
			return "", fmt.Errorf("reading tree of %s: %w", parent.Hash, err)
		}
	}
	tree, err := c.Tree()
	if err != nil {
		return "", fmt.Errorf("reading tree of %s: %w", rev, err)
	}
	return treeDiff(ctx, parentTree, tree)
}

// RangeDiff returns the diff between the two ends of "base..head". The
// three-dot form "base...head" diffs head against the merge base.
func (r *Repo) RangeDiff(ctx context.Context, spec string) (string, error) {
	base, head, mergeBase, err := splitRange(spec)
	if err != nil {
		return "", err
	}
	from, err := r.commit(base)
	if err != nil {
		return "", err
	}
	to, err := r.commit(head)
	if err != nil {
		return "", err
	}
	if mergeBase {
		bases, err := from.MergeBase(to)
		if err != nil {
			return "", fmt.Errorf("finding merge base of %s: %w", spec, err)
		}
		if len(bases) == 0 {
			return "", fmt.Errorf("no merge base for %s", spec)
		}
		from = bases[0]
	}
	fromTree, err := from.Tree()
	if err != nil {
		return "", fmt.Errorf("reading tree of %s: %w", base, err)
	}
	toTree, err := to.Tree()
	if err != nil {
		return "", fmt.Errorf("reading tree of %s: %w", head, err)
	}
	return treeDiff(ctx, fromTree, toTree)
}

func splitRange(spec string) (base, head string, mergeBase bool, err error) {
	sep := ".."
	if strings.Contains(spec, "...") {
		sep = "..."
		mergeBase = true
	}
	base, head, ok := strings.Cut(spec, sep)
	if !ok || base == "" {
		return "", "", false, fmt.Errorf("invalid range %q, want base..head", spec)
	}
	if head == "" {
		head = "HEAD"
	}
	return base, head, mergeBase, nil
}

func treeDiff(ctx context.Context, from, to *object.Tree) (string, error) {
	changes, err := object.DiffTreeWithOptions(ctx, from, to, object.DefaultDiffTreeOptions)
	if err != nil {
		return "", fmt.Errorf("diffing trees: %w", err)
	}
	sort.Slice(changes, func(i, j int) bool { return changePath(changes[i]) < changePath(changes[j]) })
	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return "", fmt.Errorf("building patch: %w", err)
	}
	return patch.String(), nil
}

func changePath(c *object.Change) string {
	if c.To.Name != "" {
		return c.To.Name
	}
	return c.From.Name
}

// FileContent returns path as of ref, HEAD when ref is empty.
func (r *Repo) FileContent(_ context.Context, path, ref string) (string, error) {
	c, err := r.commit(ref)
	if err != nil {
		return "", err
	}
	f, err := c.File(path)
	if errors.Is(err, object.ErrFileNotFound) {
		return "", fmt.Errorf("%s at %s: %w", path, ref, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	content, err := f.Contents()
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return content, nil
}

// HookPath returns the path of the named hook script in the repository's
// git directory.
func (r *Repo) HookPath(name string) string {
	gitDir := filepath.Join(r.root, git.GitDirName)
	if fs, ok := r.repo.Storer.(*filesystem.Storage); ok {
		gitDir = fs.Filesystem().Root()
	}
	return filepath.Join(gitDir, "hooks", name)
}

// Staged returns the diff of the index against HEAD.
func (r *Repo) Staged(ctx context.Context) (string, error) {
	out, err := r.gitOutput(ctx, "diff", "--cached", "--no-color", "--no-ext-diff")
	if err != nil {
		return "", fmt.Errorf("git diff --cached: %w", err)
	}
	return out, nil
}

// Unstaged returns the diff of the working tree against the index.
func (r *Repo) Unstaged(ctx context.Context) (string, error) {
	out, err := r.gitOutput(ctx, "diff", "--no-color", "--no-ext-diff")
	if err != nil {
		return "", fmt.Errorf("git diff: %w", err)
	}
	return out, nil
}

func (r *Repo) gitOutput(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.root
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
