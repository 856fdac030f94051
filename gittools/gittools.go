/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package gittools exposes the workspace git repository as an MCP tool
// server named "git-mcp", providing git_status, git_branch, git_commit and
// git_push.
package gittools

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"chainguard.dev/mcpagent/internal/toolserver"
	"github.com/chainguard-dev/clog"
	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/oauth2"
)

// ServerName is the implementation name reported during initialization.
const ServerName = "git-mcp"

// Version is reported during initialization.
var Version = "1.0.0"

type tools struct {
	// Tool calls may run concurrently; git operations are serialized.
	mu sync.Mutex

	repo        *git.Repository
	authorName  string
	authorEmail string
	remote      string
	tokenSource oauth2.TokenSource
}

// Option configures New.
type Option func(*tools) error

// WithAuthor sets the identity recorded on commits.
func WithAuthor(name, email string) Option {
	return func(t *tools) error {
		if name == "" {
			return errors.New("author name cannot be empty")
		}
		if email == "" {
			email = name + "@users.noreply.github.com"
		}
		t.authorName, t.authorEmail = name, email
		return nil
	}
}

// WithRemote sets the remote that git_push pushes to. Defaults to origin.
func WithRemote(name string) Option {
	return func(t *tools) error {
		if name == "" {
			return errors.New("remote name cannot be empty")
		}
		t.remote = name
		return nil
	}
}

// WithTokenSource authenticates pushes with an access token.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(t *tools) error {
		if ts == nil {
			return errors.New("token source cannot be nil")
		}
		t.tokenSource = ts
		return nil
	}
}

// Open opens the repository containing path.
func Open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return repo, nil
}

// New returns an MCP server exposing git tools over repo.
func New(repo *git.Repository, opts ...Option) (*server.MCPServer, error) {
	if repo == nil {
		return nil, errors.New("repository cannot be nil")
	}
	t := &tools{
		repo:        repo,
		authorName:  "mcpagent",
		authorEmail: "mcpagent@users.noreply.github.com",
		remote:      "origin",
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	return toolserver.New(ServerName, Version,
		toolserver.Tool("git_status", "Show the current branch and the files that differ from HEAD.", t.status),
		toolserver.Tool("git_branch", "Create a branch at HEAD (or reuse an existing one) and check it out, keeping uncommitted changes.", t.branch),
		toolserver.Tool("git_commit", "Stage every change in the working tree and commit it.", t.commit),
		toolserver.Tool("git_push", "Push a branch (the current one by default) to the remote.", t.push),
	)
}

// StatusArgs are the arguments of git_status.
type StatusArgs struct{}

// FileStatus is one changed path.
type FileStatus struct {
	Path     string `json:"path"`
	Staging  string `json:"staging"`
	Worktree string `json:"worktree"`
}

// Status is the result of git_status.
type Status struct {
	Branch string       `json:"branch"`
	Head   string       `json:"head,omitempty"`
	Clean  bool         `json:"clean"`
	Files  []FileStatus `json:"files"`
}

func (t *tools) status(_ context.Context, _ StatusArgs) (*Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	branch, head, err := t.head()
	if err != nil {
		return nil, err
	}
	wt, err := t.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}
	st, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("computing status: %w", err)
	}

	out := &Status{Branch: branch, Head: head, Clean: st.IsClean(), Files: []FileStatus{}}
	for path, fs := range st {
		if fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified {
			continue
		}
		out.Files = append(out.Files, FileStatus{Path: path, Staging: string(fs.Staging), Worktree: string(fs.Worktree)})
	}
	slices.SortFunc(out.Files, func(a, b FileStatus) int { return strings.Compare(a.Path, b.Path) })
	return out, nil
}

// head returns the checked out branch and, once a commit exists, its hash.
func (t *tools) head() (branch, hash string, err error) {
	ref, err := t.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", "", fmt.Errorf("reading HEAD: %w", err)
	}
	if ref.Type() == plumbing.SymbolicReference {
		branch = ref.Target().Short()
	}
	resolved, err := t.repo.Head()
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return branch, "", nil
	case err != nil:
		return "", "", fmt.Errorf("resolving HEAD: %w", err)
	}
	return branch, resolved.Hash().String(), nil
}

// BranchArgs are the arguments of git_branch.
type BranchArgs struct {
	Name string `json:"name" jsonschema:"required,description=Branch name such as agent/short-feature-desc"`
}

// Branch is the result of git_branch.
type Branch struct {
	Branch  string `json:"branch"`
	Head    string `json:"head"`
	Created bool   `json:"created"`
}

func (t *tools) branch(ctx context.Context, args BranchArgs) (*Branch, error) {
	if args.Name == "" {
		return nil, errors.New("name is required")
	}
	refName := plumbing.NewBranchReferenceName(args.Name)
	if err := refName.Validate(); err != nil {
		return nil, fmt.Errorf("invalid branch name %q: %w", args.Name, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	head, err := t.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	created := false
	if _, err := t.repo.Reference(refName, false); errors.Is(err, plumbing.ErrReferenceNotFound) {
		if err := t.repo.Storer.SetReference(plumbing.NewHashReference(refName, head.Hash())); err != nil {
			return nil, fmt.Errorf("setting branch reference: %w", err)
		}
		created = true
	} else if err != nil {
		return nil, fmt.Errorf("looking up branch: %w", err)
	}

	wt, err := t.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: refName, Keep: true}); err != nil {
		return nil, fmt.Errorf("checking out branch: %w", err)
	}

	now, err := t.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}
	clog.FromContext(ctx).Infof("Checked out branch %s", args.Name)
	return &Branch{Branch: args.Name, Head: now.Hash().String(), Created: created}, nil
}

// CommitArgs are the arguments of git_commit.
type CommitArgs struct {
	Message string `json:"message" jsonschema:"required,description=Commit message"`
}

// Commit is the result of git_commit.
type Commit struct {
	Hash   string `json:"hash"`
	Branch string `json:"branch"`
}

func (t *tools) commit(ctx context.Context, args CommitArgs) (*Commit, error) {
	if strings.TrimSpace(args.Message) == "" {
		return nil, errors.New("commit message cannot be empty")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	wt, err := t.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return nil, fmt.Errorf("staging changes: %w", err)
	}

	hash, err := wt.Commit(args.Message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  t.authorName,
			Email: t.authorEmail,
			When:  time.Now(),
		},
	})
	if errors.Is(err, git.ErrEmptyCommit) {
		return nil, errors.New("nothing to commit: the working tree is clean")
	} else if err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}

	branch, _, err := t.head()
	if err != nil {
		return nil, err
	}
	clog.FromContext(ctx).Infof("Committed %s on %s", hash, branch)
	return &Commit{Hash: hash.String(), Branch: branch}, nil
}

// PushArgs are the arguments of git_push.
type PushArgs struct {
	Branch string `json:"branch,omitempty" jsonschema:"description=Branch to push; defaults to the current branch"`
	Force  bool   `json:"force,omitempty" jsonschema:"description=Overwrite the remote branch even if it has diverged"`
}

// Push is the result of git_push.
type Push struct {
	Remote   string `json:"remote"`
	Branch   string `json:"branch"`
	UpToDate bool   `json:"up_to_date"`
}

func (t *tools) push(ctx context.Context, args PushArgs) (*Push, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	branch := args.Branch
	if branch == "" {
		current, _, err := t.head()
		if err != nil {
			return nil, err
		}
		if current == "" {
			return nil, errors.New("HEAD is detached; name the branch to push")
		}
		branch = current
	}

	auth, err := t.auth()
	if err != nil {
		return nil, err
	}

	ref := plumbing.NewBranchReferenceName(branch)
	// Pushing a missing ref is reported by go-git as already up to date.
	if _, err := t.repo.Reference(ref, true); err != nil {
		return nil, fmt.Errorf("branch %q does not exist: %w", branch, err)
	}
	refSpec := gitconfig.RefSpec(fmt.Sprintf("%s:%s", ref, ref))
	if args.Force {
		refSpec = "+" + refSpec
	}
	log := clog.FromContext(ctx)
	log.Infof("Pushing %s to %s", refSpec, t.remote)

	out := &Push{Remote: t.remote, Branch: branch}
	err = t.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: t.remote,
		Auth:       auth,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
	})
	switch {
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		log.Info("Branch already up to date")
		out.UpToDate = true
	case err != nil:
		return nil, fmt.Errorf("pushing %s: %w", branch, err)
	}
	return out, nil
}

func (t *tools) auth() (transport.AuthMethod, error) {
	if t.tokenSource == nil {
		return nil, nil
	}
	token, err := t.tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("getting token: %w", err)
	}
	return &githttp.BasicAuth{
		Username: "unused-when-using-access-tokens",
		Password: token.AccessToken,
	}, nil
}
