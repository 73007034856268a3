// Package gitdelta narrows a check run to the files that actually changed,
// so pull-request pipelines are not billed for the whole tree.
package gitdelta

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// Delta detects changed files relative to a target branch.
type Delta struct {
	Root         string
	TargetBranch string
	// WorktreeOnly skips the branch diff and reports only staged and
	// unstaged modifications.
	WorktreeOnly bool
}

// ChangedFiles returns the set of paths changed in the working tree plus
// those changed between HEAD and the target branch. A nil set means the
// caller should fall back to a full scan: outside a git repo, or when the
// diff could not be computed, checking everything is the safe answer.
func (d *Delta) ChangedFiles(ctx context.Context) (map[string]bool, error) {
	repo, err := git.PlainOpen(d.Root)
	if err != nil {
		return nil, nil
	}

	changed := map[string]bool{}

	local, err := d.worktreeChanges(repo)
	if err != nil {
		return nil, nil
	}
	for p := range local {
		changed[p] = true
	}

	if !d.WorktreeOnly {
		committed, err := d.branchChanges(ctx, repo)
		if err != nil {
			return nil, nil
		}
		for p := range committed {
			changed[p] = true
		}
	}

	return changed, nil
}

// worktreeChanges finds staged and unstaged modifications.
func (d *Delta) worktreeChanges(repo *git.Repository) (map[string]bool, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}
	status, err := wt.Status()
	if err != nil {
		return nil, err
	}

	changed := map[string]bool{}
	for path, s := range status {
		if s.Worktree == git.Unmodified && s.Staging == git.Unmodified {
			continue
		}
		changed[path] = true
	}
	return changed, nil
}

// branchChanges diffs HEAD against the target branch tip.
func (d *Delta) branchChanges(ctx context.Context, repo *git.Repository) (map[string]bool, error) {
	branch := d.targetBranch(repo)
	if branch == "" {
		return nil, nil
	}

	headRef, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}
	headCommit, err := repo.CommitObject(headRef.Hash())
	if err != nil {
		return nil, fmt.Errorf("loading HEAD commit: %w", err)
	}

	targetRef, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		targetRef, err = repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
		if err != nil {
			return nil, nil
		}
	}
	targetCommit, err := repo.CommitObject(targetRef.Hash())
	if err != nil {
		return nil, fmt.Errorf("loading target commit: %w", err)
	}

	// On the target branch itself, diff against the parent so the tip
	// commit still gets checked.
	if headCommit.Hash == targetCommit.Hash {
		if headCommit.NumParents() == 0 {
			return nil, nil
		}
		parent, err := headCommit.Parent(0)
		if err != nil {
			return nil, nil
		}
		targetCommit = parent
	}

	headTree, err := headCommit.Tree()
	if err != nil {
		return nil, err
	}
	targetTree, err := targetCommit.Tree()
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTreeWithOptions(ctx, targetTree, headTree, &object.DiffTreeOptions{})
	if err != nil {
		return nil, fmt.Errorf("diffing trees: %w", err)
	}

	changed := map[string]bool{}
	for _, change := range changes {
		if name := changeName(change); name != "" {
			changed[name] = true
		}
	}
	return changed, nil
}

// targetBranch picks the comparison branch: explicit env, config, common
// CI variables, then the remote's default branch.
func (d *Delta) targetBranch(repo *git.Repository) string {
	if branch := os.Getenv("SLOCWATCH_TARGET_BRANCH"); branch != "" {
		return branch
	}
	if d.TargetBranch != "" {
		return d.TargetBranch
	}

	for _, v := range []string{
		"CI_MERGE_REQUEST_TARGET_BRANCH_NAME",
		"GITHUB_BASE_REF",
		"BITBUCKET_PR_DESTINATION_BRANCH",
		"CHANGE_TARGET",
	} {
		if branch := os.Getenv(v); branch != "" {
			return branch
		}
	}

	if branch := defaultBranch(repo); branch != "" {
		return branch
	}
	return "main"
}

// defaultBranch reads the symbolic target of origin/HEAD.
func defaultBranch(repo *git.Repository) string {
	ref, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", "HEAD"), false)
	if err != nil {
		return ""
	}
	const prefix = "refs/remotes/origin/"
	target := ref.Target().String()
	if strings.HasPrefix(target, prefix) {
		return strings.TrimPrefix(target, prefix)
	}
	return ""
}

func changeName(change *object.Change) string {
	action, err := change.Action()
	if err != nil {
		return ""
	}
	switch action {
	case merkletrie.Insert, merkletrie.Modify:
		return change.To.Name
	case merkletrie.Delete:
		return change.From.Name
	}
	return ""
}

// Filter keeps only the files present in the changed set. A nil set keeps
// everything.
func Filter(files []string, changed map[string]bool) []string {
	if changed == nil {
		return files
	}
	kept := make([]string, 0, len(changed))
	for _, f := range files {
		if changed[f] || changed[strings.TrimPrefix(f, "./")] {
			kept = append(kept, f)
		}
	}
	return kept
}
