/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubtools

import (
	"slices"
	"strings"

	"github.com/google/go-github/v75/github"
)

// IssuePatch lists the issue fields to change. Nil fields are left alone.
type IssuePatch struct {
	Title       *string   `json:"title,omitempty" jsonschema:"description=New issue title"`
	Body        *string   `json:"body,omitempty" jsonschema:"description=New issue body in Markdown"`
	State       *string   `json:"state,omitempty" jsonschema:"enum=open,enum=closed"`
	StateReason *string   `json:"state_reason,omitempty" jsonschema:"enum=completed,enum=not_planned,enum=reopened"`
	Labels      *[]string `json:"labels,omitempty" jsonschema:"description=Replaces the issue's labels"`
	Assignees   *[]string `json:"assignees,omitempty" jsonschema:"description=Replaces the issue's assignees"`
	Milestone   *int      `json:"milestone,omitempty" jsonschema:"description=Milestone number"`
}

// Empty reports whether the patch changes nothing.
func (p IssuePatch) Empty() bool {
	return p == IssuePatch{}
}

// BuildIssueRequest returns the edit request carrying exactly the fields set
// in p.
func BuildIssueRequest(p IssuePatch) *github.IssueRequest {
	req := &github.IssueRequest{
		Title:       p.Title,
		Body:        p.Body,
		State:       p.State,
		StateReason: p.StateReason,
		Milestone:   p.Milestone,
	}
	if p.Labels != nil {
		labels := slices.Clone(*p.Labels)
		req.Labels = &labels
	}
	if p.Assignees != nil {
		assignees := slices.Clone(*p.Assignees)
		req.Assignees = &assignees
	}
	return req
}

// PullRequestPatch lists the pull request fields to change. Nil fields are
// left alone. Reviewers, when set, is the complete list of requested
// reviewers.
type PullRequestPatch struct {
	Title               *string   `json:"title,omitempty" jsonschema:"description=New pull request title"`
	Body                *string   `json:"body,omitempty" jsonschema:"description=New pull request body in Markdown"`
	State               *string   `json:"state,omitempty" jsonschema:"enum=open,enum=closed"`
	Base                *string   `json:"base,omitempty" jsonschema:"description=Branch to merge into"`
	MaintainerCanModify *bool     `json:"maintainer_can_modify,omitempty"`
	Reviewers           *[]string `json:"reviewers,omitempty" jsonschema:"description=Logins that should be requested for review"`
}

// hasEdit reports whether the patch touches any field of the pull request
// itself, as opposed to its reviewers.
func (p PullRequestPatch) hasEdit() bool {
	return p.Title != nil || p.Body != nil || p.State != nil || p.Base != nil || p.MaintainerCanModify != nil
}

// BuildPullRequestEdit returns the edit payload carrying exactly the fields
// set in p.
func BuildPullRequestEdit(p PullRequestPatch) *github.PullRequest {
	pr := &github.PullRequest{
		Title:               p.Title,
		Body:                p.Body,
		State:               p.State,
		MaintainerCanModify: p.MaintainerCanModify,
	}
	if p.Base != nil {
		pr.Base = &github.PullRequestBranch{Ref: p.Base}
	}
	return pr
}

// DiffReviewers compares the currently requested reviewers with the wanted
// set. Logins compare case-insensitively. add keeps the order of requested
// and remove keeps the order of current; neither holds duplicates.
func DiffReviewers(current, requested []string) (add, remove []string) {
	has := func(list []string, login string) bool {
		return slices.ContainsFunc(list, func(s string) bool { return strings.EqualFold(s, login) })
	}
	for _, login := range requested {
		if !has(current, login) && !has(add, login) {
			add = append(add, login)
		}
	}
	for _, login := range current {
		if !has(requested, login) && !has(remove, login) {
			remove = append(remove, login)
		}
	}
	return add, remove
}
