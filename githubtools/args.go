/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubtools

import (
	"errors"
	"fmt"
)

// Repository identifies the repository a tool acts on.
type Repository struct {
	Owner string `json:"owner" jsonschema:"required,description=Repository owner (user or organization)"`
	Repo  string `json:"repo" jsonschema:"required,description=Repository name"`
}

func (r Repository) validate() error {
	if r.Owner == "" || r.Repo == "" {
		return errors.New("owner and repo are required")
	}
	return nil
}

// IssueRef identifies an issue, or the conversation of a pull request.
type IssueRef struct {
	Repository
	IssueNumber int `json:"issue_number" jsonschema:"required,description=Issue or pull request number"`
}

func (r IssueRef) validate() error {
	if err := r.Repository.validate(); err != nil {
		return err
	}
	if r.IssueNumber <= 0 {
		return fmt.Errorf("issue_number must be positive, got %d", r.IssueNumber)
	}
	return nil
}

// PullRef identifies a pull request.
type PullRef struct {
	Repository
	PullNumber int `json:"pull_number" jsonschema:"required,description=Pull request number"`
}

func (r PullRef) validate() error {
	if err := r.Repository.validate(); err != nil {
		return err
	}
	if r.PullNumber <= 0 {
		return fmt.Errorf("pull_number must be positive, got %d", r.PullNumber)
	}
	return nil
}

// GetIssueArgs are the arguments of get_issue.
type GetIssueArgs struct {
	IssueRef
}

// GetPullRequestArgs are the arguments of get_pull_request.
type GetPullRequestArgs struct {
	PullRef
}

// AddIssueCommentArgs are the arguments of add_issue_comment.
type AddIssueCommentArgs struct {
	IssueRef
	Body string `json:"body" jsonschema:"required,description=Comment text in Markdown"`
}

// CreatePullRequestReviewArgs are the arguments of create_pull_request_review.
type CreatePullRequestReviewArgs struct {
	PullRef
	Body     string `json:"body,omitempty" jsonschema:"description=Review summary in Markdown"`
	Event    string `json:"event" jsonschema:"required,enum=APPROVE,enum=REQUEST_CHANGES,enum=COMMENT"`
	CommitID string `json:"commit_id,omitempty" jsonschema:"description=SHA of the commit to review; defaults to the head commit"`
}

// CreatePullRequestArgs are the arguments of create_pull_request.
type CreatePullRequestArgs struct {
	Repository
	Title     string   `json:"title" jsonschema:"required"`
	Body      string   `json:"body,omitempty" jsonschema:"description=Pull request description in Markdown"`
	Head      string   `json:"head" jsonschema:"required,description=Branch containing the changes"`
	Base      string   `json:"base" jsonschema:"required,description=Branch to merge into"`
	Draft     bool     `json:"draft,omitempty"`
	Reviewers []string `json:"reviewers,omitempty" jsonschema:"description=Logins to request a review from"`
}

// UpdateIssueArgs are the arguments of update_issue.
type UpdateIssueArgs struct {
	IssueRef
	IssuePatch
}

// ClosePullRequestArgs are the arguments of close_pull_request.
type ClosePullRequestArgs struct {
	PullRef
}

// MergePullRequestArgs are the arguments of merge_pull_request.
type MergePullRequestArgs struct {
	PullRef
	CommitTitle   string `json:"commit_title,omitempty"`
	CommitMessage string `json:"commit_message,omitempty"`
	MergeMethod   string `json:"merge_method,omitempty" jsonschema:"enum=merge,enum=squash,enum=rebase"`
	SHA           string `json:"sha,omitempty" jsonschema:"description=Head SHA the pull request must match to be merged"`
}

// UpdatePullRequestArgs are the arguments of update_pull_request.
type UpdatePullRequestArgs struct {
	PullRef
	PullRequestPatch
}

// CreateIssueArgs are the arguments of create_issue.
type CreateIssueArgs struct {
	Repository
	Title     string   `json:"title" jsonschema:"required"`
	Body      string   `json:"body,omitempty" jsonschema:"description=Issue description in Markdown"`
	Labels    []string `json:"labels,omitempty"`
	Assignees []string `json:"assignees,omitempty"`
}
