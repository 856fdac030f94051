/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubtools

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v75/github"
	"golang.org/x/sync/errgroup"
)

// IssueThread is an issue with its comments.
type IssueThread struct {
	Issue    *github.Issue          `json:"issue"`
	Comments []*github.IssueComment `json:"comments"`
}

// PullRequestThread is a pull request with its reviews.
type PullRequestThread struct {
	PullRequest *github.PullRequest         `json:"pull_request"`
	Reviews     []*github.PullRequestReview `json:"reviews"`
}

// CreatedPullRequest is the result of create_pull_request. Warnings lists the
// follow-up calls that failed after the pull request was opened.
type CreatedPullRequest struct {
	PullRequest *github.PullRequest `json:"pull_request"`
	Warnings    []string            `json:"warnings,omitempty"`
}

// UpdatedPullRequest is the result of update_pull_request.
type UpdatedPullRequest struct {
	PullRequest      *github.PullRequest `json:"pull_request"`
	ReviewersAdded   []string            `json:"reviewers_added,omitempty"`
	ReviewersRemoved []string            `json:"reviewers_removed,omitempty"`
}

const perPage = 100

func (t *tools) getIssue(ctx context.Context, args GetIssueArgs) (*IssueThread, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}
	var out IssueThread
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		issue, _, err := t.client.Issues.Get(ctx, args.Owner, args.Repo, args.IssueNumber)
		if err != nil {
			return fmt.Errorf("getting issue: %w", err)
		}
		out.Issue = issue
		return nil
	})
	eg.Go(func() error {
		opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: perPage}}
		comments := []*github.IssueComment{}
		for {
			page, resp, err := t.client.Issues.ListComments(ctx, args.Owner, args.Repo, args.IssueNumber, opts)
			if err != nil {
				return fmt.Errorf("listing comments: %w", err)
			}
			comments = append(comments, page...)
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
		out.Comments = comments
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *tools) getPullRequest(ctx context.Context, args GetPullRequestArgs) (*PullRequestThread, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}
	var out PullRequestThread
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		pr, _, err := t.client.PullRequests.Get(ctx, args.Owner, args.Repo, args.PullNumber)
		if err != nil {
			return fmt.Errorf("getting pull request: %w", err)
		}
		out.PullRequest = pr
		return nil
	})
	eg.Go(func() error {
		opts := &github.ListOptions{PerPage: perPage}
		reviews := []*github.PullRequestReview{}
		for {
			page, resp, err := t.client.PullRequests.ListReviews(ctx, args.Owner, args.Repo, args.PullNumber, opts)
			if err != nil {
				return fmt.Errorf("listing reviews: %w", err)
			}
			reviews = append(reviews, page...)
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
		out.Reviews = reviews
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *tools) addIssueComment(ctx context.Context, args AddIssueCommentArgs) (*github.IssueComment, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}
	if args.Body == "" {
		return nil, errors.New("body is required")
	}
	comment, _, err := t.client.Issues.CreateComment(ctx, args.Owner, args.Repo, args.IssueNumber, &github.IssueComment{
		Body: github.Ptr(args.Body),
	})
	if err != nil {
		return nil, fmt.Errorf("posting comment: %w", err)
	}
	return comment, nil
}

func (t *tools) createPullRequestReview(ctx context.Context, args CreatePullRequestReviewArgs) (*github.PullRequestReview, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}
	req := &github.PullRequestReviewRequest{Event: github.Ptr(args.Event)}
	if args.Body != "" {
		req.Body = github.Ptr(args.Body)
	}
	if args.CommitID != "" {
		req.CommitID = github.Ptr(args.CommitID)
	}
	review, _, err := t.client.PullRequests.CreateReview(ctx, args.Owner, args.Repo, args.PullNumber, req)
	if err != nil {
		return nil, fmt.Errorf("creating review: %w", err)
	}
	return review, nil
}

func (t *tools) createPullRequest(ctx context.Context, args CreatePullRequestArgs) (*CreatedPullRequest, error) {
	if err := args.Repository.validate(); err != nil {
		return nil, err
	}
	if args.Title == "" || args.Head == "" || args.Base == "" {
		return nil, errors.New("title, head and base are required")
	}
	log := clog.FromContext(ctx)

	pr, _, err := t.client.PullRequests.Create(ctx, args.Owner, args.Repo, &github.NewPullRequest{
		Title: github.Ptr(args.Title),
		Body:  github.Ptr(args.Body),
		Head:  github.Ptr(args.Head),
		Base:  github.Ptr(args.Base),
		Draft: github.Ptr(args.Draft),
	})
	if err != nil {
		return nil, fmt.Errorf("creating pull request: %w", err)
	}
	log.Infof("Created PR #%d: %s", pr.GetNumber(), pr.GetHTMLURL())

	// The pull request exists at this point, so later failures are reported
	// alongside it instead of failing the call.
	out := &CreatedPullRequest{PullRequest: pr}
	if _, _, err := t.client.Issues.AddLabelsToIssue(ctx, args.Owner, args.Repo, pr.GetNumber(), []string{CreatedLabel}); err != nil {
		log.Warnf("Failed to label PR #%d: %v", pr.GetNumber(), err)
		out.Warnings = append(out.Warnings, fmt.Sprintf("adding label %q: %v", CreatedLabel, err))
	}
	if len(args.Reviewers) > 0 {
		if _, _, err := t.client.PullRequests.RequestReviewers(ctx, args.Owner, args.Repo, pr.GetNumber(), github.ReviewersRequest{
			Reviewers: args.Reviewers,
		}); err != nil {
			log.Warnf("Failed to request reviewers on PR #%d: %v", pr.GetNumber(), err)
			out.Warnings = append(out.Warnings, fmt.Sprintf("requesting reviewers: %v", err))
		}
	}
	return out, nil
}

func (t *tools) updateIssue(ctx context.Context, args UpdateIssueArgs) (*github.Issue, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}
	if args.IssuePatch.Empty() {
		return nil, errors.New("no fields to update")
	}
	issue, _, err := t.client.Issues.Edit(ctx, args.Owner, args.Repo, args.IssueNumber, BuildIssueRequest(args.IssuePatch))
	if err != nil {
		return nil, fmt.Errorf("updating issue: %w", err)
	}
	return issue, nil
}

func (t *tools) closePullRequest(ctx context.Context, args ClosePullRequestArgs) (*github.PullRequest, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}
	pr, _, err := t.client.PullRequests.Edit(ctx, args.Owner, args.Repo, args.PullNumber, &github.PullRequest{
		State: github.Ptr("closed"),
	})
	if err != nil {
		return nil, fmt.Errorf("closing pull request: %w", err)
	}
	return pr, nil
}

func (t *tools) mergePullRequest(ctx context.Context, args MergePullRequestArgs) (*github.PullRequestMergeResult, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}
	res, _, err := t.client.PullRequests.Merge(ctx, args.Owner, args.Repo, args.PullNumber, args.CommitMessage, &github.PullRequestOptions{
		CommitTitle: args.CommitTitle,
		MergeMethod: args.MergeMethod,
		SHA:         args.SHA,
	})
	if err != nil {
		return nil, fmt.Errorf("merging pull request: %w", err)
	}
	return res, nil
}

func (t *tools) updatePullRequest(ctx context.Context, args UpdatePullRequestArgs) (*UpdatedPullRequest, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}
	patch := args.PullRequestPatch
	if !patch.hasEdit() && patch.Reviewers == nil {
		return nil, errors.New("no fields to update")
	}
	out := &UpdatedPullRequest{}

	if patch.hasEdit() {
		pr, _, err := t.client.PullRequests.Edit(ctx, args.Owner, args.Repo, args.PullNumber, BuildPullRequestEdit(patch))
		if err != nil {
			return nil, fmt.Errorf("updating pull request: %w", err)
		}
		out.PullRequest = pr
	}

	if patch.Reviewers != nil {
		current, _, err := t.client.PullRequests.ListReviewers(ctx, args.Owner, args.Repo, args.PullNumber, nil)
		if err != nil {
			return nil, fmt.Errorf("listing reviewers: %w", err)
		}
		logins := make([]string, 0, len(current.Users))
		for _, u := range current.Users {
			logins = append(logins, u.GetLogin())
		}

		add, remove := DiffReviewers(logins, *patch.Reviewers)
		if len(add) > 0 {
			pr, _, err := t.client.PullRequests.RequestReviewers(ctx, args.Owner, args.Repo, args.PullNumber, github.ReviewersRequest{Reviewers: add})
			if err != nil {
				return nil, fmt.Errorf("requesting reviewers: %w", err)
			}
			out.PullRequest = pr
		}
		if len(remove) > 0 {
			if _, err := t.client.PullRequests.RemoveReviewers(ctx, args.Owner, args.Repo, args.PullNumber, github.ReviewersRequest{Reviewers: remove}); err != nil {
				return nil, fmt.Errorf("removing reviewers: %w", err)
			}
		}
		out.ReviewersAdded, out.ReviewersRemoved = add, remove
	}

	if out.PullRequest == nil {
		pr, _, err := t.client.PullRequests.Get(ctx, args.Owner, args.Repo, args.PullNumber)
		if err != nil {
			return nil, fmt.Errorf("getting pull request: %w", err)
		}
		out.PullRequest = pr
	}
	return out, nil
}

func (t *tools) createIssue(ctx context.Context, args CreateIssueArgs) (*github.Issue, error) {
	if err := args.Repository.validate(); err != nil {
		return nil, err
	}
	if args.Title == "" {
		return nil, errors.New("title is required")
	}
	req := &github.IssueRequest{Title: github.Ptr(args.Title)}
	if args.Body != "" {
		req.Body = github.Ptr(args.Body)
	}
	if len(args.Labels) > 0 {
		req.Labels = &args.Labels
	}
	if len(args.Assignees) > 0 {
		req.Assignees = &args.Assignees
	}
	issue, _, err := t.client.Issues.Create(ctx, args.Owner, args.Repo, req)
	if err != nil {
		return nil, fmt.Errorf("creating issue: %w", err)
	}
	return issue, nil
}
