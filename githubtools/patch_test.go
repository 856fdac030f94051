/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubtools_test

import (
	"testing"

	"chainguard.dev/mcpagent/githubtools"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-github/v75/github"
)

func TestBuildIssueRequest(t *testing.T) {
	labels := []string{"bug", "triaged"}

	tests := []struct {
		name  string
		patch githubtools.IssuePatch
		want  *github.IssueRequest
	}{{
		name:  "empty",
		patch: githubtools.IssuePatch{},
		want:  &github.IssueRequest{},
	}, {
		name:  "title only",
		patch: githubtools.IssuePatch{Title: github.Ptr("New title")},
		want:  &github.IssueRequest{Title: github.Ptr("New title")},
	}, {
		name: "close as not planned",
		patch: githubtools.IssuePatch{
			State:       github.Ptr("closed"),
			StateReason: github.Ptr("not_planned"),
		},
		want: &github.IssueRequest{
			State:       github.Ptr("closed"),
			StateReason: github.Ptr("not_planned"),
		},
	}, {
		name:  "clear labels",
		patch: githubtools.IssuePatch{Labels: &[]string{}},
		want:  &github.IssueRequest{Labels: &[]string{}},
	}, {
		name: "everything",
		patch: githubtools.IssuePatch{
			Title:     github.Ptr("t"),
			Body:      github.Ptr("b"),
			Labels:    &labels,
			Assignees: &[]string{"octocat"},
			Milestone: github.Ptr(3),
		},
		want: &github.IssueRequest{
			Title:     github.Ptr("t"),
			Body:      github.Ptr("b"),
			Labels:    &[]string{"bug", "triaged"},
			Assignees: &[]string{"octocat"},
			Milestone: github.Ptr(3),
		},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := githubtools.BuildIssueRequest(tt.patch)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("BuildIssueRequest() mismatch (-want +got):\n%s", diff)
			}
			if got, want := tt.patch.Empty(), tt.name == "empty"; got != want {
				t.Errorf("Empty(): got = %v, wanted = %v", got, want)
			}
		})
	}
}

func TestBuildIssueRequestCopiesSlices(t *testing.T) {
	labels := []string{"bug"}
	req := githubtools.BuildIssueRequest(githubtools.IssuePatch{Labels: &labels})
	labels[0] = "changed"
	if got := (*req.Labels)[0]; got != "bug" {
		t.Errorf("Labels[0]: got = %q, wanted = %q", got, "bug")
	}
}

func TestBuildPullRequestEdit(t *testing.T) {
	tests := []struct {
		name  string
		patch githubtools.PullRequestPatch
		want  *github.PullRequest
	}{{
		name:  "empty",
		patch: githubtools.PullRequestPatch{},
		want:  &github.PullRequest{},
	}, {
		name:  "reviewers are not part of the edit",
		patch: githubtools.PullRequestPatch{Reviewers: &[]string{"octocat"}},
		want:  &github.PullRequest{},
	}, {
		name: "retarget and retitle",
		patch: githubtools.PullRequestPatch{
			Title: github.Ptr("Better title"),
			Base:  github.Ptr("develop"),
		},
		want: &github.PullRequest{
			Title: github.Ptr("Better title"),
			Base:  &github.PullRequestBranch{Ref: github.Ptr("develop")},
		},
	}, {
		name: "close",
		patch: githubtools.PullRequestPatch{
			State:               github.Ptr("closed"),
			MaintainerCanModify: github.Ptr(false),
		},
		want: &github.PullRequest{
			State:               github.Ptr("closed"),
			MaintainerCanModify: github.Ptr(false),
		},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, githubtools.BuildPullRequestEdit(tt.patch)); diff != "" {
				t.Errorf("BuildPullRequestEdit() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiffReviewers(t *testing.T) {
	tests := []struct {
		name       string
		current    []string
		requested  []string
		wantAdd    []string
		wantRemove []string
	}{{
		name: "nothing",
	}, {
		name:      "add all",
		requested: []string{"alice", "bob"},
		wantAdd:   []string{"alice", "bob"},
	}, {
		name:       "remove all",
		current:    []string{"alice", "bob"},
		requested:  []string{},
		wantRemove: []string{"alice", "bob"},
	}, {
		name:       "swap",
		current:    []string{"alice", "bob"},
		requested:  []string{"bob", "carol"},
		wantAdd:    []string{"carol"},
		wantRemove: []string{"alice"},
	}, {
		name:      "case insensitive",
		current:   []string{"Alice"},
		requested: []string{"alice"},
	}, {
		name:       "duplicates",
		current:    []string{"dave", "dave"},
		requested:  []string{"erin", "Erin", "erin"},
		wantAdd:    []string{"erin"},
		wantRemove: []string{"dave"},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			add, remove := githubtools.DiffReviewers(tt.current, tt.requested)
			if diff := cmp.Diff(tt.wantAdd, add); diff != "" {
				t.Errorf("add mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantRemove, remove); diff != "" {
				t.Errorf("remove mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
