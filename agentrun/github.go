/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agentrun

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v75/github"
)

// updateLabels removes then adds labels on t. Removing a label that is not
// present is not an error, and failing to add labels is only logged, so a
// label problem never changes the outcome of a run.
func updateLabels(ctx context.Context, gh *github.Client, t Target, add, remove []string) {
	log := clog.FromContext(ctx).With("target", t.String())

	for _, label := range remove {
		if _, err := gh.Issues.RemoveLabelForIssue(ctx, t.Owner, t.Repo, t.Number, label); err != nil {
			log.With("label", label).With("error", err.Error()).Debug("Could not remove label")
			continue
		}
		log.With("label", label).Info("Removed label")
	}

	if len(add) == 0 {
		return
	}
	if _, _, err := gh.Issues.AddLabelsToIssue(ctx, t.Owner, t.Repo, t.Number, add); err != nil {
		log.With("labels", add).With("error", err.Error()).Warn("Could not add labels")
		return
	}
	log.With("labels", add).Info("Added labels")
}

// postComment adds body as a comment on t.
func postComment(ctx context.Context, gh *github.Client, t Target, body string) error {
	c, _, err := gh.Issues.CreateComment(ctx, t.Owner, t.Repo, t.Number, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("posting summary to %s: %w", t, err)
	}
	clog.FromContext(ctx).With("target", t.String()).
		With("comment_id", c.GetID()).
		Info("Posted agent response as comment")
	return nil
}
