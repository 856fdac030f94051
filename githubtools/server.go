/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubtools

import (
	"errors"

	"chainguard.dev/mcpagent/internal/toolserver"
	"github.com/google/go-github/v75/github"
	"github.com/mark3labs/mcp-go/server"
)

const (
	// ServerName is the implementation name reported during initialization.
	ServerName = "github-mcp"

	// CreatedLabel is applied to every pull request opened through
	// create_pull_request.
	CreatedLabel = "mcpagent"
)

// Version is reported during initialization.
var Version = "1.0.0"

// tools holds the GitHub client the tool handlers act through.
type tools struct {
	client *github.Client
}

// New returns an MCP server exposing the GitHub tools backed by client.
func New(client *github.Client) (*server.MCPServer, error) {
	if client == nil {
		return nil, errors.New("github client cannot be nil")
	}
	t := &tools{client: client}

	return toolserver.New(ServerName, Version,
		toolserver.Tool("get_issue", "Get an issue together with its comment thread.", t.getIssue),
		toolserver.Tool("get_pull_request", "Get a pull request together with its reviews.", t.getPullRequest),
		toolserver.Tool("add_issue_comment", "Add a comment to an issue or pull request.", t.addIssueComment),
		toolserver.Tool("create_pull_request_review", "Submit a review on a pull request.", t.createPullRequestReview),
		toolserver.Tool("create_pull_request", "Open a pull request, optionally requesting reviewers.", t.createPullRequest),
		toolserver.Tool("update_issue", "Update the title, body, state, labels, assignees or milestone of an issue.", t.updateIssue),
		toolserver.Tool("close_pull_request", "Close a pull request without merging it.", t.closePullRequest),
		toolserver.Tool("merge_pull_request", "Merge a pull request.", t.mergePullRequest),
		toolserver.Tool("update_pull_request", "Update a pull request and its requested reviewers.", t.updatePullRequest),
		toolserver.Tool("create_issue", "Open a new issue.", t.createIssue),
	)
}
