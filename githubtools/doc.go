/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package githubtools exposes issue and pull request operations as an MCP
// tool server named "github-mcp".
//
// Every tool maps onto one or two GitHub REST calls made with go-github.
// Input schemas are reflected from the argument structs in this package, and
// REST failures are returned as MCP error results so the calling agent can
// read them and carry on.
//
// Updates are described with patch structs whose fields are optional
// pointers. BuildIssueRequest and BuildPullRequestEdit copy only the fields
// that are present, and DiffReviewers computes the reviewer requests to add
// and remove.
package githubtools
