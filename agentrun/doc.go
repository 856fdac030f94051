/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package agentrun runs the agent once for a GitHub Actions event.
//
// A run reads its inputs from the environment, renders the instructions
// against the event payload, starts the default tool servers (GitHub and,
// when a workspace is checked out, git) plus any configured extras, and
// drives the conversation to completion. Afterwards it can post the
// transcript to the triggering issue or pull request and toggle labels
// depending on the outcome.
package agentrun
