/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agentrun

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/go-github/v75/github"
)

// Target is the issue or pull request a run reports back to.
type Target struct {
	Owner  string
	Repo   string
	Number int
}

func (t Target) String() string {
	return fmt.Sprintf("%s/%s#%d", t.Owner, t.Repo, t.Number)
}

// Event is the payload of the workflow trigger.
type Event struct {
	// Payload is the decoded event, used to render instructions.
	Payload map[string]any
	// Target is set when the event names an issue or pull request.
	Target *Target
}

// LoadEvent reads the event payload at path. An empty path or a missing
// file yields an empty event.
func LoadEvent(path string) (*Event, error) {
	if path == "" {
		return &Event{Payload: map[string]any{}}, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Event{Payload: map[string]any{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading event: %w", err)
	}
	return ParseEvent(b)
}

// ParseEvent decodes an event payload.
func ParseEvent(data []byte) (*Event, error) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parsing event: %w", err)
	}
	if payload == nil {
		payload = map[string]any{}
	}

	var typed struct {
		Issue       *github.Issue       `json:"issue"`
		PullRequest *github.PullRequest `json:"pull_request"`
		Repository  *github.Repository  `json:"repository"`
	}
	if err := json.Unmarshal(data, &typed); err != nil {
		return nil, fmt.Errorf("parsing event: %w", err)
	}

	ev := &Event{Payload: payload}
	var number int
	switch {
	case typed.Issue != nil:
		number = typed.Issue.GetNumber()
	case typed.PullRequest != nil:
		number = typed.PullRequest.GetNumber()
	}
	owner := typed.Repository.GetOwner().GetLogin()
	repo := typed.Repository.GetName()
	if number > 0 && owner != "" && repo != "" {
		ev.Target = &Target{Owner: owner, Repo: repo, Number: number}
	}
	return ev, nil
}
