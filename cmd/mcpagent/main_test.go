/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func clearGitHubEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GITHUB_TOKEN", "GITHUB_APP_ID", "GITHUB_APP_INSTALLATION_ID", "GITHUB_APP_PRIVATE_KEY", "GITHUB_API_URL"} {
		t.Setenv(k, "")
	}
}

func TestCommand(t *testing.T) {
	tests := []struct {
		args     []string
		wantCmd  string
		wantArgs []string
	}{
		{args: nil, wantCmd: "run"},
		{args: []string{"-v"}, wantCmd: "run", wantArgs: []string{"-v"}},
		{args: []string{"git-mcp", "--workspace", "/w"}, wantCmd: "git-mcp", wantArgs: []string{"--workspace", "/w"}},
		{args: []string{"token"}, wantCmd: "token", wantArgs: []string{}},
	}
	for _, tt := range tests {
		cmd, args := command(tt.args)
		if cmd != tt.wantCmd {
			t.Errorf("command(%v): got = %q, wanted = %q", tt.args, cmd, tt.wantCmd)
		}
		if diff := cmp.Diff(tt.wantArgs, args); diff != "" {
			t.Errorf("command(%v) args mismatch (-want +got):\n%s", tt.args, diff)
		}
	}
}

func TestEscapeAnnotation(t *testing.T) {
	got := escapeAnnotation("100% failed\r\nsee logs")
	if want := "100%25 failed%0D%0Asee logs"; got != want {
		t.Errorf("escapeAnnotation(): got = %q, wanted = %q", got, want)
	}
}

func TestDispatchUnknown(t *testing.T) {
	err := dispatch(context.Background(), "frobnicate", nil, nil, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), `unknown command "frobnicate"`) {
		t.Errorf("dispatch(): got = %v, wanted an unknown command error", err)
	}
}

func TestPrintToken(t *testing.T) {
	clearGitHubEnv(t)
	t.Setenv("GITHUB_TOKEN", "ghp_from_env")

	var out bytes.Buffer
	require.NoError(t, dispatch(context.Background(), "token", []string{"--app-id", "1"}, nil, &out, io.Discard))
	if got := out.String(); got != "ghp_from_env\n" {
		t.Errorf("token output: got = %q, wanted = %q", got, "ghp_from_env\n")
	}
}

func TestPrintTokenNoCredentials(t *testing.T) {
	clearGitHubEnv(t)
	err := dispatch(context.Background(), "token", []string{"--app-id", "1"}, nil, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "no GitHub authentication available") {
		t.Errorf("dispatch(token): got = %v, wanted a missing credentials error", err)
	}
}

// listTools starts a tool server subcommand on pipes and returns the names
// of the tools it advertises.
func listTools(t *testing.T, cmd string, args ...string) []string {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- dispatch(ctx, cmd, args, inR, outW, io.Discard) }()
	defer func() {
		cancel()
		_ = inW.Close()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Errorf("%s did not stop after cancellation", cmd)
		}
	}()

	fmt.Fprintln(inW, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","clientInfo":{"name":"test","version":"0"},"capabilities":{}}}`)
	fmt.Fprintln(inW, `{"jsonrpc":"2.0","id":2,"method":"tools/list","params":{}}`)

	r := bufio.NewReader(outR)
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)

		var resp struct {
			ID     int `json:"id"`
			Result struct {
				Tools []struct {
					Name string `json:"name"`
				} `json:"tools"`
			} `json:"result"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &resp))
		if resp.ID != 2 {
			continue
		}
		var names []string
		for _, tool := range resp.Result.Tools {
			names = append(names, tool.Name)
		}
		return names
	}
}

func TestServeGitHub(t *testing.T) {
	clearGitHubEnv(t)
	t.Setenv("GITHUB_TOKEN", "ghp_test")

	got := listTools(t, "github-mcp")
	want := []string{
		"add_issue_comment", "close_pull_request", "create_issue", "create_pull_request",
		"create_pull_request_review", "get_issue", "get_pull_request", "merge_pull_request",
		"update_issue", "update_pull_request",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("github-mcp tools mismatch (-want +got):\n%s", diff)
	}
}

func TestServeGit(t *testing.T) {
	clearGitHubEnv(t)
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	got := listTools(t, "git-mcp", "--workspace", dir)
	want := []string{"git_branch", "git_commit", "git_push", "git_status"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("git-mcp tools mismatch (-want +got):\n%s", diff)
	}
}

func TestServeGitMissingRepo(t *testing.T) {
	clearGitHubEnv(t)
	err := dispatch(context.Background(), "git-mcp", []string{"--workspace", t.TempDir()}, nil, io.Discard, io.Discard)
	if err == nil {
		t.Error("dispatch(git-mcp) outside a repository: got = nil, wanted = error")
	}
}
