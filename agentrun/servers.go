/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agentrun

import (
	"errors"

	"chainguard.dev/mcpagent/agents/mcpclient"
)

// Subcommands of the agent binary that serve the bundled tool sets.
const (
	GitHubServerCommand = "github-mcp"
	GitServerCommand    = "git-mcp"
)

// ServerOptions are the inputs to DefaultServers.
type ServerOptions struct {
	// Executable is the agent binary, which serves the bundled tools.
	Executable string
	// Token authenticates the bundled servers against GitHub.
	Token string
	// Workspace is the checked out repository. The git server is only
	// started when it is set.
	Workspace string
}

// DefaultServers returns the bundled tool servers. Each call returns a new
// slice.
func DefaultServers(o ServerOptions) ([]mcpclient.ServerConfig, error) {
	if o.Executable == "" {
		return nil, errors.New("executable is required")
	}
	if o.Token == "" {
		return nil, errors.New("a GitHub token is required")
	}

	servers := []mcpclient.ServerConfig{{
		Name:    "github",
		Type:    mcpclient.TypeStdio,
		Command: o.Executable,
		Args:    []string{GitHubServerCommand},
		Env:     map[string]string{"GITHUB_TOKEN": o.Token},
	}}
	if o.Workspace != "" {
		servers = append(servers, mcpclient.ServerConfig{
			Name:    "git",
			Type:    mcpclient.TypeStdio,
			Command: o.Executable,
			Args:    []string{GitServerCommand, "--workspace", o.Workspace},
			Env:     map[string]string{"GITHUB_TOKEN": o.Token},
		})
	}
	return servers, nil
}

// Servers returns the bundled servers followed by the ones configured in
// extra, so bundled tools win on a name clash.
func Servers(o ServerOptions, extra string) ([]mcpclient.ServerConfig, error) {
	servers, err := DefaultServers(o)
	if err != nil {
		return nil, err
	}
	user, err := mcpclient.ParseServers([]byte(extra))
	if err != nil {
		return nil, err
	}
	return append(servers, user...), nil
}
