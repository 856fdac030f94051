/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Command mcpagent runs an LLM agent with MCP tools from a GitHub Actions
// workflow.
//
// Usage:
//
//	mcpagent [run]                 run the agent with the action inputs
//	mcpagent github-mcp            serve the GitHub tools over stdio
//	mcpagent git-mcp [--workspace] serve the git tools over stdio
//	mcpagent token [--app-id ...]  print a GitHub token
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"chainguard.dev/mcpagent/agentrun"
	"chainguard.dev/mcpagent/githubauth"
	"chainguard.dev/mcpagent/githubtools"
	"chainguard.dev/mcpagent/gittools"
	"chainguard.dev/mcpagent/internal/toolserver"
	"github.com/chainguard-dev/clog"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd, args := command(os.Args[1:])
	if err := dispatch(ctx, cmd, args, os.Stdin, os.Stdout, os.Stderr); err != nil {
		// The tool servers own stdout, so only the agent run is annotated.
		if cmd == "run" {
			fmt.Fprintf(os.Stdout, "::error::%s\n", escapeAnnotation(err.Error()))
		}
		clog.FatalContextf(ctx, "%s: %v", cmd, err)
	}
}

// command splits the subcommand from its arguments. Without one, the agent
// is run.
func command(args []string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "run", args
	}
	return args[0], args[1:]
}

func dispatch(ctx context.Context, cmd string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	switch cmd {
	case "run":
		return runAgent(ctx, args)
	case agentrun.GitHubServerCommand:
		return serveGitHub(ctx, args, stdin, stdout, stderr)
	case agentrun.GitServerCommand:
		return serveGit(ctx, args, stdin, stdout, stderr)
	case "token":
		return printToken(ctx, args, stdout)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runAgent(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := agentrun.LoadConfig(ctx)
	if err != nil {
		return err
	}
	auth, err := githubauth.FromEnv(ctx)
	if err != nil {
		return err
	}
	ts, err := githubauth.TokenSource(ctx, auth)
	if err != nil {
		return err
	}
	gh, err := githubauth.ClientFor(ctx, auth, ts)
	if err != nil {
		return err
	}

	clog.InfoContextf(ctx, "Running agent with model %s", cfg.Model)
	return agentrun.Run(ctx, cfg,
		agentrun.WithTokenSource(ts),
		agentrun.WithGitHubClient(gh),
	)
}

func serveGitHub(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet(agentrun.GitHubServerCommand, flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	auth, err := githubauth.FromEnv(ctx)
	if err != nil {
		return err
	}
	ts, err := githubauth.TokenSource(ctx, auth)
	if err != nil {
		return err
	}
	gh, err := githubauth.ClientFor(ctx, auth, ts)
	if err != nil {
		return err
	}
	s, err := githubtools.New(gh)
	if err != nil {
		return err
	}
	return toolserver.Serve(ctx, s, stdin, stdout, stderr)
}

func serveGit(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet(agentrun.GitServerCommand, flag.ContinueOnError)
	fs.SetOutput(stderr)
	workspace := fs.String("workspace", os.Getenv("GITHUB_WORKSPACE"), "path of the repository to operate on")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *workspace == "" {
		*workspace = "."
	}

	repo, err := gittools.Open(*workspace)
	if err != nil {
		return err
	}

	var opts []gittools.Option
	auth, err := githubauth.FromEnv(ctx)
	if err != nil {
		return err
	}
	switch ts, err := githubauth.TokenSource(ctx, auth); {
	case errors.Is(err, githubauth.ErrNoCredentials):
		clog.WarnContextf(ctx, "No GitHub credentials, pushes are unauthenticated")
	case err != nil:
		return err
	default:
		opts = append(opts, gittools.WithTokenSource(ts))
	}

	s, err := gittools.New(repo, opts...)
	if err != nil {
		return err
	}
	return toolserver.Serve(ctx, s, stdin, stdout, stderr)
}

func printToken(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	var flags githubauth.Options
	fs.StringVar(&flags.AppID, "app-id", "", "GitHub App id (overrides GITHUB_APP_ID)")
	fs.StringVar(&flags.InstallationID, "installation-id", "", "GitHub App installation id (overrides GITHUB_APP_INSTALLATION_ID)")
	fs.StringVar(&flags.PrivateKey, "private-key", "", "path of the GitHub App private key (overrides GITHUB_APP_PRIVATE_KEY)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	auth, err := githubauth.FromEnv(ctx)
	if err != nil {
		return err
	}
	tok, err := githubauth.Resolve(ctx, auth.Override(flags))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, tok)
	return err
}

// escapeAnnotation encodes the characters GitHub Actions treats specially
// in workflow command messages.
func escapeAnnotation(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A").Replace(s)
}
