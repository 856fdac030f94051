/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agentrun

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"chainguard.dev/mcpagent/agents/provider"
	"github.com/sethvargo/go-envconfig"
)

// FilePrefix marks an input whose value is the path of a file to read.
const FilePrefix = "file://"

// Config holds the action inputs and the runner environment of one run.
type Config struct {
	Instructions string `env:"INPUT_INSTRUCTIONS,required"`
	Model        string `env:"INPUT_MODEL,default=anthropic/claude-3.7-sonnet"`
	SystemPrompt string `env:"INPUT_SYSTEM_PROMPT"`
	// MCPServers is a JSON or YAML mapping of server name to config.
	MCPServers string `env:"INPUT_MCP_SERVERS"`
	// MCPStartupTimeout is in milliseconds.
	MCPStartupTimeout int  `env:"INPUT_MCP_STARTUP_TIMEOUT,default=10000"`
	LogActionsToIssue bool `env:"INPUT_LOG_ACTIONS_TO_ISSUE,default=false"`

	// Comma separated label lists.
	AddLabelOnSuccess    string `env:"INPUT_ADD_LABEL_ON_SUCCESS"`
	RemoveLabelOnSuccess string `env:"INPUT_REMOVE_LABEL_ON_SUCCESS"`
	AddLabelOnError      string `env:"INPUT_ADD_LABEL_ON_ERROR"`
	RemoveLabelOnError   string `env:"INPUT_REMOVE_LABEL_ON_ERROR"`

	OpenRouterAPIKey  string `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string `env:"OPENROUTER_BASE_URL"`
	AnthropicAPIKey   string `env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey      string `env:"GEMINI_API_KEY"`

	Workspace  string `env:"GITHUB_WORKSPACE"`
	EventPath  string `env:"GITHUB_EVENT_PATH"`
	EventName  string `env:"GITHUB_EVENT_NAME"`
	RunID      string `env:"GITHUB_RUN_ID"`
	Repository string `env:"GITHUB_REPOSITORY"`
}

// LoadConfig reads Config from the environment.
func LoadConfig(ctx context.Context) (Config, error) {
	return loadConfig(ctx, inputLookuper{})
}

func loadConfig(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return Config{}, fmt.Errorf("processing config: %w", err)
	}
	if cfg.MCPStartupTimeout < 0 {
		return Config{}, fmt.Errorf("mcp startup timeout must not be negative, got %d", cfg.MCPStartupTimeout)
	}
	return cfg, nil
}

// inputLookuper reads the process environment, treating empty variables as
// unset. The Actions runner exports every declared input, including the
// ones left blank.
type inputLookuper struct{}

func (inputLookuper) Lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// StartupTimeout is the grace period given to tool servers to come up.
func (c Config) StartupTimeout() time.Duration {
	return time.Duration(c.MCPStartupTimeout) * time.Millisecond
}

// Provider returns the completion backend settings.
func (c Config) Provider() provider.Config {
	return provider.Config{
		Model:             c.Model,
		OpenRouterAPIKey:  c.OpenRouterAPIKey,
		AnthropicAPIKey:   c.AnthropicAPIKey,
		GeminiAPIKey:      c.GeminiAPIKey,
		OpenRouterBaseURL: c.OpenRouterBaseURL,
	}
}

// LoadText returns the contents of the named file when s starts with
// FilePrefix, and s itself otherwise.
func LoadText(s string) (string, error) {
	path, ok := strings.CutPrefix(s, FilePrefix)
	if !ok {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(b), nil
}

// SplitLabels parses a comma separated label list, dropping blanks.
func SplitLabels(s string) []string {
	var labels []string
	for l := range strings.SplitSeq(s, ",") {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}
