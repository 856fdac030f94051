/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package mcpclient

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Transport kinds.
const (
	TypeStdio = "stdio"
	TypeHTTP  = "http"
	TypeSSE   = "sse"
)

// ServerConfig describes how to reach one tool server.
type ServerConfig struct {
	// Name identifies the server in logs and errors.
	Name string `yaml:"-" json:"-"`
	// Type is one of stdio, http or sse. When empty it is inferred from URL.
	Type string `yaml:"type,omitempty" json:"type,omitempty"`

	// Command, Args and Env launch a stdio server. Env is added to the
	// environment of the current process.
	Command string            `yaml:"command,omitempty" json:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// URL and Headers reach a network server.
	URL     string            `yaml:"url,omitempty" json:"url,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// Transport returns the configured transport kind, inferring it when unset.
func (c ServerConfig) Transport() string {
	switch {
	case c.Type != "":
		return c.Type
	case c.URL != "":
		return TypeHTTP
	default:
		return TypeStdio
	}
}

// Validate checks that the config names a usable transport.
func (c ServerConfig) Validate() error {
	if c.Name == "" {
		return errors.New("server name is required")
	}
	switch c.Transport() {
	case TypeStdio:
		if c.Command == "" {
			return fmt.Errorf("server %q: command is required for stdio servers", c.Name)
		}
	case TypeHTTP, TypeSSE:
		if c.URL == "" {
			return fmt.Errorf("server %q: url is required for %s servers", c.Name, c.Transport())
		}
	default:
		return fmt.Errorf("server %q: unknown transport type %q", c.Name, c.Type)
	}
	return nil
}

// environ renders Env as sorted KEY=VALUE pairs.
func (c ServerConfig) environ() []string {
	env := make([]string, 0, len(c.Env))
	for _, k := range slices.Sorted(maps.Keys(c.Env)) {
		env = append(env, k+"="+c.Env[k])
	}
	return env
}

// ParseServers decodes a mapping of server name to config, written as JSON
// or YAML. The result keeps declaration order, which decides routing when
// two servers offer a tool with the same name.
func ParseServers(data []byte) ([]ServerConfig, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing server list: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, errors.New("parsing server list: expected a single document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parsing server list: expected a mapping of name to config, got line %d", root.Line)
	}

	configs := make([]ServerConfig, 0, len(root.Content)/2)
	seen := make(map[string]struct{}, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("parsing server list: duplicate server %q", name)
		}
		seen[name] = struct{}{}

		var cfg ServerConfig
		if err := root.Content[i+1].Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parsing server %q: %w", name, err)
		}
		cfg.Name = name
		cfg.Type = cfg.Transport()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}
