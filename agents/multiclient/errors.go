/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package multiclient

import (
	"errors"
	"fmt"
)

// ErrToolNotFound is returned (wrapped) by CallTool when no connected server
// advertises the requested tool.
var ErrToolNotFound = errors.New("tool not found")

// AggregationError reports a server that could not be connected or could not
// report its catalog.
type AggregationError struct {
	Server string
	Err    error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("tool server %q: %v", e.Server, e.Err)
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}

// ToolInvocationError reports a tool that was found but could not be invoked
// successfully.
type ToolInvocationError struct {
	Tool   string
	Server string
	Err    error
}

func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("invoking tool %q on server %q: %v", e.Tool, e.Server, e.Err)
}

func (e *ToolInvocationError) Unwrap() error {
	return e.Err
}
