/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package executor

import (
	"errors"
	"fmt"
)

// ErrMaxTurns is returned when a run exceeds the configured turn limit.
var ErrMaxTurns = errors.New("maximum number of completion turns exceeded")

// CompletionError is a failed request to the completion endpoint.
type CompletionError struct {
	Model string
	// Messages is the JSON encoding of the conversation that was sent.
	Messages []byte
	Err      error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion request to %s failed: %v", e.Model, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}
