/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package params extracts typed values from decoded tool arguments.
//
// Arguments arrive as map[string]any produced by encoding/json, so numbers
// are float64 and lists are []any. The helpers here convert those into the
// Go types tool handlers want, reporting a descriptive error that can be
// handed back to the model as-is.
package params
