/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package toolcall defines how tools are described to a model and how their
// results are folded back into a conversation.
//
// # Descriptors
//
// A Descriptor names a tool and carries a structured Schema for its
// arguments. Schemas are parsed from the JSON Schema documents advertised by
// tool servers and can validate decoded arguments before a call is made:
//
//	s, err := toolcall.ParseSchema(raw)
//	if err != nil { ... }
//	if err := s.Validate(args); err != nil {
//		// report the problem to the model instead of calling the tool
//	}
//
// # Local tools
//
// Tool pairs a Descriptor with an in-process Handler. Handlers return any
// value; FormatResult turns it into the text placed in the tool message.
package toolcall
