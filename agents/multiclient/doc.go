/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package multiclient presents several tool server connections as a single
// tool catalog and a single dispatch point.
//
// Connections are established concurrently when the aggregator is built; if
// any of them fails, the ones already opened are closed and construction
// fails. Catalogs are never cached: ListTools and CallTool query each server
// in registration order every time they are called. When two servers
// advertise the same tool name, the server registered first wins.
//
// # Usage
//
//	mc, err := multiclient.New(ctx, servers,
//		multiclient.WithStartupTimeout(10*time.Second))
//	if err != nil {
//		return err
//	}
//	defer mc.Close()
//
//	tools, err := mc.ListTools(ctx)
//	...
//	result, err := mc.CallTool(ctx, "get_issue", map[string]any{"number": 12})
//
// CallTool reports ErrToolNotFound (wrapped) when no server offers the tool
// and *ToolInvocationError when the owning server fails the call.
package multiclient
