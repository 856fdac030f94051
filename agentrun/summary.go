/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agentrun

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"chainguard.dev/mcpagent/agents/agenttrace"
	"chainguard.dev/mcpagent/agents/chat"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// maxCommentLength keeps summaries under GitHub's 65536 character limit for
// comment bodies.
const maxCommentLength = 60000

// maxTableLength bounds the tool table so the transcript keeps most of the
// comment.
const maxTableLength = maxCommentLength / 4

const truncatedNote = "\n\n_Output truncated._"

// Transcript renders the produced messages as a readable conversation.
// Assistant turns without text are left out.
func Transcript(msgs []chat.Message) string {
	var parts []string
	for _, m := range msgs {
		switch {
		case m.Role == chat.RoleAssistant && m.Content != "":
			parts = append(parts, "🤖 Assistant: "+m.Content)
		case m.Role == chat.RoleTool:
			parts = append(parts, fmt.Sprintf("🛠️ Tool (%s): %s", m.Name, m.Content))
		case m.Role == chat.RoleUser:
			parts = append(parts, "👤 User: "+m.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// ToolTable renders the tool calls of a trace as a markdown table, or ""
// when there were none.
func ToolTable(calls []*agenttrace.ToolCall) string {
	return toolTable(calls, 0)
}

// toolTable numbers rows starting after skipped.
func toolTable(calls []*agenttrace.ToolCall, skipped int) string {
	if len(calls) == 0 {
		return ""
	}

	var sb strings.Builder
	table := tablewriter.NewTable(&sb,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{AutoFormat: tw.Off},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
			Behavior: tw.Behavior{TrimSpace: tw.Off},
		}),
		tablewriter.WithHeader([]string{"#", "Tool", "Status", "Duration"}),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{Left: tw.On, Top: tw.Off, Right: tw.On, Bottom: tw.Off},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)

	for i, tc := range calls {
		status := "ok"
		if tc.Error != nil {
			status = "error: " + strings.ReplaceAll(truncate(oneLine(tc.Error.Error()), 80), "|", `\|`)
		}
		_ = table.Append([]string{
			fmt.Sprint(skipped + i + 1),
			tc.Name,
			status,
			tc.Duration().Round(time.Millisecond).String(),
		})
	}
	_ = table.Render()
	return sb.String()
}

// Summary is the comment posted to the triggering issue or pull request.
// It is empty when the run produced nothing worth reporting. The result never
// exceeds maxCommentLength bytes.
func Summary(msgs []chat.Message, calls []*agenttrace.ToolCall) string {
	transcript := Transcript(msgs)
	if transcript == "" {
		return ""
	}
	table := boundedTable(calls)
	limit := maxCommentLength
	if table != "" {
		limit -= len(table) + len("\n\n")
	}
	if len(transcript) > limit {
		transcript = truncate(transcript, limit-len(truncatedNote)) + truncatedNote
	}
	if table == "" {
		return transcript
	}
	return transcript + "\n\n" + table
}

// boundedTable renders the most recent calls that fit in maxTableLength,
// noting how many earlier ones were left out.
func boundedTable(calls []*agenttrace.ToolCall) string {
	table := ToolTable(calls)
	for keep := len(calls); len(table) > maxTableLength && keep > 1; {
		keep /= 2
		skipped := len(calls) - keep
		table = fmt.Sprintf("_%d earlier tool calls omitted._\n\n", skipped) + toolTable(calls[skipped:], skipped)
	}
	return truncate(table, maxTableLength)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n < len("...") {
		return ""
	}
	cut := n - len("...")
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
