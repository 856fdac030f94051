/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package promptbuilder renders agent instructions against structured data,
such as the GitHub Actions event payload that triggered a run.

# Template Syntax

Templates use Mustache-style {{path}} placeholders, where path is a dotted
lookup into the data:

	p, err := promptbuilder.Parse(`Fix issue #{{issue.number}}: {{issue.title}}`)
	if err != nil {
		// Handle malformed template
	}
	out, err := p.Render(event)

Each path segment names a map key, a struct field (by its JSON name) or a
list index:

  - {{issue.number}}
  - {{repository.owner.login}}
  - {{issue.labels.0.name}}

Triple braces ({{{path}}}) and the ampersand form ({{& path}}) are accepted
as aliases; values are never HTML-escaped.

# Values

Strings render verbatim. Numbers, booleans, maps and lists render as JSON.
A path that does not resolve, or resolves to null, renders as the empty
string.

# Single Pass

Rendering is a single pass over the template, so placeholders appearing
inside substituted values are left untouched.
*/
package promptbuilder
