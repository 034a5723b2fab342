package mcpserver

// AnnotationFormatContract describes the annotation file format that
// agent-written annotations must follow.
const AnnotationFormatContract = `# Qino Annotation Format Contract

Annotations are Markdown files with YAML frontmatter stored under a
node's ` + "`" + `annotations/` + "`" + ` directory. Agents never write these
files directly; they go through the write_annotation tool. This contract
documents what the tool produces and how annotations behave.

## Structure

` + "```" + `markdown
---
author: agent                       # always "agent"; the store enforces this
signal: proposal                    # one of: reading, connection, tension, proposal
target: some-node-id                # OPTIONAL - the node this annotation points at
created: 2025-01-15                 # ISO date, set by the store
status: open                        # OPTIONAL - open, accepted, resolved, dismissed
---

Free-form Markdown body. Say what you noticed and why it matters.
` + "```" + `

## Rules

1. **Signals.** ` + "`" + `reading` + "`" + ` records comprehension, ` + "`" + `connection` + "`" + `
   links two ideas, ` + "`" + `tension` + "`" + ` flags a contradiction, ` + "`" + `proposal` + "`" + `
   suggests a concrete change. An unknown signal is stored as ` + "`" + `reading` + "`" + `.
2. **Status lifecycle.** A missing status reads as ` + "`" + `open` + "`" + `. Only
   ` + "`" + `tension` + "`" + ` and ` + "`" + `proposal` + "`" + ` annotations in ` + "`" + `open` + "`" + ` or
   ` + "`" + `accepted` + "`" + ` status surface as action items.
3. **Filenames** are sequential: ` + "`" + `001-slug.md` + "`" + `, ` + "`" + `002-slug.md` + "`" + `,
   where the slug is derived from the first line of the body.
4. **Resolution.** Use resolve_annotation to move an annotation to
   ` + "`" + `resolved` + "`" + ` or ` + "`" + `dismissed` + "`" + `; this stamps ` + "`" + `resolvedAt` + "`" + `
   and preserves the body verbatim.
`
