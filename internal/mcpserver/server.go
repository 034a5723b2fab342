// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Qino workspace tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/qinolabs/qino/internal/codec"
	"github.com/qinolabs/qino/internal/index"
	"github.com/qinolabs/qino/internal/models"
	"github.com/qinolabs/qino/internal/ops"
)

// Server wraps the MCP server with Qino workspace tools. It works over
// the ops boundary, so the same tools serve a local store or a remote
// API client.
type Server struct {
	mcp   *server.MCPServer
	ops   ops.Ops
	cache index.Cache
}

// New creates a new MCP server with all tools registered. cache may be
// nil; search_nodes and list_action_items then report an error.
func New(o ops.Ops, cache index.Cache) *Server {
	s := &Server{ops: o, cache: cache}

	s.mcp = server.NewMCPServer(
		"Qino",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("read_graph",
		mcp.WithDescription("Read a workspace graph: its nodes, edges, journal, and pending action items."),
		mcp.WithString("graph", mcp.Description("Graph directory relative to the workspace root (empty for the root graph)")),
	), s.readGraph)

	s.mcp.AddTool(mcp.NewTool("read_node",
		mcp.WithDescription("Read one node in full: identity, story, content files, annotations, view, journal."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id (its directory name)")),
		mcp.WithString("graph", mcp.Description("Graph directory (empty for the root graph)")),
	), s.readNode)

	s.mcp.AddTool(mcp.NewTool("create_node",
		mcp.WithDescription("Create a new node with an identity and story, optionally with edges and a view."),
		mcp.WithString("id", mcp.Description("Node id; derived from the title when omitted")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Human-readable node title")),
		mcp.WithString("type", mcp.Description("Node type (e.g. concept, question, source)")),
		mcp.WithString("story", mcp.Description("Markdown body for story.md")),
		mcp.WithString("graph", mcp.Description("Graph directory (empty for the root graph)")),
	), s.createNode)

	s.mcp.AddTool(mcp.NewTool("write_annotation",
		mcp.WithDescription("Attach an agent annotation to a node. Read the contract first via "+
			"the get_annotation_contract tool or the qino://annotation-format resource."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id to annotate")),
		mcp.WithString("signal", mcp.Description("reading, connection, tension, or proposal (default reading)")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Markdown annotation body")),
		mcp.WithString("target", mcp.Description("Optional node id this annotation points at")),
		mcp.WithString("graph", mcp.Description("Graph directory (empty for the root graph)")),
	), s.writeAnnotation)

	s.mcp.AddTool(mcp.NewTool("resolve_annotation",
		mcp.WithDescription("Update an annotation's lifecycle status (open, accepted, resolved, dismissed)."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id the annotation belongs to")),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Annotation filename, e.g. 001-slug.md")),
		mcp.WithString("status", mcp.Required(), mcp.Description("New status")),
		mcp.WithString("graph", mcp.Description("Graph directory (empty for the root graph)")),
	), s.resolveAnnotation)

	s.mcp.AddTool(mcp.NewTool("write_journal_entry",
		mcp.WithDescription("Append a dated section to a graph or node journal."),
		mcp.WithString("context", mcp.Required(), mcp.Description("Journal context key, e.g. a session id")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Markdown body of the entry")),
		mcp.WithString("node", mcp.Description("Node id for a node-scoped journal (empty for the graph journal)")),
		mcp.WithString("graph", mcp.Description("Graph directory (empty for the root graph)")),
	), s.writeJournalEntry)

	s.mcp.AddTool(mcp.NewTool("update_view",
		mcp.WithDescription("Overwrite a view node's focal and includes, re-deriving its curates edges."),
		mcp.WithString("id", mcp.Required(), mcp.Description("View node id")),
		mcp.WithString("focal", mcp.Required(), mcp.Description("Focal node id; must be in includes")),
		mcp.WithString("includes", mcp.Required(), mcp.Description("JSON array of included node ids")),
		mcp.WithString("graph", mcp.Description("Graph directory (empty for the root graph)")),
	), s.updateView)

	s.mcp.AddTool(mcp.NewTool("list_action_items",
		mcp.WithDescription("List proposal and tension annotations that still need attention, newest first."),
	), s.listActionItems)

	s.mcp.AddTool(mcp.NewTool("search_nodes",
		mcp.WithDescription("Search node titles and stories across the workspace."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNodes)

	s.mcp.AddTool(mcp.NewTool("get_annotation_contract",
		mcp.WithDescription("Returns the annotation format contract. Call this before writing annotations."),
	), s.getAnnotationContract)

	// Resource: annotation format contract.
	s.mcp.AddResource(
		mcp.NewResource("qino://annotation-format", "Annotation Format Contract",
			mcp.WithResourceDescription("Annotation file format produced and consumed by the workspace."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readAnnotationFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func optString(req mcp.CallToolRequest, key string) string {
	v, err := req.RequireString(key)
	if err != nil {
		return ""
	}
	return v
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) readGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, err := s.ops.ReadGraph(ctx, optString(req, "graph"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(g), nil
}

func (s *Server) readNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.ops.ReadNode(ctx, optString(req, "graph"), id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(d), nil
}

func (s *Server) createNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id := optString(req, "id")
	if id == "" {
		id = codec.Slugify(title)
	}
	spec := models.CreateNodeSpec{
		ID:    id,
		Title: title,
		Type:  optString(req, "type"),
		Story: optString(req, "story"),
	}
	d, err := s.ops.CreateNode(ctx, optString(req, "graph"), spec)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(d), nil
}

func (s *Server) writeAnnotation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := req.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	signal := models.Signal(optString(req, "signal"))
	filename, err := s.ops.WriteAnnotation(ctx, optString(req, "graph"), id, signal, body, optString(req, "target"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", filename)), nil
}

func (s *Server) resolveAnnotation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.ops.ResolveAnnotation(ctx, optString(req, "graph"), id, filename, models.Status(status)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s", filename)), nil
}

func (s *Server) writeJournalEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contextKey, err := req.RequireString("context")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := req.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry := models.JournalEntry{
		NodeID:  optString(req, "node"),
		Context: contextKey,
		Body:    body,
	}
	if err := s.ops.WriteJournalEntry(ctx, optString(req, "graph"), entry); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("journal entry written"), nil
}

func (s *Server) updateView(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	focal, err := req.RequireString("focal")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("includes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var includes []string
	if err := json.Unmarshal([]byte(raw), &includes); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("includes must be a JSON array of strings: %v", err)), nil
	}
	view := models.ViewData{Focal: focal, Includes: includes}
	if err := s.ops.UpdateView(ctx, optString(req, "graph"), id, view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("view updated: %s", id)), nil
}

func (s *Server) listActionItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.cache == nil {
		return mcp.NewToolResultError("no index available in this mode"), nil
	}
	items, err := s.cache.ActionItems()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items), nil
}

func (s *Server) searchNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.cache == nil {
		return mcp.NewToolResultError("no index available in this mode"), nil
	}
	results, err := s.cache.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) getAnnotationContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(AnnotationFormatContract), nil
}

func (s *Server) readAnnotationFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "qino://annotation-format",
			MIMEType: "text/markdown",
			Text:     AnnotationFormatContract,
		},
	}, nil
}
