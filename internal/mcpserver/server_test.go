package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/qinolabs/qino/internal/store"
	"github.com/qinolabs/qino/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	_, fs := testutil.TestWorkspace(t)
	st := store.New(fs)
	return New(st, nil)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "read_graph":
		result, err = srv.readGraph(ctx, req)
	case "read_node":
		result, err = srv.readNode(ctx, req)
	case "create_node":
		result, err = srv.createNode(ctx, req)
	case "write_annotation":
		result, err = srv.writeAnnotation(ctx, req)
	case "resolve_annotation":
		result, err = srv.resolveAnnotation(ctx, req)
	case "write_journal_entry":
		result, err = srv.writeJournalEntry(ctx, req)
	case "update_view":
		result, err = srv.updateView(ctx, req)
	case "get_annotation_contract":
		result, err = srv.getAnnotationContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadNode(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "create_node", map[string]interface{}{
		"title": "Alpha Concept",
		"story": "A first sketch.",
	})
	if r.IsError {
		t.Fatalf("create failed: %s", resultText(r))
	}

	// ID was derived from the title.
	r = callTool(t, srv, "read_node", map[string]interface{}{"id": "alpha-concept"})
	if r.IsError {
		t.Fatalf("read failed: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, `"title": "Alpha Concept"`) {
		t.Errorf("node detail = %s", text)
	}
}

func TestReadNodeMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_node", map[string]interface{}{"id": "ghost"})
	if !r.IsError {
		t.Fatal("expected error for missing node")
	}
	if !strings.Contains(resultText(r), "Node not found: ghost") {
		t.Errorf("error = %q", resultText(r))
	}
}

func TestAnnotationTools(t *testing.T) {
	srv := testServer(t)
	callTool(t, srv, "create_node", map[string]interface{}{"id": "alpha", "title": "Alpha"})

	r := callTool(t, srv, "write_annotation", map[string]interface{}{
		"id":     "alpha",
		"signal": "tension",
		"body":   "This contradicts the earlier framing.",
	})
	if r.IsError {
		t.Fatalf("write_annotation failed: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.HasPrefix(text, "created: 001-") {
		t.Fatalf("result = %q", text)
	}
	filename := strings.TrimPrefix(text, "created: ")

	r = callTool(t, srv, "resolve_annotation", map[string]interface{}{
		"id":       "alpha",
		"filename": filename,
		"status":   "dismissed",
	})
	if r.IsError {
		t.Fatalf("resolve failed: %s", resultText(r))
	}
}

func TestWriteJournalEntryTool(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "write_journal_entry", map[string]interface{}{
		"context": "session-1",
		"body":    "Mapped the first cluster.",
	})
	if r.IsError {
		t.Fatalf("journal failed: %s", resultText(r))
	}

	r = callTool(t, srv, "read_graph", map[string]interface{}{})
	if !strings.Contains(resultText(r), "session-1") {
		t.Errorf("graph detail missing journal section: %s", resultText(r))
	}
}

func TestUpdateViewTool(t *testing.T) {
	srv := testServer(t)
	callTool(t, srv, "create_node", map[string]interface{}{"id": "a", "title": "A"})
	callTool(t, srv, "create_node", map[string]interface{}{"id": "b", "title": "B"})

	// a has no view.json, so updating it is rejected.
	r := callTool(t, srv, "update_view", map[string]interface{}{
		"id":       "a",
		"focal":    "b",
		"includes": `["a","b"]`,
	})
	if !r.IsError {
		t.Fatal("expected error updating a non-view node")
	}
	if !strings.Contains(resultText(r), "not a view") {
		t.Errorf("error = %q", resultText(r))
	}
}

func TestGetAnnotationContract(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_annotation_contract", map[string]interface{}{})
	if !strings.Contains(resultText(r), "Annotation Format Contract") {
		t.Error("contract text missing")
	}
}

func TestSearchWithoutCache(t *testing.T) {
	srv := testServer(t)
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{"query": "alpha"}
	r, err := srv.searchNodes(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !r.IsError {
		t.Error("expected error when no cache is wired")
	}
}
