package remote

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/qinolabs/qino/internal/api"
	"github.com/qinolabs/qino/internal/apperr"
	"github.com/qinolabs/qino/internal/models"
	"github.com/qinolabs/qino/internal/store"
	"github.com/qinolabs/qino/internal/testutil"
)

// testClient serves a real workspace through the API router and points a
// Client at it.
func testClient(t *testing.T) *Client {
	t.Helper()
	_, fs := testutil.TestWorkspace(t)
	st := store.New(fs)
	srv := httptest.NewServer(api.NewRouter(st, nil, false, "", nil))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "")
}

func TestClientRoundTrip(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	d, err := c.CreateNode(ctx, "", models.CreateNodeSpec{
		ID:    "alpha",
		Title: "Alpha",
		Story: "Remote story.",
	})
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	if d.Identity.Title != "Alpha" {
		t.Fatalf("identity = %+v", d.Identity)
	}

	g, err := c.ReadGraph(ctx, "")
	if err != nil {
		t.Fatalf("ReadGraph: %v", err)
	}
	if len(g.Graph.Nodes) != 1 || g.Graph.Nodes[0].ID != "alpha" {
		t.Fatalf("nodes = %+v", g.Graph.Nodes)
	}

	filename, err := c.WriteAnnotation(ctx, "", "alpha", models.SignalProposal, "Do the thing.", "")
	if err != nil {
		t.Fatalf("WriteAnnotation: %v", err)
	}
	if err := c.ResolveAnnotation(ctx, "", "alpha", filename, models.StatusResolved); err != nil {
		t.Fatalf("ResolveAnnotation: %v", err)
	}

	if err := c.WriteJournalEntry(ctx, "", models.JournalEntry{Context: "s1", Body: "note"}); err != nil {
		t.Fatalf("WriteJournalEntry: %v", err)
	}
}

func TestClientErrorMapping(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	_, err := c.ReadNode(ctx, "", "ghost")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}

	if _, err := c.CreateNode(ctx, "", models.CreateNodeSpec{ID: "dup", Title: "Dup"}); err != nil {
		t.Fatal(err)
	}
	_, err = c.CreateNode(ctx, "", models.CreateNodeSpec{ID: "dup", Title: "Dup"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	err = c.WriteJournalEntry(ctx, "", models.JournalEntry{Context: "", Body: "x"})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
