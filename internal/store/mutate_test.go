package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qinolabs/qino/internal/apperr"
	"github.com/qinolabs/qino/internal/models"
	"github.com/qinolabs/qino/internal/testutil"
)

func readGraphJSON(t *testing.T, root string) models.GraphFile {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, "graph.json"))
	if err != nil {
		t.Fatal(err)
	}
	var gf models.GraphFile
	if err := json.Unmarshal(data, &gf); err != nil {
		t.Fatal(err)
	}
	return gf
}

func TestCreateNode_Basic(t *testing.T) {
	root, s := testStore(t)
	ctx := context.Background()

	d, err := s.CreateNode(ctx, "", models.CreateNodeSpec{
		ID:    "alpha",
		Title: "Alpha",
		Story: "# Alpha\n\nThe first node.\n",
		Extra: map[string]any{"source": "seed"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if d.Identity.Title != "Alpha" || d.Identity.Status != "active" {
		t.Errorf("identity = %+v", d.Identity)
	}
	if d.Identity.Created == "" {
		t.Error("created date missing")
	}
	if d.Identity.Extra["source"] != "seed" {
		t.Errorf("extra = %v", d.Identity.Extra)
	}

	// Journal echo with node/<id> context and a link line.
	data, err := os.ReadFile(filepath.Join(root, "journal.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<!-- context: node/alpha -->") {
		t.Errorf("journal = %q", data)
	}
	if !strings.Contains(string(data), "[Alpha](nodes/alpha/)") {
		t.Errorf("journal missing link: %q", data)
	}

	// Node must not be persisted into graph.json's nodes array.
	gf := readGraphJSON(t, root)
	for _, le := range gf.Nodes {
		if le.ID == "alpha" {
			t.Error("created node leaked into graph.json nodes array")
		}
	}
	g, err := s.ReadGraph(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Graph.Nodes) != 1 || g.Graph.Nodes[0].ID != "alpha" {
		t.Errorf("discovered nodes = %+v", g.Graph.Nodes)
	}
}

func TestCreateNode_Preconditions(t *testing.T) {
	root, s := testStore(t)
	ctx := context.Background()

	if _, err := s.CreateNode(ctx, "missing", models.CreateNodeSpec{ID: "x", Title: "X"}); !errors.Is(err, apperr.ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}

	testutil.AddNode(t, root, "alpha", "Alpha")
	_, err := s.CreateNode(ctx, "", models.CreateNodeSpec{ID: "alpha", Title: "Again"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
	if !strings.Contains(err.Error(), "Node already exists: alpha") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestCreateNode_EdgesAndView(t *testing.T) {
	root, s := testStore(t)
	ctx := context.Background()
	testutil.AddNode(t, root, "beta", "Beta")

	_, err := s.CreateNode(ctx, "", models.CreateNodeSpec{
		ID:    "lens",
		Title: "Lens",
		Edges: []models.Edge{{Target: "beta", Type: "references"}},
		View:  &models.ViewData{Focal: "beta", Includes: []string{"beta", "lens"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	gf := readGraphJSON(t, root)
	var refEdges, curates int
	for _, e := range gf.Edges {
		switch {
		case e.Type == "references" && e.Source == "lens" && e.Target == "beta":
			refEdges++
		case e.Type == "curates" && e.Source == "lens":
			curates++
			if e.Target == "beta" && e.Context != "focal" {
				t.Errorf("focal edge missing context: %+v", e)
			}
			if e.Target == "lens" && e.Context != "" {
				t.Errorf("non-focal edge has context: %+v", e)
			}
		}
	}
	if refEdges != 1 || curates != 2 {
		t.Errorf("edges = %+v", gf.Edges)
	}
}

func TestWriteAnnotation_Sequence(t *testing.T) {
	root, s := testStore(t)
	ctx := context.Background()
	testutil.AddNode(t, root, "alpha", "Alpha")

	for i, body := range []string{"First thought", "Second thought", "Third thought"} {
		name, err := s.WriteAnnotation(ctx, "", "alpha", models.SignalReading, body, "")
		if err != nil {
			t.Fatal(err)
		}
		wantPrefix := fmt.Sprintf("%03d-", i+1)
		if !strings.HasPrefix(name, wantPrefix) || !strings.HasSuffix(name, ".md") {
			t.Errorf("filename = %q, want %sslug.md", name, wantPrefix)
		}
	}

	if _, err := s.WriteAnnotation(ctx, "", "ghost", models.SignalReading, "x", ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestWriteAnnotation_Frontmatter(t *testing.T) {
	root, s := testStore(t)
	ctx := context.Background()
	testutil.AddNode(t, root, "alpha", "Alpha")

	name, err := s.WriteAnnotation(ctx, "", "alpha", models.SignalTension, "Contradicts earlier claim", "beta")
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(root, "nodes", "alpha", "annotations", name))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{"author: agent", "signal: tension", "target: beta", "created: " + today()} {
		if !strings.Contains(text, want) {
			t.Errorf("annotation missing %q:\n%s", want, text)
		}
	}
	if !strings.HasSuffix(text, "Contradicts earlier claim") {
		t.Errorf("body not preserved: %q", text)
	}
}

func TestResolveAnnotation_PreservesEverythingElse(t *testing.T) {
	root, s := testStore(t)
	ctx := context.Background()
	testutil.AddNode(t, root, "alpha", "Alpha")

	name, err := s.WriteAnnotation(ctx, "", "alpha", models.SignalProposal, "Merge with beta", "beta")
	if err != nil {
		t.Fatal(err)
	}
	annPath := filepath.Join(root, "nodes", "alpha", "annotations", name)
	before, _ := os.ReadFile(annPath)

	if err := s.ResolveAnnotation(ctx, "", "alpha", name, models.StatusAccepted); err != nil {
		t.Fatal(err)
	}
	after, err := os.ReadFile(annPath)
	if err != nil {
		t.Fatal(err)
	}

	for _, kept := range []string{"signal: proposal", "target: beta", "created: " + today(), "Merge with beta"} {
		if !strings.Contains(string(after), kept) {
			t.Errorf("resolve dropped %q:\n%s", kept, after)
		}
	}
	if !strings.Contains(string(after), "status: accepted") {
		t.Errorf("status not written:\n%s", after)
	}
	if !strings.Contains(string(after), "resolvedAt: "+today()) {
		t.Errorf("resolvedAt not written:\n%s", after)
	}
	if strings.Contains(string(before), "status:") {
		t.Errorf("fresh annotation should have no status:\n%s", before)
	}
}

func TestResolveAnnotation_Errors(t *testing.T) {
	root, s := testStore(t)
	ctx := context.Background()
	testutil.AddNode(t, root, "alpha", "Alpha")

	if err := s.ResolveAnnotation(ctx, "", "alpha", "001-x.md", "finished"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput for bad status", err)
	}
	err := s.ResolveAnnotation(ctx, "", "alpha", "001-x.md", models.StatusResolved)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "Annotation not found: 001-x.md") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestWriteJournalEntry_RootAndNode(t *testing.T) {
	root, s := testStore(t)
	ctx := context.Background()
	testutil.AddNode(t, root, "alpha", "Alpha")

	if err := s.WriteJournalEntry(ctx, "", models.JournalEntry{Context: "review", Body: "Weekly pass."}); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteJournalEntry(ctx, "", models.JournalEntry{Context: "review", Body: "Second pass."}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(filepath.Join(root, "journal.md"))
	if strings.Count(string(data), "<!-- context: review -->") != 2 {
		t.Errorf("journal = %q", data)
	}

	if err := s.WriteJournalEntry(ctx, "", models.JournalEntry{NodeID: "alpha", Context: "local", Body: "Node-scoped."}); err != nil {
		t.Fatal(err)
	}
	nodeJournal, err := os.ReadFile(filepath.Join(root, "nodes", "alpha", "journal.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(nodeJournal), "<!-- context: local -->") {
		t.Errorf("node journal = %q", nodeJournal)
	}

	if err := s.WriteJournalEntry(ctx, "", models.JournalEntry{NodeID: "ghost", Context: "c", Body: "b"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateView_Idempotent(t *testing.T) {
	root, s := testStore(t)
	ctx := context.Background()
	testutil.AddNode(t, root, "lens", "Lens")
	testutil.AddNode(t, root, "a", "A")
	testutil.AddNode(t, root, "b", "B")
	testutil.WriteJSON(t, filepath.Join(root, "nodes", "lens", "view.json"), map[string]any{
		"focal": "a", "includes": []string{"a"},
	})

	view := models.ViewData{Focal: "a", Includes: []string{"a", "b"}}
	if err := s.UpdateView(ctx, "", "lens", view); err != nil {
		t.Fatal(err)
	}
	first := readGraphJSON(t, root).Edges
	if err := s.UpdateView(ctx, "", "lens", view); err != nil {
		t.Fatal(err)
	}
	second := readGraphJSON(t, root).Edges

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("edges not stable: first %+v second %+v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("edge %d changed: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestUpdateView_RequiresExistingView(t *testing.T) {
	root, s := testStore(t)
	ctx := context.Background()
	testutil.AddNode(t, root, "plain", "Plain")

	err := s.UpdateView(ctx, "", "plain", models.ViewData{Focal: "plain", Includes: []string{"plain"}})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	if !strings.Contains(err.Error(), "not a view") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestUpdateView_FocalMustBeIncluded(t *testing.T) {
	root, s := testStore(t)
	ctx := context.Background()
	testutil.AddNode(t, root, "lens", "Lens")
	testutil.WriteJSON(t, filepath.Join(root, "nodes", "lens", "view.json"), map[string]any{
		"focal": "a", "includes": []string{"a"},
	})

	err := s.UpdateView(ctx, "", "lens", models.ViewData{Focal: "x", Includes: []string{"a"}})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

type recordingPusher struct {
	events []models.FileChangeEvent
}

func (r *recordingPusher) Push(ev models.FileChangeEvent) {
	r.events = append(r.events, ev)
}

func TestMutationsPushEvents(t *testing.T) {
	_, fs := testutil.TestWorkspace(t)
	rec := &recordingPusher{}
	s := New(fs, WithNotifier(rec))
	ctx := context.Background()

	if _, err := s.CreateNode(ctx, "", models.CreateNodeSpec{ID: "alpha", Title: "Alpha"}); err != nil {
		t.Fatal(err)
	}
	kinds := make(map[models.EventKind]int)
	for _, ev := range rec.events {
		kinds[ev.Kind]++
	}
	if kinds[models.EventNode] == 0 || kinds[models.EventJournal] == 0 {
		t.Errorf("events = %+v", rec.events)
	}

	rec.events = nil
	if _, err := s.WriteAnnotation(ctx, "", "alpha", models.SignalReading, "note", ""); err != nil {
		t.Fatal(err)
	}
	if len(rec.events) != 1 || rec.events[0].Kind != models.EventAnnotation || rec.events[0].NodeID != "alpha" {
		t.Errorf("events = %+v", rec.events)
	}
}
