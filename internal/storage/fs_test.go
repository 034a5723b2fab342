package storage

import (
	"os"
	"testing"
)

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Write("nodes/alpha/node.json", []byte(`{"title":"Alpha"}`)); err != nil {
		t.Fatal(err)
	}
	data, err := f.Read("nodes/alpha/node.json")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"title":"Alpha"}` {
		t.Errorf("data = %q", data)
	}
}

func TestSafePathRejectsEscape(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Read("../outside.txt"); err == nil {
		t.Error("expected traversal error")
	}
	if err := f.Write("../../evil", []byte("x")); err == nil {
		t.Error("expected traversal error on write")
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Write("graph.json", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "graph.json" {
		t.Errorf("unexpected entries: %v", entries)
	}
}

func TestReadDirAndStat(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Write("nodes/a/node.json", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	entries, err := f.ReadDir("nodes")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		t.Errorf("entries = %v", entries)
	}
	info, err := f.Stat("nodes/a/node.json")
	if err != nil {
		t.Fatal(err)
	}
	if info.IsDir() {
		t.Error("expected file, got dir")
	}
}
