package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTopology(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topology.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadTopology_ParsesRoutersAndHosts(t *testing.T) {
	path := writeTopology(t, `{
		"nodes": [
			{"vip": "R1", "kind": "router", "routes": {"B": "R2"}},
			{"vip": "A", "kind": "host", "gateway": "R1"},
			{"vip": "B", "kind": "host", "gateway": "R1", "drop_prob": 0.1}
		]
	}`)

	top, err := LoadTopology(path)
	if err != nil {
		t.Fatalf("LoadTopology: %v", err)
	}
	if len(top.Nodes) != 3 {
		t.Fatalf("len(Nodes) = %d, want 3", len(top.Nodes))
	}
	if top.Nodes[0].Routes["B"] != "R2" {
		t.Fatalf("router route = %q, want R2", top.Nodes[0].Routes["B"])
	}
	if top.Nodes[2].DropProb != 0.1 {
		t.Fatalf("drop_prob = %v, want 0.1", top.Nodes[2].DropProb)
	}
}

func TestLoadTopology_RejectsUnknownKind(t *testing.T) {
	path := writeTopology(t, `{"nodes": [{"vip": "X", "kind": "bridge"}]}`)

	if _, err := LoadTopology(path); err == nil {
		t.Fatal("LoadTopology succeeded, want error for unknown kind")
	}
}

func TestLoadTopology_MissingFile(t *testing.T) {
	if _, err := LoadTopology(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("LoadTopology succeeded, want error for missing file")
	}
}
