package memory

import (
	"context"
	"testing"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/store"
)

func record(a string, res artifact.Resolution, crawl string) store.NodeRecord {
	return store.NodeRecord{
		Group: "g", Artifact: a, Version: "1", Classifier: "null", Packaging: "jar",
		Resolution: res, CrawlVersion: crawl, Properties: "{}",
	}
}

func TestApplyConditionalOverwrite(t *testing.T) {
	ctx := context.Background()
	b := New()

	steps := []struct {
		name      string
		in        store.NodeRecord
		wantRes   artifact.Resolution
		wantCrawl string
	}{
		{"create dangling", record("a", artifact.Dangling, ""), artifact.Dangling, ""},
		{"full upgrades", record("a", artifact.Full, "1"), artifact.Full, "1"},
		{"dangling matches", record("a", artifact.Dangling, ""), artifact.Full, "1"},
		{"full overwrites", record("a", artifact.Full, "2"), artifact.Full, "2"},
	}

	for _, s := range steps {
		if err := b.Apply(ctx, store.Batch{Nodes: []store.NodeRecord{s.in}}); err != nil {
			t.Fatalf("%s: Apply() error: %v", s.name, err)
		}
		got, _ := b.FindNode(ctx, s.in.Key())
		if got == nil || got.Resolution != s.wantRes || got.CrawlVersion != s.wantCrawl {
			t.Errorf("%s: node = %+v, want %s/%s", s.name, got, s.wantRes, s.wantCrawl)
		}
	}
}

func TestApplyReplaceEdges(t *testing.T) {
	ctx := context.Background()
	b := New()
	src := record("a", artifact.Full, "1")
	parent := store.NodeRecord{Group: "g", Artifact: "p", Version: "1", Classifier: "null", Packaging: "pom", Resolution: artifact.Dangling}

	first := store.Batch{
		Nodes: []store.NodeRecord{src, parent},
		Edges: []store.EdgeRecord{
			{Kind: store.EdgeParent, Src: parent.Key(), Dst: src.Key()},
			{Kind: store.EdgeDependsOn, Src: src.Key(), Dst: "x", Position: 0},
			{Kind: store.EdgeDependsOn, Src: src.Key(), Dst: "y", Position: 1},
		},
		Replace: src.Key(),
	}
	if err := b.Apply(ctx, first); err != nil {
		t.Fatal(err)
	}
	if p, _ := b.FindParent(ctx, src.Key()); p == nil || p.Artifact != "p" {
		t.Fatalf("FindParent() = %+v, want p", p)
	}

	second := store.Batch{
		Nodes:   []store.NodeRecord{src},
		Edges:   []store.EdgeRecord{{Kind: store.EdgeDependsOn, Src: src.Key(), Dst: "z", Position: 0}},
		Replace: src.Key(),
	}
	if err := b.Apply(ctx, second); err != nil {
		t.Fatal(err)
	}

	edges, _ := b.FindEdges(ctx, src.Key())
	if len(edges) != 1 || edges[0].Dst != "z" {
		t.Errorf("edges after replace = %+v, want only z", edges)
	}
	if p, _ := b.FindParent(ctx, src.Key()); p != nil {
		t.Errorf("parent edge survived replace: %+v", p)
	}
	if _, total := b.Len(); total != 1 {
		t.Errorf("edge count = %d, want 1", total)
	}
}

func TestFindEdgesFiltersKinds(t *testing.T) {
	ctx := context.Background()
	b := New()
	_ = b.Apply(ctx, store.Batch{Edges: []store.EdgeRecord{
		{Kind: store.EdgeDependsOn, Src: "s", Dst: "a", Position: 0},
		{Kind: store.EdgeManages, Src: "s", Dst: "b", Position: 0},
		{Kind: store.EdgeImports, Src: "s", Dst: "c", Position: 1},
	}})

	tests := []struct {
		kinds []store.EdgeKind
		want  int
	}{
		{nil, 3},
		{[]store.EdgeKind{store.EdgeDependsOn}, 1},
		{[]store.EdgeKind{store.EdgeManages, store.EdgeImports}, 2},
		{[]store.EdgeKind{store.EdgeParent}, 0},
	}
	for _, tt := range tests {
		edges, err := b.FindEdges(ctx, "s", tt.kinds...)
		if err != nil {
			t.Fatal(err)
		}
		if len(edges) != tt.want {
			t.Errorf("FindEdges(%v) = %d edges, want %d", tt.kinds, len(edges), tt.want)
		}
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().FindNode(ctx, "k"); err == nil {
		t.Error("FindNode() should fail on a cancelled context")
	}
}
