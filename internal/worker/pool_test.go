package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/manifest"
	"github.com/matzehuels/pomgraph/pkg/resolve"
	"github.com/matzehuels/pomgraph/pkg/store"
	"github.com/matzehuels/pomgraph/pkg/store/memory"
)

const repo = "https://repo.example/maven2"

type fixture struct {
	fetcher *manifest.MapFetcher
	backend *memory.Backend
	gateway *store.Gateway
}

func newFixture(ms ...*manifest.Manifest) *fixture {
	quiet := log.New(io.Discard)
	b := memory.New()
	return &fixture{
		fetcher: manifest.NewMapFetcher(ms...),
		backend: b,
		gateway: store.NewGateway(b, store.WithLogger(quiet)),
	}
}

func (f *fixture) pool(opts Options) *Pool {
	quiet := log.New(io.Discard)
	r := resolve.New(f.fetcher, f.gateway, resolve.Options{CrawlVersion: "1", Logger: quiet})
	opts.CrawlVersion = "1"
	opts.Logger = quiet
	return New(r, f.gateway, opts)
}

func ids(coords ...string) []resolve.Identifier {
	out := make([]resolve.Identifier, len(coords))
	for i, s := range coords {
		c, err := artifact.ParseCoordinate(s)
		if err != nil {
			panic(err)
		}
		out[i] = resolve.Identifier{Coordinate: c, RepoURL: repo}
	}
	return out
}

func TestPoolRun(t *testing.T) {
	f := newFixture(
		&manifest.Manifest{Group: "g", Artifact: "a", Version: "1", Parent: &manifest.Parent{Group: "g", Artifact: "parent", Version: "1"}},
		&manifest.Manifest{Group: "g", Artifact: "b", Version: "1", Parent: &manifest.Parent{Group: "g", Artifact: "parent", Version: "1"}},
		&manifest.Manifest{Group: "g", Artifact: "parent", Version: "1", Packaging: "pom"},
	)
	var ledger bytes.Buffer
	p := f.pool(Options{Concurrency: 2, Ledger: NewLedger(&ledger)})

	s, err := p.Run(context.Background(), ids("g:a:1", "g:b:1", "g:gone:1"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if s.Resolved != 2 || s.Failed != 1 || s.Total() != 3 {
		t.Errorf("summary = %+v, want 2 resolved and 1 failed", s)
	}
	if s.RunID == "" {
		t.Error("RunID is empty")
	}

	failures, err := ReadLedger(&ledger)
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 1 {
		t.Fatalf("ledger has %d entries, want 1", len(failures))
	}
	got := failures[0]
	if got.Code != errors.ErrCodeFetch || got.Identifier.Artifact != "gone" || got.RunID != s.RunID {
		t.Errorf("ledger entry = %+v", got)
	}

	for _, key := range []string{"g:a:1:null:jar", "g:b:1:null:jar", "g:parent:1:null:pom"} {
		rec, _ := f.backend.FindNode(context.Background(), key)
		if rec == nil || rec.Resolution != artifact.Full {
			t.Errorf("%s not stored FULL", key)
		}
	}
}

func TestPoolSkipsUpToDate(t *testing.T) {
	f := newFixture(&manifest.Manifest{Group: "g", Artifact: "a", Version: "1"})
	ctx := context.Background()

	if _, err := f.pool(Options{}).Run(ctx, ids("g:a:1")); err != nil {
		t.Fatal(err)
	}
	before := f.fetcher.Calls("")

	s, err := f.pool(Options{}).Run(ctx, ids("g:a:1"))
	if err != nil {
		t.Fatal(err)
	}
	if s.Skipped != 1 || f.fetcher.Calls("") != before {
		t.Errorf("second run: skipped %d, fetched %d more", s.Skipped, f.fetcher.Calls("")-before)
	}

	s, err = f.pool(Options{Force: true}).Run(ctx, ids("g:a:1"))
	if err != nil {
		t.Fatal(err)
	}
	if s.Resolved != 1 {
		t.Errorf("forced run resolved %d, want 1", s.Resolved)
	}
}

func TestPoolValidationFailureIsRecorded(t *testing.T) {
	f := newFixture(&manifest.Manifest{
		Group: "g", Artifact: "a", Version: "1",
		Dependencies: []manifest.Dependency{{Group: "x", Artifact: "unversioned"}},
	})

	s, err := f.pool(Options{}).Run(context.Background(), ids("g:a:1"))
	if err != nil {
		t.Fatal(err)
	}
	if s.Failed != 1 || s.Failures[0].Code != errors.ErrCodeValidation {
		t.Fatalf("summary = %+v, want one VALIDATION_ERROR", s)
	}
	if nodes, _ := f.backend.Len(); nodes != 0 {
		t.Errorf("store has %d nodes, want nothing written", nodes)
	}
}

func TestPoolFollow(t *testing.T) {
	f := newFixture(
		&manifest.Manifest{
			Group: "g", Artifact: "app", Version: "1",
			Dependencies: []manifest.Dependency{
				{Group: "g", Artifact: "lib", Version: "1"},
				{Group: "g", Artifact: "junit", Version: "4", Scope: "test"},
			},
		},
		&manifest.Manifest{
			Group: "g", Artifact: "lib", Version: "1",
			Dependencies: []manifest.Dependency{{Group: "g", Artifact: "core", Version: "1", Scope: "runtime"}},
		},
		&manifest.Manifest{Group: "g", Artifact: "core", Version: "1"},
	)

	tests := []struct {
		name     string
		maxNodes int
		want     int
	}{
		{"unbounded", 0, 3},
		{"capped", 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := f.pool(Options{Follow: true, Force: true, MaxNodes: tt.maxNodes}).Run(context.Background(), ids("g:app:1"))
			if err != nil {
				t.Fatal(err)
			}
			if s.Resolved != tt.want || s.Failed != 0 {
				t.Errorf("summary = %+v, want %d resolved", s, tt.want)
			}
		})
	}

	if f.fetcher.Calls("g:junit:4") != 0 {
		t.Error("test-scoped dependency should not be followed")
	}
}

func TestPoolFollowThroughUpToDateSeed(t *testing.T) {
	f := newFixture(
		&manifest.Manifest{
			Group: "g", Artifact: "app", Version: "1",
			Dependencies: []manifest.Dependency{{Group: "g", Artifact: "lib", Version: "1"}},
		},
		&manifest.Manifest{Group: "g", Artifact: "lib", Version: "1"},
	)
	ctx := context.Background()
	if _, err := f.pool(Options{}).Run(ctx, ids("g:app:1")); err != nil {
		t.Fatal(err)
	}

	s, err := f.pool(Options{Follow: true}).Run(ctx, ids("g:app:1"))
	if err != nil {
		t.Fatal(err)
	}
	if s.Skipped != 1 || s.Resolved != 1 {
		t.Errorf("summary = %+v, want app skipped and lib resolved", s)
	}
}

func TestPoolConcurrentSharedParent(t *testing.T) {
	ms := []*manifest.Manifest{{
		Group: "g", Artifact: "parent", Version: "1", Packaging: "pom",
		Properties: map[string]string{"v": "2"},
	}}
	var coords []string
	for i := range 20 {
		a := fmt.Sprintf("m%d", i)
		ms = append(ms, &manifest.Manifest{
			Group: "g", Artifact: a, Version: "1",
			Parent:       &manifest.Parent{Group: "g", Artifact: "parent", Version: "1"},
			Dependencies: []manifest.Dependency{{Group: "x", Artifact: "shared", Version: "${v}"}},
		})
		coords = append(coords, "g:"+a+":1")
	}
	f := newFixture(ms...)

	s, err := f.pool(Options{Concurrency: 8}).Run(context.Background(), ids(coords...))
	if err != nil {
		t.Fatal(err)
	}
	if s.Resolved != 20 {
		t.Fatalf("resolved %d, want 20", s.Resolved)
	}
	// 20 modules, their parent and one shared dependency stub.
	if nodes, edges := f.backend.Len(); nodes != 22 || edges != 40 {
		t.Errorf("store has %d nodes and %d edges, want 22 and 40", nodes, edges)
	}
}

func TestPoolCancelled(t *testing.T) {
	f := newFixture(&manifest.Manifest{Group: "g", Artifact: "a", Version: "1"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := f.pool(Options{}).Run(ctx, ids("g:a:1"))
	if err == nil {
		// A worker can still win the race against the cancelled context.
		if s.Total() != 1 {
			t.Errorf("summary = %+v", s)
		}
		return
	}
	if err != context.Canceled {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestPoolEmpty(t *testing.T) {
	f := newFixture()
	s, err := f.pool(Options{}).Run(context.Background(), nil)
	if err != nil || s.Total() != 0 {
		t.Errorf("Run(nil) = %+v, %v", s, err)
	}
}
