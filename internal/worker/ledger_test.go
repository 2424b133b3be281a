package worker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/resolve"
)

func TestLedgerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failures.jsonl")
	id := resolve.Identifier{Coordinate: artifact.Coordinate{Group: "g", Artifact: "a", Version: "1"}.Normalize(), RepoURL: repo}

	for _, run := range []string{"run-1", "run-2"} {
		l, err := OpenLedger(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := l.Record(Failure{RunID: run, Identifier: id, Code: errors.ErrCodeFetch, Message: "boom", Time: time.Unix(0, 0).UTC()}); err != nil {
			t.Fatal(err)
		}
		if err := l.Close(); err != nil {
			t.Fatal(err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := ReadLedger(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].RunID != "run-1" || got[1].RunID != "run-2" {
		t.Fatalf("ReadLedger() = %+v", got)
	}
	if got[1].Identifier != id {
		t.Errorf("Identifier = %+v, want %+v", got[1].Identifier, id)
	}
}

func TestReadLedgerMalformed(t *testing.T) {
	_, err := ReadLedger(strings.NewReader("{\"runId\":\"x\"}\nnot json\n"))
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ReadLedger() error = %v, want INVALID_FORMAT", err)
	}
}

func TestReadIdentifiers(t *testing.T) {
	input := `
# seeds
org.example:lib:1.0
org.example:lib:pom:2.0
{"groupId":"g","artifactId":"a","version":"3","repoURL":"https://mirror.example/m2"}
`
	got, err := ReadIdentifiers(strings.NewReader(input), repo)
	if err != nil {
		t.Fatalf("ReadIdentifiers() error: %v", err)
	}
	want := []string{
		"org.example:lib:1.0:null:jar",
		"org.example:lib:2.0:null:pom",
		"g:a:3:null:jar",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d identifiers, want %d", len(got), len(want))
	}
	for i, id := range got {
		if id.Coordinate.Key() != want[i] {
			t.Errorf("[%d] = %s, want %s", i, id.Coordinate.Key(), want[i])
		}
	}
	if got[0].RepoURL != repo || got[2].RepoURL != "https://mirror.example/m2" {
		t.Errorf("repo URLs = %q, %q", got[0].RepoURL, got[2].RepoURL)
	}
}

func TestReadIdentifiersErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.Code
	}{
		{"short coordinate", "g:a\n", errors.ErrCodeInvalidCoordinate},
		{"bad json", "{\"groupId\":\n", errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadIdentifiers(strings.NewReader(tt.input), repo)
			if !errors.Is(err, tt.code) {
				t.Errorf("ReadIdentifiers() error = %v, want %s", err, tt.code)
			}
		})
	}
}
