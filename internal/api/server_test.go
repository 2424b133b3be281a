package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/manifest"
	"github.com/matzehuels/pomgraph/pkg/observability/metrics"
	"github.com/matzehuels/pomgraph/pkg/resolve"
	"github.com/matzehuels/pomgraph/pkg/store"
	"github.com/matzehuels/pomgraph/pkg/store/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	quiet := log.New(io.Discard)
	f := manifest.NewMapFetcher(
		&manifest.Manifest{
			Group: "g", Artifact: "a", Version: "1.0",
			Parent:       &manifest.Parent{Group: "g", Artifact: "parent-pom", Version: "1.0"},
			Dependencies: []manifest.Dependency{{Group: "dep-g", Artifact: "dep-a", Version: "${depVersion}"}},
		},
		&manifest.Manifest{
			Group: "g", Artifact: "parent-pom", Version: "1.0", Packaging: "pom",
			Properties: map[string]string{"depVersion": "2.0"},
		},
		&manifest.Manifest{
			Group: "g", Artifact: "broken", Version: "1",
			Dependencies: []manifest.Dependency{{Group: "x", Artifact: "y", Version: "${undefined}"}},
		},
	)
	gw := store.NewGateway(memory.New(), store.WithLogger(quiet))
	s := New(Config{
		Resolver:     resolve.New(f, gw, resolve.Options{CrawlVersion: "1", Logger: quiet}),
		Gateway:      gw,
		RepoURL:      "https://repo.example/maven2",
		CrawlVersion: "1",
		Metrics:      metrics.New(prometheus.NewRegistry()).Handler(),
		Logger:       quiet,
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postResolve(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/resolve", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp := get(t, ts, "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	h := decode[HealthResponse](t, resp)
	if h.Status != "healthy" || h.Service != "pomgraph" {
		t.Errorf("health = %+v", h)
	}
}

func TestResolveAndRead(t *testing.T) {
	ts := newTestServer(t)

	resp := postResolve(t, ts, `{"coordinate":"g:a:1.0"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resolve status = %d", resp.StatusCode)
	}
	res := decode[ResolveResponse](t, resp)
	if len(res.Nodes) != 2 || res.Stored != 2 || res.Fetched != 2 {
		t.Fatalf("resolve = %+v", res)
	}

	resp = get(t, ts, "/v1/nodes/g:a:1.0")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("node status = %d", resp.StatusCode)
	}
	n := decode[artifact.Node](t, resp)
	if n.Resolution != artifact.Full || len(n.Dependencies) != 1 || n.Dependencies[0].Target.Version != "2.0" {
		t.Errorf("node = %+v", n)
	}
	if n.Parent == nil || n.Parent.Artifact != "parent-pom" {
		t.Errorf("parent = %+v", n.Parent)
	}

	resp = get(t, ts, "/v1/nodes/dep-g:dep-a:2.0")
	if n := decode[artifact.Node](t, resp); n.Resolution != artifact.Dangling {
		t.Errorf("dependency stub resolution = %s, want DANGLING", n.Resolution)
	}

	tests := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"?target=0", true},
		{"?target=2", false},
	}
	for _, tt := range tests {
		resp := get(t, ts, "/v1/nodes/g:a:1.0/uptodate"+tt.query)
		if got := decode[UpToDateResponse](t, resp); got.UpToDate != tt.want {
			t.Errorf("uptodate%s = %v, want %v", tt.query, got.UpToDate, tt.want)
		}
	}

	// The stored seed is adopted on the next request.
	res = decode[ResolveResponse](t, postResolve(t, ts, `{"coordinate":"g:a:1.0"}`))
	if res.Fetched != 0 || res.Adopted != 2 || len(res.Nodes) != 1 {
		t.Errorf("second resolve = %+v", res)
	}
	if len(res.Nodes[0].Dependencies) != 1 {
		t.Errorf("adopted node should carry its stored dependencies: %+v", res.Nodes[0])
	}
}

func TestResolveDryRun(t *testing.T) {
	ts := newTestServer(t)

	res := decode[ResolveResponse](t, postResolve(t, ts, `{"coordinate":"g:a:1.0","dryRun":true}`))
	if res.Stored != 0 || len(res.Nodes) != 2 {
		t.Errorf("dry run = %+v", res)
	}
	if resp := get(t, ts, "/v1/nodes/g:a:1.0"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("node after dry run: status = %d, want 404", resp.StatusCode)
	}
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		do     func() *http.Response
		status int
		code   errors.Code
	}{
		{"bad body", func() *http.Response { return postResolve(t, ts, `{`) }, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad coordinate", func() *http.Response { return postResolve(t, ts, `{"coordinate":"g:a"}`) }, http.StatusBadRequest, errors.ErrCodeInvalidCoordinate},
		{"bad repo", func() *http.Response {
			return postResolve(t, ts, `{"coordinate":"g:a:1","repoURL":"ftp://x"}`)
		}, http.StatusBadRequest, errors.ErrCodeConfiguration},
		{"unknown artifact", func() *http.Response { return postResolve(t, ts, `{"coordinate":"g:nope:1"}`) }, http.StatusBadGateway, errors.ErrCodeFetch},
		{"unresolved property", func() *http.Response { return postResolve(t, ts, `{"coordinate":"g:broken:1"}`) }, http.StatusUnprocessableEntity, errors.ErrCodeUnresolvedProperty},
		{"node not stored", func() *http.Response { return get(t, ts, "/v1/nodes/g:a:9") }, http.StatusNotFound, errors.ErrCodeNodeNotFound},
		{"node bad coordinate", func() *http.Response { return get(t, ts, "/v1/nodes/nonsense") }, http.StatusBadRequest, errors.ErrCodeInvalidCoordinate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.do()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if body := decode[ErrorResponse](t, resp); body.Error.Code != tt.code {
				t.Errorf("code = %s, want %s", body.Error.Code, tt.code)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp := get(t, ts, "/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte("pomgraph_adopt_total")) {
		t.Errorf("metrics output lacks pomgraph counters:\n%s", body)
	}
}

func TestStatusOf(t *testing.T) {
	if got := statusOf(""); got != http.StatusInternalServerError {
		t.Errorf("statusOf(\"\") = %d", got)
	}
	if got := statusOf(errors.ErrCodeTimeout); got != http.StatusGatewayTimeout {
		t.Errorf("statusOf(TIMEOUT) = %d", got)
	}
}
