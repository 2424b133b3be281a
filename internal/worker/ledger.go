package worker

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/resolve"
)

// Failure is one ledger entry.
type Failure struct {
	RunID      string             `json:"runId"`
	Identifier resolve.Identifier `json:"identifier"`
	Code       errors.Code        `json:"code"`
	Message    string             `json:"message"`
	Time       time.Time          `json:"time"`
}

// Ledger appends failures as JSON lines. It is safe for concurrent use.
type Ledger struct {
	mu  sync.Mutex
	w   io.Writer
	c   io.Closer
	enc *json.Encoder
}

// NewLedger writes entries to w.
func NewLedger(w io.Writer) *Ledger {
	return &Ledger{w: w, enc: json.NewEncoder(w)}
}

// OpenLedger opens path for appending, creating it if needed.
func OpenLedger(path string) (*Ledger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "open failure ledger")
	}
	l := NewLedger(f)
	l.c = f
	return l, nil
}

// Record appends f.
func (l *Ledger) Record(f Failure) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(f)
}

// Close closes the underlying file, if the ledger opened one.
func (l *Ledger) Close() error {
	if l.c == nil {
		return nil
	}
	return l.c.Close()
}

// ReadLedger decodes every entry in r.
func ReadLedger(r io.Reader) ([]Failure, error) {
	var out []Failure
	dec := json.NewDecoder(r)
	for {
		var f Failure
		err := dec.Decode(&f)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode failure ledger entry %d", len(out)+1)
		}
		out = append(out, f)
	}
}

// ReadIdentifiers reads one identifier per line: either a coordinate
// (group:artifact:version and the longer forms) or a JSON object with a
// repoURL. Blank lines and lines starting with # are ignored. repoURL fills
// in identifiers that name none.
func ReadIdentifiers(r io.Reader, repoURL string) ([]resolve.Identifier, error) {
	var out []resolve.Identifier
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var id resolve.Identifier
		if strings.HasPrefix(text, "{") {
			if err := json.Unmarshal([]byte(text), &id); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "line %d", line)
			}
			id.Coordinate = id.Coordinate.Normalize()
		} else {
			c, err := artifact.ParseCoordinate(text)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidCoordinate, err, "line %d", line)
			}
			id.Coordinate = c
		}
		if id.RepoURL == "" {
			id.RepoURL = repoURL
		}
		out = append(out, id)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
