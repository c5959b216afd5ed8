// Package logger records test results. A Logger owns one result document;
// groups and cases get their slots in the document through GroupRecorder and
// CaseRecorder, and each CaseRecorder folds the case's logs and final status
// into its slot when the case finishes.
package logger

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/giantswarm/cts/pkg/params"
)

// Status is the state of one case.
type Status string

const (
	StatusRunning Status = "running"
	StatusPass    Status = "pass"
	StatusWarn    Status = "warn"
	StatusFail    Status = "fail"
)

// DefaultVersion is written to documents of loggers without WithVersion.
const DefaultVersion = "dev"

// Result is the slot of one case. TimeMS is -1 and Logs is empty while the
// case is running.
type Result struct {
	Name   string      `json:"name"`
	Params params.Spec `json:"params"`
	Status Status      `json:"status"`
	Logs   []string    `json:"logs,omitempty"`
	TimeMS float64     `json:"timems"`
}

// GroupLog holds the results of one group in recording order.
type GroupLog struct {
	Path  string    `json:"path"`
	Cases []*Result `json:"cases"`
}

// Document is the serialised form of a Logger.
type Document struct {
	Version string     `json:"version"`
	Results []GroupLog `json:"results"`
}

// Clock is the time source of a Logger.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Option configures a Logger.
type Option func(*Logger)

// WithClock sets the time source used for case timings.
func WithClock(c Clock) Option {
	return func(l *Logger) { l.clock = c }
}

// WithVersion sets the version written to the document.
func WithVersion(v string) Option {
	return func(l *Logger) { l.version = v }
}

// Logger is the root of a result document. All writes to results go through
// the Logger's lock so Results can be read while cases run.
type Logger struct {
	mu      sync.RWMutex
	clock   Clock
	version string
	results []*GroupLog
}

func New(opts ...Option) *Logger {
	l := &Logger{clock: realClock{}, version: DefaultVersion}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends a group log for path and returns it with the recorder that
// allocates its case slots. Reading the returned GroupLog directly is only
// safe once every case of the group has finished; use Results otherwise.
func (l *Logger) Record(path string) (*GroupLog, *GroupRecorder) {
	g := &GroupLog{Path: path, Cases: []*Result{}}
	l.mu.Lock()
	l.results = append(l.results, g)
	l.mu.Unlock()
	return g, &GroupRecorder{logger: l, group: g}
}

// Results returns a deep copy of the current document contents.
func (l *Logger) Results() []GroupLog {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]GroupLog, len(l.results))
	for i, g := range l.results {
		cases := make([]*Result, len(g.Cases))
		for j, r := range g.Cases {
			c := *r
			c.Logs = append([]string(nil), r.Logs...)
			cases[j] = &c
		}
		out[i] = GroupLog{Path: g.Path, Cases: cases}
	}
	return out
}

// Document snapshots the logger.
func (l *Logger) Document() Document {
	return Document{Version: l.version, Results: l.Results()}
}

// JSON renders the document, indented with indent when non-empty.
func (l *Logger) JSON(indent string) ([]byte, error) {
	doc := l.Document()
	if indent == "" {
		return json.Marshal(doc)
	}
	return json.MarshalIndent(doc, "", indent)
}

// YAML renders the document as YAML using the JSON field names.
func (l *Logger) YAML() ([]byte, error) {
	return yaml.Marshal(l.Document())
}

// WriteTo writes the indented JSON document to w.
func (l *Logger) WriteTo(w io.Writer) (int64, error) {
	data, err := l.JSON("  ")
	if err != nil {
		return 0, err
	}
	n, err := w.Write(append(data, '\n'))
	return int64(n), err
}

// ParseDocument reads a document written as JSON or YAML.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, errors.Wrap(err, "parse result document")
	}
	return doc, nil
}

// GroupRecorder allocates case slots in one GroupLog.
type GroupRecorder struct {
	logger *Logger
	group  *GroupLog
}

// Record appends a running placeholder for the case and returns it with the
// recorder that will fill it in.
func (g *GroupRecorder) Record(name string, p params.Spec) (*Result, *CaseRecorder) {
	r := &Result{Name: name, Params: p, Status: StatusRunning, TimeMS: -1}
	g.logger.mu.Lock()
	g.group.Cases = append(g.group.Cases, r)
	g.logger.mu.Unlock()
	return r, &CaseRecorder{logger: g.logger, result: r}
}
