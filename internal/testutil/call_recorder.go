package testutil

import (
	"strings"
	"sync"
	"time"
)

// CallRecord is one command invocation seen by a fake runner.
type CallRecord struct {
	Name      string
	Args      []string
	Env       map[string]string
	Timestamp time.Time
	Stdout    string
	ExitCode  int
}

// CommandLine renders the call as "name arg1 arg2".
func (r CallRecord) CommandLine() string {
	return strings.TrimSpace(r.Name + " " + strings.Join(r.Args, " "))
}

// CallRecorder collects CallRecords from concurrent callers. The zero value
// is ready to use.
type CallRecorder struct {
	mu    sync.Mutex
	calls []CallRecord
}

// Record appends a call, stamping it when Timestamp is zero.
func (c *CallRecorder) Record(r CallRecord) {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	c.mu.Lock()
	c.calls = append(c.calls, r)
	c.mu.Unlock()
}

// Calls returns a copy of the recorded calls in order.
func (c *CallRecorder) Calls() []CallRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CallRecord(nil), c.calls...)
}

// CommandLines returns CommandLine for each recorded call.
func (c *CallRecorder) CommandLines() []string {
	var out []string
	for _, r := range c.Calls() {
		out = append(out, r.CommandLine())
	}
	return out
}

// Reset forgets all recorded calls.
func (c *CallRecorder) Reset() {
	c.mu.Lock()
	c.calls = nil
	c.mu.Unlock()
}
