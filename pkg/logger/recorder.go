package logger

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrFinishBeforeStart is returned by Finish on a recorder never started.
	ErrFinishBeforeStart = errors.New("finish() before start()")
	// ErrAlreadyFinished is returned by a second Finish.
	ErrAlreadyFinished = errors.New("case already finished")
)

const maxTraceFrames = 16

// CaseRecorder collects the logs of one case and writes the outcome into the
// case's Result slot on Finish. Log, Warn, Fail and Threw may be called from
// any goroutine of the running case.
type CaseRecorder struct {
	logger *Logger
	result *Result

	mu       sync.Mutex
	started  bool
	finished bool
	begin    time.Time
	warned   bool
	failed   bool
	logs     []string
}

// Start begins (or restarts) the case: the begin time is captured and logs
// and flags are reset. Start after Finish is a no-op.
func (r *CaseRecorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}
	r.started = true
	r.begin = r.logger.clock.Now()
	r.warned = false
	r.failed = false
	r.logs = nil
}

// Finish folds the collected state into the Result: fail wins over warn,
// warn over pass. The Result is immutable afterwards.
func (r *CaseRecorder) Finish() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return ErrFinishBeforeStart
	}
	if r.finished {
		return ErrAlreadyFinished
	}
	r.finished = true

	elapsed := r.logger.clock.Now().Sub(r.begin)
	status := StatusPass
	switch {
	case r.failed:
		status = StatusFail
	case r.warned:
		status = StatusWarn
	}
	logs := append([]string{}, r.logs...)

	r.logger.mu.Lock()
	r.result.TimeMS = float64(elapsed) / float64(time.Millisecond)
	r.result.Status = status
	r.result.Logs = logs
	r.logger.mu.Unlock()
	return nil
}

// Log appends a plain message.
func (r *CaseRecorder) Log(msg string) {
	r.append(msg)
}

// Warn marks the case as warned and logs msg with the caller's stack.
func (r *CaseRecorder) Warn(msg string) {
	line := prefixed("WARN", msg) + trace(errors.New(msg).(stackTracer).StackTrace())
	r.mu.Lock()
	r.warned = true
	r.mu.Unlock()
	r.append(line)
}

// Fail marks the case as failed and logs msg with the caller's stack.
func (r *CaseRecorder) Fail(msg string) {
	line := prefixed("FAIL", msg) + trace(errors.New(msg).(stackTracer).StackTrace())
	r.mu.Lock()
	r.failed = true
	r.mu.Unlock()
	r.append(line)
}

// Threw marks the case as failed because its body returned or panicked with
// err. The stack recorded in err, if any, is logged with it.
func (r *CaseRecorder) Threw(err error) {
	line := "EXCEPTION"
	if err != nil {
		line += ": " + err.Error()
		if st := deepestStack(err); st != nil {
			line += trace(st)
		}
	}
	r.mu.Lock()
	r.failed = true
	r.mu.Unlock()
	r.append(line)
}

// Result returns the slot the recorder writes to.
func (r *CaseRecorder) Result() *Result { return r.result }

func (r *CaseRecorder) append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}
	r.logs = append(r.logs, line)
}

func prefixed(prefix, msg string) string {
	if msg == "" {
		return prefix
	}
	return prefix + ": " + msg
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// deepestStack returns the stack of the innermost error in the chain that
// carries one, which is the closest to where the failure happened.
func deepestStack(err error) errors.StackTrace {
	var st errors.StackTrace
	for e := err; e != nil; e = errors.Unwrap(e) {
		if s, ok := e.(stackTracer); ok {
			st = s.StackTrace()
		}
	}
	return st
}

// harnessPackages are skipped in traces so the first frame is test code.
var harnessPackages = []string{
	"github.com/giantswarm/cts/pkg/logger.",
	"github.com/giantswarm/cts/pkg/group.",
	"runtime.",
}

func trace(st errors.StackTrace) string {
	var b strings.Builder
	n := 0
	for _, f := range st {
		pc := uintptr(f) - 1
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		name := fn.Name()
		if isHarnessFrame(name) {
			continue
		}
		file, line := fn.FileLine(pc)
		fmt.Fprintf(&b, "\n    at %s (%s:%d)", name, file, line)
		if n++; n == maxTraceFrames {
			break
		}
	}
	return b.String()
}

func isHarnessFrame(name string) bool {
	for _, p := range harnessPackages {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
