package log

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Direction of a logged report.
type Direction bool

const (
	ToHost   Direction = true
	FromHost Direction = false
)

func (d Direction) String() string {
	if d == ToHost {
		return "KB->HOST"
	}
	return "HOST->KB"
}

// ReportLogger writes one line per report with a timestamp and hex dump.
type ReportLogger interface {
	Log(dir Direction, data []byte)
}

type reportLogger struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewReportLogger returns a ReportLogger on w. A nil w discards everything.
func NewReportLogger(w io.Writer) ReportLogger {
	return &reportLogger{w: w, now: time.Now}
}

func (l *reportLogger) Log(dir Direction, data []byte) {
	if l.w == nil || len(data) == 0 {
		return
	}
	line := fmt.Sprintf("%s %s %d bytes: % x\n", l.now().Format("2006/01/02 15:04:05.000"), dir, len(data), data)
	l.mu.Lock()
	_, _ = io.WriteString(l.w, line)
	l.mu.Unlock()
}
