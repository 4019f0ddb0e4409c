// Package log is a thin wrapper around the standard logger. Messages are
// tagged with a level prefix like "[warn]" and lines below the minimum
// level are dropped.
package log

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

type Level string

const (
	LDebug = Level("debug")
	LStep  = Level("step")
	LInfo  = Level("info")
	LWarn  = Level("warn")
	LError = Level("error")
	LFatal = Level("fatal")
)

var levels = []Level{LDebug, LStep, LInfo, LWarn, LError, LFatal}

// ParseLevel returns the Level for name.
func ParseLevel(name string) (Level, bool) {
	for _, l := range levels {
		if string(l) == name {
			return l, true
		}
	}
	return "", false
}

var DefaultLogger *log.Logger
var defaultFilter *logFilter

func init() {
	defaultFilter = &logFilter{
		start:    time.Now(),
		writer:   os.Stderr,
		minLevel: LStep,
	}
	defaultFilter.init()
	DefaultLogger = log.New(defaultFilter, "", 0)
}

type logFilter struct {
	mu        sync.Mutex
	start     time.Time
	writer    io.Writer
	badLevels map[Level]struct{}
	minLevel  Level
}

func (f *logFilter) init() {
	badLevels := make(map[Level]struct{})
	for _, level := range levels {
		if level == f.minLevel {
			break
		}
		badLevels[level] = struct{}{}
	}
	f.badLevels = badLevels
}

// level returns the level of a line. Lines without a level prefix are info.
func level(line []byte) Level {
	if len(line) == 0 || line[0] != '[' {
		return LInfo
	}
	y := bytes.IndexByte(line, ']')
	if y < 0 {
		return LInfo
	}
	return Level(line[1:y])
}

func (f *logFilter) Write(p []byte) (n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.badLevels[level(p)]; ok {
		return len(p), nil
	}
	// log.Logger calls Write once per line
	b := bytes.Buffer{}
	now := time.Now()
	d := now.Sub(f.start)
	fmt.Fprintf(&b, "[%s] %d:%02d:%02d ",
		now.Format(time.RFC3339),
		int(d.Hours()),
		int(d.Minutes())%60,
		int(d.Seconds())%60,
	)
	b.Write(p)
	if _, err := f.writer.Write(b.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}

// SetMinLevel drops all messages below lvl.
func SetMinLevel(lvl Level) {
	defaultFilter.mu.Lock()
	defer defaultFilter.mu.Unlock()
	defaultFilter.minLevel = lvl
	defaultFilter.init()
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	defaultFilter.mu.Lock()
	defer defaultFilter.mu.Unlock()
	defaultFilter.writer = w
}

func Println(v ...interface{}) {
	DefaultLogger.Println(v...)
}

func Printf(format string, v ...interface{}) {
	DefaultLogger.Printf(format, v...)
}

func Fatal(v ...interface{}) {
	DefaultLogger.Fatal(append([]interface{}{"[fatal]"}, v...)...)
}

func Fatalf(format string, v ...interface{}) {
	DefaultLogger.Fatalf("[fatal] "+format, v...)
}

// Step logs the start of name and returns a func that logs the duration.
func Step(name string) func() {
	start := time.Now()
	Println("[step] Starting:", name)
	return func() {
		Printf("[step] Finished: %s in %s", name, time.Since(start))
	}
}
