package batch

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"
)

// errorLog appends one line per failed batch to a shared log file. Lines
// are written with a single O_APPEND write under a mutex so concurrent
// workers never interleave partial lines.
type errorLog struct {
	mu sync.Mutex
	f  *os.File
}

func openErrorLog(path string) (*errorLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open error log: %w", err)
	}
	return &errorLog{f: f}, nil
}

// Append writes "{start}-{end}, {ErrorKind}: {message}".
func (l *errorLog) Append(r Range, err error) error {
	line := fmt.Sprintf("%s, %s: %s\n", r, errorKind(err), err.Error())
	l.mu.Lock()
	defer l.mu.Unlock()
	_, werr := l.f.WriteString(line)
	return werr
}

func (l *errorLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// errorKind names the concrete error type, mirroring the exception-class
// name the upstream log format carried.
func errorKind(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return "error"
	}
	name := t.Name()
	if name == "" {
		name = t.String()
	}
	// strip package qualifiers like "fmt.wrapError"
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
