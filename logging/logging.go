package logging

import (
	"io"
	"log"
	"os"
	"sync"
)

// appLogLimit caps adjuster.log before a rotation. One .1 backup is
// kept; older generations are overwritten.
const appLogLimit = 2 << 20

// AppLog is the rotating file sink behind the standard logger. Setup
// tees every log line to stdout and to the file.
type AppLog struct {
	mu    sync.Mutex
	f     *os.File
	path  string
	size  int64
	limit int64
}

func Setup(path string) (*AppLog, error) {
	a := &AppLog{path: path, limit: appLogLimit}
	if err := a.open(); err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(os.Stdout, a))
	return a, nil
}

func (a *AppLog) open() error {
	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	a.f = f
	a.size = 0
	if info, err := f.Stat(); err == nil {
		a.size = info.Size()
	}
	if a.size >= a.limit {
		a.rotate()
	}
	return nil
}

func (a *AppLog) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n, err := a.f.Write(p)
	a.size += int64(n)
	if a.size >= a.limit {
		a.rotate()
	}
	return n, err
}

func (a *AppLog) rotate() {
	a.f.Close()
	os.Rename(a.path, a.path+".1")

	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		// Fall back to a discard handle rather than panicking mid-log.
		a.f, _ = os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		return
	}
	a.f = f
	a.size = 0
}

func (a *AppLog) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.f.Close()
}
