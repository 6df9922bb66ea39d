package rsync

import (
	"io"
	"sync"

	"github.com/raoulx24/snaprotate/internal/logging"
)

// logSink copies utility output to the log file. A failed write is logged
// once and later writes are dropped; the pipe to the child never sees an
// error, so the log cannot change how the copy ends.
type logSink struct {
	mu   sync.Mutex
	w    io.Writer
	path string
	log  logging.Logger
	err  error
}

func newLogSink(w io.Writer, path string, log logging.Logger) *logSink {
	return &logSink{w: w, path: path, log: log}
}

func (s *logSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return len(p), nil
	}
	if _, err := s.w.Write(p); err != nil {
		s.err = err
		s.log.Warn("log file write failed, discarding further output", "path", s.path, "err", err)
	}
	return len(p), nil
}

// Err is the first write error, if any.
func (s *logSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
