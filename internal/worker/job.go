package worker

import (
	"time"

	"github.com/raoulx24/snaprotate/internal/config"
)

// Job is one snapshot set to run.
type Job struct {
	Set config.SetConfig
}

// Result is the outcome of one Job.
type Result struct {
	Set       string
	RunID     string
	Started   time.Time
	Finished  time.Time
	Size      string // human readable, empty unless the run succeeded
	SizeBytes int64  // -1 unless the run succeeded
	Err       error
}

func (r Result) OK() bool { return r.Err == nil }
