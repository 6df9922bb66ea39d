// Package rsync composes and runs the differential copy that fills a new
// generation, hard-linking files unchanged since the previous one.
package rsync

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Options is one differential copy.
type Options struct {
	Binary       string
	Source       string
	Destination  string
	LinkDest     string // empty: plain copy
	Exclude      []string
	ModifyWindow int // seconds
	Debug        bool
	ExtraArgs    []string
	LogFile      string // optional copy of combined output
}

// Args builds the argv. Every path and pattern is its own element.
func Args(o Options) []string {
	binary := o.Binary
	if binary == "" {
		binary = "rsync"
	}

	verbosity := "-v"
	if o.Debug {
		verbosity = "-vv"
	}

	argv := []string{binary, "--archive", "--acls", "--xattrs", verbosity}
	if o.LinkDest != "" {
		argv = append(argv, "--link-dest="+o.LinkDest)
	}
	for _, e := range o.Exclude {
		argv = append(argv, "--exclude="+e)
	}
	argv = append(argv, "--modify-window="+strconv.Itoa(o.ModifyWindow))
	argv = append(argv, o.ExtraArgs...)

	// end of options, so a source named "-x" is still a path
	argv = append(argv, "--", contentsOf(o.Source), o.Destination)
	return argv
}

// contentsOf adds the trailing separator that makes rsync copy the contents
// of src rather than src itself.
func contentsOf(src string) string {
	sep := string(filepath.Separator)
	if strings.HasSuffix(src, sep) {
		return src
	}
	return src + sep
}
