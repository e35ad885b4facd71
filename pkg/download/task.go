// Package download fetches product and auxiliary files over http with
// resumable transfers.
//
// Transfers run strictly one after another. An interrupted transfer leaves a
// ".part" file next to the target which a later run picks up again with a
// ranged request, so a flaky connection only costs the missing tail of a
// file. Compressed files are unpacked once they are complete and the
// compressed original is removed.
package download

import (
	"net/url"
	"path"
	"strings"
)

// Status is the state of a single transfer.
type Status int

// Transfer states in the order they are usually passed through.
const (
	StatusPending Status = iota + 1
	StatusSkipped
	StatusResuming
	StatusDownloading
	StatusDecompressing
	StatusDone
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	return [...]string{"", "pending", "skipped", "resuming", "downloading", "decompressing", "done", "failed", "cancelled"}[s]
}

// Task is one file to fetch.
type Task struct {
	// URL is the download address.
	URL string

	// Filename overrides the file name derived from the URL path.
	Filename string

	// Subdir places the file below a subdirectory of the download directory.
	// When empty, files served from a "tables" directory are routed into a
	// local tables directory.
	Subdir string

	// Replace forces a fresh download even when the file is already there.
	Replace bool
}

// Name returns the local file name for the task.
func (t Task) Name() string {
	if t.Filename != "" {
		return t.Filename
	}
	u, err := url.Parse(t.URL)
	if err != nil {
		return path.Base(t.URL)
	}
	return path.Base(u.Path)
}

func (t Task) subdir() string {
	if t.Subdir != "" {
		return t.Subdir
	}
	u, err := url.Parse(t.URL)
	if err != nil {
		return ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) >= 2 && segs[len(segs)-2] == "tables" {
		return "tables"
	}
	return ""
}

// DecodedName returns the file name a task ends up with on disk, with the
// compression suffix stripped off.
func DecodedName(name string) string {
	switch {
	case strings.HasSuffix(name, ".gz"):
		return strings.TrimSuffix(name, ".gz")
	case strings.HasSuffix(name, ".Z"):
		return strings.TrimSuffix(name, ".Z")
	}
	return name
}
