package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	maxRetries = 3
	retryDelay = 5 * time.Second
	chunkSize  = 8192
)

// Doer executes prepared HTTP requests. Both *http.Client and *cddis.Client
// satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Event is a progress notification for one file.
type Event struct {
	Filename string
	Percent  int
}

// FileResult reports the outcome of one task.
type FileResult struct {
	Filename string
	Path     string // final location on disk, set when done or skipped
	Status   Status
	Written  int64 // size of the fetched artifact, resumed bytes included
	Duration time.Duration
	Err      error
}

// Engine drives file transfers into a download directory.
//
// Transfers run strictly sequential, a second Fetch call blocks until the
// first batch is through. Progress events go to Events when a sink is set
// and are dropped when nobody listens, a slow or absent consumer never
// stalls a transfer.
type Engine struct {
	Dir     string
	Client  Doer
	Log     *logrus.Logger
	Events  chan<- Event
	Retries int           // attempts per file, defaults to 3
	Delay   time.Duration // backoff base, grows with every attempt, defaults to 5s

	mu sync.Mutex
}

// NewEngine returns an Engine writing into dir.
func NewEngine(dir string, client Doer) *Engine {
	return &Engine{
		Dir:     dir,
		Client:  client,
		Log:     logrus.StandardLogger(),
		Retries: maxRetries,
		Delay:   retryDelay,
	}
}

// Fetch downloads all tasks one after another and reports one result per
// task. A cancelled context stops the batch between two chunks, the partial
// file stays behind for the next run and the remaining tasks are reported as
// cancelled, not failed.
func (e *Engine) Fetch(ctx context.Context, tasks []Task) []FileResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := e.logger()
	results := make([]FileResult, 0, len(tasks))
	for i, t := range tasks {
		if ctx.Err() != nil {
			for _, rest := range tasks[i:] {
				results = append(results, FileResult{Filename: rest.Name(), Status: StatusCancelled, Err: ctx.Err()})
			}
			break
		}

		res := e.fetchOne(ctx, t)
		switch res.Status {
		case StatusDone:
			log.Infof("downloaded %s (%d bytes)", res.Filename, res.Written)
		case StatusSkipped:
			log.Debugf("%s is already there", res.Filename)
		case StatusCancelled:
			log.Warnf("download of %s cancelled", res.Filename)
		case StatusFailed:
			log.Errorf("download of %s failed: %v", res.Filename, res.Err)
		}
		results = append(results, res)
	}
	return results
}

func (e *Engine) fetchOne(ctx context.Context, t Task) FileResult {
	begin := time.Now()
	name := t.Name()
	res := FileResult{Filename: name, Status: StatusPending}

	done := func(status Status, err error) FileResult {
		res.Status, res.Err = status, err
		res.Duration = time.Since(begin)
		return res
	}

	if name == "" || name == "." || name == "/" {
		return done(StatusFailed, fmt.Errorf("no usable file name in %q", t.URL))
	}

	dir := filepath.Join(e.Dir, t.subdir())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return done(StatusFailed, err)
	}

	raw := filepath.Join(dir, name)              // file as served
	out := filepath.Join(dir, DecodedName(name)) // file after decompression
	part := raw + ".part"

	if t.Replace {
		os.Remove(out)
		os.Remove(raw)
		os.Remove(part)
	}

	// nothing to do when the decoded file is already there
	if _, err := os.Stat(out); err == nil {
		res.Path = out
		return done(StatusSkipped, nil)
	}

	// a complete compressed file only needs unpacking
	fetch := true
	if raw != out {
		if _, err := os.Stat(raw); err == nil {
			fetch = false
		}
	}

	if fetch {
		if err := e.download(ctx, t.URL, name, part, &res); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return done(StatusCancelled, err)
			}
			return done(StatusFailed, err)
		}
		if err := os.Rename(part, raw); err != nil {
			return done(StatusFailed, err)
		}
	}

	if raw != out {
		res.Status = StatusDecompressing
		if err := decompressFile(raw, out); err != nil {
			// the fetched file stays in place for a later retry
			return done(StatusFailed, err)
		}
		os.Remove(raw)
	}

	res.Path = out
	return done(StatusDone, nil)
}

// download fetches the file into its partial twin, resuming whatever a
// previous run left behind. After the last failed attempt the partial file
// is dropped, its content cannot be trusted anymore.
func (e *Engine) download(ctx context.Context, rawURL, name, part string, res *FileResult) error {
	log := e.logger()
	retries := e.Retries
	if retries <= 0 {
		retries = maxRetries
	}
	delay := e.Delay
	if delay <= 0 {
		delay = retryDelay
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if attempt > 1 {
			log.Warnf("retrying %s (%d/%d): %v", name, attempt, retries, lastErr)
			if err := sleep(ctx, time.Duration(attempt-1)*delay); err != nil {
				return err
			}
		}

		err := e.attempt(ctx, rawURL, name, part, res)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		lastErr = err
	}

	os.Remove(part)
	return lastErr
}

func (e *Engine) attempt(ctx context.Context, rawURL, name, part string, res *FileResult) error {
	var offset int64
	if fi, err := os.Stat(part); err == nil {
		offset = fi.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	res.Status = StatusDownloading
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
		res.Status = StatusResuming
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var (
		dst     *os.File
		total   int64 = -1
		written int64
	)
	switch resp.StatusCode {
	case http.StatusOK:
		// the server ignored or never saw a range header, start over
		dst, err = os.Create(part)
		total = resp.ContentLength
	case http.StatusPartialContent:
		dst, err = os.OpenFile(part, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		written = offset
		if resp.ContentLength >= 0 {
			total = resp.ContentLength + offset
		}
	case http.StatusRequestedRangeNotSatisfiable:
		// the partial file already holds the complete body
		e.emit(name, 100)
		res.Written = offset
		return nil
	default:
		return fmt.Errorf("GET failed: %d (%s)", resp.StatusCode, resp.Status)
	}
	if err != nil {
		return err
	}

	buf := make([]byte, chunkSize)
	pct := -1
	for {
		select {
		case <-ctx.Done():
			dst.Close()
			return ctx.Err()
		default:
		}

		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				dst.Close()
				return werr
			}
			written += int64(n)
			if total > 0 {
				if p := int(written * 100 / total); p != pct {
					pct = p
					e.emit(name, p)
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			dst.Close()
			// a cancelled context surfaces as a transport error here
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			return rerr
		}
	}
	if err := dst.Close(); err != nil {
		return err
	}

	if total >= 0 && written != total {
		return fmt.Errorf("connection closed after %d of %d bytes", written, total)
	}
	if total < 0 {
		e.emit(name, 100)
	}
	res.Written = written
	return nil
}

// emit sends a progress event without ever blocking a transfer.
func (e *Engine) emit(name string, percent int) {
	if e.Events == nil {
		return
	}
	select {
	case e.Events <- Event{Filename: name, Percent: percent}:
	default:
	}
}

func (e *Engine) logger() *logrus.Logger {
	if e.Log != nil {
		return e.Log
	}
	return logrus.StandardLogger()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
