package download

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestEngine(t *testing.T, h http.HandlerFunc) (*Engine, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	e := NewEngine(t.TempDir(), srv.Client())
	e.Delay = time.Millisecond
	return e, srv
}

func TestFetch(t *testing.T) {
	assert := assert.New(t)

	body := gzipBytes(t, "dummy orbit data\n")
	e, srv := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	})

	events := make(chan Event, 128)
	e.Events = events

	results := e.Fetch(context.Background(), []Task{{URL: srv.URL + "/gnss/products/2279/COD0OPSFIN_20232570000_01D_05M_ORB.SP3.gz"}})
	assert.Len(results, 1)

	res := results[0]
	assert.Equal(StatusDone, res.Status)
	assert.NoError(res.Err)
	assert.Equal("COD0OPSFIN_20232570000_01D_05M_ORB.SP3.gz", res.Filename)
	assert.Equal(int64(len(body)), res.Written)

	dat, err := os.ReadFile(res.Path)
	assert.NoError(err)
	assert.Equal("dummy orbit data\n", string(dat))
	assert.Equal(filepath.Join(e.Dir, "COD0OPSFIN_20232570000_01D_05M_ORB.SP3"), res.Path)

	// neither the compressed file nor the partial file survive
	_, err = os.Stat(res.Path + ".gz")
	assert.True(os.IsNotExist(err))
	_, err = os.Stat(res.Path + ".gz.part")
	assert.True(os.IsNotExist(err))

	// progress ends at 100 and never goes backwards
	last := -1
	for len(events) > 0 {
		ev := <-events
		assert.GreaterOrEqual(ev.Percent, last)
		last = ev.Percent
	}
	assert.Equal(100, last)
}

func TestFetchResume(t *testing.T) {
	assert := assert.New(t)

	body := []byte("0123456789abcdef")
	var gotRange string
	e, srv := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		if gotRange != "bytes=6-" {
			http.Error(w, "unexpected range", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(body)-6))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(body[6:])
	})

	// a previous run got six bytes in
	part := filepath.Join(e.Dir, "finals.data.iau2000.txt.part")
	assert.NoError(os.WriteFile(part, body[:6], 0644))

	results := e.Fetch(context.Background(), []Task{{URL: srv.URL + "/products/eop/rapid/standard/finals.data.iau2000.txt"}})
	res := results[0]
	assert.Equal(StatusDone, res.Status)
	assert.Equal("bytes=6-", gotRange)
	assert.Equal(int64(len(body)), res.Written)

	dat, err := os.ReadFile(filepath.Join(e.Dir, "finals.data.iau2000.txt"))
	assert.NoError(err)
	assert.Equal(body, dat)

	_, err = os.Stat(part)
	assert.True(os.IsNotExist(err))
}

func TestFetchIdempotent(t *testing.T) {
	assert := assert.New(t)

	requests := 0
	e, srv := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write(gzipBytes(t, "payload"))
	})

	task := Task{URL: srv.URL + "/IGS0OPSFIN_20232570000_01D_30S_CLK.CLK.gz"}

	results := e.Fetch(context.Background(), []Task{task})
	assert.Equal(StatusDone, results[0].Status)
	assert.Equal(1, requests)

	results = e.Fetch(context.Background(), []Task{task})
	assert.Equal(StatusSkipped, results[0].Status)
	assert.Equal(results[0].Path, filepath.Join(e.Dir, "IGS0OPSFIN_20232570000_01D_30S_CLK.CLK"))
	assert.Equal(1, requests, "a file already on disk causes no request")
}

func TestFetchCompressedLeftover(t *testing.T) {
	assert := assert.New(t)

	requests := 0
	e, srv := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
	})

	// a complete compressed file from an earlier run, only unpacking is left
	raw := filepath.Join(e.Dir, "igs22790.sp3.Z")
	assert.NoError(os.WriteFile(raw, []byte{0x1f, 0x9d, 0x90, 0x41, 0x02, 0x0a, 0x04}, 0644))

	results := e.Fetch(context.Background(), []Task{{URL: srv.URL + "/gnss/products/2279/igs22790.sp3.Z"}})
	res := results[0]
	assert.Equal(StatusDone, res.Status)
	assert.Equal(0, requests)

	dat, err := os.ReadFile(filepath.Join(e.Dir, "igs22790.sp3"))
	assert.NoError(err)
	assert.Equal("AAAAAA", string(dat))

	_, err = os.Stat(raw)
	assert.True(os.IsNotExist(err), "compressed file is removed after unpacking")
}

func TestFetchRetriesThenFails(t *testing.T) {
	assert := assert.New(t)

	requests := 0
	e, srv := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		// announce more than gets sent, the connection dies mid body
		w.Header().Set("Content-Length", "100")
		w.Write([]byte("short"))
	})

	results := e.Fetch(context.Background(), []Task{{URL: srv.URL + "/gnss/products/2279/igs22790.sp3.Z"}})
	res := results[0]
	assert.Equal(StatusFailed, res.Status)
	assert.Error(res.Err)
	assert.Equal(3, requests, "three attempts, then give up")

	// the partial file is dropped after the final failure
	_, err := os.Stat(filepath.Join(e.Dir, "igs22790.sp3.Z.part"))
	assert.True(os.IsNotExist(err))
}

func TestFetchCancel(t *testing.T) {
	assert := assert.New(t)

	e, srv := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "16384")
		w.Write(make([]byte, 8192))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})

	events := make(chan Event, 16)
	e.Events = events

	ctx, cancel := context.WithCancel(context.Background())
	resultc := make(chan []FileResult, 1)
	go func() {
		resultc <- e.Fetch(ctx, []Task{
			{URL: srv.URL + "/gnss/products/2279/igs22790.sp3.Z"},
			{URL: srv.URL + "/gnss/products/2279/igs22796.clk.Z"},
		})
	}()

	// wait for the first chunk, then pull the plug
	select {
	case <-events:
	case <-time.After(5 * time.Second):
		t.Fatal("no progress event")
	}
	cancel()

	results := <-resultc
	assert.Len(results, 2)
	assert.Equal(StatusCancelled, results[0].Status, "a cancelled transfer is not a failed one")
	assert.Equal(StatusCancelled, results[1].Status, "tasks not started yet are cancelled as well")

	// the partial file stays behind for the next run
	fi, err := os.Stat(filepath.Join(e.Dir, "igs22790.sp3.Z.part"))
	assert.NoError(err)
	assert.Greater(fi.Size(), int64(0))
}

func TestFetchPartAlreadyComplete(t *testing.T) {
	assert := assert.New(t)

	requests := 0
	e, srv := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("Range") == "" {
			http.Error(w, "expected a range", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
	})

	// the previous run finished the transfer but died before the rename
	part := filepath.Join(e.Dir, "ALIC00AUS_R_20232590000_01D_30S_MO.rnx.gz.part")
	assert.NoError(os.WriteFile(part, gzipBytes(t, "obs"), 0644))

	results := e.Fetch(context.Background(), []Task{{URL: srv.URL + "/ALIC00AUS_R_20232590000_01D_30S_MO.rnx.gz"}})
	res := results[0]
	assert.Equal(StatusDone, res.Status)
	assert.Equal(1, requests)

	dat, err := os.ReadFile(filepath.Join(e.Dir, "ALIC00AUS_R_20232590000_01D_30S_MO.rnx"))
	assert.NoError(err)
	assert.Equal("obs", string(dat))
}

func TestFetchTablesRouting(t *testing.T) {
	assert := assert.New(t)

	e, srv := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(gzipBytes(t, "ocean loading"))
	})

	results := e.Fetch(context.Background(), []Task{{URL: srv.URL + "/pea/examples/tables/OLOAD_GO.BLQ.gz"}})
	res := results[0]
	assert.Equal(StatusDone, res.Status)
	assert.Equal(filepath.Join(e.Dir, "tables", "OLOAD_GO.BLQ"), res.Path)
}

func TestFetchDecompressFailure(t *testing.T) {
	assert := assert.New(t)

	e, srv := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not gzip"))
	})

	results := e.Fetch(context.Background(), []Task{{URL: srv.URL + "/gpt_25.grd.gz"}})
	res := results[0]
	assert.Equal(StatusFailed, res.Status)
	assert.ErrorIs(res.Err, ErrDecompress)

	// the fetched file survives for inspection, the marker does not
	_, err := os.Stat(filepath.Join(e.Dir, "gpt_25.grd.gz"))
	assert.NoError(err)
	_, err = os.Stat(filepath.Join(e.Dir, "gpt_25.grd.gz.part"))
	assert.True(os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(e.Dir, "gpt_25.grd"))
	assert.True(os.IsNotExist(err))
}

func TestFetchReplace(t *testing.T) {
	assert := assert.New(t)

	requests := 0
	e, srv := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte("fresh"))
	})

	target := filepath.Join(e.Dir, "finals.data.iau2000.txt")
	assert.NoError(os.WriteFile(target, []byte("stale"), 0644))

	results := e.Fetch(context.Background(), []Task{{URL: srv.URL + "/finals.data.iau2000.txt", Replace: true}})
	assert.Equal(StatusDone, results[0].Status)
	assert.Equal(1, requests)

	dat, err := os.ReadFile(target)
	assert.NoError(err)
	assert.Equal("fresh", string(dat))
}

func TestFetchHTTPError(t *testing.T) {
	assert := assert.New(t)

	e, srv := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	e.Retries = 1

	results := e.Fetch(context.Background(), []Task{{URL: srv.URL + "/gnss/products/2279/missing.sp3.Z"}})
	res := results[0]
	assert.Equal(StatusFailed, res.Status)
	assert.Contains(res.Err.Error(), "404")
}
