package kube

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/kbukum/kubeping/security"
)

// dumper writes request URLs and raw responses verbatim. Header values are
// masked.
type dumper struct {
	mu  sync.Mutex
	out io.Writer
}

func newDumper(enabled bool, out io.Writer) *dumper {
	if !enabled {
		return nil
	}
	if out == nil {
		out = os.Stdout
	}
	return &dumper{out: out}
}

func (d *dumper) request(url string, headers http.Header) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "--> GET %s\n", url)
	if len(headers) > 0 {
		fmt.Fprint(d.out, security.FormatHeaders(headers))
	}
}

func (d *dumper) response(url string, body []byte) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "<-- %s\n%s\n", url, body)
}

func (d *dumper) failure(url string, err error) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "<-- %s failed: %v\n", url, err)
}

// dumpRoundTripper dumps client-go traffic the same way the fetcher does.
type dumpRoundTripper struct {
	next   http.RoundTripper
	dumper *dumper
}

func (rt *dumpRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	url := req.URL.String()
	rt.dumper.request(url, req.Header)

	resp, err := rt.next.RoundTrip(req)
	if err != nil {
		rt.dumper.failure(url, err)
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		rt.dumper.failure(url, err)
		return nil, err
	}
	rt.dumper.response(url, body)
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}
