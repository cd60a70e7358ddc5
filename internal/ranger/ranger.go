// Package ranger provides seekable, range-addressable read access to remote
// HTTPS objects. It is the lower of the two stages of the remote archive
// reader: a plain ranged-byte-stream with no knowledge of ZIP structure.
package ranger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Client issues range requests against remote objects.
type Client struct {
	httpClient *http.Client
	creds      CredentialProvider
	logger     *slog.Logger
}

// NewClient creates a ranged-read client. The credential provider is
// required; use Anonymous{} for unauthenticated access.
func NewClient(timeout time.Duration, creds CredentialProvider) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		creds:  creds,
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger for the client.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

// Reader is a range-addressable view of one remote object. It implements
// io.ReaderAt. The context passed to Open applies to every subsequent read.
//
// When the server does not honor Range requests the reader degrades to a
// one-time full download kept in memory; SupportsRanges reports which mode
// is active so callers can set performance expectations.
type Reader struct {
	client *Client
	ctx    context.Context
	url    string
	size   int64
	ranged bool

	mu   sync.Mutex
	full []byte // populated lazily in fallback mode
}

// Open probes the remote object for size and range support. A 401/403
// answer yields an AuthError.
func (c *Client) Open(ctx context.Context, url string) (*Reader, error) {
	req, err := c.newRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	// A zero-length range probe answers both questions in one round trip:
	// 206 + Content-Range carries the total size, 200 means ranges are
	// ignored and Content-Length carries the size.
	req.Header.Set("Range", "bytes=0-0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s: %w", url, err)
	}
	defer func() {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))
		resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &AuthError{StatusCode: resp.StatusCode, URL: url}

	case http.StatusPartialContent:
		size, err := totalFromContentRange(resp.Header.Get("Content-Range"))
		if err != nil {
			return nil, fmt.Errorf("probe of %s: %w", url, err)
		}
		return &Reader{client: c, ctx: ctx, url: url, size: size, ranged: true}, nil

	case http.StatusOK:
		c.logger.Warn("server ignores Range requests, falling back to full download",
			slog.String("url", url),
		)
		return &Reader{client: c, ctx: ctx, url: url, size: resp.ContentLength, ranged: false}, nil

	default:
		return nil, fmt.Errorf("probe of %s returned status %d", url, resp.StatusCode)
	}
}

// Size returns the total size of the remote object in bytes, or -1 when the
// server did not report one.
func (r *Reader) Size() int64 { return r.size }

// SupportsRanges reports whether reads translate to byte-range requests.
// False means the whole object is downloaded once and served from memory.
func (r *Reader) SupportsRanges() bool { return r.ranged }

// ReadAt implements io.ReaderAt. A response shorter than requested is
// retried once on a fresh request before failing with a ShortReadError.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	if r.size >= 0 && off >= r.size {
		return 0, io.EOF
	}

	if !r.ranged {
		return r.readAtFallback(p, off)
	}

	n, err := r.rangeRead(p, off)
	var short *ShortReadError
	if errors.As(err, &short) {
		r.client.logger.Warn("short range read, retrying on fresh request",
			slog.String("url", r.url),
			slog.Int("requested", short.Requested),
			slog.Int("got", short.Got),
		)
		n, err = r.rangeRead(p, off)
	}
	return n, err
}

func (r *Reader) rangeRead(p []byte, off int64) (int, error) {
	req, err := r.client.newRequest(r.ctx, r.url)
	if err != nil {
		return 0, err
	}
	end := off + int64(len(p)) - 1
	if r.size >= 0 && end > r.size-1 {
		end = r.size - 1
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, end))

	resp, err := r.client.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("range request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return 0, &AuthError{StatusCode: resp.StatusCode, URL: r.url}
	case http.StatusPartialContent:
		// expected
	case http.StatusOK:
		// The server honored the probe but ignores ranges now. Flip to
		// fallback mode using this response's body.
		r.client.logger.Warn("server stopped honoring Range requests, downloading full object",
			slog.String("url", r.url),
		)
		r.ranged = false
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return 0, fmt.Errorf("full-object fallback read failed: %w", err)
		}
		r.mu.Lock()
		r.full = body
		r.size = int64(len(body))
		r.mu.Unlock()
		return r.readAtFallback(p, off)
	default:
		return 0, fmt.Errorf("range request for %s returned status %d", r.url, resp.StatusCode)
	}

	want := int(end - off + 1)
	n, err := io.ReadFull(resp.Body, p[:want])
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return n, &ShortReadError{Requested: want, Got: n}
	}
	if err != nil {
		return n, fmt.Errorf("failed to read range body: %w", err)
	}
	if want < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// readAtFallback serves reads from a one-time full download of the object.
func (r *Reader) readAtFallback(p []byte, off int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.full == nil {
		r.client.logger.Warn("downloading full object (no range support)",
			slog.String("url", r.url),
			slog.Int64("size", r.size),
		)
		req, err := r.client.newRequest(r.ctx, r.url)
		if err != nil {
			return 0, err
		}
		resp, err := r.client.httpClient.Do(req)
		if err != nil {
			return 0, fmt.Errorf("full download of %s failed: %w", r.url, err)
		}
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return 0, &AuthError{StatusCode: resp.StatusCode, URL: r.url}
		case http.StatusOK:
		default:
			return 0, fmt.Errorf("full download of %s returned status %d", r.url, resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return 0, fmt.Errorf("full download of %s failed: %w", r.url, err)
		}
		r.full = body
		r.size = int64(len(body))
	}

	if off >= int64(len(r.full)) {
		return 0, io.EOF
	}
	n := copy(p, r.full[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (c *Client) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "s1burst/1.0")
	if user, pass, ok := c.creds.Basic(); ok {
		req.SetBasicAuth(user, pass)
	}
	return req, nil
}

// totalFromContentRange extracts the total size from a Content-Range header
// such as "bytes 0-0/4096". An unknown total ("*") yields -1.
func totalFromContentRange(header string) (int64, error) {
	if header == "" {
		return 0, fmt.Errorf("missing Content-Range header in 206 response")
	}
	idx := strings.LastIndex(header, "/")
	if idx < 0 {
		return 0, fmt.Errorf("malformed Content-Range header %q", header)
	}
	total := header[idx+1:]
	if total == "*" {
		return -1, nil
	}
	size, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed Content-Range header %q: %w", header, err)
	}
	return size, nil
}
