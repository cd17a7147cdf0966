
// Package crawler fetches deployed pages to confirm what crawlers will see.
package crawler

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"
)

type FailureKind string

const (
	KindTimeout           FailureKind = "timeout"
	KindStatus            FailureKind = "status"
	KindConnectionRefused FailureKind = "connection-refused"
	KindContent           FailureKind = "content"
	KindOther             FailureKind = "other"
)

// CheckFailure is a classified live-endpoint failure.
type CheckFailure struct {
	Kind   FailureKind
	URL    string
	Status int
	Err    error
}

func (e *CheckFailure) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("%s: http status %d", e.URL, e.Status)
	default:
		return fmt.Sprintf("%s: %s: %v", e.URL, e.Kind, e.Err)
	}
}

func (e *CheckFailure) Unwrap() error { return e.Err }

type HTTPClient struct {
	client    *http.Client
	sizeCap   int64
	userAgent string
}

func NewHTTPClient(timeout, dialTimeout time.Duration, sizeCap int64) *HTTPClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		sizeCap:   sizeCap,
		userAgent: "harborview-ssg-check/1.0",
	}
}

// Page is a fetched HTML response.
type Page struct {
	Body        io.ReadCloser
	FinalURL    string
	ContentType string
	Status      int
}

// Fetch GETs rawURL. Every error it returns is a *CheckFailure.
func (h *HTTPClient) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &CheckFailure{Kind: KindOther, URL: rawURL, Err: errors.New("invalid url")}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &CheckFailure{Kind: KindOther, URL: rawURL, Err: err}
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &CheckFailure{Kind: Classify(err), URL: rawURL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &CheckFailure{Kind: KindStatus, URL: rawURL, Status: resp.StatusCode}
	}

	var body io.ReadCloser = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, &CheckFailure{Kind: KindOther, URL: rawURL, Err: err}
		}
		body = gzipBody{Reader: gz, raw: resp.Body}
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !strings.Contains(mediaType, "text/html") && !strings.Contains(mediaType, "application/xhtml+xml") && mediaType != "" {
		// still allow if empty (some servers omit), otherwise reject non-html
		body.Close()
		return nil, &CheckFailure{Kind: KindContent, URL: rawURL, Status: resp.StatusCode, Err: fmt.Errorf("non-html content %q", mediaType)}
	}

	return &Page{
		Body:        readCloser{io.LimitReader(body, h.sizeCap), body},
		FinalURL:    resp.Request.URL.String(),
		ContentType: contentType,
		Status:      resp.StatusCode,
	}, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// gzipBody closes the decompressor and the connection body under it.
type gzipBody struct {
	*gzip.Reader
	raw io.Closer
}

func (g gzipBody) Close() error {
	err := g.Reader.Close()
	if cerr := g.raw.Close(); err == nil {
		err = cerr
	}
	return err
}

// Classify maps a transport error to a failure kind.
func Classify(err error) FailureKind {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return KindTimeout
	case errors.As(err, &ne) && ne.Timeout():
		return KindTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		return KindConnectionRefused
	default:
		return KindOther
	}
}
