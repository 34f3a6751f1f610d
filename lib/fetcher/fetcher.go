package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unifeed-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/net/html/charset"
)

// ErrUpstream is matched (errors.Is) by every FetchError.
var ErrUpstream = errors.New("upstream fetch failed")

// FetchError describes a failed GET against the scraped site, StatusCode is 0 when no
// response arrived (network failure, timeout).
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrUpstream
}

// Fetcher retrieves the html of a page.
//
// note: fault injection point
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Config struct {
	TimeoutSeconds int    `json:"timeout_seconds"`
	MaxRedirects   int    `json:"max_redirects"`
	UserAgent      string `json:"user_agent"`
}

const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxRedirects = 5
	DefaultUserAgent    = "Mozilla/5.0 (compatible; unifeed-backend/1.0)"
)

// Client is the resty implementation of Fetcher. It never retries.
type Client struct {
	http *resty.Client
}

var tracer = otel.Tracer("unifeed.lib.fetcher")

func NewClient(cfg Config) Client {
	timeout := DefaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	redirects := DefaultMaxRedirects
	if cfg.MaxRedirects > 0 {
		redirects = cfg.MaxRedirects
	}
	userAgent := DefaultUserAgent
	if cfg.UserAgent != "" {
		userAgent = cfg.UserAgent
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(redirects)).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml")
	restyutil.InstrumentClient(client, tracer)

	return Client{http: client}
}

func (c Client) Fetch(ctx context.Context, url string) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		return "", &FetchError{
			URL:        url,
			StatusCode: res.StatusCode(),
			Err:        errors.New(http.StatusText(res.StatusCode())),
		}
	}
	return decode(res.Body(), res.Header().Get("Content-Type"))
}

// decode converts the page to utf-8 using the content-type header and, failing that,
// whatever the document declares in its <meta> tags.
func decode(raw []byte, contentType string) (string, error) {
	reader, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return string(raw), nil
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}
	return string(decoded), nil
}
