package httpx

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
)

const (
	DefaultTimeout             = 10 * time.Second
	DefaultMaxConnsPerHost     = 64
	DefaultMaxIdleConnDuration = 30 * time.Second
	DefaultMaxResponseBodySize = 4 * 1024 * 1024

	acceptEncoding = "gzip, br, zstd, deflate"
)

type FastHTTPClientOptions struct {
	// Timeout applies when the request context carries no earlier deadline.
	Timeout             time.Duration
	InsecureSkipVerify  bool
	MaxConnsPerHost     int
	MaxIdleConnDuration time.Duration
	MaxResponseBodySize int
	UserAgent           string
}

type FastHTTPClientOption func(*FastHTTPClientOptions)

func WithTimeout(timeout time.Duration) FastHTTPClientOption {
	return func(o *FastHTTPClientOptions) {
		o.Timeout = timeout
	}
}

func WithInsecureSkipVerify(skip bool) FastHTTPClientOption {
	return func(o *FastHTTPClientOptions) {
		o.InsecureSkipVerify = skip
	}
}

func WithMaxConnsPerHost(max int) FastHTTPClientOption {
	return func(o *FastHTTPClientOptions) {
		o.MaxConnsPerHost = max
	}
}

func WithMaxResponseBodySize(size int) FastHTTPClientOption {
	return func(o *FastHTTPClientOptions) {
		o.MaxResponseBodySize = size
	}
}

func WithUserAgent(userAgent string) FastHTTPClientOption {
	return func(o *FastHTTPClientOptions) {
		o.UserAgent = userAgent
	}
}

// FastHTTPClient serves net/http requests over fasthttp and transparently
// decodes compressed responses.
type FastHTTPClient struct {
	client    *fasthttp.Client
	timeout   time.Duration
	userAgent string
}

func NewFastHTTPClient(opts ...FastHTTPClientOption) *FastHTTPClient {
	options := &FastHTTPClientOptions{
		Timeout:             DefaultTimeout,
		MaxConnsPerHost:     DefaultMaxConnsPerHost,
		MaxIdleConnDuration: DefaultMaxIdleConnDuration,
		MaxResponseBodySize: DefaultMaxResponseBodySize,
	}
	for _, opt := range opts {
		opt(options)
	}

	client := &fasthttp.Client{
		MaxConnsPerHost:          options.MaxConnsPerHost,
		MaxIdleConnDuration:      options.MaxIdleConnDuration,
		MaxResponseBodySize:      options.MaxResponseBodySize,
		ReadTimeout:              options.Timeout,
		WriteTimeout:             options.Timeout,
		NoDefaultUserAgentHeader: options.UserAgent != "",
	}
	if options.InsecureSkipVerify {
		client.TLSConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // intentionally configurable
		}
	}

	return &FastHTTPClient{
		client:    client,
		timeout:   options.Timeout,
		userAgent: options.UserAgent,
	}
}

func (c *FastHTTPClient) Do(req *http.Request) (*http.Response, error) {
	fastReq := fasthttp.AcquireRequest()
	fastResp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(fastReq)
	defer fasthttp.ReleaseResponse(fastResp)

	if req.URL == nil {
		return nil, fmt.Errorf("request has no URL")
	}
	fastReq.SetRequestURI(req.URL.String())
	fastReq.Header.SetMethod(req.Method)
	if req.Host != "" {
		fastReq.Header.SetHost(req.Host)
	}
	for key, values := range req.Header {
		for i, value := range values {
			if i == 0 {
				fastReq.Header.Set(key, value)
				continue
			}
			fastReq.Header.Add(key, value)
		}
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		fastReq.Header.Set("User-Agent", c.userAgent)
	}
	if req.Header.Get("Accept-Encoding") == "" {
		fastReq.Header.Set("Accept-Encoding", acceptEncoding)
	}

	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		fastReq.SetBodyRaw(body)
	}

	if err := c.client.DoDeadline(fastReq, fastResp, c.deadline(req.Context())); err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err == fasthttp.ErrTimeout {
			return nil, context.DeadlineExceeded
		}
		return nil, err
	}

	// Body() aliases a pooled buffer; copy before release.
	body := append([]byte(nil), fastResp.Body()...)
	decoded, changed, err := DecodeChain(fastResp, body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	headers := make(http.Header)
	fastResp.Header.VisitAll(func(key, value []byte) {
		headers.Add(string(key), string(value))
	})
	if changed {
		headers.Del("Content-Encoding")
		headers.Set("Content-Length", strconv.Itoa(len(decoded)))
	}

	statusCode := fastResp.StatusCode()
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
		StatusCode:    statusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        headers,
		Body:          io.NopCloser(bytes.NewReader(decoded)),
		ContentLength: int64(len(decoded)),
		Request:       req,
	}, nil
}

func (c *FastHTTPClient) deadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		return d
	}
	return deadline
}
