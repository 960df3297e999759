package gitadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/treeverse/gitvfs/pkg/httputil"
	"go.uber.org/ratelimit"
)

// Client sends JSON requests to a provider REST API, retrying transient failures.
type Client struct {
	provider string
	baseURL  string
	header   http.Header
	attempts int
	http     *retryablehttp.Client
}

type ClientOptions struct {
	Provider string
	BaseURL  string
	// Header is sent with every request, used for auth and media types.
	Header http.Header
	Params Params
}

func NewClient(opts ClientOptions) (*Client, error) {
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("%w: base url: %s", ErrInvalidConfig, err)
	}
	params := opts.Params.WithDefaults()

	transport := params.Transport
	if transport == nil {
		transport = cleanhttp.DefaultPooledTransport()
	}
	var limiter ratelimit.Limiter
	if params.RateLimit > 0 {
		limiter = ratelimit.New(params.RateLimit)
	}
	transport = httputil.LimitedTransport(limiter, httputil.InstrumentedTransport(opts.Provider, transport))

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Transport: transport, Timeout: params.Timeout}
	rc.Logger = nil
	rc.RetryMax = params.Retry.Attempts - 1
	rc.CheckRetry = CheckRetry
	rc.Backoff = NewBackoff(params.Retry)
	rc.ErrorHandler = func(resp *http.Response, err error, tries int) (*http.Response, error) {
		if err == nil {
			return resp, nil
		}
		return resp, &triesError{tries: tries, err: err}
	}

	header := opts.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	if params.UserAgent != "" && header.Get("User-Agent") == "" {
		header.Set("User-Agent", params.UserAgent)
	}
	return &Client{
		provider: opts.Provider,
		baseURL:  strings.TrimSuffix(opts.BaseURL, "/"),
		header:   header,
		attempts: params.Retry.Attempts,
		http:     rc,
	}, nil
}

// Request is a call relative to the client base URL.  Path components must already be
// escaped.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is encoded as JSON when set
	Body interface{}
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) Lookup() HeaderLookup {
	if r == nil {
		return NewHeaderLookup(nil)
	}
	return NewHeaderLookup(r.Header)
}

// Do sends req and decodes a successful JSON response into out, when out is set.  Failures
// return RetryableError or NonRetryableError; the response is returned for any status.
func (c *Client) Do(ctx context.Context, req Request, out interface{}) (*Response, error) {
	u := c.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	var body interface{}
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", req.Method, req.Path, err)
		}
		body = data
	}

	ctx, _ = httputil.WithRequestID(ctx)
	ctx = httputil.SetClientTrace(ctx, c.provider)
	r, err := retryablehttp.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	for k, v := range c.header {
		r.Header[k] = v
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(r)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		attempts := c.attempts
		var tries *triesError
		if errors.As(err, &tries) {
			attempts = tries.tries
			err = tries.err
		}
		var retryable *RetryableError
		var nonRetryable *NonRetryableError
		if errors.As(err, &retryable) || errors.As(err, &nonRetryable) {
			return nil, err
		}
		if attempts < c.attempts {
			// CheckRetry declined the error, it is terminal
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
		}
		return nil, &RetryableError{Method: req.Method, URL: req.Path, Attempts: attempts, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RetryableError{Method: req.Method, URL: req.Path, StatusCode: resp.StatusCode, Attempts: c.attempts, Err: err}
	}
	response := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}

	switch {
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
	case IsRetryableStatus(resp.StatusCode):
		return response, &RetryableError{Method: req.Method, URL: req.Path, StatusCode: resp.StatusCode, Body: string(data), Attempts: c.attempts}
	default:
		return response, &NonRetryableError{Method: req.Method, URL: req.Path, StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return response, fmt.Errorf("decode %s %s: %w", req.Method, req.Path, err)
		}
	}
	return response, nil
}

// triesError carries the number of attempts made before the retry client gave up.
type triesError struct {
	tries int
	err   error
}

func (e *triesError) Error() string {
	return e.err.Error()
}

func (e *triesError) Unwrap() error {
	return e.err
}
