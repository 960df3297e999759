package gitadapter

import (
	"context"
	"crypto/x509"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

var (
	// these errors aren't typed, so we match by regexp
	redirectsErrorRe  = regexp.MustCompile(`stopped after \d+ redirects\z`)
	schemeErrorRe     = regexp.MustCompile(`unsupported protocol scheme`)
	notTrustedErrorRe = regexp.MustCompile(`certificate is not trusted`)
)

// IsRetryableStatus reports whether a response with status is retried.
func IsRetryableStatus(status int) bool {
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}

// CheckRetry is the retry policy of provider requests:
//
//   - never retry once the context is done;
//   - never retry too many redirects, an invalid scheme or a TLS verification failure;
//   - retry any other transport error;
//   - retry a response when IsRetryableStatus.
func CheckRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		var v *url.Error
		if errors.As(err, &v) {
			if redirectsErrorRe.MatchString(v.Error()) ||
				schemeErrorRe.MatchString(v.Error()) ||
				notTrustedErrorRe.MatchString(v.Error()) {
				return false, errors.Unwrap(v)
			}
			var unknownAuthority x509.UnknownAuthorityError
			if errors.As(v.Err, &unknownAuthority) {
				return false, errors.Unwrap(v)
			}
		}
		return true, nil
	}

	return IsRetryableStatus(resp.StatusCode), nil
}

// HeaderLookup returns the value of a response header, empty when missing.
type HeaderLookup func(name string) string

// NewHeaderLookup returns a case-insensitive lookup over h.  A nil h has no headers.
func NewHeaderLookup(h http.Header) HeaderLookup {
	return func(name string) string {
		if h == nil {
			return ""
		}
		return strings.TrimSpace(h.Get(name))
	}
}

// RetryAfter returns the Retry-After delay, read as whole seconds.
func RetryAfter(lookup HeaderLookup) (time.Duration, bool) {
	v := lookup("Retry-After")
	if v == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

// NewBackoff returns the wait before retry attemptNum (0 based): the Retry-After of the
// response when present, else BaseDelay*2^attemptNum plus jitter.
func NewBackoff(p RetryParams) retryablehttp.Backoff {
	return func(_, _ time.Duration, attemptNum int, resp *http.Response) time.Duration {
		if resp != nil {
			if d, ok := RetryAfter(NewHeaderLookup(resp.Header)); ok {
				return d
			}
		}
		d := p.BaseDelay << attemptNum
		if d < 0 {
			d = p.MaxDelay
		}
		if p.Jitter != nil {
			d += p.Jitter()
		}
		if p.MaxDelay > 0 && d > p.MaxDelay {
			d = p.MaxDelay
		}
		return d
	}
}
