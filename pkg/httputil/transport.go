package httputil

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/treeverse/gitvfs/pkg/logging"
	"go.uber.org/ratelimit"
)

const AttemptEndMessage = "HTTP attempt ended"

var requestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "gitadapter_request_duration_seconds",
		Help:    "git provider request durations",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	},
	[]string{"provider", "method", "code"})

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// LimitedTransport waits on limiter before each request.  A nil limiter does not limit.
func LimitedTransport(limiter ratelimit.Limiter, next http.RoundTripper) http.RoundTripper {
	if limiter == nil {
		return next
	}
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		limiter.Take()
		return next.RoundTrip(r)
	})
}

// InstrumentedTransport sets the request id header and records duration and outcome of every
// attempt sent to provider.
func InstrumentedTransport(provider string, next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		reqID := RequestID(r.Context())
		if reqID != "" {
			r = r.Clone(r.Context())
			r.Header.Set(RequestIDHeaderName, reqID)
		}
		resp, err := next.RoundTrip(r)
		took := time.Since(start)

		code := "error"
		if resp != nil {
			code = strconv.Itoa(resp.StatusCode)
		}
		requestDuration.WithLabelValues(provider, r.Method, code).Observe(took.Seconds())

		log := logging.FromContext(r.Context()).WithFields(logging.Fields{
			logging.ProviderFieldKey:  provider,
			logging.MethodFieldKey:    r.Method,
			logging.HostFieldKey:      r.URL.Host,
			logging.PathFieldKey:      r.URL.Path,
			logging.RequestIDFieldKey: reqID,
			"status_code":             code,
			"took":                    took,
		})
		if err != nil {
			log = log.WithError(err)
		}
		log.Trace(AttemptEndMessage)
		return resp, err
	})
}
