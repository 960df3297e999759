package httputil

import (
	"context"
	"net/http/httptrace"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var connectionGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "gitvfs_out_conns",
	Help: "A gauge of in-use TCP connections to git providers",
}, []string{"service"})

// SetClientTrace returns ctx with a trace counting connections used by requests to service.
func SetClientTrace(ctx context.Context, service string) context.Context {
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			connectionGauge.WithLabelValues(service).Inc()
		},
		PutIdleConn: func(err error) {
			connectionGauge.WithLabelValues(service).Dec()
		},
	}

	return httptrace.WithClientTrace(ctx, trace)
}
