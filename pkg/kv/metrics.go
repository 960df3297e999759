package kv

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestHistograms = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kv_request_duration_seconds",
		Help:    "request durations for the kv Store",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"type", "operation"})

// StoreMetricsWrapper wraps any Store with metrics
type StoreMetricsWrapper struct {
	Store     Store
	storeType string
}

func (s *StoreMetricsWrapper) observe(op string, start time.Time) {
	requestHistograms.WithLabelValues(s.storeType, op).Observe(time.Since(start).Seconds())
}

func (s *StoreMetricsWrapper) Get(ctx context.Context, partitionKey, key []byte) (*ValueWithPredicate, error) {
	defer s.observe("Get", time.Now())
	return s.Store.Get(ctx, partitionKey, key)
}

func (s *StoreMetricsWrapper) Set(ctx context.Context, partitionKey, key, value []byte) error {
	defer s.observe("Set", time.Now())
	return s.Store.Set(ctx, partitionKey, key, value)
}

func (s *StoreMetricsWrapper) SetIf(ctx context.Context, partitionKey, key, value []byte, valuePredicate Predicate) error {
	defer s.observe("SetIf", time.Now())
	return s.Store.SetIf(ctx, partitionKey, key, value, valuePredicate)
}

func (s *StoreMetricsWrapper) Delete(ctx context.Context, partitionKey, key []byte) error {
	defer s.observe("Delete", time.Now())
	return s.Store.Delete(ctx, partitionKey, key)
}

func (s *StoreMetricsWrapper) Scan(ctx context.Context, partitionKey []byte, options ScanOptions) (EntriesIterator, error) {
	defer s.observe("Scan", time.Now())
	return s.Store.Scan(ctx, partitionKey, options)
}

func (s *StoreMetricsWrapper) Close() {
	s.Store.Close()
}

func newStoreMetricsWrapper(store Store, storeType string) *StoreMetricsWrapper {
	return &StoreMetricsWrapper{Store: store, storeType: storeType}
}
