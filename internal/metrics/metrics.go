// internal/metrics/metrics.go
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScanBlocks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_scan_blocks_total",
		Help: "Scan blocks processed, by unit, function and result",
	}, []string{"unit", "function", "result"})

	ScanCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_scan_cycles_total",
		Help: "Completed scan cycles",
	})

	RelayWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_relay_writes_total",
		Help: "Writes relayed to the field bus, by unit, kind and result",
	}, []string{"unit", "kind", "result"})

	BusWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gateway_bus_wait_seconds",
		Help:    "Time spent waiting for the serial bus",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})
)

// Result label values
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

// Relay kind label values
const (
	KindCoils     = "coils"
	KindRegisters = "registers"
)

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// ObserveScanBlock counts one scan block outcome.
func ObserveScanBlock(unit uint8, function string, err error) {
	ScanBlocks.WithLabelValues(strconv.Itoa(int(unit)), function, result(err)).Inc()
}

// SkipScanBlock counts a block skipped for a configuration error.
func SkipScanBlock(unit uint8, function string) {
	ScanBlocks.WithLabelValues(strconv.Itoa(int(unit)), function, ResultSkipped).Inc()
}

// ObserveRelay counts one relayed write outcome.
func ObserveRelay(unit uint8, kind string, err error) {
	RelayWrites.WithLabelValues(strconv.Itoa(int(unit)), kind, result(err)).Inc()
}

// ObserveBusWait records an arbiter wait.
func ObserveBusWait(d time.Duration) {
	BusWait.Observe(d.Seconds())
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
