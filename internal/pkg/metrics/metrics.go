package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 座席割当の総数（mode: hold/confirm, result: confirmed, pending, failed, rejected, error）
	AllocationsTotal *prometheus.CounterVec

	// スイーパーの実行回数（status: success, error）
	SweepCyclesTotal *prometheus.CounterVec

	// スイーパーが解放した予約数
	SweptBookingsTotal prometheus.Counter

	// 公演ごとの状態別座席数（最後に観測した値）
	SeatsByStatus *prometheus.GaugeVec
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		AllocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seat_allocations_total",
				Help: "Total number of seat allocation attempts",
			},
			[]string{"mode", "result"},
		),
		SweepCyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hold_sweep_cycles_total",
				Help: "Total number of hold expiry sweep cycles",
			},
			[]string{"status"},
		),
		SweptBookingsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "swept_bookings_total",
				Help: "Total number of bookings failed by the hold expiry sweeper",
			},
		),
		SeatsByStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "seats_by_status",
				Help: "Observed seat counts per show and status",
			},
			[]string{"show_id", "status"},
		),
	}

	// レジストリに登録
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AllocationsTotal,
		m.SweepCyclesTotal,
		m.SweptBookingsTotal,
		m.SeatsByStatus,
	)

	return m
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}
