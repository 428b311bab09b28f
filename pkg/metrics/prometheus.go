package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics глобальный контейнер метрик
type Metrics struct {
	// HTTP метрики
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Бизнес-метрики
	ExportsTotal     *prometheus.CounterVec
	RenderDuration   *prometheus.HistogramVec
	ReportSizeBytes  *prometheus.HistogramVec
	ReportRowsTotal  *prometheus.HistogramVec
	DedupLookups     *prometheus.CounterVec
	DownloadsTotal   *prometheus.CounterVec
	QueueDepth       prometheus.Gauge
	ExpiredReports   prometheus.Counter
	StorageDriftsTotal prometheus.Counter

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics инициализирует метрики
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		// HTTP метрики
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		// Бизнес-метрики
		ExportsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "exports_total",
				Help:      "Total number of export jobs by format and outcome",
			},
			[]string{"format", "status"},
		),

		RenderDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "render_duration_seconds",
				Help:      "Duration of report rendering",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"format"},
		),

		ReportSizeBytes: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "report_size_bytes",
				Help:      "Size of rendered report files",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
			},
			[]string{"format"},
		),

		ReportRowsTotal: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "report_rows_total",
				Help:      "Number of rows in rendered reports",
				Buckets:   []float64{10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"format"},
		),

		DedupLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "dedup_lookups_total",
				Help:      "Export deduplication lookups by result",
			},
			[]string{"result"},
		),

		DownloadsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "downloads_total",
				Help:      "Total number of report downloads",
			},
			[]string{"format"},
		),

		QueueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "export_queue_depth",
				Help:      "Number of export jobs waiting in the queue",
			},
		),

		ExpiredReports: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "expired_reports_total",
				Help:      "Total number of reports removed by the expiry sweep",
			},
		),

		StorageDriftsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "storage_drifts_total",
				Help:      "Downloads that found the database row without the blob",
			},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	// Повторная регистрация допустима в тестах
	_ = prometheus.Register(NewRuntimeCollector(namespace, subsystem))

	defaultMetrics = m
	return m
}

// Get возвращает глобальные метрики
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("assethub", "")
	}
	return defaultMetrics
}

// RecordHTTPRequest записывает метрики HTTP запроса
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordExport записывает метрики завершённого экспорта
func (m *Metrics) RecordExport(format string, success bool, duration time.Duration, sizeBytes int64, rows int) {
	status := "success"
	if !success {
		status = "error"
	}

	m.ExportsTotal.WithLabelValues(format, status).Inc()
	m.RenderDuration.WithLabelValues(format).Observe(duration.Seconds())
	if success {
		m.ReportSizeBytes.WithLabelValues(format).Observe(float64(sizeBytes))
		m.ReportRowsTotal.WithLabelValues(format).Observe(float64(rows))
	}
}

// RecordDedupLookup записывает результат поиска в кэше дедупликации
func (m *Metrics) RecordDedupLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.DedupLookups.WithLabelValues(result).Inc()
}

// RecordDownload записывает скачивание отчёта
func (m *Metrics) RecordDownload(format string) {
	m.DownloadsTotal.WithLabelValues(format).Inc()
}

// SetQueueDepth обновляет глубину очереди экспорта
func (m *Metrics) SetQueueDepth(depth int64) {
	m.QueueDepth.Set(float64(depth))
}

// RecordExpired записывает количество удалённых устаревших отчётов
func (m *Metrics) RecordExpired(count int64) {
	m.ExpiredReports.Add(float64(count))
}

// RecordStorageDrift записывает расхождение БД и blob-хранилища
func (m *Metrics) RecordStorageDrift() {
	m.StorageDriftsTotal.Inc()
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler возвращает HTTP handler для /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer запускает HTTP сервер для метрик
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		// Игнорируем ошибку записи - response уже отправлен
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, ошибка записи не критична
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
