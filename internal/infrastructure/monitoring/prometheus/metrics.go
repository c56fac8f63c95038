package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every metric family the service emits.
type AppMetrics struct {
	// HTTP layer.
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Extraction pipeline.
	SamplesProcessedTotal  CounterVec
	SampleProcessDuration  HistogramVec
	FactorResolutionsTotal CounterVec
	SlotResolutionsTotal   CounterVec

	// Extraction oracle.
	OracleCallsTotal    CounterVec
	OracleCallDuration  HistogramVec
	OracleCacheAccesses CounterVec

	// Reference data.
	ReferenceRebuildDuration HistogramVec
	ReferenceEntriesLoaded   GaugeVec

	// Jobs.
	JobsTotal   CounterVec
	JobDuration HistogramVec

	// Infrastructure.
	DBQueryDuration   HistogramVec
	CacheAccesses     CounterVec
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

var (
	httpDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	oracleDurationBuckets = []float64{.5, 1, 2, 5, 10, 30, 60, 120}
	sampleDurationBuckets = []float64{1, 2, 5, 10, 30, 60, 120, 300}
	rebuildBuckets        = []float64{5, 15, 30, 60, 120, 300, 600, 1800}
	jobDurationBuckets    = []float64{10, 30, 60, 300, 600, 1800, 3600, 7200}
	dbDurationBuckets     = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewAppMetrics registers every metric family against the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total",
		"HTTP requests by method, route, and status code", "method", "route", "status")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds",
		"HTTP request duration", httpDurationBuckets, "method", "route")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests",
		"In-flight HTTP requests", "method")

	m.SamplesProcessedTotal = collector.RegisterCounter("samples_processed_total",
		"Samples processed by mode and outcome", "mode", "outcome")
	m.SampleProcessDuration = collector.RegisterHistogram("sample_process_duration_seconds",
		"Wall time of one sample's extraction", sampleDurationBuckets, "mode")
	m.FactorResolutionsTotal = collector.RegisterCounter("factor_resolutions_total",
		"Factor resolutions by verifying reference", "source")
	m.SlotResolutionsTotal = collector.RegisterCounter("ontology_slot_resolutions_total",
		"Ontology slot resolutions by slot and outcome", "slot", "outcome")

	m.OracleCallsTotal = collector.RegisterCounter("oracle_calls_total",
		"Extraction oracle calls by provider, capability, and status",
		"provider", "capability", "status")
	m.OracleCallDuration = collector.RegisterHistogram("oracle_call_duration_seconds",
		"Extraction oracle call duration", oracleDurationBuckets, "provider", "capability")
	m.OracleCacheAccesses = collector.RegisterCounter("oracle_cache_accesses_total",
		"Oracle response cache accesses by capability and result", "capability", "result")

	m.ReferenceRebuildDuration = collector.RegisterHistogram("reference_rebuild_duration_seconds",
		"Reference snapshot rebuild duration", rebuildBuckets)
	m.ReferenceEntriesLoaded = collector.RegisterGauge("reference_entries_loaded",
		"Entries loaded per reference corpus", "corpus")

	m.JobsTotal = collector.RegisterCounter("jobs_total",
		"Batch jobs by final status", "status")
	m.JobDuration = collector.RegisterHistogram("job_duration_seconds",
		"Batch job duration", jobDurationBuckets)

	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds",
		"Database query duration", dbDurationBuckets, "operation")
	m.CacheAccesses = collector.RegisterCounter("cache_accesses_total",
		"Cache accesses by cache name and result", "cache", "result")
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status",
		"Component health (1 up, 0 down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total",
		"Errors by component and error code", "component", "code")

	return m
}

// RecordHTTPRequest records one completed HTTP request.
func (m *AppMetrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordSample records one sample's pipeline outcome.
func (m *AppMetrics) RecordSample(mode, outcome string, duration time.Duration) {
	m.SamplesProcessedTotal.WithLabelValues(mode, outcome).Inc()
	m.SampleProcessDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordOracleCall records one oracle round trip.
func (m *AppMetrics) RecordOracleCall(provider, capability string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.OracleCallsTotal.WithLabelValues(provider, capability, status).Inc()
	m.OracleCallDuration.WithLabelValues(provider, capability).Observe(duration.Seconds())
}

// RecordCacheAccess records a hit or miss against a named cache.
func (m *AppMetrics) RecordCacheAccess(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheAccesses.WithLabelValues(cache, result).Inc()
}

// RecordError counts one error against its component and code.
func (m *AppMetrics) RecordError(component, code string) {
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}

// SetHealth publishes a component health flag.
func (m *AppMetrics) SetHealth(component string, up bool) {
	v := 0.0
	if up {
		v = 1.0
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}
