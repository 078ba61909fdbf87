package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_RuntimeCollectors(t *testing.T) {
	reg := NewRegistry()

	var _ prometheus.Gatherer = reg
	mfs, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(mfs))
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["go_goroutines"])
	assert.True(t, names["swingdesk_http_requests_in_flight"], "unlabelled gauges export from the start")
}

func TestRegistry_RecordRequest(t *testing.T) {
	reg := NewRegistry()

	reg.RecordRequest("GET", "GET /api/v1/symbols/{ticker}", 200, 0.4)
	reg.RecordRequest("GET", "GET /api/v1/symbols/{ticker}", 204, 0.2)
	reg.RecordRequest("POST", "POST /api/v1/screen", 502, 3)

	expected := `
# HELP swingdesk_http_requests_total HTTP requests by method, route and status class.
# TYPE swingdesk_http_requests_total counter
swingdesk_http_requests_total{method="GET",path="GET /api/v1/symbols/{ticker}",status="2xx"} 2
swingdesk_http_requests_total{method="POST",path="POST /api/v1/screen",status="5xx"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "swingdesk_http_requests_total"))

	assert.Equal(t, 2, testutil.CollectAndCount(reg.latency))
}

func TestRegistry_LatencyHistogram(t *testing.T) {
	reg := NewRegistry()

	reg.RecordRequest("GET", "GET /top25", 200, 45)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "swingdesk_http_request_duration_seconds" {
			continue
		}
		h := mf.GetMetric()[0].GetHistogram()
		assert.EqualValues(t, 1, h.GetSampleCount())
		assert.InDelta(t, 45, h.GetSampleSum(), 1e-9)
		// the screener page is slow; it must land below the top bucket
		for _, b := range h.GetBucket() {
			if b.GetUpperBound() == 60 {
				assert.EqualValues(t, 1, b.GetCumulativeCount())
			}
		}
		return
	}
	t.Fatal("latency histogram not exported")
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{
		100: "1xx",
		200: "2xx",
		304: "3xx",
		404: "4xx",
		503: "5xx",
		0:   "unknown",
		600: "unknown",
	}
	for status, want := range tests {
		assert.Equal(t, want, statusClass(status), "status %d", status)
	}
}

func TestRegistry_InFlight(t *testing.T) {
	reg := NewRegistry()

	reg.InFlightInc()
	reg.InFlightInc()
	reg.InFlightDec()

	assert.Equal(t, float64(1), testutil.ToFloat64(reg.inFlight))
}

func TestRegistry_BusinessMetrics(t *testing.T) {
	reg := NewRegistry()

	reg.RecordSignal("strong_buy")
	reg.RecordSignal("strong_buy")
	reg.RecordSignal("hold")
	reg.RecordSignalRouted("telegram", "success")
	reg.RecordUpstreamFailure("history")
	reg.RecordAnalysis("swing", 1.5)
	reg.RecordRefreshCycle()
	reg.RecordRefreshCycle()
	reg.SetJobsActive("screen", 1)
	reg.SetWatchlistSize("swing", 3)
	reg.SetWatchlistSize("dividend", 2)
	reg.SetWatchlistSize("swing", 4)

	assert.Equal(t, float64(2), testutil.ToFloat64(reg.signals.WithLabelValues("strong_buy")))
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.routed.WithLabelValues("telegram", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.upstream.WithLabelValues("history")))
	assert.Equal(t, float64(2), testutil.ToFloat64(reg.refreshes))
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.jobs.WithLabelValues("screen")))
	assert.Equal(t, float64(4), testutil.ToFloat64(reg.watchlists.WithLabelValues("swing")))
	assert.Equal(t, 2, testutil.CollectAndCount(reg.watchlists))
	assert.Equal(t, 1, testutil.CollectAndCount(reg.analysis, "swingdesk_analysis_duration_seconds"))

	expected := `
# HELP swingdesk_signals_generated_total Signals classified, by action.
# TYPE swingdesk_signals_generated_total counter
swingdesk_signals_generated_total{action="hold"} 1
swingdesk_signals_generated_total{action="strong_buy"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "swingdesk_signals_generated_total"))
}
