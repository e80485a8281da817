package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSourceFetch(t *testing.T) {
	RecordSourceFetch("metrics_test_src", "static", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(SourceHealth.WithLabelValues("metrics_test_src", "static")))
	assert.Equal(t, 1.0, testutil.ToFloat64(SourceFetchTotal.WithLabelValues("metrics_test_src", "ok")))

	RecordSourceFetch("metrics_test_src", "static", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(SourceHealth.WithLabelValues("metrics_test_src", "static")))
	assert.Equal(t, 1.0, testutil.ToFloat64(SourceFetchTotal.WithLabelValues("metrics_test_src", "error")))
}

func TestRecordResolution(t *testing.T) {
	RecordResolution("TEST/USD", "median", OutcomeNoData, time.Millisecond)
	RecordResolution("TEST/USD", "median", OutcomeNoData, time.Millisecond)
	RecordDeviationOverride("TEST/USD", "median")

	assert.Equal(t, 2.0, testutil.ToFloat64(PriceResolutionsTotal.WithLabelValues("TEST/USD", "median", OutcomeNoData)))
	assert.Equal(t, 1.0, testutil.ToFloat64(DeviationOverridesTotal.WithLabelValues("TEST/USD", "median")))
}

func TestRecordHTTPRequest(t *testing.T) {
	RecordHTTPRequest("/metrics_test", "200", time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/metrics_test", "200")))
}
