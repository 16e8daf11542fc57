package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHourlyPoints(t *testing.T) {
	before := testutil.ToFloat64(HourlyPointsTotal.WithLabelValues("sqlite"))

	RecordHourlyPoints("sqlite", 3)

	after := testutil.ToFloat64(HourlyPointsTotal.WithLabelValues("sqlite"))
	if after-before != 3 {
		t.Errorf("hourly points delta = %v, want 3", after-before)
	}
}

func TestRecordSubscribers(t *testing.T) {
	before := testutil.ToFloat64(SubscribersProcessedTotal.WithLabelValues("stay_points"))
	RecordSubscribers("stay_points", 2)
	if got := testutil.ToFloat64(SubscribersProcessedTotal.WithLabelValues("stay_points")) - before; got != 2 {
		t.Errorf("subscribers delta = %v, want 2", got)
	}
}

func TestObserveStage(t *testing.T) {
	ObserveStage("encode", time.Now().Add(-10*time.Millisecond))

	if n := testutil.CollectAndCount(StageDuration); n == 0 {
		t.Error("expected at least one stage series")
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	RecordHTTPRequest("GET", "/health", "200")
	if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/health", "200")); got < 1 {
		t.Errorf("request count = %v", got)
	}
}
