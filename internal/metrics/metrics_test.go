package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObservePrediction(t *testing.T) {
	m := New()

	m.ObservePrediction(OutcomeOK, 2*time.Millisecond)
	m.ObservePrediction(OutcomeOK, time.Millisecond)
	m.ObservePrediction("validation", time.Millisecond)

	if got := testutil.ToFloat64(m.predictions.WithLabelValues(OutcomeOK)); got != 2 {
		t.Errorf("ok predictions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.predictions.WithLabelValues("validation")); got != 1 {
		t.Errorf("validation predictions = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.duration); got != 1 {
		t.Errorf("duration collectors = %d, want 1", got)
	}
}

func TestSetModelReplacesPrevious(t *testing.T) {
	m := New()

	m.SetModel("insurance-charges", 1)
	m.SetModel("insurance-charges", 2)

	if got := testutil.CollectAndCount(m.modelInfo); got != 1 {
		t.Errorf("model_info series = %d, want 1", got)
	}
	if got := testutil.ToFloat64(m.modelInfo.WithLabelValues("insurance-charges", "2")); got != 1 {
		t.Errorf("model_info = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObservePrediction(OutcomeOK, time.Millisecond)
	m.SetModel("insurance-charges", 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`chargecast_predictions_total{outcome="ok"} 1`,
		`chargecast_model_info{name="insurance-charges",version="1"} 1`,
		"chargecast_prediction_duration_seconds_bucket",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
