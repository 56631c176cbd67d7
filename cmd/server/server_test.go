package main

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamcoop/chargecast/inference"
	"github.com/liamcoop/chargecast/internal/logger"
	"github.com/liamcoop/chargecast/internal/metrics"
	"github.com/liamcoop/chargecast/modelstore"
)

func demoAdapter(t *testing.T) *inference.ModelAdapter {
	t.Helper()
	a, err := modelstore.LoadArtifactFile(filepath.Join("..", "..", "models", "insurance_charges_v1.json"))
	require.NoError(t, err)
	adapter, err := inference.NewModelAdapter(a, a.Info())
	require.NoError(t, err)
	return adapter
}

func newTestServer(t *testing.T, adapter *inference.ModelAdapter) *httptest.Server {
	t.Helper()
	server, err := NewServer(adapter, metrics.New())
	require.NoError(t, err)
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

const validBody = `{
	"age": 30,
	"sex": "female",
	"weight": 70,
	"heightFeet": 5,
	"heightInches": 9,
	"children": 1,
	"smoker": false,
	"region": "northeast"
}`

func TestHealth(t *testing.T) {
	ts := newTestServer(t, demoAdapter(t))

	resp, err := http.Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "insurance-charges", body["model"])
}

func TestHealthAfterClose(t *testing.T) {
	adapter := demoAdapter(t)
	ts := newTestServer(t, adapter)
	require.NoError(t, adapter.Close())

	resp, err := http.Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestModel(t *testing.T) {
	ts := newTestServer(t, demoAdapter(t))

	resp, err := http.Get(ts.URL + "/api/v1/model")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body ModelResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "insurance-charges", body.Name)
	assert.Equal(t, 1, body.Version)
	assert.Equal(t, inference.FeatureColumns, body.Columns)
}

func TestPredict(t *testing.T) {
	ts := newTestServer(t, demoAdapter(t))

	resp, data := postJSON(t, ts.URL+"/api/v1/predict", validBody)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var body PredictResponse
	require.NoError(t, json.Unmarshal(data, &body))

	wantLog := 7 + 0.0345*30 + 0.0105*22.79 + 0.101 - 0.035
	assert.InDelta(t, wantLog, body.LogValue, 1e-9)
	assert.Equal(t, 22.79, body.BMI)
	assert.True(t, strings.HasPrefix(body.Charges, "$4,"), body.Charges)
	assert.InEpsilon(t, math.Exp(wantLog), mustParseFloat(t, body.Amount), 1e-3)
	assert.Equal(t, "insurance-charges", body.Model.Name)
	assert.Empty(t, body.Features)
}

func TestPredictExplain(t *testing.T) {
	ts := newTestServer(t, demoAdapter(t))

	resp, data := postJSON(t, ts.URL+"/api/v1/predict?explain=true", validBody)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var body PredictResponse
	require.NoError(t, json.Unmarshal(data, &body))
	require.Len(t, body.Features, len(inference.FeatureColumns))
	for i, f := range body.Features {
		assert.Equal(t, inference.FeatureColumns[i], f.Name)
	}
	assert.Equal(t, 1.0, body.Features[9].Value, "normal_nonsmoker")
}

func TestPredictAcceptsStrings(t *testing.T) {
	ts := newTestServer(t, demoAdapter(t))

	numeric, numericData := postJSON(t, ts.URL+"/api/v1/predict", validBody)
	require.Equal(t, http.StatusOK, numeric.StatusCode)

	text, textData := postJSON(t, ts.URL+"/api/v1/predict", `{
		"age": "30", "sex": "F", "weight": "70", "heightFeet": "5", "heightInches": "9",
		"children": "1", "smoker": "no", "region": "Northeast"
	}`)
	require.Equal(t, http.StatusOK, text.StatusCode, string(textData))

	var a, b PredictResponse
	require.NoError(t, json.Unmarshal(numericData, &a))
	require.NoError(t, json.Unmarshal(textData, &b))
	assert.Equal(t, a.Charges, b.Charges)
}

func TestPredictValidationErrors(t *testing.T) {
	ts := newTestServer(t, demoAdapter(t))

	resp, data := postJSON(t, ts.URL+"/api/v1/predict", `{
		"age": 30, "sex": "female", "weight": 70, "heightFeet": 0, "heightInches": 0,
		"children": 7, "smoker": false
	}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "validation", body.Kind)

	fields := make([]string, len(body.Fields))
	for i, f := range body.Fields {
		fields[i] = f.Field
	}
	assert.Equal(t, []string{"height", "children", "region"}, fields)
}

func TestPredictMalformedBody(t *testing.T) {
	ts := newTestServer(t, demoAdapter(t))

	resp, data := postJSON(t, ts.URL+"/api/v1/predict", `{"age": {"years": 30}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "invalid request body", body.Error)
}

func TestPredictBodyTooLarge(t *testing.T) {
	ts := newTestServer(t, demoAdapter(t))

	resp, data := postJSON(t, ts.URL+"/api/v1/predict", `{"region":"`+strings.Repeat("x", 1<<17)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "request body too large", body.Error)
}

func TestPredictRejectsHugeHeightFeet(t *testing.T) {
	ts := newTestServer(t, demoAdapter(t))

	resp, data := postJSON(t, ts.URL+"/api/v1/predict", `{
		"age": 30, "sex": "female", "weight": 70, "heightFeet": 1537228672809129302, "heightInches": 1,
		"children": 0, "smoker": false, "region": "northeast"
	}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(data, &body))
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "heightFeet", body.Fields[0].Field)
}

func TestPredictTracesFeatureVector(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, logger.Configure(&buf, logger.FormatJSON))
	logger.SetLevel(logger.LevelTrace)
	t.Cleanup(func() {
		logger.SetLevel(logger.LevelInfo)
		_ = logger.Configure(os.Stdout, logger.FormatJSON)
	})

	server, err := NewServer(demoAdapter(t), metrics.New())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(validBody))
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Contains(t, buf.String(), `"msg":"feature vector"`)
	assert.Contains(t, buf.String(), `"level":"TRACE"`)
	assert.Contains(t, buf.String(), "normal_nonsmoker")
}

type constModel float64

func (m constModel) Predict([]float64) (float64, error) { return float64(m), nil }

func TestPredictErrorStatuses(t *testing.T) {
	info := inference.ModelInfo{Name: "const", Version: 1, Columns: inference.FeatureColumns}

	t.Run("computation", func(t *testing.T) {
		adapter, err := inference.NewModelAdapter(constModel(math.Inf(1)), info)
		require.NoError(t, err)
		ts := newTestServer(t, adapter)

		resp, data := postJSON(t, ts.URL+"/api/v1/predict", validBody)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(data, &body))
		assert.Equal(t, "computation", body.Kind)
	})

	t.Run("model unavailable", func(t *testing.T) {
		adapter, err := inference.NewModelAdapter(constModel(8), info)
		require.NoError(t, err)
		ts := newTestServer(t, adapter)
		require.NoError(t, adapter.Close())

		resp, data := postJSON(t, ts.URL+"/api/v1/predict", validBody)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(data, &body))
		assert.Equal(t, "model_unavailable", body.Kind)
	})
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(inference.KindValidation))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(inference.KindComputation))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(inference.KindModelUnavailable))
	assert.Equal(t, http.StatusInternalServerError, statusFor(inference.KindSchemaMismatch))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, demoAdapter(t))

	postJSON(t, ts.URL+"/api/v1/predict", validBody)
	postJSON(t, ts.URL+"/api/v1/predict", `{}`)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)

	assert.Contains(t, string(data), `chargecast_predictions_total{outcome="ok"} 1`)
	assert.Contains(t, string(data), `chargecast_predictions_total{outcome="validation"} 1`)
	assert.Contains(t, string(data), `chargecast_model_info{name="insurance-charges",version="1"} 1`)
}

func TestFlexString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"yes"`, "yes"},
		{`30`, "30"},
		{`70.5`, "70.5"},
		{`true`, "true"},
		{`null`, ""},
	}
	for _, tt := range tests {
		var f flexString
		require.NoError(t, json.Unmarshal([]byte(tt.in), &f), tt.in)
		assert.Equal(t, tt.want, string(f))
	}

	var f flexString
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &f))
}

func mustParseFloat(t *testing.T, s string) float64 {
	t.Helper()
	var f float64
	require.NoError(t, json.Unmarshal([]byte(s), &f))
	return f
}
