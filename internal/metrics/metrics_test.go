package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue は指定名・ラベルのカウンタ値を返す。見つからない場合はテストを失敗させる。
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("%s %v metric not found", name, labels)
	return 0
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

func TestRecordRegistration_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRegistration()
	c.RecordRegistration()

	if got := counterValue(t, reg, "oralarith_registrations_total", nil); got != 2 {
		t.Errorf("registrations_total = %v, want 2", got)
	}
}

// TestRecordLogin_LabelsByResult はログイン結果がラベル別に集計されることを検証する。
func TestRecordLogin_LabelsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin(ResultSuccess)
	c.RecordLogin(ResultFailure)
	c.RecordLogin(ResultFailure)

	if got := counterValue(t, reg, "oralarith_logins_total", map[string]string{"result": ResultSuccess}); got != 1 {
		t.Errorf("logins_total{success} = %v, want 1", got)
	}
	if got := counterValue(t, reg, "oralarith_logins_total", map[string]string{"result": ResultFailure}); got != 2 {
		t.Errorf("logins_total{failure} = %v, want 2", got)
	}
}

func TestRecordSessionValidation_LabelsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSessionValidation(ResultExpired)
	c.RecordSessionValidation(ResultMissing)
	c.RecordSessionValidation(ResultExpired)

	if got := counterValue(t, reg, "oralarith_session_validations_total", map[string]string{"result": ResultExpired}); got != 2 {
		t.Errorf("session_validations_total{expired} = %v, want 2", got)
	}
}

func TestRecordQuizAndMistake_IncrementCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordQuizRecordSaved()
	c.RecordMistakeSaved()
	c.RecordMistakeSaved()
	c.RecordMistakeSaved()

	if got := counterValue(t, reg, "oralarith_quiz_records_saved_total", nil); got != 1 {
		t.Errorf("quiz_records_saved_total = %v, want 1", got)
	}
	if got := counterValue(t, reg, "oralarith_mistakes_saved_total", nil); got != 3 {
		t.Errorf("mistakes_saved_total = %v, want 3", got)
	}
}

func TestRecordIDConflict_LabelsByKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordIDConflict(KindUserID)
	c.RecordIDConflict(KindRecordID)

	if got := counterValue(t, reg, "oralarith_id_conflicts_total", map[string]string{"kind": KindUserID}); got != 1 {
		t.Errorf("id_conflicts_total{user_id} = %v, want 1", got)
	}
}

// TestRecordSessionsEvicted_AddsCount は削除件数が加算されることを検証する。
func TestRecordSessionsEvicted_AddsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSessionsEvicted(10)
	c.RecordSessionsEvicted(5)

	if got := counterValue(t, reg, "oralarith_sessions_evicted_total", nil); got != 15 {
		t.Errorf("sessions_evicted_total = %v, want 15", got)
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithLabel はHTTPステータスカウンタがラベル付きで増加することを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(201)
	c.RecordHTTPStatus(201)
	c.RecordHTTPStatus(400)

	if got := counterValue(t, reg, "oralarith_http_status_total", map[string]string{"status_code": "201"}); got != 2 {
		t.Errorf("http_status_total{201} = %v, want 2", got)
	}
	if got := counterValue(t, reg, "oralarith_http_status_total", map[string]string{"status_code": "400"}); got != 1 {
		t.Errorf("http_status_total{400} = %v, want 1", got)
	}
}

// TestRecordRequestLatency_ObservesHistogram はレイテンシのヒストグラムに値が記録されることを検証する。
func TestRecordRequestLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequestLatency(100 * time.Millisecond)
	c.RecordRequestLatency(2 * time.Second)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range families {
		if mf.GetName() == "oralarith_http_request_duration_seconds" {
			found = true
			h := mf.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 2 {
				t.Errorf("sample_count = %d, want 2", h.GetSampleCount())
			}
			// 合計は0.1 + 2.0 = 2.1秒
			if h.GetSampleSum() < 2.0 || h.GetSampleSum() > 2.2 {
				t.Errorf("sample_sum = %v, want ~2.1", h.GetSampleSum())
			}
		}
	}
	if !found {
		t.Error("oralarith_http_request_duration_seconds metric not found")
	}
}

// TestMetricsHandler_ReturnsPrometheusFormat は/metricsエンドポイントがPrometheus形式で返すことを検証する。
func TestMetricsHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRegistration()
	c.RecordLogin(ResultSuccess)
	c.RecordHTTPStatus(201)
	c.RecordRequestLatency(500 * time.Millisecond)

	handler := Handler(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	expectedMetrics := []string{
		"oralarith_registrations_total",
		"oralarith_logins_total",
		"oralarith_http_status_total",
		"oralarith_http_request_duration_seconds",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("response body does not contain %q", metric)
		}
	}
}

// TestNopCollector_DoesNothing はNopCollectorがパニックせずに呼び出せることを検証する。
func TestNopCollector_DoesNothing(t *testing.T) {
	var c MetricsCollector = NopCollector{}
	c.RecordRegistration()
	c.RecordLogin(ResultSuccess)
	c.RecordSessionValidation(ResultMissing)
	c.RecordQuizRecordSaved()
	c.RecordMistakeSaved()
	c.RecordIDConflict(KindSession)
	c.RecordSessionsEvicted(3)
	c.RecordHTTPStatus(500)
	c.RecordRequestLatency(time.Second)
}

// TestMultipleCollectors_IndependentRegistries は異なるレジストリで独立に動作することを検証する。
func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	c1 := NewCollector(reg1)
	c2 := NewCollector(reg2)

	c1.RecordRegistration()
	c2.RecordRegistration()
	c2.RecordRegistration()

	if got := counterValue(t, reg1, "oralarith_registrations_total", nil); got != 1 {
		t.Errorf("reg1 registrations = %v, want 1", got)
	}
	if got := counterValue(t, reg2, "oralarith_registrations_total", nil); got != 2 {
		t.Errorf("reg2 registrations = %v, want 2", got)
	}
}
