package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetric は指定名のメトリクスファミリーを返す。見つからない場合はテストを失敗させる。
func findMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	if c := NewCollector(reg); c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordLogin_LabelsByResult はログイン結果ごとにカウントされることを検証する。
func TestRecordLogin_LabelsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin(true)
	c.RecordLogin(false)
	c.RecordLogin(false)

	mf := findMetric(t, reg, "vetracker_logins_total")
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "result" {
				got[lp.GetValue()] = m.GetCounter().GetValue()
			}
		}
	}
	if got["success"] != 1 || got["failure"] != 2 {
		t.Errorf("logins = %v, want success=1 failure=2", got)
	}
}

// TestCounters_Increment は単純カウンタが増加することを検証する。
func TestCounters_Increment(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSessionsPurged(3)
	c.RecordSessionsPurged(2)
	c.RecordContractionRecorded()
	c.RecordClusteringWarning()
	c.RecordAuditFailure()
	c.RecordAuditFailure()

	tests := []struct {
		name string
		want float64
	}{
		{"vetracker_sessions_purged_total", 5},
		{"vetracker_contractions_recorded_total", 1},
		{"vetracker_clustering_warnings_total", 1},
		{"vetracker_audit_failures_total", 2},
	}
	for _, tt := range tests {
		mf := findMetric(t, reg, tt.name)
		if got := mf.GetMetric()[0].GetCounter().GetValue(); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// TestRecordHTTPStatus_LabelsByCode はステータスコード別にカウントされることを検証する。
func TestRecordHTTPStatus_LabelsByCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(201)
	c.RecordHTTPStatus(401)
	c.RecordHTTPStatus(401)

	mf := findMetric(t, reg, "vetracker_http_status_total")
	if len(mf.GetMetric()) != 2 {
		t.Errorf("expected 2 label sets, got %d", len(mf.GetMetric()))
	}
}

// TestRecordRequestLatency_ObservesHistogram はレイテンシがヒストグラムに記録されることを検証する。
func TestRecordRequestLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequestLatency(150 * time.Millisecond)

	mf := findMetric(t, reg, "vetracker_request_latency_seconds")
	if got := mf.GetMetric()[0].GetHistogram().GetSampleCount(); got != 1 {
		t.Errorf("sample count = %d, want 1", got)
	}
}

// TestNewCollector_DoubleRegistrationPanics は同一レジストリへの二重登録がpanicすることを検証する。
func TestNewCollector_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewCollector(reg)
}
