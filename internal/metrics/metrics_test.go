package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, collector *Collector) string {
	t.Helper()
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected metrics handler to return 200, got %d", rr.Code)
	}
	return rr.Body.String()
}

func TestCollectorRecordsHTTPMetrics(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	handlerInvoked := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerInvoked = true
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})

	instrumented := collector.InstrumentHandler(handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()

	instrumented.ServeHTTP(rr, req)

	if !handlerInvoked {
		t.Fatal("expected handler to be invoked")
	}

	if rr.Code != http.StatusAccepted {
		t.Fatalf("unexpected status code: %d", rr.Code)
	}

	body := scrape(t, collector)
	if !strings.Contains(body, `stocksage_http_requests_total{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("requests_total metric not recorded, body=%q", body)
	}

	if !strings.Contains(body, `stocksage_http_request_duration_seconds_count{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("request_duration_seconds_count metric not recorded, body=%q", body)
	}
}

func TestCollectorRecordsPipelineMetrics(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	collector.RecordModelCall("recommend", "success", 2*time.Second)
	collector.RecordModelCall("recommend", "error", time.Second)
	collector.RecordRecommendations(3)
	collector.RecordTrade("buy")

	body := scrape(t, collector)
	for _, want := range []string{
		`stocksage_llm_calls_total{operation="recommend",status="success"} 1`,
		`stocksage_llm_calls_total{operation="recommend",status="error"} 1`,
		`stocksage_llm_call_duration_seconds_count{operation="recommend"} 2`,
		`stocksage_advisor_recommendations_total 3`,
		`stocksage_portfolio_trades_executed_total{type="buy"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metric missing %q", want)
		}
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var collector *Collector
	collector.RecordModelCall("recommend", "success", time.Second)
	collector.RecordRecommendations(1)
	collector.RecordTrade("sell")
}
