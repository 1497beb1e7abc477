package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestExporterServesChatCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChat(reg)
	m.PollTick()
	m.Sent(false)

	x, err := NewExporter("127.0.0.1:0", reg, nil)
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}
	x.Start()
	t.Cleanup(func() { x.Stop(context.Background()) })

	resp, err := http.Get("http://" + x.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		"counsel_chat_poll_ticks_total 1",
		`counsel_chat_sends_total{result="failed"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestExporterBadAddress(t *testing.T) {
	if _, err := NewExporter("not-an-address", prometheus.NewRegistry(), nil); err == nil {
		t.Fatal("NewExporter() accepted a bad address")
	}
}
