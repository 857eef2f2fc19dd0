package portscan

import (
	"context"
	"net"
	"testing"
	"time"
)

func testScanConfig() ScanConfig {
	cfg := DefaultScanConfig()
	cfg.TimeoutPerProbe = 300 * time.Millisecond
	cfg.MaxConcurrentProbes = 32
	cfg.EnableHostDiscovery = false
	return cfg
}

func TestStartSingleHTTPListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Write([]byte("HTTP/1.0 200 OK\r\nServer: nginx/1.21.4\r\n\r\n"))
			conn.Close()
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	mode := RangeMode(port-1, port+1)

	handle, err := Start(context.Background(), "127.0.0.1", mode, testScanConfig())
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	result, err := handle.Await(context.Background())
	if err != nil {
		t.Fatalf("await: %v", err)
	}

	var open *PortOutcome
	for i := range result.Outcomes {
		if result.Outcomes[i].Status == StatusOpen {
			open = &result.Outcomes[i]
		}
	}
	if open == nil {
		t.Fatal("expected exactly one Open outcome")
	}
	if open.Port != port {
		t.Fatalf("expected open port %d, got %d", port, open.Port)
	}
	if open.Service == nil || open.Service.Name != "http" || open.Service.Product != "nginx" {
		t.Fatalf("expected http/nginx, got %+v", open.Service)
	}
	if open.Service.Confidence != confidenceBannerMatch {
		t.Fatalf("expected confidence %d, got %d", confidenceBannerMatch, open.Service.Confidence)
	}
	if result.Statistics.OpenPorts != 1 {
		t.Fatalf("expected 1 open port in statistics, got %d", result.Statistics.OpenPorts)
	}
}

func TestStartTimeoutYieldsFiltered(t *testing.T) {
	cfg := testScanConfig()
	cfg.TimeoutPerProbe = 150 * time.Millisecond
	cfg.EnableBannerGrab = false
	cfg.EnableServiceID = false

	handle, err := Start(context.Background(), "240.0.0.1", TargetedMode([]int{80}), cfg)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	result, err := handle.Await(context.Background())
	if err != nil {
		t.Fatalf("await: %v", err)
	}

	if len(result.Outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(result.Outcomes))
	}
	got := result.Outcomes[0].Status
	if got != StatusFiltered && got != StatusUnknown {
		t.Fatalf("expected Filtered (or Unknown if the host network rejects the block immediately), got %s", got)
	}
	if result.Outcomes[0].ResponseTime != nil {
		t.Fatal("expected no ResponseTime on a non-Open outcome")
	}
}

func TestStartCancelMidScan(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := testScanConfig()
	cfg.TimeoutPerProbe = 2 * time.Second
	cfg.MaxConcurrentProbes = 16

	handle, err := Start(ctx, "240.0.0.1", FullMode(), cfg)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	var result ScanResult
	go func() {
		result, _ = handle.Await(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scan did not finalize promptly after cancel")
	}

	if len(result.Outcomes) >= 65535 {
		t.Fatalf("expected a partial outcome set, got %d", len(result.Outcomes))
	}
	assertOutcomesSorted(t, result.Outcomes)
}

// TestEnrichSilentWellKnownPortFallsBackWithHighConfidence drives the real
// enrich path (dial, readBanner, IdentifyService) against a listener that
// accepts the connection and never replies, bound to a well-known port
// present in the service catalog's port_fallback table. It pins down
// scenario S3: a silent port must report the "[No response]" sentinel and
// confidencePortOnlyNoBanner, never confidencePortOnlyWithBanner.
func TestEnrichSilentWellKnownPortFallsBackWithHighConfidence(t *testing.T) {
	const telnetPort = 23

	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", portString(telnetPort)))
	if err != nil {
		t.Skipf("cannot bind well-known port %d in this environment: %v", telnetPort, err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		time.Sleep(300 * time.Millisecond)
	}()

	cfg := testScanConfig()
	cfg.TimeoutPerProbe = 150 * time.Millisecond

	outcome := PortOutcome{Port: telnetPort, Transport: TransportTCP, Status: StatusOpen}
	h := &ScanHandle{}
	h.enrich(context.Background(), "127.0.0.1", &outcome, cfg)

	if outcome.Banner != "[No response]" {
		t.Fatalf("expected sentinel banner, got %q", outcome.Banner)
	}
	if outcome.Service == nil {
		t.Fatal("expected a service identification result")
	}
	if outcome.Service.Confidence != confidencePortOnlyNoBanner {
		t.Fatalf("expected port-fallback confidence %d for a silent well-known port, got %d (%+v)",
			confidencePortOnlyNoBanner, outcome.Service.Confidence, outcome.Service)
	}
}

func assertOutcomesSorted(t *testing.T, outcomes []PortOutcome) {
	t.Helper()
	for i := 1; i < len(outcomes); i++ {
		a, b := outcomes[i-1], outcomes[i]
		if a.Transport > b.Transport {
			t.Fatalf("outcomes not sorted by transport at index %d", i)
		}
		if a.Transport == b.Transport && a.Port > b.Port {
			t.Fatalf("outcomes not sorted by port at index %d", i)
		}
	}
}
