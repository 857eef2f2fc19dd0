package portscan

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestTCPProberOpen(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	p := newTCPProber(time.Second)
	outcome := p.Probe(context.Background(), "127.0.0.1", port)

	if outcome.Status != StatusOpen {
		t.Fatalf("expected Open, got %s", outcome.Status)
	}
	if outcome.ResponseTime == nil {
		t.Fatal("expected ResponseTime to be set for an Open outcome")
	}
}

func TestTCPProberClosed(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close() // nothing listens now; connection should be refused

	p := newTCPProber(500 * time.Millisecond)
	outcome := p.Probe(context.Background(), "127.0.0.1", port)

	if outcome.Status != StatusClosed {
		t.Fatalf("expected Closed, got %s", outcome.Status)
	}
}

func TestTCPProberFilteredOnTimeout(t *testing.T) {
	// 240.0.0.1 is in a reserved, unroutable block; connects there should
	// hang until our own timeout fires rather than ever completing.
	p := newTCPProber(150 * time.Millisecond)
	outcome := p.Probe(context.Background(), "240.0.0.1", 80)

	if outcome.Status != StatusFiltered && outcome.Status != StatusUnknown {
		t.Fatalf("expected Filtered (or Unknown on networks that reject the reserved block immediately), got %s", outcome.Status)
	}
}

func TestRetryingProberDoesNotRetryClosed(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	calls := 0
	counting := &countingProber{inner: newTCPProber(200 * time.Millisecond), calls: &calls}
	retrying := newRetryingProber(counting, 3)

	outcome := retrying.Probe(context.Background(), "127.0.0.1", port)
	if outcome.Status != StatusClosed {
		t.Fatalf("expected Closed, got %s", outcome.Status)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one attempt for a Closed outcome, got %d", calls)
	}
}

type countingProber struct {
	inner Prober
	calls *int
}

func (c *countingProber) Transport() Transport { return c.inner.Transport() }

func (c *countingProber) Probe(ctx context.Context, address string, port int) PortOutcome {
	*c.calls++
	return c.inner.Probe(ctx, address, port)
}
