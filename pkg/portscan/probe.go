package portscan

import (
	"context"
	"errors"
	"net"
	"strconv"
	"syscall"
	"time"
)

// Prober is the common contract shared by every transport strategy: probe
// one (address, port) and report its outcome. The governor only ever sees
// this interface; it has no notion of which concrete transport is behind
// it (the tagged-variant, not-inheritance discipline of the probe family).
type Prober interface {
	Probe(ctx context.Context, address string, port int) PortOutcome
	Transport() Transport
}

func durPtr(d time.Duration) *DurationMillis {
	m := DurationMillis(d)
	return &m
}

// tcpProber implements the TCP-connect probe: a full connection attempt
// within the caller's context deadline.
type tcpProber struct {
	timeout time.Duration
}

func newTCPProber(timeout time.Duration) *tcpProber {
	return &tcpProber{timeout: timeout}
}

func (p *tcpProber) Transport() Transport { return TransportTCP }

func (p *tcpProber) Probe(ctx context.Context, address string, port int) PortOutcome {
	dialer := net.Dialer{Timeout: p.timeout}
	addr := net.JoinHostPort(address, portString(port))

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	elapsed := time.Since(start)

	if err == nil {
		conn.Close()
		return PortOutcome{
			Port:         port,
			Transport:    TransportTCP,
			Status:       StatusOpen,
			ResponseTime: durPtr(elapsed),
		}
	}

	switch {
	case isConnRefused(err):
		return PortOutcome{Port: port, Transport: TransportTCP, Status: StatusClosed}
	case isTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return PortOutcome{Port: port, Transport: TransportTCP, Status: StatusFiltered}
	case errors.Is(ctx.Err(), context.Canceled):
		return PortOutcome{Port: port, Transport: TransportTCP, Status: StatusFiltered}
	default:
		return PortOutcome{Port: port, Transport: TransportTCP, Status: StatusUnknown}
	}
}

// stealthProber is a SYN-style probe degraded transparently to TCP-connect
// whenever raw-socket capability is unavailable. Crafting a real
// SYN-only segment needs a packet-construction library outside this
// engine's dependency set (the reference implementation this was derived
// from never finished one either); rather than fabricate that capability,
// the probe honestly reports the transport it actually used.
type stealthProber struct {
	inner      *tcpProber
	capability bool
}

func newStealthProber(timeout time.Duration) *stealthProber {
	return &stealthProber{inner: newTCPProber(timeout), capability: hasRawSocketCapability()}
}

func (p *stealthProber) Transport() Transport { return TransportTCP }

// Capable reports whether this stealth prober believes it has raw-socket
// privilege. It never actually exercises that privilege today, but keeps
// the capability resolved once at construction per the design note that
// the fallback path is part of the public contract, not a latent error.
func (p *stealthProber) Capable() bool { return p.capability }

func (p *stealthProber) Probe(ctx context.Context, address string, port int) PortOutcome {
	return p.inner.Probe(ctx, address, port)
}

// udpProber sends a service-keyed payload and classifies the reply.
// It uses a connected UDP socket: on Linux (and most BSD-derived network
// stacks), a socket connected via net.DialTimeout surfaces an ICMP
// port-unreachable reply as ECONNREFUSED on the next read, without
// requiring CAP_NET_RAW. This resolves the Open vs OpenFiltered distinction
// without privileged sockets; silence within the timeout (no ICMP, no
// application reply) is reported as OpenFiltered, since UDP genuinely
// cannot disambiguate an open-but-silent port from a filtered one.
type udpProber struct {
	timeout time.Duration
}

func newUDPProber(timeout time.Duration) *udpProber {
	return &udpProber{timeout: timeout}
}

func (p *udpProber) Transport() Transport { return TransportUDP }

func (p *udpProber) Probe(ctx context.Context, address string, port int) PortOutcome {
	addr := net.JoinHostPort(address, portString(port))

	start := time.Now()
	conn, err := net.DialTimeout("udp", addr, p.timeout)
	if err != nil {
		return PortOutcome{Port: port, Transport: TransportUDP, Status: StatusUnknown}
	}
	defer conn.Close()

	payload := udpProbePayload(port)
	if _, err := conn.Write(payload); err != nil {
		return PortOutcome{Port: port, Transport: TransportUDP, Status: StatusUnknown}
	}

	deadline := start.Add(p.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	conn.SetReadDeadline(deadline)

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	elapsed := time.Since(start)

	switch {
	case err == nil && n > 0:
		return PortOutcome{
			Port:         port,
			Transport:    TransportUDP,
			Status:       StatusOpen,
			ResponseTime: durPtr(elapsed),
			Banner:       normalizeBanner(string(buf[:n])),
		}
	case isConnRefused(err):
		return PortOutcome{Port: port, Transport: TransportUDP, Status: StatusClosed}
	case isTimeout(err):
		return PortOutcome{Port: port, Transport: TransportUDP, Status: StatusOpenFiltered}
	default:
		return PortOutcome{Port: port, Transport: TransportUDP, Status: StatusOpenFiltered}
	}
}

// retryingProber wraps another Prober and re-attempts a probe that came
// back Filtered or Unknown, up to retries additional times. Closed is
// never retried; only the last attempt's outcome is reported.
type retryingProber struct {
	inner   Prober
	retries int
}

func newRetryingProber(inner Prober, retries int) *retryingProber {
	return &retryingProber{inner: inner, retries: retries}
}

func (p *retryingProber) Transport() Transport { return p.inner.Transport() }

func (p *retryingProber) Probe(ctx context.Context, address string, port int) PortOutcome {
	outcome := p.inner.Probe(ctx, address, port)
	for attempt := 0; attempt < p.retries; attempt++ {
		if outcome.Status != StatusFiltered && outcome.Status != StatusUnknown {
			break
		}
		if ctx.Err() != nil {
			break
		}
		outcome = p.inner.Probe(ctx, address, port)
	}
	return outcome
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

func portString(port int) string {
	return strconv.Itoa(port)
}
