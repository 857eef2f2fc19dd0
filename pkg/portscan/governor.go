package portscan

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Governor is the concurrency governor (C5): a bounded-parallelism
// dispatcher for a single Prober over a port list, with optional rate
// admission, per-probe timeout, cancellation, and non-blocking progress
// emission.
type Governor struct {
	prober  Prober
	maxConc int
	timeout time.Duration
	limiter *rate.Limiter

	dispatched int64
	openFound  int64
	progress   atomic.Pointer[ScanProgress]
}

// NewGovernor builds a Governor for one Prober. rateLimit <= 0 means no
// admission cap; probes are only bounded by maxConcurrent.
func NewGovernor(prober Prober, maxConcurrent int, timeout time.Duration, rateLimit float64) *Governor {
	g := &Governor{
		prober:  prober,
		maxConc: maxConcurrent,
		timeout: timeout,
	}
	if rateLimit > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(rateLimit), maxConcurrent)
	}
	return g
}

// Progress returns the last emitted ScanProgress snapshot, or the zero
// value if no probe has completed yet.
func (g *Governor) Progress() ScanProgress {
	if p := g.progress.Load(); p != nil {
		return *p
	}
	return ScanProgress{}
}

// Run dispatches one probe per port, never exceeding maxConcurrent
// in-flight probes, and returns a channel of PortOutcomes. The channel is
// closed once every dispatched probe has completed or ctx is done and all
// in-flight work has drained. Dispatch order follows ports; completion
// order on the returned channel is unordered, matching the governor's
// ordering contract — the caller (the assembler) is responsible for
// final sorting.
func (g *Governor) Run(ctx context.Context, address string, ports []int) <-chan PortOutcome {
	out := make(chan PortOutcome, len(ports))
	sem := make(chan struct{}, g.maxConc)
	var wg sync.WaitGroup
	start := time.Now()
	total := len(ports)

	go func() {
	dispatch:
		for _, port := range ports {
			if g.limiter != nil {
				if err := g.limiter.Wait(ctx); err != nil {
					break dispatch
				}
			}

			select {
			case <-ctx.Done():
				break dispatch
			case sem <- struct{}{}:
			}

			atomic.AddInt64(&g.dispatched, 1)
			wg.Add(1)
			go func(port int) {
				defer wg.Done()
				defer func() { <-sem }()

				probeCtx, cancel := context.WithTimeout(ctx, g.timeout)
				outcome := g.prober.Probe(probeCtx, address, port)
				cancel()

				if outcome.Status == StatusOpen {
					atomic.AddInt64(&g.openFound, 1)
				}

				select {
				case out <- outcome:
				case <-ctx.Done():
				}

				g.emitProgress(total, start)
			}(port)
		}
		wg.Wait()
		close(out)
	}()

	return out
}

// emitProgress publishes a new snapshot, overwriting whatever was there.
// current_port tracks the dispatched count, not completion order, so it is
// monotonic even though completions themselves are unordered.
func (g *Governor) emitProgress(total int, start time.Time) {
	dispatchedSoFar := int(atomic.LoadInt64(&g.dispatched))
	openSoFar := int(atomic.LoadInt64(&g.openFound))
	elapsed := time.Since(start)

	pct := 0.0
	var remaining time.Duration
	if total > 0 {
		pct = 100 * float64(dispatchedSoFar) / float64(total)
		if dispatchedSoFar > 0 {
			perPort := elapsed / time.Duration(dispatchedSoFar)
			remaining = perPort * time.Duration(total-dispatchedSoFar)
			if remaining < 0 {
				remaining = 0
			}
		}
	}

	snapshot := ScanProgress{
		CurrentPort:        dispatchedSoFar,
		TotalPorts:         total,
		Percentage:         pct,
		OpenPortsFound:     openSoFar,
		Elapsed:            DurationMillis(elapsed),
		EstimatedRemaining: DurationMillis(remaining),
	}
	g.progress.Store(&snapshot)
}
