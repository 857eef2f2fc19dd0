package portscan

import (
	"context"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ScanHandle is the handle to an in-flight or finished scan, returned by
// Start. It owns the one ScanResult for its scan exclusively; probe
// goroutines never hold a reference to it, they only publish PortOutcomes
// over channels the assembler drains.
type ScanHandle struct {
	result ScanResult
	mu     sync.Mutex // guards result while the scan is running

	governors []*Governor
	cancel    context.CancelFunc
	done      chan struct{}

	logger zerolog.Logger
}

// Start resolves target to an address, materializes the port list for
// mode, and begins dispatch. It never blocks for the scan to finish; call
// Await for that.
func Start(ctx context.Context, target string, mode ScanMode, cfg ScanConfig) (*ScanHandle, error) {
	address, hostname, err := resolveTarget(target)
	if err != nil {
		return nil, &TargetResolutionError{Target: target, Cause: err}
	}

	ports, err := mode.Ports()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger := log.With().Str("component", "portscan").Str("scan_id", id).Logger()

	scanCtx, cancel := context.WithCancel(ctx)

	h := &ScanHandle{
		result: ScanResult{
			ID:     id,
			Target: Target{Host: target, ResolvedAddress: address},
			Mode:   mode.View(),
			Start:  time.Now().UTC(),
			Metadata: ScanMetadata{
				ScannerVersion:   EngineVersion,
				ResolvedHostname: hostname,
			},
		},
		cancel: cancel,
		done:   make(chan struct{}),
		logger: logger,
	}

	if cfg.EnableHostDiscovery {
		discoverCtx, discoverCancel := context.WithTimeout(scanCtx, cfg.TimeoutPerProbe)
		alive := hostAlive(discoverCtx, address, cfg.TimeoutPerProbe)
		discoverCancel()
		if !alive {
			logger.Debug().Str("target", address).Msg("host discovery found no reply, scanning anyway")
		}
	}

	transports := cfg.Transports
	if len(transports) == 0 {
		transports = []Transport{TransportTCP}
	}

	outcomeCh := make(chan PortOutcome, len(ports)*len(transports))
	var eg errgroup.Group

	for _, transport := range transports {
		transport := transport
		prober, capabilityWarning := h.buildProber(transport, cfg)
		if capabilityWarning != "" {
			logger.Warn().Str("transport", string(transport)).Msg(capabilityWarning)
		}
		g := NewGovernor(prober, cfg.MaxConcurrentProbes, cfg.TimeoutPerProbe, cfg.RateLimit)
		h.governors = append(h.governors, g)

		eg.Go(func() error {
			for outcome := range g.Run(scanCtx, address, ports) {
				h.enrich(scanCtx, address, &outcome, cfg)
				select {
				case outcomeCh <- outcome:
				case <-scanCtx.Done():
					return nil
				}
			}
			return nil
		})
	}

	go func() {
		eg.Wait()
		close(outcomeCh)
		h.finalize(outcomeCh, ports, len(transports))
		close(h.done)
	}()

	return h, nil
}

// buildProber resolves a Transport to a concrete Prober, wrapping it in a
// retry layer per cfg.RetryCount. Stealth mode only changes behavior for
// TCP: it asks for a SYN-style probe and, lacking raw-socket capability,
// reports why it fell back instead of silently behaving like plain TCP.
func (h *ScanHandle) buildProber(transport Transport, cfg ScanConfig) (Prober, string) {
	var base Prober
	var warning string

	switch transport {
	case TransportUDP:
		base = newUDPProber(cfg.TimeoutPerProbe)
	default:
		if cfg.StealthMode {
			sp := newStealthProber(cfg.TimeoutPerProbe)
			if !sp.Capable() {
				warning = "stealth mode requested without raw-socket capability, degrading to tcp-connect"
			}
			base = sp
		} else {
			base = newTCPProber(cfg.TimeoutPerProbe)
		}
	}

	return newRetryingProber(base, cfg.RetryCount), warning
}

// enrich runs the banner reader then the service identifier on an Open
// outcome, in that order. Enrichment failures never demote the outcome's
// status; they just leave the corresponding field unset.
func (h *ScanHandle) enrich(ctx context.Context, address string, outcome *PortOutcome, cfg ScanConfig) {
	if outcome.Status != StatusOpen || outcome.Transport != TransportTCP {
		if outcome.Status == StatusOpen && cfg.EnableServiceID {
			info := IdentifyService(outcome.Banner, outcome.Port, outcome.Banner != "")
			outcome.Service = &info
		}
		return
	}

	var gotBanner bool
	if cfg.EnableBannerGrab {
		idle := bannerIdle(cfg.TimeoutPerProbe)
		dialer := net.Dialer{Timeout: cfg.TimeoutPerProbe}
		conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(address, portString(outcome.Port)))
		if err == nil {
			outcome.Banner, gotBanner = readBanner(conn, outcome.Port, idle)
			conn.Close()
		}
	}

	if cfg.EnableServiceID {
		info := IdentifyService(outcome.Banner, outcome.Port, gotBanner)
		outcome.Service = &info
	}
}

// finalize drains the outcome channel into the result, computes
// statistics, sorts outcomes, and freezes the artifact. Called exactly
// once, from the goroutine started by Start.
func (h *ScanHandle) finalize(outcomeCh <-chan PortOutcome, ports []int, transportCount int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	outcomes := make([]PortOutcome, 0, len(ports)*transportCount)
	for outcome := range outcomeCh {
		outcomes = append(outcomes, outcome)
	}

	sort.Slice(outcomes, func(i, j int) bool {
		if outcomes[i].Transport != outcomes[j].Transport {
			return outcomes[i].Transport < outcomes[j].Transport
		}
		return outcomes[i].Port < outcomes[j].Port
	})

	h.result.Outcomes = outcomes
	h.result.End = time.Now().UTC()
	h.result.Statistics = computeStatistics(outcomes, h.result.End.Sub(h.result.Start))
	h.result.finalized = true

	h.logger.Info().
		Int("total_ports", h.result.Statistics.TotalPorts).
		Int("open_ports", h.result.Statistics.OpenPorts).
		Msg("scan finalized")
}

func computeStatistics(outcomes []PortOutcome, duration time.Duration) ScanStatistics {
	stats := ScanStatistics{
		TotalPorts:   len(outcomes),
		ScanDuration: DurationMillis(duration),
	}
	for _, o := range outcomes {
		stats.PacketsSent++
		switch o.Status {
		case StatusOpen:
			stats.OpenPorts++
			stats.PacketsReceived++
		case StatusClosed:
			stats.ClosedPorts++
			stats.PacketsReceived++
		case StatusFiltered, StatusOpenFiltered:
			stats.FilteredPorts++
		}
	}
	if stats.TotalPorts > 0 {
		stats.SuccessRate = 100 * float64(stats.OpenPorts) / float64(stats.TotalPorts)
	}
	return stats
}

// Progress returns the most recent ScanProgress snapshot across all
// transports in flight.
func (h *ScanHandle) Progress() ScanProgress {
	if len(h.governors) == 0 {
		return ScanProgress{}
	}
	agg := ScanProgress{}
	for _, g := range h.governors {
		p := g.Progress()
		agg.CurrentPort += p.CurrentPort
		agg.TotalPorts += p.TotalPorts
		agg.OpenPortsFound += p.OpenPortsFound
		if p.Elapsed > agg.Elapsed {
			agg.Elapsed = p.Elapsed
		}
		if p.EstimatedRemaining > agg.EstimatedRemaining {
			agg.EstimatedRemaining = p.EstimatedRemaining
		}
	}
	if agg.TotalPorts > 0 {
		agg.Percentage = 100 * float64(agg.CurrentPort) / float64(agg.TotalPorts)
	}
	return agg
}

// Cancel propagates cancellation to every governor. The scan still
// finalizes, with statistics reflecting only the probes that completed
// before the signal.
func (h *ScanHandle) Cancel() {
	h.cancel()
}

// Await blocks until the scan has finalized and returns the immutable
// ScanResult.
func (h *ScanHandle) Await(ctx context.Context) (ScanResult, error) {
	select {
	case <-h.done:
	case <-ctx.Done():
		return ScanResult{}, ctx.Err()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, nil
}

// resolveTarget parses target as a literal IP or resolves it via DNS,
// returning the address to dial and, for a DNS lookup, the hostname that
// resolved (empty when target was already a literal address).
func resolveTarget(target string) (address string, hostname string, err error) {
	if ip := net.ParseIP(target); ip != nil {
		return target, "", nil
	}

	ips, lookupErr := net.LookupIP(target)
	if lookupErr != nil || len(ips) == 0 {
		if lookupErr == nil {
			lookupErr = net.InvalidAddrError("no addresses found")
		}
		return "", "", lookupErr
	}
	return ips[0].String(), target, nil
}
