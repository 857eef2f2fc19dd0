// Package portscan implements the scan engine: the concurrent port-probing
// pipeline, its rate and resource controls, the service-identification
// cascade, and the scan-result model read by storage, exporters and the API.
package portscan

import (
	"encoding/json"
	"time"
)

// EngineVersion is the scanner version recorded in ScanMetadata.
const EngineVersion = "vulntor-portscan/1.0"

// DurationMillis serializes a time.Duration as a millisecond count, per the
// result schema's "durations are milliseconds" rule.
type DurationMillis time.Duration

// MarshalJSON emits the duration as a plain integer number of milliseconds.
func (d DurationMillis) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Milliseconds())
}

// UnmarshalJSON reads a millisecond count back into a DurationMillis.
func (d *DurationMillis) UnmarshalJSON(b []byte) error {
	var ms int64
	if err := json.Unmarshal(b, &ms); err != nil {
		return err
	}
	*d = DurationMillis(time.Duration(ms) * time.Millisecond)
	return nil
}

// Duration returns the underlying time.Duration.
func (d DurationMillis) Duration() time.Duration { return time.Duration(d) }

// Transport identifies the wire-level probe family used for a port.
type Transport string

const (
	TransportTCP  Transport = "tcp"
	TransportUDP  Transport = "udp"
	TransportSCTP Transport = "sctp"
)

// Status is the classification of a single probed port.
type Status string

const (
	StatusOpen         Status = "open"
	StatusClosed       Status = "closed"
	StatusFiltered     Status = "filtered"
	StatusOpenFiltered Status = "open_filtered"
	StatusUnknown      Status = "unknown"
)

// Target is the textual host handed to Start and the address the probes
// actually dial. The textual form is retained verbatim for audit; the
// resolved address is the real probe destination.
type Target struct {
	Host            string `json:"host"`
	ResolvedAddress string `json:"resolved_address"`
}

// ServiceInfo describes the service identified on an open port.
//
// Confidence is always one of {0, 60, 80, 90}: 90 for a banner pattern
// match, 80 for a port-number fallback with no banner collected, 60 for a
// port-number fallback when a banner was collected but matched nothing,
// 0 for a port with no identification at all.
type ServiceInfo struct {
	Name       string `json:"name"`
	Product    string `json:"product,omitempty"`
	Version    string `json:"version,omitempty"`
	ExtraInfo  string `json:"extra_info,omitempty"`
	Confidence int    `json:"confidence"`
}

// PortOutcome is the result of probing a single (target, port, transport).
//
// Invariants: Open implies ResponseTime is non-nil; Banner and Service are
// only ever set when Status is Open or OpenFiltered; (Transport, Port) is
// unique within a ScanResult's Outcomes slice.
type PortOutcome struct {
	Port         int             `json:"port"`
	Transport    Transport       `json:"transport"`
	Status       Status          `json:"status"`
	ResponseTime *DurationMillis `json:"response_time,omitempty"`
	Service      *ServiceInfo    `json:"service,omitempty"`
	Banner       string          `json:"banner,omitempty"`
}

// ScanStatistics summarizes a finished scan's PortOutcomes.
type ScanStatistics struct {
	TotalPorts      int            `json:"total_ports"`
	OpenPorts       int            `json:"open_ports"`
	ClosedPorts     int            `json:"closed_ports"`
	FilteredPorts   int            `json:"filtered_ports"`
	ScanDuration    DurationMillis `json:"scan_duration"`
	PacketsSent     int64          `json:"packets_sent"`
	PacketsReceived int64          `json:"packets_received"`
	SuccessRate     float64        `json:"success_rate"`
}

// Hop is one entry in a best-effort traceroute ladder.
type Hop struct {
	TTL         int    `json:"ttl"`
	Address     string `json:"address,omitempty"`
	ElapsedMs   int64  `json:"elapsed_ms,omitempty"`
	Unreachable bool   `json:"unreachable"`
}

// ScanMetadata carries provenance and optional enrichment the engine cannot
// always populate (OS fingerprint, traceroute) but always wires through the
// schema for forward compatibility.
type ScanMetadata struct {
	ScannerVersion   string   `json:"scanner_version"`
	InvocationArgs   []string `json:"invocation_args,omitempty"`
	ResolvedHostname string   `json:"resolved_hostname,omitempty"`
	OSFingerprint    string   `json:"os_fingerprint,omitempty"`
	Traceroute       []Hop    `json:"traceroute,omitempty"`
}

// ScanResult is the frozen, versioned artifact handed to persistence,
// exporters and the vulnerability analyzer. It is immutable once the scan
// handle has finalized it.
type ScanResult struct {
	ID         string        `json:"id"`
	Target     Target        `json:"target"`
	Mode       ScanModeView  `json:"mode"`
	Start      time.Time     `json:"start"`
	End        time.Time     `json:"end"`
	Outcomes   []PortOutcome `json:"outcomes"`
	Statistics ScanStatistics `json:"statistics"`
	Metadata   ScanMetadata  `json:"metadata"`

	finalized bool
}

// ScanModeView is the serializable projection of a ScanMode: a kind tag plus
// the parameters relevant to that kind, so a Range or Targeted mode survives
// a round trip through JSON.
type ScanModeView struct {
	Kind    ModeKind `json:"kind"`
	RangeLo int      `json:"range_lo,omitempty"`
	RangeHi int      `json:"range_hi,omitempty"`
	Ports   []int    `json:"ports,omitempty"`
}

// ScanProgress is a transient, non-persisted snapshot of an in-flight scan.
type ScanProgress struct {
	CurrentPort        int            `json:"current_port"`
	TotalPorts         int            `json:"total_ports"`
	Percentage         float64        `json:"percentage"`
	OpenPortsFound     int            `json:"open_ports_found"`
	Elapsed            DurationMillis `json:"elapsed"`
	EstimatedRemaining DurationMillis `json:"estimated_remaining"`
}

// ScanConfig holds the recognized scan options. Fields map 1:1 onto koanf
// keys under the "scan" section so a deployment can set defaults in its
// configuration file and override them per request.
type ScanConfig struct {
	TimeoutPerProbe     time.Duration `koanf:"timeout_per_probe" validate:"min=1000000"`
	MaxConcurrentProbes int           `koanf:"max_concurrent_probes" validate:"min=1,max=10000"`
	RetryCount          int           `koanf:"retry_count" validate:"min=0,max=10"`
	RateLimit           float64       `koanf:"rate_limit" validate:"min=0"`

	EnableServiceID     bool `koanf:"enable_service_id"`
	EnableBannerGrab    bool `koanf:"enable_banner_grab"`
	EnableOSDetection   bool `koanf:"enable_os_detection"`
	EnableTraceroute    bool `koanf:"enable_traceroute"`
	EnableHostDiscovery bool `koanf:"enable_host_discovery"`

	StealthMode bool `koanf:"stealth_mode"`

	// Transports is an extension beyond the option list quoted in the
	// specification's "recognized options": since that list is explicitly
	// non-exhaustive, a caller can name which transports to probe with
	// instead of always implying TCP. Empty means TCP only.
	Transports []Transport `koanf:"transports"`
}

// DefaultScanConfig returns the engine's baseline ScanConfig.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		TimeoutPerProbe:     2 * time.Second,
		MaxConcurrentProbes: 200,
		RetryCount:          1,
		RateLimit:           0,
		EnableServiceID:     true,
		EnableBannerGrab:    true,
		EnableOSDetection:   false,
		EnableTraceroute:    false,
		EnableHostDiscovery: true,
		StealthMode:         false,
		Transports:          []Transport{TransportTCP},
	}
}
