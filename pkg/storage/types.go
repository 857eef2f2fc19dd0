// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"io"
	"time"
)

// Backend is the storage contract shared by every edition. CE wires
// DefaultFactory to NewLocalBackend; Enterprise overrides it with a
// database-and-object-store implementation without CE ever depending
// on that package.
type Backend interface {
	// Initialize prepares the backend's on-disk or remote layout. Safe
	// to call repeatedly.
	Initialize(ctx context.Context) error

	// Scans returns the scan metadata and artifact store.
	Scans() ScanStore

	// GarbageCollect applies a retention policy, deleting scans that
	// fall outside it.
	GarbageCollect(ctx context.Context, opts GCOptions) (*GCResult, error)

	// Close releases any resources held by the backend. Safe to call
	// more than once.
	Close() error
}

// ScanStore persists scan metadata and the raw per-scan data streams
// (host lists, service banners, vulnerability findings, ...).
type ScanStore interface {
	Create(ctx context.Context, orgID string, scan *ScanMetadata) error
	Get(ctx context.Context, orgID, scanID string) (*ScanMetadata, error)
	Update(ctx context.Context, orgID, scanID string, updates ScanUpdates) error
	Delete(ctx context.Context, orgID, scanID string) error
	List(ctx context.Context, orgID string, filter ScanFilter) ([]*ScanMetadata, error)

	WriteData(ctx context.Context, orgID, scanID string, dataType DataType, r io.Reader) error
	AppendData(ctx context.Context, orgID, scanID string, dataType DataType, line []byte) error
	ReadData(ctx context.Context, orgID, scanID string, dataType DataType) (io.ReadCloser, error)

	// GetAnalytics is Enterprise-only; CE returns ErrNotSupported.
	GetAnalytics(ctx context.Context, orgID string, period TimePeriod) (*Analytics, error)
}

// ScanStatus is the lifecycle state of a scan.
type ScanStatus string

const (
	StatusPending   ScanStatus = "pending"
	StatusRunning   ScanStatus = "running"
	StatusCompleted ScanStatus = "completed"
	StatusFailed    ScanStatus = "failed"
	StatusCancelled ScanStatus = "cancelled"
)

// IsValid reports whether s is one of the recognized scan statuses.
func (s ScanStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether a scan in this status will never transition again.
func (s ScanStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s ScanStatus) String() string { return string(s) }

// DataType names one of the per-scan JSON/JSONL artifact streams.
type DataType string

const (
	DataTypeMetadata        DataType = "metadata.json"
	DataTypeHosts           DataType = "hosts.jsonl"
	DataTypeServices        DataType = "services.jsonl"
	DataTypeVulnerabilities DataType = "vulnerabilities.jsonl"
	DataTypeBanners         DataType = "banners.jsonl"
)

// IsValid reports whether d is one of the recognized data types.
func (d DataType) IsValid() bool {
	switch d {
	case DataTypeMetadata, DataTypeHosts, DataTypeServices, DataTypeVulnerabilities, DataTypeBanners:
		return true
	default:
		return false
	}
}

func (d DataType) String() string { return string(d) }

// VulnCounts tallies findings by severity.
type VulnCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
}

// Total sums every severity bucket.
func (v VulnCounts) Total() int {
	return v.Critical + v.High + v.Medium + v.Low + v.Info
}

// ScanMetadata is the persisted record for a single scan.
//
// Extensions carries Enterprise-only fields (audit IDs, license tier,
// org display name, ...). It is tagged json:"-" so CE's LocalBackend
// never round-trips Enterprise data through its on-disk JSON files.
type ScanMetadata struct {
	ID              string     `json:"id"`
	OrgID           string     `json:"org_id"`
	UserID          string     `json:"user_id"`
	Target          string     `json:"target"`
	Status          string     `json:"status"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     time.Time  `json:"completed_at,omitempty"`
	Duration        int        `json:"duration_seconds,omitempty"`
	HostCount       int        `json:"host_count,omitempty"`
	ServiceCount    int        `json:"service_count,omitempty"`
	VulnCount       VulnCounts `json:"vuln_count,omitempty"`
	StorageLocation string     `json:"storage_location,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Extensions map[string]any `json:"-"`
}

// ScanUpdates carries a partial update to a ScanMetadata record; nil
// fields are left untouched.
type ScanUpdates struct {
	Status       *string     `json:"status,omitempty"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
	Duration     *int        `json:"duration_seconds,omitempty"`
	HostCount    *int        `json:"host_count,omitempty"`
	ServiceCount *int        `json:"service_count,omitempty"`
	VulnCount    *VulnCounts `json:"vuln_count,omitempty"`

	Extensions *map[string]any `json:"-"`
}

// ScanFilter narrows ScanStore.List results.
type ScanFilter struct {
	Status string
	Target string
	Limit  int
	Offset int
	Cursor string

	Extensions map[string]any
}

// TimePeriod bounds an analytics query. Enterprise-only.
type TimePeriod struct {
	Start time.Time
	End   time.Time
}

// Analytics is an aggregate report over a set of scans. Enterprise-only.
type Analytics struct {
	TotalScans int
	VulnCount  VulnCounts
}

// GCOptions configures a GarbageCollect run.
type GCOptions struct {
	DryRun    bool
	Retention *RetentionConfig
}

// GCResult reports what GarbageCollect did (or would do, for a dry run).
type GCResult struct {
	ScansDeleted   int
	DeletedScanIDs []string
}

// RetentionConfig bounds how much scan history is kept.
type RetentionConfig struct {
	MaxScans   int `yaml:"max_scans" koanf:"max_scans"`
	MaxAgeDays int `yaml:"max_age_days" koanf:"max_age_days"`
}

// IsEnabled reports whether any retention limit is configured.
func (r RetentionConfig) IsEnabled() bool {
	return r.MaxScans > 0 || r.MaxAgeDays > 0
}

// Validate rejects negative retention limits.
func (r RetentionConfig) Validate() error {
	if r.MaxScans < 0 {
		return NewInvalidInputError("max_scans", "must not be negative")
	}
	if r.MaxAgeDays < 0 {
		return NewInvalidInputError("max_age_days", "must not be negative")
	}
	return nil
}
