package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/vulntor/vulntor/pkg/portscan"
	"github.com/vulntor/vulntor/pkg/server/api"
	"github.com/vulntor/vulntor/pkg/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CreateScanRequest is the body of POST /api/v1/scans.
type CreateScanRequest struct {
	Target string `json:"target"`
	Mode   string `json:"mode"` // quick | standard | full
}

// CreateScanHandler handles POST /api/v1/scans.
//
// It resolves the target, starts a portscan.ScanHandle against it using
// the server's default scan configuration, and persists a pending
// ScanMetadata record immediately so GET /api/v1/scans/{id} can be
// polled while the scan runs in the background. The handler does not
// wait for the scan to finish.
func CreateScanHandler(deps *api.Deps, cfg portscan.ScanConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateScanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Target == "" {
			http.Error(w, "target is required", http.StatusBadRequest)
			return
		}
		if deps.Storage == nil {
			log.Error().Str("component", "api").Msg("No storage backend configured")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		mode, err := parseScanMode(req.Mode)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		scanID := uuid.NewString()
		meta := &storage.ScanMetadata{
			ID:        scanID,
			UserID:    "local",
			Target:    req.Target,
			Status:    string(storage.StatusPending),
			StartedAt: time.Now(),
		}
		if err := deps.Storage.Scans().Create(r.Context(), "default", meta); err != nil {
			log.Error().Str("component", "api").Err(err).Msg("Failed to persist scan metadata")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		go runBackgroundScan(deps.Storage, scanID, req.Target, mode, cfg)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": scanID, "status": string(storage.StatusPending)})
	}
}

func parseScanMode(mode string) (portscan.ScanMode, error) {
	switch mode {
	case "", "quick":
		return portscan.QuickMode(), nil
	case "standard":
		return portscan.StandardMode(), nil
	case "full":
		return portscan.FullMode(), nil
	default:
		return portscan.ScanMode{}, &ValidationError{Field: "mode", Reason: "must be one of: quick,standard,full"}
	}
}

// runBackgroundScan drives a scan to completion and writes its result
// back to storage. It owns no HTTP state and is safe to run detached
// from the request that triggered it.
func runBackgroundScan(backend storage.Backend, scanID, target string, mode portscan.ScanMode, cfg portscan.ScanConfig) {
	ctx := context.Background()
	logger := log.With().Str("component", "scan_runner").Str("scan_id", scanID).Logger()

	running := string(storage.StatusRunning)
	if err := backend.Scans().Update(ctx, "default", scanID, storage.ScanUpdates{Status: &running}); err != nil {
		logger.Warn().Err(err).Msg("failed to mark scan running")
	}

	handle, err := portscan.Start(ctx, target, mode, cfg)
	if err != nil {
		failed := string(storage.StatusFailed)
		_ = backend.Scans().Update(ctx, "default", scanID, storage.ScanUpdates{Status: &failed})
		logger.Error().Err(err).Msg("scan failed to start")
		return
	}

	result, err := handle.Await(ctx)
	status := string(storage.StatusCompleted)
	if err != nil {
		status = string(storage.StatusFailed)
		logger.Error().Err(err).Msg("scan ended with error")
	}

	completedAt := result.End
	duration := int(result.Statistics.ScanDuration.Duration().Seconds())
	hostCount := 1
	serviceCount := 0
	for _, o := range result.Outcomes {
		if o.Service != nil && o.Service.Name != "unknown" {
			serviceCount++
		}
	}

	if err := backend.Scans().WriteData(ctx, "default", scanID, storage.DataTypeHosts, resultReader(result)); err != nil {
		logger.Warn().Err(err).Msg("failed to persist scan outcomes")
	}

	if err := backend.Scans().Update(ctx, "default", scanID, storage.ScanUpdates{
		Status:       &status,
		CompletedAt:  &completedAt,
		Duration:     &duration,
		HostCount:    &hostCount,
		ServiceCount: &serviceCount,
	}); err != nil {
		logger.Error().Err(err).Msg("failed to persist scan completion")
	}
}

// ListScansHandler handles GET /api/v1/scans
//
// Returns a JSON array of scan metadata (id, status, start time, target count).
// This is a lightweight endpoint for listing scans without full details.
//
// Response format:
//
//	[
//	  {"id": "scan-1", "status": "completed", "start_time": "2024-01-01T00:00:00Z", "targets": 10},
//	  {"id": "scan-2", "status": "running", "start_time": "2024-01-02T00:00:00Z", "targets": 5}
//	]
func ListScansHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var scans []api.ScanMetadata
		var err error

		// Try new storage backend first, fall back to workspace
		if deps.Storage != nil {
			scans, err = listScansFromStorage(r.Context(), deps.Storage)
		} else if deps.Workspace != nil {
			scans, err = deps.Workspace.ListScans()
		} else {
			log.Error().
				Str("component", "api").
				Msg("No storage backend configured")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if err != nil {
			log.Error().
				Str("component", "api").
				Err(err).
				Msg("Failed to list scans")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(scans); err != nil {
			log.Error().
				Str("component", "api").
				Err(err).
				Msg("Failed to encode response")
		}
	}
}

// GetScanHandler handles GET /api/v1/scans/{id}
//
// Returns full scan details including results for a specific scan ID.
//
// Path parameter:
//   - id: Scan identifier
//
// Response format:
//
//	{
//	  "id": "scan-1",
//	  "status": "completed",
//	  "start_time": "2024-01-01T00:00:00Z",
//	  "end_time": "2024-01-01T00:05:00Z",
//	  "results": {
//	    "hosts_found": 10,
//	    "ports_open": 25,
//	    "vulnerabilities": []
//	  }
//	}
//
// Returns 404 if scan not found.
func GetScanHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		var scan *api.ScanDetail
		var err error

		// Try new storage backend first, fall back to workspace
		if deps.Storage != nil {
			scan, err = getScanFromStorage(r.Context(), deps.Storage, id)
		} else if deps.Workspace != nil {
			scan, err = deps.Workspace.GetScan(id)
		} else {
			log.Error().
				Str("component", "api").
				Msg("No storage backend configured")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if err != nil {
			if storage.IsNotFound(err) {
				log.Warn().
					Str("component", "api").
					Str("scan_id", id).
					Msg("Scan not found")
				http.Error(w, "Not Found", http.StatusNotFound)
				return
			}

			log.Error().
				Str("component", "api").
				Str("scan_id", id).
				Err(err).
				Msg("Failed to get scan")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(scan); err != nil {
			log.Error().
				Str("component", "api").
				Err(err).
				Msg("Failed to encode response")
		}
	}
}

// resultReader serializes a scan's port outcomes as newline-delimited
// JSON for storage under DataTypeHosts, one line per outcome.
func resultReader(result portscan.ScanResult) io.Reader {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, outcome := range result.Outcomes {
		_ = enc.Encode(outcome)
	}
	return &buf
}

// listScansFromStorage converts storage scan metadata to API format
func listScansFromStorage(ctx context.Context, backend storage.Backend) ([]api.ScanMetadata, error) {
	// Get all scans from storage (orgID="default" for OSS)
	storageScans, err := backend.Scans().List(ctx, "default", storage.ScanFilter{})
	if err != nil {
		return nil, err
	}

	// Convert to API format
	apiScans := make([]api.ScanMetadata, 0, len(storageScans))
	for _, s := range storageScans {
		apiScans = append(apiScans, api.ScanMetadata{
			ID:        s.ID,
			StartTime: s.StartedAt.Format("2006-01-02T15:04:05Z"),
			Status:    s.Status,
			Targets:   1, // TODO: Calculate from target string (e.g., CIDR range)
		})
	}

	return apiScans, nil
}

// getScanFromStorage retrieves scan details from storage and converts to API format
func getScanFromStorage(ctx context.Context, backend storage.Backend, scanID string) (*api.ScanDetail, error) {
	// Get scan metadata
	metadata, err := backend.Scans().Get(ctx, "default", scanID)
	if err != nil {
		return nil, err
	}

	// Build results map
	results := map[string]interface{}{
		"hosts_found":      metadata.HostCount,
		"services_found":   metadata.ServiceCount,
		"vulnerabilities":  metadata.VulnCount.Total(),
		"vuln_critical":    metadata.VulnCount.Critical,
		"vuln_high":        metadata.VulnCount.High,
		"vuln_medium":      metadata.VulnCount.Medium,
		"vuln_low":         metadata.VulnCount.Low,
		"vuln_info":        metadata.VulnCount.Info,
		"duration_seconds": metadata.Duration,
		"storage_location": metadata.StorageLocation,
	}

	// Add error message if scan failed
	if metadata.ErrorMessage != "" {
		results["error"] = metadata.ErrorMessage
	}

	// Convert to API format
	detail := &api.ScanDetail{
		ID:        metadata.ID,
		StartTime: metadata.StartedAt.Format("2006-01-02T15:04:05Z"),
		Status:    metadata.Status,
		Results:   results,
	}

	// Add end time if scan completed
	if !metadata.CompletedAt.IsZero() {
		detail.EndTime = metadata.CompletedAt.Format("2006-01-02T15:04:05Z")
	}

	return detail, nil
}
