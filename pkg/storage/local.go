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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"
)

// LocalBackend is the CE storage backend: scan metadata and artifacts
// live as plain files under Config.WorkspaceRoot. A gofrs/flock file
// lock beside metadata.json serializes Create and Update across
// processes; Get, List and the data readers take no lock. The mutex
// only guards the closed flag.
type LocalBackend struct {
	root string
	mu   sync.RWMutex

	closed bool
}

// NewLocalBackend validates cfg and returns a LocalBackend rooted at
// cfg.WorkspaceRoot. Call Initialize before using it.
func NewLocalBackend(ctx context.Context, cfg *Config) (Backend, error) {
	if cfg == nil {
		return nil, NewInvalidInputError("workspace_root", "configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &LocalBackend{root: cfg.WorkspaceRoot}, nil
}

// Initialize creates the backend's directory layout if it doesn't exist.
func (b *LocalBackend) Initialize(ctx context.Context) error {
	dirs := []string{"scans", "queue", "cache", "logs", "reports", "audit"}
	for _, dir := range dirs {
		path := filepath.Join(b.root, dir)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return WithErrorCode(fmt.Errorf("create %s: %w", dir, err), errorCodeWorkspaceInvalid)
		}
	}
	return nil
}

// Scans returns the local filesystem scan store.
func (b *LocalBackend) Scans() ScanStore {
	return &localScanStore{root: filepath.Join(b.root, "scans")}
}

// Close is a no-op for LocalBackend; no long-lived handles are held
// between calls, and it may be invoked more than once.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// GarbageCollect deletes scans that fall outside the configured
// retention policy, oldest first.
func (b *LocalBackend) GarbageCollect(ctx context.Context, opts GCOptions) (*GCResult, error) {
	result := &GCResult{}

	if opts.Retention == nil || !opts.Retention.IsEnabled() {
		return result, nil
	}
	if err := opts.Retention.Validate(); err != nil {
		return nil, FormatRetentionValidationError(err)
	}

	store := b.Scans().(*localScanStore)
	orgDirs, err := os.ReadDir(store.root)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, WithErrorCode(err, errorCodeStorageFailure)
	}

	for _, orgDir := range orgDirs {
		if !orgDir.IsDir() {
			continue
		}
		orgID := orgDir.Name()

		scans, err := store.List(ctx, orgID, ScanFilter{})
		if err != nil {
			return nil, err
		}
		sort.Slice(scans, func(i, j int) bool {
			return scans[i].StartedAt.Before(scans[j].StartedAt)
		})

		toDelete := map[string]bool{}
		if opts.Retention.MaxAgeDays > 0 {
			cutoff := time.Now().AddDate(0, 0, -opts.Retention.MaxAgeDays)
			for _, s := range scans {
				if s.StartedAt.Before(cutoff) {
					toDelete[s.ID] = true
				}
			}
		}
		if opts.Retention.MaxScans > 0 {
			survivors := 0
			for _, s := range scans {
				if toDelete[s.ID] {
					continue
				}
				survivors++
			}
			if survivors > opts.Retention.MaxScans {
				excess := survivors - opts.Retention.MaxScans
				for _, s := range scans {
					if excess == 0 {
						break
					}
					if toDelete[s.ID] {
						continue
					}
					toDelete[s.ID] = true
					excess--
				}
			}
		}

		for _, s := range scans {
			if !toDelete[s.ID] {
				continue
			}
			result.ScansDeleted++
			result.DeletedScanIDs = append(result.DeletedScanIDs, s.ID)
			if opts.DryRun {
				continue
			}
			if err := store.Delete(ctx, orgID, s.ID); err != nil && !IsNotFound(err) {
				return nil, err
			}
		}
	}

	log.Info().
		Int("scans_deleted", result.ScansDeleted).
		Bool("dry_run", opts.DryRun).
		Msg("storage garbage collection complete")

	return result, nil
}

// localScanStore implements ScanStore on top of a flat directory tree:
// <root>/<orgID>/<scanID>/metadata.json plus one file per DataType.
type localScanStore struct {
	root string
}

func (s *localScanStore) scanDir(orgID, scanID string) string {
	return filepath.Join(s.root, orgID, scanID)
}

func (s *localScanStore) metadataPath(orgID, scanID string) string {
	return filepath.Join(s.scanDir(orgID, scanID), string(DataTypeMetadata))
}

func (s *localScanStore) lockPath(orgID, scanID string) string {
	return s.metadataPath(orgID, scanID) + ".lock"
}

func (s *localScanStore) Create(ctx context.Context, orgID string, scan *ScanMetadata) error {
	if scan.ID == "" {
		return NewInvalidInputError("id", "scan ID is required")
	}
	if scan.Target == "" {
		return NewInvalidInputError("target", "scan target is required")
	}

	dir := s.scanDir(orgID, scan.ID)
	if _, err := os.Stat(dir); err == nil {
		return NewAlreadyExistsError("scan", scan.ID)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return WithErrorCode(err, errorCodeWorkspaceInvalid)
	}

	lock := flock.New(s.lockPath(orgID, scan.ID))
	if err := lock.Lock(); err != nil {
		return WithErrorCode(fmt.Errorf("lock scan %s: %w", scan.ID, err), errorCodeStorageFailure)
	}
	defer lock.Unlock()

	now := time.Now()
	scan.OrgID = orgID
	scan.CreatedAt = now
	scan.UpdatedAt = now

	return s.writeMetadata(orgID, scan)
}

func (s *localScanStore) Get(ctx context.Context, orgID, scanID string) (*ScanMetadata, error) {
	data, err := os.ReadFile(s.metadataPath(orgID, scanID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewNotFoundError("scan", scanID)
		}
		return nil, WithErrorCode(err, errorCodeStorageFailure)
	}

	var meta ScanMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, WithErrorCode(fmt.Errorf("decode metadata for scan %s: %w", scanID, err), errorCodeStorageFailure)
	}
	return &meta, nil
}

func (s *localScanStore) Update(ctx context.Context, orgID, scanID string, updates ScanUpdates) error {
	lock := flock.New(s.lockPath(orgID, scanID))
	if err := lock.Lock(); err != nil {
		return WithErrorCode(fmt.Errorf("lock scan %s: %w", scanID, err), errorCodeStorageFailure)
	}
	defer lock.Unlock()

	meta, err := s.Get(ctx, orgID, scanID)
	if err != nil {
		return err
	}

	if updates.Status != nil {
		meta.Status = *updates.Status
	}
	if updates.CompletedAt != nil {
		meta.CompletedAt = *updates.CompletedAt
	}
	if updates.Duration != nil {
		meta.Duration = *updates.Duration
	}
	if updates.HostCount != nil {
		meta.HostCount = *updates.HostCount
	}
	if updates.ServiceCount != nil {
		meta.ServiceCount = *updates.ServiceCount
	}
	if updates.VulnCount != nil {
		meta.VulnCount = *updates.VulnCount
	}
	meta.UpdatedAt = time.Now()

	return s.writeMetadata(orgID, meta)
}

func (s *localScanStore) Delete(ctx context.Context, orgID, scanID string) error {
	dir := s.scanDir(orgID, scanID)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return NewNotFoundError("scan", scanID)
		}
		return WithErrorCode(err, errorCodeStorageFailure)
	}
	if err := os.RemoveAll(dir); err != nil {
		return WithErrorCode(err, errorCodeStorageFailure)
	}
	return nil
}

func (s *localScanStore) List(ctx context.Context, orgID string, filter ScanFilter) ([]*ScanMetadata, error) {
	orgDir := filepath.Join(s.root, orgID)
	entries, err := os.ReadDir(orgDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, WithErrorCode(err, errorCodeStorageFailure)
	}

	var all []*ScanMetadata
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Get(ctx, orgID, entry.Name())
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if filter.Status != "" && meta.Status != filter.Status {
			continue
		}
		if filter.Target != "" && !strings.Contains(meta.Target, filter.Target) {
			continue
		}
		all = append(all, meta)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].StartedAt.Before(all[j].StartedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(all) {
			return nil, nil
		}
		all = all[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}

	return all, nil
}

func (s *localScanStore) WriteData(ctx context.Context, orgID, scanID string, dataType DataType, r io.Reader) error {
	if !dataType.IsValid() {
		return NewInvalidInputError("data_type", fmt.Sprintf("unrecognized data type %q", dataType))
	}
	if _, err := s.Get(ctx, orgID, scanID); err != nil {
		return err
	}

	path := filepath.Join(s.scanDir(orgID, scanID), string(dataType))
	f, err := os.Create(path)
	if err != nil {
		return WithErrorCode(err, errorCodeWorkspaceInvalid)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return WithErrorCode(err, errorCodeStorageFailure)
	}
	return nil
}

func (s *localScanStore) AppendData(ctx context.Context, orgID, scanID string, dataType DataType, line []byte) error {
	if !dataType.IsValid() {
		return NewInvalidInputError("data_type", fmt.Sprintf("unrecognized data type %q", dataType))
	}
	if _, err := s.Get(ctx, orgID, scanID); err != nil {
		return err
	}

	path := filepath.Join(s.scanDir(orgID, scanID), string(dataType))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return WithErrorCode(err, errorCodeWorkspaceInvalid)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return WithErrorCode(err, errorCodeStorageFailure)
	}
	return nil
}

func (s *localScanStore) ReadData(ctx context.Context, orgID, scanID string, dataType DataType) (io.ReadCloser, error) {
	if !dataType.IsValid() {
		return nil, NewInvalidInputError("data_type", fmt.Sprintf("unrecognized data type %q", dataType))
	}

	path := filepath.Join(s.scanDir(orgID, scanID), string(dataType))
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewNotFoundError(string(dataType), scanID)
		}
		return nil, WithErrorCode(err, errorCodeStorageFailure)
	}
	return f, nil
}

func (s *localScanStore) GetAnalytics(ctx context.Context, orgID string, period TimePeriod) (*Analytics, error) {
	return nil, ErrNotSupported
}

func (s *localScanStore) writeMetadata(orgID string, meta *ScanMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return WithErrorCode(fmt.Errorf("encode metadata for scan %s: %w", meta.ID, err), errorCodeStorageFailure)
	}
	if err := os.WriteFile(s.metadataPath(orgID, meta.ID), data, 0o644); err != nil {
		return WithErrorCode(err, errorCodeWorkspaceInvalid)
	}
	return nil
}

func init() {
	DefaultFactory = NewLocalBackend
}
