package bridge

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Store restores the previously persisted accessory set at startup. Ongoing
// persistence flows through the Registry contract.
type Store interface {
	LoadAccessories() ([]AccessoryRecord, error)
}

// RefreshSummary reports one reconciliation cycle.
type RefreshSummary struct {
	Created    int   `json:"created"`
	Kept       int   `json:"kept"`
	Removed    int   `json:"removed"`
	DurationMs int64 `json:"duration_ms"`
}

type refreshResult struct {
	summary RefreshSummary
	err     error
}

// Service owns the bridge lifecycle: it restores the cached accessory set,
// runs fetch-and-reconcile cycles on a schedule, and applies the resulting
// plan to the accessory cache and the host registry. It is the explicitly
// owned context object for the whole bridge; no hidden globals.
type Service struct {
	logger   *log.Logger
	fetcher  *Fetcher
	cache    *AccessoryCache
	registry Registry
	store    Store
	schedule string

	platformMu     sync.RWMutex
	platform       PlatformInfo
	platformLoaded bool

	refreshMu       sync.Mutex
	refreshInFlight bool
	refreshWaiters  []chan refreshResult

	cron *cron.Cron
}

func NewService(fetcher *Fetcher, cache *AccessoryCache, registry Registry, store Store, schedule string, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		logger:   logger,
		fetcher:  fetcher,
		cache:    cache,
		registry: registry,
		store:    store,
		schedule: schedule,
	}
}

// Start restores persisted accessories, runs the initial reconciliation
// cycle, and schedules periodic rediscovery. A failed initial cycle is
// logged, not fatal: the restored set stays visible until a cycle succeeds.
func (s *Service) Start(ctx context.Context) error {
	s.restoreAccessories()

	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Printf("Initial zone discovery failed: %v", err)
	}

	if s.schedule == "" {
		s.logger.Print("Periodic rediscovery disabled")
		return nil
	}

	runner := cron.New()
	_, err := runner.AddFunc(s.schedule, func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.Refresh(refreshCtx); err != nil {
			s.logger.Printf("Scheduled rediscovery failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron = runner
	runner.Start()
	s.logger.Printf("Scheduled rediscovery: %s", s.schedule)
	return nil
}

// Stop halts periodic rediscovery and waits for a running cycle to finish.
func (s *Service) Stop() {
	if s.cron != nil {
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
		s.cron = nil
	}
}

// PlatformInfo returns the cached server identity.
func (s *Service) PlatformInfo() (PlatformInfo, bool) {
	s.platformMu.RLock()
	defer s.platformMu.RUnlock()
	return s.platform, s.platformLoaded
}

// Refresh runs one fetch-and-reconcile cycle. Concurrent callers coalesce
// onto the in-flight cycle and share its result.
func (s *Service) Refresh(ctx context.Context) (RefreshSummary, error) {
	s.refreshMu.Lock()
	if s.refreshInFlight {
		ch := make(chan refreshResult, 1)
		s.refreshWaiters = append(s.refreshWaiters, ch)
		s.refreshMu.Unlock()
		result := <-ch
		return result.summary, result.err
	}
	s.refreshInFlight = true
	s.refreshMu.Unlock()

	result := s.runRefresh(ctx)

	s.refreshMu.Lock()
	waiters := s.refreshWaiters
	s.refreshWaiters = nil
	s.refreshInFlight = false
	s.refreshMu.Unlock()

	for _, ch := range waiters {
		ch <- result
		close(ch)
	}

	return result.summary, result.err
}

// runRefresh fetches platform info and the zone list, diffs against the
// current accessory set, and applies the plan. A failed fetch aborts the
// cycle before reconciliation: "empty because the fetch failed" must never
// be mistaken for "truly no zones", or every accessory would be removed.
func (s *Service) runRefresh(ctx context.Context) refreshResult {
	start := time.Now()

	platform, err := s.loadPlatformInfo(ctx)
	if err != nil {
		return refreshResult{err: err}
	}

	zones, err := s.fetcher.FetchZones(ctx)
	if err != nil {
		return refreshResult{err: err}
	}

	plan := Reconcile(s.cache.Snapshot(), zones)

	for _, zone := range plan.ToCreate {
		record := buildAccessory(zone, platform)
		s.cache.Put(record)
		if err := s.registry.AddAccessory(record); err != nil {
			s.logger.Printf("Registry add failed for accessory %s: %v", record.UUID, err)
		}
		s.logger.Printf("Accessory added: %s (zone %s)", record.DisplayName, record.ZoneID)
	}

	for _, pair := range plan.ToKeep {
		record := refreshAccessory(pair.Accessory, pair.Zone, platform)
		s.cache.Put(record)
		if err := s.registry.UpdateAccessory(record); err != nil {
			s.logger.Printf("Registry update failed for accessory %s: %v", record.UUID, err)
		}
	}

	for _, record := range plan.ToRemove {
		s.cache.Remove(record.UUID)
		if err := s.registry.RemoveAccessory(record.UUID); err != nil {
			s.logger.Printf("Registry remove failed for accessory %s: %v", record.UUID, err)
		}
		s.logger.Printf("Accessory removed: %s (zone %s)", record.DisplayName, record.ZoneID)
	}

	summary := RefreshSummary{
		Created:    len(plan.ToCreate),
		Kept:       len(plan.ToKeep),
		Removed:    len(plan.ToRemove),
		DurationMs: time.Since(start).Milliseconds(),
	}
	s.logger.Printf("Reconciliation cycle: created=%d kept=%d removed=%d duration=%dms",
		summary.Created, summary.Kept, summary.Removed, summary.DurationMs)

	return refreshResult{summary: summary}
}

// loadPlatformInfo fetches server identity, keeping the previous value when
// a later fetch fails. With no identity at all the cycle cannot build
// accessory metadata and aborts.
func (s *Service) loadPlatformInfo(ctx context.Context) (PlatformInfo, error) {
	platform, err := s.fetcher.FetchPlatformInfo(ctx)
	if err != nil {
		s.platformMu.RLock()
		loaded := s.platformLoaded
		previous := s.platform
		s.platformMu.RUnlock()

		if loaded {
			s.logger.Printf("Platform info refresh failed, keeping previous identity: %v", err)
			return previous, nil
		}
		return PlatformInfo{}, err
	}

	s.platformMu.Lock()
	s.platform = platform
	s.platformLoaded = true
	s.platformMu.Unlock()
	return platform, nil
}

func (s *Service) restoreAccessories() {
	if s.store == nil {
		return
	}
	records, err := s.store.LoadAccessories()
	if err != nil {
		s.logger.Printf("Restoring persisted accessories failed: %v", err)
		return
	}
	for _, record := range records {
		s.cache.Put(record)
		if err := s.registry.AddAccessory(record); err != nil {
			s.logger.Printf("Registry restore failed for accessory %s: %v", record.UUID, err)
		}
	}
	if len(records) > 0 {
		s.logger.Printf("Restored %d persisted accessories", len(records))
	}
}

func buildAccessory(zone ZoneRecord, platform PlatformInfo) AccessoryRecord {
	return AccessoryRecord{
		UUID:             DeriveUUID(zone.ID),
		DisplayName:      zone.Name,
		ZoneID:           zone.ID,
		Power:            zone.Power,
		Volume:           zone.Volume,
		Manufacturer:     platform.Manufacturer,
		Model:            platform.Model,
		SoftwareRevision: platform.SoftwareRevision,
		FirmwareRevision: NotApplicable,
		SerialNumber:     NotApplicable,
	}
}

func refreshAccessory(existing AccessoryRecord, zone ZoneRecord, platform PlatformInfo) AccessoryRecord {
	existing.DisplayName = zone.Name
	existing.ZoneID = zone.ID
	existing.Power = zone.Power
	existing.Volume = zone.Volume
	existing.Manufacturer = platform.Manufacturer
	existing.Model = platform.Model
	existing.SoftwareRevision = platform.SoftwareRevision
	existing.FirmwareRevision = NotApplicable
	existing.SerialNumber = NotApplicable
	return existing
}
