package bridge

import (
	"context"
	"log"
	"sync"

	"github.com/biggyd143/homebridge-casatunes/internal/casatunes"
)

// Engine applies user-issued state changes and fans group writes out to the
// member accessories. Exactly one network write goes to CasaTunes per change;
// the group write already changed every underlying zone server-side, so
// member reflection is local cache mutation only.
//
// Writes to the same zone id are serialized to avoid lost updates against the
// server's own state; writes to different zones may interleave.
type Engine struct {
	client   ZoneClient
	cache    *AccessoryCache
	registry Registry
	logger   *log.Logger

	mu        sync.Mutex
	zoneLocks map[string]*sync.Mutex
}

func NewEngine(client ZoneClient, cache *AccessoryCache, registry Registry, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		client:    client,
		cache:     cache,
		registry:  registry,
		logger:    logger,
		zoneLocks: make(map[string]*sync.Mutex),
	}
}

// SetPower switches a zone on or off and reflects the value across the
// zone's group members.
func (e *Engine) SetPower(ctx context.Context, zoneID string, on bool) error {
	lock := e.zoneLock(zoneID)
	lock.Lock()
	defer lock.Unlock()

	zone, err := e.client.SetPower(ctx, zoneID, on)
	if err != nil {
		// Cached accessory state stays untouched on a failed write.
		return err
	}

	e.reflect(zone, zoneID, func(memberZoneID string) (AccessoryRecord, bool) {
		return e.cache.SetPowerState(memberZoneID, on)
	})
	return nil
}

// SetVolume sets a zone's volume and reflects it across group members.
func (e *Engine) SetVolume(ctx context.Context, zoneID string, volume int) error {
	lock := e.zoneLock(zoneID)
	lock.Lock()
	defer lock.Unlock()

	zone, err := e.client.SetVolume(ctx, zoneID, volume)
	if err != nil {
		return err
	}

	e.reflect(zone, zoneID, func(memberZoneID string) (AccessoryRecord, bool) {
		return e.cache.SetVolumeState(memberZoneID, volume)
	})
	return nil
}

// GetPower reads a zone's authoritative power state. Always a fresh read:
// other clients (mobile app, voice control) mutate zones concurrently, so
// the cache is never trusted on the read path.
func (e *Engine) GetPower(ctx context.Context, zoneID string) (bool, error) {
	zone, err := e.client.GetZone(ctx, zoneID)
	if err != nil {
		return false, err
	}
	e.cache.SetPowerState(zoneID, bool(zone.Power))
	return bool(zone.Power), nil
}

// GetVolume reads a zone's authoritative volume.
func (e *Engine) GetVolume(ctx context.Context, zoneID string) (int, error) {
	zone, err := e.client.GetZone(ctx, zoneID)
	if err != nil {
		return 0, err
	}
	e.cache.SetVolumeState(zoneID, zone.Volume)
	return zone.Volume, nil
}

// reflect updates the target accessory and, for shared zones, every member
// accessory reachable in the current cache. Members without a bound
// accessory are skipped; the next reconciliation cycle picks them up.
func (e *Engine) reflect(zone casatunes.Zone, targetZoneID string, apply func(string) (AccessoryRecord, bool)) {
	seen := map[string]struct{}{targetZoneID: {}}
	if record, ok := apply(targetZoneID); ok {
		e.notify(record)
	}

	if !bool(zone.Shared) {
		return
	}

	for _, member := range zone.ZoneGroupInfo {
		if _, done := seen[member.ZoneID]; done {
			continue
		}
		seen[member.ZoneID] = struct{}{}

		record, ok := apply(member.ZoneID)
		if !ok {
			e.logger.Printf("Group member %s has no bound accessory, skipping reflection", member.ZoneID)
			continue
		}
		e.notify(record)
	}
}

func (e *Engine) notify(record AccessoryRecord) {
	if e.registry == nil {
		return
	}
	if err := e.registry.UpdateAccessory(record); err != nil {
		e.logger.Printf("Registry update failed for accessory %s: %v", record.UUID, err)
	}
}

func (e *Engine) zoneLock(zoneID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.zoneLocks[zoneID]
	if !ok {
		lock = &sync.Mutex{}
		e.zoneLocks[zoneID] = lock
	}
	return lock
}
