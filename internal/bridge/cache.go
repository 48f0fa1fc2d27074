package bridge

import (
	"sort"
	"sync"
)

// AccessoryCache is the shared zone→accessory mapping. The reconciler is the
// sole writer of structural membership (Put/Remove/Replace); the propagation
// engine is the sole writer of cached observable fields (SetPowerState/
// SetVolumeState). Lookups are keyed by derived UUID and by zone id, both
// O(1).
type AccessoryCache struct {
	mu     sync.RWMutex
	byUUID map[string]AccessoryRecord
	byZone map[string]string
}

func NewAccessoryCache() *AccessoryCache {
	return &AccessoryCache{
		byUUID: make(map[string]AccessoryRecord),
		byZone: make(map[string]string),
	}
}

// Put inserts or replaces an accessory record.
func (c *AccessoryCache) Put(record AccessoryRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.byUUID[record.UUID]; ok && existing.ZoneID != record.ZoneID {
		delete(c.byZone, existing.ZoneID)
	}
	c.byUUID[record.UUID] = record
	c.byZone[record.ZoneID] = record.UUID
}

// Remove deletes an accessory by UUID.
func (c *AccessoryCache) Remove(uuid string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	record, ok := c.byUUID[uuid]
	if !ok {
		return
	}
	delete(c.byUUID, uuid)
	delete(c.byZone, record.ZoneID)
}

// Get returns an accessory by UUID.
func (c *AccessoryCache) Get(uuid string) (AccessoryRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.byUUID[uuid]
	return record, ok
}

// GetByZone resolves a zone id to its bound accessory.
func (c *AccessoryCache) GetByZone(zoneID string) (AccessoryRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	uuid, ok := c.byZone[zoneID]
	if !ok {
		return AccessoryRecord{}, false
	}
	record, ok := c.byUUID[uuid]
	return record, ok
}

// Snapshot returns all records ordered by display name, zone id as
// tiebreaker.
func (c *AccessoryCache) Snapshot() []AccessoryRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	records := make([]AccessoryRecord, 0, len(c.byUUID))
	for _, record := range c.byUUID {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].DisplayName != records[j].DisplayName {
			return records[i].DisplayName < records[j].DisplayName
		}
		return records[i].ZoneID < records[j].ZoneID
	})
	return records
}

// Len returns the number of cached accessories.
func (c *AccessoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byUUID)
}

// SetPowerState updates the cached power of the accessory bound to zoneID.
// Returns the updated record, or false when no accessory is bound — callers
// skip unresolved zones rather than fail.
func (c *AccessoryCache) SetPowerState(zoneID string, on bool) (AccessoryRecord, bool) {
	return c.mutate(zoneID, func(record *AccessoryRecord) {
		record.Power = on
	})
}

// SetVolumeState updates the cached volume of the accessory bound to zoneID.
func (c *AccessoryCache) SetVolumeState(zoneID string, volume int) (AccessoryRecord, bool) {
	return c.mutate(zoneID, func(record *AccessoryRecord) {
		record.Volume = volume
	})
}

func (c *AccessoryCache) mutate(zoneID string, apply func(*AccessoryRecord)) (AccessoryRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	uuid, ok := c.byZone[zoneID]
	if !ok {
		return AccessoryRecord{}, false
	}
	record, ok := c.byUUID[uuid]
	if !ok {
		return AccessoryRecord{}, false
	}
	apply(&record)
	c.byUUID[uuid] = record
	return record, true
}
