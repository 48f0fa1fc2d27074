// Package registry keeps the accessory set the bridge currently exposes to
// controllers. It is the process-local stand-in for the host accessory
// runtime and serves the read side of the accessory routes.
package registry

import (
	"sort"
	"sync"

	"github.com/biggyd143/homebridge-casatunes/internal/bridge"
)

// Memory is a concurrency-safe accessory registry keyed by UUID.
type Memory struct {
	mu     sync.RWMutex
	byUUID map[string]bridge.AccessoryRecord
}

func NewMemory() *Memory {
	return &Memory{
		byUUID: make(map[string]bridge.AccessoryRecord),
	}
}

// AddAccessory registers an accessory. Adding an already registered UUID
// replaces the record, which keeps restore and reconcile idempotent.
func (m *Memory) AddAccessory(record bridge.AccessoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byUUID[record.UUID] = record
	return nil
}

// UpdateAccessory replaces the record for an existing accessory. Unknown
// UUIDs are registered rather than rejected; an update racing a restore must
// not lose state.
func (m *Memory) UpdateAccessory(record bridge.AccessoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byUUID[record.UUID] = record
	return nil
}

// RemoveAccessory unregisters an accessory. Removing an unknown UUID is a
// no-op.
func (m *Memory) RemoveAccessory(uuid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byUUID, uuid)
	return nil
}

// Get returns an accessory by UUID.
func (m *Memory) Get(uuid string) (bridge.AccessoryRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.byUUID[uuid]
	return record, ok
}

// List returns all registered accessories ordered by display name, zone id
// as tiebreaker.
func (m *Memory) List() []bridge.AccessoryRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]bridge.AccessoryRecord, 0, len(m.byUUID))
	for _, record := range m.byUUID {
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

// Len returns the number of registered accessories.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byUUID)
}
