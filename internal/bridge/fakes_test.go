package bridge

import (
	"context"
	"sync"

	"github.com/biggyd143/homebridge-casatunes/internal/apperrors"
	"github.com/biggyd143/homebridge-casatunes/internal/casatunes"
)

// fakeZoneClient is an in-memory stand-in for the CasaTunes transport. Writes
// mutate the stored zone and return the post-write state, matching the real
// service.
type fakeZoneClient struct {
	mu         sync.Mutex
	systemInfo casatunes.SystemInfo
	systemErr  error
	zones      map[string]casatunes.Zone
	order      []string
	listErr    error
	writeErr   error
	listCalls  int
	getCalls   int
	writeCalls int
}

func newFakeZoneClient() *fakeZoneClient {
	return &fakeZoneClient{
		systemInfo: casatunes.SystemInfo{
			AppName:          "CasaTunes",
			CasaTunesVersion: "10.5.1",
		},
		zones: make(map[string]casatunes.Zone),
	}
}

func (f *fakeZoneClient) addZone(zone casatunes.Zone) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.zones[zone.PersistentZoneID]; !ok {
		f.order = append(f.order, zone.PersistentZoneID)
	}
	f.zones[zone.PersistentZoneID] = zone
}

func (f *fakeZoneClient) removeZone(zoneID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.zones, zoneID)
	order := f.order[:0]
	for _, id := range f.order {
		if id != zoneID {
			order = append(order, id)
		}
	}
	f.order = order
}

func (f *fakeZoneClient) GetSystemInfo(ctx context.Context) (casatunes.SystemInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.systemErr != nil {
		return casatunes.SystemInfo{}, f.systemErr
	}
	return f.systemInfo, nil
}

func (f *fakeZoneClient) ListZones(ctx context.Context) ([]casatunes.Zone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	zones := make([]casatunes.Zone, 0, len(f.order))
	for _, id := range f.order {
		zones = append(zones, f.zones[id])
	}
	return zones, nil
}

func (f *fakeZoneClient) GetZone(ctx context.Context, zoneID string) (casatunes.Zone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	zone, ok := f.zones[zoneID]
	if !ok {
		return casatunes.Zone{}, apperrors.NewNotFoundResource("Zone", zoneID)
	}
	return zone, nil
}

func (f *fakeZoneClient) SetPower(ctx context.Context, zoneID string, on bool) (casatunes.Zone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeCalls++
	if f.writeErr != nil {
		return casatunes.Zone{}, f.writeErr
	}
	zone, ok := f.zones[zoneID]
	if !ok {
		return casatunes.Zone{}, apperrors.NewNotFoundResource("Zone", zoneID)
	}
	zone.Power = casatunes.FlexBool(on)
	f.zones[zoneID] = zone
	return zone, nil
}

func (f *fakeZoneClient) SetVolume(ctx context.Context, zoneID string, volume int) (casatunes.Zone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeCalls++
	if f.writeErr != nil {
		return casatunes.Zone{}, f.writeErr
	}
	zone, ok := f.zones[zoneID]
	if !ok {
		return casatunes.Zone{}, apperrors.NewNotFoundResource("Zone", zoneID)
	}
	zone.Volume = volume
	f.zones[zoneID] = zone
	return zone, nil
}

// recordingRegistry captures registry notifications for assertions.
type recordingRegistry struct {
	mu      sync.Mutex
	added   []AccessoryRecord
	updated []AccessoryRecord
	removed []string
}

func (r *recordingRegistry) AddAccessory(record AccessoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.added = append(r.added, record)
	return nil
}

func (r *recordingRegistry) UpdateAccessory(record AccessoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated = append(r.updated, record)
	return nil
}

func (r *recordingRegistry) RemoveAccessory(uuid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, uuid)
	return nil
}

func (r *recordingRegistry) updatedZoneIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.updated))
	for _, record := range r.updated {
		ids = append(ids, record.ZoneID)
	}
	return ids
}

// fakeStore restores a fixed accessory set.
type fakeStore struct {
	records []AccessoryRecord
	err     error
}

func (s *fakeStore) LoadAccessories() ([]AccessoryRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}
