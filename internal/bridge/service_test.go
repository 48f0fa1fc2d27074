package bridge

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biggyd143/homebridge-casatunes/internal/casatunes"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestService(client *fakeZoneClient, registry Registry, store Store) (*Service, *AccessoryCache) {
	cache := NewAccessoryCache()
	fetcher := NewFetcher(client, true, quietLogger())
	service := NewService(fetcher, cache, registry, store, "", quietLogger())
	return service, cache
}

func TestRefreshCreatesAccessories(t *testing.T) {
	client := newFakeZoneClient()
	client.systemInfo.MatrixInfo = []casatunes.MatrixEntry{{Title: "Matrix: Model7"}}
	client.addZone(casatunes.Zone{Name: "Kitchen", PersistentZoneID: "z2", Power: true, Volume: 25})
	client.addZone(casatunes.Zone{Name: "Patio", PersistentZoneID: "z3"})

	registry := &recordingRegistry{}
	service, cache := newTestService(client, registry, nil)

	summary, err := service.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Created)
	assert.Zero(t, summary.Kept)
	assert.Zero(t, summary.Removed)
	assert.Equal(t, 2, cache.Len())
	require.Len(t, registry.added, 2)

	kitchen, ok := cache.GetByZone("z2")
	require.True(t, ok)
	assert.Equal(t, DeriveUUID("z2"), kitchen.UUID)
	assert.Equal(t, "Kitchen", kitchen.DisplayName)
	assert.True(t, kitchen.Power)
	assert.Equal(t, 25, kitchen.Volume)
	assert.Equal(t, "CasaTunes", kitchen.Manufacturer)
	assert.Equal(t, "Model7", kitchen.Model)
	assert.Equal(t, "10.5.1", kitchen.SoftwareRevision)
	assert.Equal(t, NotApplicable, kitchen.FirmwareRevision)
	assert.Equal(t, NotApplicable, kitchen.SerialNumber)
}

func TestRefreshIsIdempotent(t *testing.T) {
	client := newFakeZoneClient()
	client.addZone(casatunes.Zone{Name: "Kitchen", PersistentZoneID: "z2"})

	registry := &recordingRegistry{}
	service, cache := newTestService(client, registry, nil)

	_, err := service.Refresh(context.Background())
	require.NoError(t, err)

	summary, err := service.Refresh(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.Created)
	assert.Equal(t, 1, summary.Kept)
	assert.Zero(t, summary.Removed)
	assert.Equal(t, 1, cache.Len())
	assert.Len(t, registry.added, 1, "second pass must not re-add")
}

func TestRefreshRemovesDepartedZones(t *testing.T) {
	client := newFakeZoneClient()
	client.addZone(casatunes.Zone{Name: "Kitchen", PersistentZoneID: "z2"})
	client.addZone(casatunes.Zone{Name: "Attic", PersistentZoneID: "z9"})

	registry := &recordingRegistry{}
	service, cache := newTestService(client, registry, nil)

	_, err := service.Refresh(context.Background())
	require.NoError(t, err)

	client.removeZone("z9")
	client.addZone(casatunes.Zone{Name: "Patio", PersistentZoneID: "z3"})

	summary, err := service.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Kept)
	assert.Equal(t, 1, summary.Removed)
	assert.Equal(t, []string{DeriveUUID("z9")}, registry.removed)

	_, ok := cache.GetByZone("z9")
	assert.False(t, ok)
	_, ok = cache.GetByZone("z3")
	assert.True(t, ok)
}

func TestRefreshFetchErrorAbortsBeforeRemoval(t *testing.T) {
	client := newFakeZoneClient()
	client.addZone(casatunes.Zone{Name: "Kitchen", PersistentZoneID: "z2"})

	registry := &recordingRegistry{}
	service, cache := newTestService(client, registry, nil)

	_, err := service.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())

	client.listErr = assert.AnError
	_, err = service.Refresh(context.Background())
	require.Error(t, err)

	assert.Equal(t, 1, cache.Len(), "a failed fetch must never be treated as an empty zone list")
	assert.Empty(t, registry.removed)
}

func TestRefreshKeepsStalePlatformInfo(t *testing.T) {
	client := newFakeZoneClient()
	client.addZone(casatunes.Zone{Name: "Kitchen", PersistentZoneID: "z2"})

	service, _ := newTestService(client, &recordingRegistry{}, nil)

	_, err := service.Refresh(context.Background())
	require.NoError(t, err)

	client.systemErr = assert.AnError
	_, err = service.Refresh(context.Background())
	require.NoError(t, err, "identity refresh failure must not abort the cycle")

	platform, ok := service.PlatformInfo()
	require.True(t, ok)
	assert.Equal(t, "CasaTunes", platform.Manufacturer)
}

func TestRefreshAbortsWithoutAnyPlatformInfo(t *testing.T) {
	client := newFakeZoneClient()
	client.systemErr = assert.AnError
	client.addZone(casatunes.Zone{Name: "Kitchen", PersistentZoneID: "z2"})

	registry := &recordingRegistry{}
	service, cache := newTestService(client, registry, nil)

	_, err := service.Refresh(context.Background())
	require.Error(t, err)
	assert.Zero(t, cache.Len())
	assert.Empty(t, registry.added)
}

func TestStartRestoresPersistedAccessories(t *testing.T) {
	client := newFakeZoneClient()
	client.listErr = assert.AnError

	restored := []AccessoryRecord{
		{UUID: DeriveUUID("z2"), DisplayName: "Kitchen", ZoneID: "z2"},
	}
	registry := &recordingRegistry{}
	service, cache := newTestService(client, registry, &fakeStore{records: restored})

	require.NoError(t, service.Start(context.Background()))
	defer service.Stop()

	assert.Equal(t, 1, cache.Len(), "restored set stays visible when the initial fetch fails")
	require.Len(t, registry.added, 1)
	assert.Equal(t, DeriveUUID("z2"), registry.added[0].UUID)
}

func TestRefreshUpdatesRenamedZone(t *testing.T) {
	client := newFakeZoneClient()
	client.addZone(casatunes.Zone{Name: "Kitchen", PersistentZoneID: "z2"})

	registry := &recordingRegistry{}
	service, cache := newTestService(client, registry, nil)

	_, err := service.Refresh(context.Background())
	require.NoError(t, err)

	client.addZone(casatunes.Zone{Name: "Chef's Kitchen", PersistentZoneID: "z2"})

	summary, err := service.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Kept)
	record, ok := cache.Get(DeriveUUID("z2"))
	require.True(t, ok)
	assert.Equal(t, "Chef's Kitchen", record.DisplayName, "rename keeps identity, updates the name")
}
