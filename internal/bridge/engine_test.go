package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biggyd143/homebridge-casatunes/internal/casatunes"
)

func seedGroupFixture(t *testing.T) (*fakeZoneClient, *AccessoryCache, *recordingRegistry, *Engine) {
	t.Helper()

	client := newFakeZoneClient()
	client.addZone(casatunes.Zone{
		Name:             "Whole House",
		PersistentZoneID: "g1",
		Shared:           true,
		ZoneGroupInfo: []casatunes.GroupMember{
			{ZoneID: "m1"},
			{ZoneID: "m2"},
		},
	})
	client.addZone(casatunes.Zone{Name: "Kitchen", PersistentZoneID: "m1"})
	client.addZone(casatunes.Zone{Name: "Patio", PersistentZoneID: "m2", Volume: 30})

	cache := NewAccessoryCache()
	for _, zoneID := range []string{"g1", "m1", "m2"} {
		cache.Put(AccessoryRecord{UUID: DeriveUUID(zoneID), ZoneID: zoneID})
	}

	registry := &recordingRegistry{}
	engine := NewEngine(client, cache, registry, nil)
	return client, cache, registry, engine
}

func TestSetPowerGroupFanOutSingleWrite(t *testing.T) {
	client, cache, registry, engine := seedGroupFixture(t)

	err := engine.SetPower(context.Background(), "g1", true)
	require.NoError(t, err)

	assert.Equal(t, 1, client.writeCalls, "one group change is one network write")

	for _, zoneID := range []string{"g1", "m1", "m2"} {
		record, ok := cache.GetByZone(zoneID)
		require.True(t, ok)
		assert.True(t, record.Power, "zone %s must reflect the group power", zoneID)
	}

	assert.ElementsMatch(t, []string{"g1", "m1", "m2"}, registry.updatedZoneIDs())
}

func TestSetVolumeGroupFanOut(t *testing.T) {
	client, cache, _, engine := seedGroupFixture(t)

	err := engine.SetVolume(context.Background(), "g1", 55)
	require.NoError(t, err)

	assert.Equal(t, 1, client.writeCalls)
	for _, zoneID := range []string{"g1", "m1", "m2"} {
		record, ok := cache.GetByZone(zoneID)
		require.True(t, ok)
		assert.Equal(t, 55, record.Volume)
	}
}

func TestSetPowerSkipsUnresolvableMembers(t *testing.T) {
	client, cache, registry, engine := seedGroupFixture(t)
	// m2 has no bound accessory in this cycle.
	cache.Remove(DeriveUUID("m2"))

	err := engine.SetPower(context.Background(), "g1", true)
	require.NoError(t, err)

	assert.Equal(t, 1, client.writeCalls)
	assert.ElementsMatch(t, []string{"g1", "m1"}, registry.updatedZoneIDs())

	record, ok := cache.GetByZone("m1")
	require.True(t, ok)
	assert.True(t, record.Power)
}

func TestSetPowerFanOutDedupesTarget(t *testing.T) {
	client := newFakeZoneClient()
	// Member list echoes the target zone itself.
	client.addZone(casatunes.Zone{
		Name:             "Den",
		PersistentZoneID: "g1",
		Shared:           true,
		ZoneGroupInfo: []casatunes.GroupMember{
			{ZoneID: "g1"},
			{ZoneID: "m1"},
		},
	})
	client.addZone(casatunes.Zone{Name: "Kitchen", PersistentZoneID: "m1"})

	cache := NewAccessoryCache()
	cache.Put(AccessoryRecord{UUID: DeriveUUID("g1"), ZoneID: "g1"})
	cache.Put(AccessoryRecord{UUID: DeriveUUID("m1"), ZoneID: "m1"})

	registry := &recordingRegistry{}
	engine := NewEngine(client, cache, registry, nil)

	require.NoError(t, engine.SetPower(context.Background(), "g1", true))
	assert.ElementsMatch(t, []string{"g1", "m1"}, registry.updatedZoneIDs())
}

func TestSetPowerNonSharedZoneNoFanOut(t *testing.T) {
	_, cache, registry, engine := seedGroupFixture(t)

	err := engine.SetPower(context.Background(), "m1", true)
	require.NoError(t, err)

	record, ok := cache.GetByZone("m2")
	require.True(t, ok)
	assert.False(t, record.Power, "sibling zone must stay untouched")
	assert.ElementsMatch(t, []string{"m1"}, registry.updatedZoneIDs())
}

func TestSetPowerFailedWriteLeavesCacheUntouched(t *testing.T) {
	client, cache, registry, engine := seedGroupFixture(t)
	client.writeErr = assert.AnError

	err := engine.SetPower(context.Background(), "g1", true)
	require.Error(t, err)

	for _, zoneID := range []string{"g1", "m1", "m2"} {
		record, ok := cache.GetByZone(zoneID)
		require.True(t, ok)
		assert.False(t, record.Power)
	}
	assert.Empty(t, registry.updatedZoneIDs())
}

func TestGetPowerAlwaysReadsFresh(t *testing.T) {
	client, cache, _, engine := seedGroupFixture(t)

	// Another controller turned the zone on behind our back.
	zone := client.zones["m1"]
	zone.Power = true
	client.addZone(zone)

	on, err := engine.GetPower(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, 1, client.getCalls)

	record, ok := cache.GetByZone("m1")
	require.True(t, ok)
	assert.True(t, record.Power, "fresh read must refresh the cache")
}

func TestGetVolumeAlwaysReadsFresh(t *testing.T) {
	client, _, _, engine := seedGroupFixture(t)

	volume, err := engine.GetVolume(context.Background(), "m2")
	require.NoError(t, err)
	assert.Equal(t, 30, volume)
	assert.Equal(t, 1, client.getCalls)
}
