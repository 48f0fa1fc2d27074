package bridge

import (
	"context"

	"github.com/biggyd143/homebridge-casatunes/internal/casatunes"
)

// GroupDelimiter marks AirPlay-origin zone ids. Zones carrying it are never
// surfaced as accessories.
const GroupDelimiter = "@"

// NotApplicable fills metadata fields the zone service does not report.
const NotApplicable = "Not Applicable"

// ZoneRecord is the normalized view of one controllable CasaTunes zone.
// Records are replaced wholesale on each fetch cycle; ID is the service's
// persistent zone id and is stable across fetches.
type ZoneRecord struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	IsGroup       bool     `json:"is_group"`
	MemberZoneIDs []string `json:"member_zone_ids,omitempty"`
	Power         bool     `json:"power"`
	Volume        int      `json:"volume"`
}

// PlatformInfo is the process-wide server identity, read by every accessory
// at creation/update time and never independently mutated afterwards.
type PlatformInfo struct {
	Manufacturer     string `json:"manufacturer"`
	Model            string `json:"model"`
	SoftwareRevision string `json:"software_revision"`
}

// AccessoryRecord is the locally cached representation of a zone exposed to
// the host registry. Exactly one record maps to one ZoneRecord by UUID;
// names are never used for identity.
type AccessoryRecord struct {
	UUID             string `json:"uuid"`
	DisplayName      string `json:"display_name"`
	ZoneID           string `json:"zone_id"`
	Power            bool   `json:"power"`
	Volume           int    `json:"volume"`
	Manufacturer     string `json:"manufacturer"`
	Model            string `json:"model"`
	SoftwareRevision string `json:"software_revision"`
	FirmwareRevision string `json:"firmware_revision"`
	SerialNumber     string `json:"serial_number"`
}

// ZoneClient is the transport contract consumed by the fetcher and the
// propagation engine. casatunes.Client satisfies it.
type ZoneClient interface {
	GetSystemInfo(ctx context.Context) (casatunes.SystemInfo, error)
	ListZones(ctx context.Context) ([]casatunes.Zone, error)
	GetZone(ctx context.Context, zoneID string) (casatunes.Zone, error)
	SetPower(ctx context.Context, zoneID string, on bool) (casatunes.Zone, error)
	SetVolume(ctx context.Context, zoneID string, volume int) (casatunes.Zone, error)
}

// Registry is the narrow contract to the host accessory runtime: accessory
// create/update/remove keyed by the derived UUID.
type Registry interface {
	AddAccessory(record AccessoryRecord) error
	UpdateAccessory(record AccessoryRecord) error
	RemoveAccessory(uuid string) error
}

// MultiRegistry fans registry operations out to several collaborators
// (host registry, event hub, persistence). The first error is returned
// after every collaborator has been called.
type MultiRegistry []Registry

func (m MultiRegistry) AddAccessory(record AccessoryRecord) error {
	var firstErr error
	for _, registry := range m {
		if err := registry.AddAccessory(record); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m MultiRegistry) UpdateAccessory(record AccessoryRecord) error {
	var firstErr error
	for _, registry := range m {
		if err := registry.UpdateAccessory(record); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m MultiRegistry) RemoveAccessory(uuid string) error {
	var firstErr error
	for _, registry := range m {
		if err := registry.RemoveAccessory(uuid); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
