package bridge

import (
	"context"
	"log"
	"strings"

	"github.com/biggyd143/homebridge-casatunes/internal/apperrors"
	"github.com/biggyd143/homebridge-casatunes/internal/casatunes"
)

// matrixModelPrefix is stripped from the reported matrix title iff it matches
// at offset zero. The trimming rule is part of the contract, not cosmetics:
// downstream display strings key off the bare model name.
const matrixModelPrefix = "Matrix: "

// Fetcher retrieves the zone directory and server identity from CasaTunes
// and normalizes them into bridge records. It is a pure read path and never
// touches accessory state.
type Fetcher struct {
	client     ZoneClient
	configured bool
	logger     *log.Logger
}

func NewFetcher(client ZoneClient, configured bool, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Fetcher{
		client:     client,
		configured: configured,
		logger:     logger,
	}
}

// FetchZones reads the zone list and normalizes it. AirPlay-origin zones
// (GroupDelimiter in the persistent id) are excluded entirely; the relative
// order of the remaining zones is the service's order.
//
// With no service URI configured the fetch is skipped and a configuration
// error is returned for the cycle. Not retried here.
func (f *Fetcher) FetchZones(ctx context.Context) ([]ZoneRecord, error) {
	if !f.configured {
		f.logger.Print("CasaTunes URI not configured, skipping zone fetch")
		return []ZoneRecord{}, apperrors.NewConfigurationError("CasaTunes service URI is not configured")
	}

	zones, err := f.client.ListZones(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]ZoneRecord, 0, len(zones))
	for _, zone := range zones {
		if zone.PersistentZoneID == "" {
			return nil, apperrors.NewMalformedResponseError("zone list entry missing PersistentZoneID")
		}
		if strings.Contains(zone.PersistentZoneID, GroupDelimiter) {
			continue
		}
		records = append(records, normalizeZone(zone))
	}

	return records, nil
}

// FetchPlatformInfo reads the server identity metadata.
func (f *Fetcher) FetchPlatformInfo(ctx context.Context) (PlatformInfo, error) {
	if !f.configured {
		return PlatformInfo{}, apperrors.NewConfigurationError("CasaTunes service URI is not configured")
	}

	info, err := f.client.GetSystemInfo(ctx)
	if err != nil {
		return PlatformInfo{}, err
	}
	if info.AppName == "" && info.CasaTunesVersion == "" {
		return PlatformInfo{}, apperrors.NewMalformedResponseError("system info response missing identity fields")
	}

	model := ""
	if len(info.MatrixInfo) > 0 {
		model = TrimMatrixPrefix(info.MatrixInfo[0].Title)
	}

	return PlatformInfo{
		Manufacturer:     info.AppName,
		Model:            model,
		SoftwareRevision: info.CasaTunesVersion,
	}, nil
}

// TrimMatrixPrefix removes the "Matrix: " prefix when it matches at offset
// zero and leaves every other string untouched.
func TrimMatrixPrefix(model string) string {
	return strings.TrimPrefix(model, matrixModelPrefix)
}

func normalizeZone(zone casatunes.Zone) ZoneRecord {
	record := ZoneRecord{
		ID:      zone.PersistentZoneID,
		Name:    zone.Name,
		IsGroup: bool(zone.Shared),
		Power:   bool(zone.Power),
		Volume:  zone.Volume,
	}
	if record.IsGroup {
		record.MemberZoneIDs = make([]string, 0, len(zone.ZoneGroupInfo))
		for _, member := range zone.ZoneGroupInfo {
			record.MemberZoneIDs = append(record.MemberZoneIDs, member.ZoneID)
		}
	}
	return record
}
