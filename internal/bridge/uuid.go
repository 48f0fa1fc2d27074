package bridge

import "github.com/google/uuid"

// accessoryNamespace seeds the v5 derivation. Changing it would re-identify
// every accessory, so it is fixed for the life of the project.
var accessoryNamespace = uuid.MustParse("8d0f58a1-36cf-4e0e-9a5d-1f6f2b4c8e21")

// DeriveUUID maps a persistent zone id to the accessory UUID. The mapping is
// deterministic and one-way; zone names never participate because they may
// repeat or change.
func DeriveUUID(zoneID string) string {
	return uuid.NewSHA1(accessoryNamespace, []byte(zoneID)).String()
}
