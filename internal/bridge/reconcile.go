package bridge

// KeepPair binds a retained accessory to the fresh zone that refreshes it.
type KeepPair struct {
	Accessory AccessoryRecord
	Zone      ZoneRecord
}

// Plan classifies one reconciliation pass. The UUID sets of ToCreate and
// ToRemove are always disjoint.
type Plan struct {
	ToCreate []ZoneRecord
	ToKeep   []KeepPair
	ToRemove []AccessoryRecord
}

// Reconcile diffs the previously known accessory set against a freshly
// fetched zone list. Identity is the UUID derived from the zone's persistent
// id; an accessory is kept as long as its zone id appears anywhere in the
// fresh list, regardless of position. The operation is pure and idempotent.
func Reconcile(previous []AccessoryRecord, fresh []ZoneRecord) Plan {
	existingByUUID := make(map[string]AccessoryRecord, len(previous))
	for _, accessory := range previous {
		existingByUUID[accessory.UUID] = accessory
	}

	target := make(map[string]struct{}, len(fresh))
	plan := Plan{
		ToCreate: []ZoneRecord{},
		ToKeep:   []KeepPair{},
		ToRemove: []AccessoryRecord{},
	}

	for _, zone := range fresh {
		id := DeriveUUID(zone.ID)
		target[id] = struct{}{}

		if accessory, ok := existingByUUID[id]; ok {
			plan.ToKeep = append(plan.ToKeep, KeepPair{Accessory: accessory, Zone: zone})
		} else {
			plan.ToCreate = append(plan.ToCreate, zone)
		}
	}

	for _, accessory := range previous {
		if _, ok := target[accessory.UUID]; !ok {
			plan.ToRemove = append(plan.ToRemove, accessory)
		}
	}

	return plan
}
