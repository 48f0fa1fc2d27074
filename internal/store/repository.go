package store

import (
	"fmt"
	"time"

	"github.com/biggyd143/homebridge-casatunes/internal/bridge"
)

// Repository persists accessory records. It satisfies both sides of the
// bridge's storage contract: the Registry write path during reconciliation
// and LoadAccessories at startup.
type Repository struct {
	db *DBPair
}

func NewRepository(db *DBPair) *Repository {
	return &Repository{db: db}
}

// AddAccessory upserts an accessory row. Insert and update share one
// statement so replays of the same reconciliation plan stay idempotent.
func (r *Repository) AddAccessory(record bridge.AccessoryRecord) error {
	return r.upsert(record)
}

// UpdateAccessory upserts an accessory row.
func (r *Repository) UpdateAccessory(record bridge.AccessoryRecord) error {
	return r.upsert(record)
}

// RemoveAccessory deletes an accessory row. Unknown UUIDs are a no-op.
func (r *Repository) RemoveAccessory(uuid string) error {
	if _, err := r.db.Writer().Exec("DELETE FROM accessories WHERE uuid = ?", uuid); err != nil {
		return fmt.Errorf("delete accessory %s: %w", uuid, err)
	}
	return nil
}

// LoadAccessories returns every persisted accessory ordered by display name.
func (r *Repository) LoadAccessories() ([]bridge.AccessoryRecord, error) {
	rows, err := r.db.Reader().Query(`
		SELECT uuid, zone_id, display_name, power, volume,
		       manufacturer, model, software_revision, firmware_revision, serial_number
		FROM accessories
		ORDER BY display_name, zone_id`)
	if err != nil {
		return nil, fmt.Errorf("load accessories: %w", err)
	}
	defer rows.Close()

	records := []bridge.AccessoryRecord{}
	for rows.Next() {
		var record bridge.AccessoryRecord
		var power int
		if err := rows.Scan(
			&record.UUID, &record.ZoneID, &record.DisplayName, &power, &record.Volume,
			&record.Manufacturer, &record.Model, &record.SoftwareRevision,
			&record.FirmwareRevision, &record.SerialNumber,
		); err != nil {
			return nil, fmt.Errorf("scan accessory: %w", err)
		}
		record.Power = power != 0
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accessories: %w", err)
	}
	return records, nil
}

func (r *Repository) upsert(record bridge.AccessoryRecord) error {
	power := 0
	if record.Power {
		power = 1
	}
	_, err := r.db.Writer().Exec(`
		INSERT INTO accessories (
			uuid, zone_id, display_name, power, volume,
			manufacturer, model, software_revision, firmware_revision, serial_number,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET
			zone_id = excluded.zone_id,
			display_name = excluded.display_name,
			power = excluded.power,
			volume = excluded.volume,
			manufacturer = excluded.manufacturer,
			model = excluded.model,
			software_revision = excluded.software_revision,
			firmware_revision = excluded.firmware_revision,
			serial_number = excluded.serial_number,
			updated_at = excluded.updated_at`,
		record.UUID, record.ZoneID, record.DisplayName, power, record.Volume,
		record.Manufacturer, record.Model, record.SoftwareRevision,
		record.FirmwareRevision, record.SerialNumber,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert accessory %s: %w", record.UUID, err)
	}
	return nil
}
