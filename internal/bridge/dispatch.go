package bridge

import (
	"context"
	"fmt"

	"github.com/biggyd143/homebridge-casatunes/internal/apperrors"
)

// Characteristic identifies one controllable capability of an accessory.
type Characteristic string

const (
	CharacteristicPower  Characteristic = "power"
	CharacteristicVolume Characteristic = "volume"
)

// CharacteristicHandler is a pair of pure get/set functions for one
// capability, registered in a capability-keyed table instead of being bound
// per accessory instance.
type CharacteristicHandler struct {
	Get func(ctx context.Context, zoneID string) (any, error)
	Set func(ctx context.Context, zoneID string, value any) error
}

// Handlers returns the dispatch table for the engine's capabilities.
func (e *Engine) Handlers() map[Characteristic]CharacteristicHandler {
	return map[Characteristic]CharacteristicHandler{
		CharacteristicPower: {
			Get: func(ctx context.Context, zoneID string) (any, error) {
				return e.GetPower(ctx, zoneID)
			},
			Set: func(ctx context.Context, zoneID string, value any) error {
				on, ok := value.(bool)
				if !ok {
					return apperrors.NewValidationError("power value must be a boolean", nil)
				}
				return e.SetPower(ctx, zoneID, on)
			},
		},
		CharacteristicVolume: {
			Get: func(ctx context.Context, zoneID string) (any, error) {
				return e.GetVolume(ctx, zoneID)
			},
			Set: func(ctx context.Context, zoneID string, value any) error {
				volume, err := coerceVolume(value)
				if err != nil {
					return err
				}
				return e.SetVolume(ctx, zoneID, volume)
			},
		},
	}
}

// ParseCharacteristic validates a characteristic name from the wire.
func ParseCharacteristic(name string) (Characteristic, error) {
	switch Characteristic(name) {
	case CharacteristicPower:
		return CharacteristicPower, nil
	case CharacteristicVolume:
		return CharacteristicVolume, nil
	default:
		return "", apperrors.NewAppError(apperrors.ErrorCodeCharacteristic,
			fmt.Sprintf("unsupported characteristic: %s", name), 400, nil)
	}
}

func coerceVolume(value any) (int, error) {
	var volume int
	switch v := value.(type) {
	case int:
		volume = v
	case float64:
		// JSON numbers decode as float64.
		volume = int(v)
		if float64(volume) != v {
			return 0, apperrors.NewValidationError("volume must be an integer", nil)
		}
	default:
		return 0, apperrors.NewValidationError("volume must be an integer", nil)
	}

	if volume < 0 || volume > 100 {
		return 0, apperrors.NewValidationError("volume must be between 0 and 100", map[string]any{
			"volume": volume,
		})
	}
	return volume, nil
}
