package bridge

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/biggyd143/homebridge-casatunes/internal/api"
	"github.com/biggyd143/homebridge-casatunes/internal/apperrors"
)

// Directory is the read side of the accessory surface, served by the
// in-process registry.
type Directory interface {
	List() []AccessoryRecord
	Get(uuid string) (AccessoryRecord, bool)
}

type setCharacteristicRequest struct {
	Value any `json:"value"`
}

// RegisterRoutes wires the accessory and zone routes to the router.
func RegisterRoutes(router chi.Router, directory Directory, engine *Engine, service *Service) {
	handlers := engine.Handlers()

	router.Method(http.MethodGet, "/v1/accessories", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return api.ListResponse(w, r, http.StatusOK, "accessories", directory.List())
	}))

	router.Method(http.MethodGet, "/v1/accessories/{accessory_uuid}", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		accessory, err := lookupAccessory(directory, r)
		if err != nil {
			return err
		}
		return api.SingleResponse(w, r, http.StatusOK, "accessory", accessory)
	}))

	router.Method(http.MethodGet, "/v1/accessories/{accessory_uuid}/{characteristic}", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		accessory, err := lookupAccessory(directory, r)
		if err != nil {
			return err
		}

		characteristic, err := ParseCharacteristic(chi.URLParam(r, "characteristic"))
		if err != nil {
			return err
		}

		value, err := handlers[characteristic].Get(r.Context(), accessory.ZoneID)
		if err != nil {
			return err
		}

		return api.SingleResponse(w, r, http.StatusOK, "characteristic", map[string]any{
			"name":  characteristic,
			"value": value,
		})
	}))

	router.Method(http.MethodPut, "/v1/accessories/{accessory_uuid}/{characteristic}", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		accessory, err := lookupAccessory(directory, r)
		if err != nil {
			return err
		}

		characteristic, err := ParseCharacteristic(chi.URLParam(r, "characteristic"))
		if err != nil {
			return err
		}

		var body setCharacteristicRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return apperrors.NewValidationError("Request body must be JSON with a value field", nil)
		}

		if err := handlers[characteristic].Set(r.Context(), accessory.ZoneID, body.Value); err != nil {
			return err
		}

		return api.ActionResponse(w, r, http.StatusOK, map[string]any{
			"uuid":           accessory.UUID,
			"characteristic": characteristic,
			"value":          body.Value,
		})
	}))

	router.Method(http.MethodPost, "/v1/zones/refresh", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		summary, err := service.Refresh(r.Context())
		if err != nil {
			return err
		}
		return api.ActionResponse(w, r, http.StatusOK, summary)
	}))

	router.Method(http.MethodGet, "/v1/system/info", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		platform, ok := service.PlatformInfo()
		if !ok {
			return apperrors.NewAppError(apperrors.ErrorCodeConfiguration,
				"Zone service identity not available yet", http.StatusServiceUnavailable, nil)
		}
		return api.SingleResponse(w, r, http.StatusOK, "system", platform)
	}))
}

func lookupAccessory(directory Directory, r *http.Request) (AccessoryRecord, error) {
	uuid := chi.URLParam(r, "accessory_uuid")
	accessory, ok := directory.Get(uuid)
	if !ok {
		return AccessoryRecord{}, apperrors.NewNotFoundResource("Accessory", uuid)
	}
	return accessory, nil
}
