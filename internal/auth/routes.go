package auth

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/biggyd143/homebridge-casatunes/internal/api"
	"github.com/biggyd143/homebridge-casatunes/internal/apperrors"
	"github.com/biggyd143/homebridge-casatunes/internal/config"
)

// RegisterRoutes wires pairing and token routes to the router.
func RegisterRoutes(router chi.Router, store *PairingStore, cfg config.Config) {
	router.Method(http.MethodPost, "/v1/auth/pair/start", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		pairCode, err := store.Issue(api.GetRequestID(r))
		if err != nil {
			return apperrors.NewInternalError("Failed to generate pairing code")
		}

		log.Printf("Pairing code generated, enter this on your device: %s", pairCode)

		return api.ActionResponse(w, r, http.StatusOK, map[string]any{
			"object":       "pairing_start",
			"pairing_hint": "Enter pairing code on your device. Code: " + pairCode,
		})
	}))

	router.Method(http.MethodPost, "/v1/auth/pair/complete", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var body struct {
			PairCode   string `json:"pair_code"`
			DeviceName string `json:"device_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return apperrors.NewValidationError("pair_code is required", nil)
		}
		if body.PairCode == "" {
			return apperrors.NewValidationError("pair_code is required", nil)
		}
		if body.DeviceName == "" {
			return apperrors.NewValidationError("device_name is required", nil)
		}

		switch err := store.Redeem(body.PairCode); err {
		case nil:
		case ErrPairingCodeExpired:
			return apperrors.NewUnauthorizedError("Pairing code has expired")
		default:
			return apperrors.NewUnauthorizedError("Invalid or expired pairing code")
		}

		tokens, err := GenerateTokenPair(cfg, TokenPayload{
			Sub:        uuid.NewString(),
			DeviceName: body.DeviceName,
		})
		if err != nil {
			return apperrors.NewInternalError("Failed to generate token pair")
		}

		return api.SingleResponse(w, r, http.StatusOK, "tokens", map[string]any{
			"access_token":   tokens.AccessToken,
			"refresh_token":  tokens.RefreshToken,
			"expires_in_sec": tokens.ExpiresInSec,
		})
	}))

	router.Method(http.MethodPost, "/v1/auth/refresh", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return apperrors.NewValidationError("refresh_token is required", nil)
		}
		if body.RefreshToken == "" {
			return apperrors.NewValidationError("refresh_token is required", nil)
		}

		accessToken, expiresIn, err := RefreshAccessToken(cfg, body.RefreshToken)
		if err != nil {
			switch err {
			case ErrTokenExpired:
				return apperrors.NewUnauthorizedError("Refresh token has expired")
			case ErrTokenType:
				return apperrors.NewUnauthorizedError("Invalid token: expected refresh token")
			default:
				return apperrors.NewUnauthorizedError("Invalid refresh token")
			}
		}

		return api.SingleResponse(w, r, http.StatusOK, "tokens", map[string]any{
			"access_token":   accessToken,
			"expires_in_sec": expiresIn,
		})
	}))
}
