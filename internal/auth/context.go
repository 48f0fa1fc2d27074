package auth

import "context"

type contextKey string

const deviceKey contextKey = "authDevice"

// Device identifies the authenticated controller making a request.
type Device struct {
	ID   string
	Name string
	Type TokenType
}

// WithDevice stores the authenticated device in the context.
func WithDevice(ctx context.Context, device Device) context.Context {
	return context.WithValue(ctx, deviceKey, device)
}

// DeviceFromContext returns the authenticated device, if present.
func DeviceFromContext(ctx context.Context) (Device, bool) {
	if ctx == nil {
		return Device{}, false
	}
	value := ctx.Value(deviceKey)
	if value == nil {
		return Device{}, false
	}
	device, ok := value.(Device)
	return device, ok
}
