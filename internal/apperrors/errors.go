package apperrors

type ErrorCode string

const (
	ErrorCodeInternalError     ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidationError   ErrorCode = "VALIDATION_ERROR"
	ErrorCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrorCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrorCodeConfiguration     ErrorCode = "CONFIGURATION_ERROR"
	ErrorCodeTransport         ErrorCode = "TRANSPORT_ERROR"
	ErrorCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrorCodeZoneNotFound      ErrorCode = "ZONE_NOT_FOUND"
	ErrorCodeAccessoryNotFound ErrorCode = "ACCESSORY_NOT_FOUND"
	ErrorCodeCharacteristic    ErrorCode = "UNSUPPORTED_CHARACTERISTIC"
	ErrorCodeAuthTokenExpired  ErrorCode = "AUTH_TOKEN_EXPIRED"
	ErrorCodeAuthTokenInvalid  ErrorCode = "AUTH_TOKEN_INVALID"
)

// ErrorBody is the serialized error payload.
type ErrorBody struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// AppError is the base error type for HTTP responses.
type AppError struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Details    map[string]any
}

func (err *AppError) Error() string {
	return err.Message
}

func (err *AppError) ErrorBody() ErrorBody {
	return ErrorBody{
		Code:    err.Code,
		Message: err.Message,
		Details: err.Details,
	}
}

func NewAppError(code ErrorCode, message string, statusCode int, details map[string]any) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

func NewValidationError(message string, details map[string]any) *AppError {
	return NewAppError(ErrorCodeValidationError, message, 400, details)
}

func NewUnauthorizedError(message string, code ...ErrorCode) *AppError {
	errCode := ErrorCodeUnauthorized
	if len(code) > 0 {
		errCode = code[0]
	}
	return NewAppError(errCode, message, 401, nil)
}

func NewNotFoundResource(resource, id string) *AppError {
	message := resource + " not found"
	details := map[string]any{
		"resource": resource,
	}
	if id != "" {
		message = resource + " not found: " + id
		details["id"] = id
	}
	return NewAppError(ErrorCodeNotFound, message, 404, details)
}

func NewInternalError(message string) *AppError {
	return NewAppError(ErrorCodeInternalError, message, 500, nil)
}

// NewConfigurationError reports an operation short-circuited by missing or
// placeholder configuration. Not retried within the cycle that raised it.
func NewConfigurationError(message string) *AppError {
	return NewAppError(ErrorCodeConfiguration, message, 503, nil)
}

// NewTransportError reports an unreachable zone service or a non-2xx response.
func NewTransportError(message string, details map[string]any) *AppError {
	return NewAppError(ErrorCodeTransport, message, 502, details)
}

// NewMalformedResponseError reports an unexpected payload shape from the zone
// service. No partial parse is surfaced.
func NewMalformedResponseError(message string) *AppError {
	return NewAppError(ErrorCodeMalformedResponse, message, 502, nil)
}

// EnsureAppError converts an arbitrary error into an AppError.
func EnsureAppError(err error) *AppError {
	if err == nil {
		return NewInternalError("Unknown error")
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewInternalError("Internal server error")
}
