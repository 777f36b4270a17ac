package platformerrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// getRequestIDFromContext extracts request ID from context
func getRequestIDFromContext(ctx context.Context) string {
	val := ctx.Value("requestID")
	if requestID, ok := val.(string); ok {
		return requestID
	}
	return ""
}

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeNotFound          ErrorType = "NOT_FOUND"
	ErrorTypeValidation        ErrorType = "VALIDATION"
	ErrorTypeFileTooLarge      ErrorType = "FILE_TOO_LARGE"
	ErrorTypeTypeNotAllowed    ErrorType = "TYPE_NOT_ALLOWED"
	ErrorTypeInvalidFile       ErrorType = "INVALID_FILE"
	ErrorTypeDuplicate         ErrorType = "DUPLICATE"
	ErrorTypeConflict          ErrorType = "CONFLICT"
	ErrorTypeExpired           ErrorType = "EXPIRED"
	ErrorTypeChunkMissing      ErrorType = "CHUNK_MISSING"
	ErrorTypeUnsupportedFormat ErrorType = "UNSUPPORTED_FORMAT"
	ErrorTypeStorageError      ErrorType = "STORAGE_ERROR"
	ErrorTypeDatabaseError     ErrorType = "DATABASE_ERROR"
	ErrorTypeUnauthorized      ErrorType = "UNAUTHORIZED"
	ErrorTypeInternal          ErrorType = "INTERNAL"
)

// Layer represents the application layer where the error occurred
type Layer string

const (
	LayerRepository     Layer = "repository"
	LayerDomain         Layer = "domain"
	LayerHandler        Layer = "handler"
	LayerRoute          Layer = "route"
	LayerInfrastructure Layer = "infrastructure"
	LayerCommon         Layer = "common"
)

// contextKeyChunkIndex is the Context map key carrying a missing chunk index.
const contextKeyChunkIndex = "chunk_index"

// PlatformError represents an error with context and metadata
type PlatformError struct {
	UUID      string
	Type      ErrorType
	Message   string
	Err       error
	Context   map[string]any
	RequestID string
	Layer     Layer
	Timestamp time.Time
}

// Error implements the error interface
func (e *PlatformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s][%s][%s] %s: %v", e.Layer, e.Type, e.UUID, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s][%s][%s] %s", e.Layer, e.Type, e.UUID, e.Message)
}

// Unwrap returns the underlying error
func (e *PlatformError) Unwrap() error {
	return e.Err
}

// GetErrorType returns the error type
func (e *PlatformError) GetErrorType() ErrorType {
	return e.Type
}

// GetRequestID returns the request ID
func (e *PlatformError) GetRequestID() string {
	return e.RequestID
}

// GetUUID returns the error UUID
func (e *PlatformError) GetUUID() string {
	return e.UUID
}

// NewError creates a new PlatformError with the specified parameters
func NewError(ctx context.Context, layer Layer, errorType ErrorType, message string, err error, customUUID string) *PlatformError {
	return NewErrorWithContext(ctx, layer, errorType, message, err, customUUID, nil)
}

// NewErrorWithContext creates a new PlatformError with additional context fields
func NewErrorWithContext(ctx context.Context, layer Layer, errorType ErrorType, message string, err error, customUUID string, contextFields map[string]any) *PlatformError {
	requestID := getRequestIDFromContext(ctx)

	errorUUID := customUUID
	if errorUUID == "" {
		errorUUID = "auto-generated-uuid"
	}

	errorContext := make(map[string]any)
	for k, v := range contextFields {
		errorContext[k] = v
	}

	platformError := &PlatformError{
		UUID:      errorUUID,
		Type:      errorType,
		Message:   message,
		Err:       err,
		RequestID: requestID,
		Layer:     layer,
		Timestamp: time.Now().UTC(),
		Context:   errorContext,
	}

	return platformError
}

// NewChunkMissing creates a CHUNK_MISSING error carrying the lowest missing index.
func NewChunkMissing(ctx context.Context, index int, customUUID string) *PlatformError {
	return NewErrorWithContext(
		ctx,
		LayerDomain,
		ErrorTypeChunkMissing,
		fmt.Sprintf("chunk %d has not been received", index),
		nil,
		customUUID,
		map[string]any{contextKeyChunkIndex: index},
	)
}

// MissingChunkIndex extracts the missing chunk index from a CHUNK_MISSING error.
func MissingChunkIndex(err error) (int, bool) {
	var platformErr *PlatformError
	if !errors.As(err, &platformErr) || platformErr.Type != ErrorTypeChunkMissing {
		return 0, false
	}
	if index, ok := platformErr.Context[contextKeyChunkIndex].(int); ok {
		return index, true
	}
	return 0, false
}

// AsError wraps an error with layer context
func AsError(ctx context.Context, layer Layer, err error, message string) *PlatformError {
	if err == nil {
		return nil
	}

	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return NewError(ctx, layer, platformErr.Type, fmt.Sprintf("%s: %s", message, platformErr.Message), platformErr, platformErr.UUID)
	}

	errorType := ErrorTypeInternal

	return NewError(ctx, layer, errorType, message, err, "")
}

// ErrorTypeToHTTPStatus maps error types to HTTP status codes
func ErrorTypeToHTTPStatus(errorType ErrorType) int {
	switch errorType {
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeValidation, ErrorTypeInvalidFile:
		return http.StatusBadRequest
	case ErrorTypeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrorTypeTypeNotAllowed, ErrorTypeUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case ErrorTypeDuplicate, ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeExpired:
		return http.StatusGone
	case ErrorTypeChunkMissing:
		return http.StatusUnprocessableEntity
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeStorageError, ErrorTypeDatabaseError:
		return http.StatusInternalServerError
	case ErrorTypeInternal:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}

// IsErrorType checks if an error is a PlatformError with the specified type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}

	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return platformErr.Type == errorType
	}

	return false
}

// LogError logs a platform error with proper structure
func LogError(logger zerolog.Logger, err *PlatformError) {
	if err == nil {
		return
	}

	event := logger.Error().
		Str("error_uuid", err.UUID).
		Str("error_type", string(err.Type)).
		Str("layer", string(err.Layer)).
		Time("timestamp_utc", err.Timestamp)

	if err.RequestID != "" {
		event = event.Str("request_id", err.RequestID)
	}

	for k, v := range err.Context {
		event = event.Interface(k, v)
	}

	if err.Err != nil {
		event = event.Err(err.Err)
	}

	event.Msg(err.Message)
}
