package platformerrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsErrorType(t *testing.T) {
	ctx := context.Background()
	notFound := NewError(ctx, LayerDomain, ErrorTypeNotFound, "item missing", nil, "test-uuid")

	tests := []struct {
		name      string
		err       error
		errorType ErrorType
		want      bool
	}{
		{
			name:      "matching type",
			err:       notFound,
			errorType: ErrorTypeNotFound,
			want:      true,
		},
		{
			name:      "different type",
			err:       notFound,
			errorType: ErrorTypeValidation,
			want:      false,
		},
		{
			name:      "wrapped platform error",
			err:       fmt.Errorf("outer: %w", notFound),
			errorType: ErrorTypeNotFound,
			want:      true,
		},
		{
			name:      "plain error",
			err:       errors.New("plain"),
			errorType: ErrorTypeNotFound,
			want:      false,
		},
		{
			name:      "nil error",
			err:       nil,
			errorType: ErrorTypeNotFound,
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsErrorType(tt.err, tt.errorType); got != tt.want {
				t.Errorf("IsErrorType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMissingChunkIndex(t *testing.T) {
	ctx := context.Background()

	err := NewChunkMissing(ctx, 7, "test-uuid")
	if index, ok := MissingChunkIndex(err); !ok || index != 7 {
		t.Errorf("MissingChunkIndex() = (%d, %v), want (7, true)", index, ok)
	}

	wrapped := fmt.Errorf("complete failed: %w", err)
	if index, ok := MissingChunkIndex(wrapped); !ok || index != 7 {
		t.Errorf("MissingChunkIndex(wrapped) = (%d, %v), want (7, true)", index, ok)
	}

	other := NewError(ctx, LayerDomain, ErrorTypeValidation, "bad input", nil, "test-uuid")
	if index, ok := MissingChunkIndex(other); ok || index != 0 {
		t.Errorf("MissingChunkIndex(non-chunk) = (%d, %v), want (0, false)", index, ok)
	}

	if index, ok := MissingChunkIndex(errors.New("plain")); ok || index != 0 {
		t.Errorf("MissingChunkIndex(plain) = (%d, %v), want (0, false)", index, ok)
	}
}

func TestAsError(t *testing.T) {
	ctx := context.Background()

	if got := AsError(ctx, LayerInfrastructure, nil, "ignored"); got != nil {
		t.Errorf("AsError(nil) = %v, want nil", got)
	}

	plain := errors.New("disk full")
	wrapped := AsError(ctx, LayerInfrastructure, plain, "write failed")
	if wrapped.Type != ErrorTypeInternal {
		t.Errorf("plain error type = %s, want %s", wrapped.Type, ErrorTypeInternal)
	}
	if !errors.Is(wrapped, plain) {
		t.Error("wrapped error does not unwrap to original")
	}

	inner := NewError(ctx, LayerDomain, ErrorTypeDuplicate, "hash exists", nil, "inner-uuid")
	rewrapped := AsError(ctx, LayerHandler, inner, "upload rejected")
	if rewrapped.Type != ErrorTypeDuplicate {
		t.Errorf("rewrapped type = %s, want %s", rewrapped.Type, ErrorTypeDuplicate)
	}
	if rewrapped.UUID != "inner-uuid" {
		t.Errorf("rewrapped UUID = %s, want inner-uuid", rewrapped.UUID)
	}
}

func TestErrorTypeToHTTPStatus(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		want      int
	}{
		{ErrorTypeNotFound, http.StatusNotFound},
		{ErrorTypeValidation, http.StatusBadRequest},
		{ErrorTypeInvalidFile, http.StatusBadRequest},
		{ErrorTypeFileTooLarge, http.StatusRequestEntityTooLarge},
		{ErrorTypeTypeNotAllowed, http.StatusUnsupportedMediaType},
		{ErrorTypeUnsupportedFormat, http.StatusUnsupportedMediaType},
		{ErrorTypeDuplicate, http.StatusConflict},
		{ErrorTypeConflict, http.StatusConflict},
		{ErrorTypeExpired, http.StatusGone},
		{ErrorTypeChunkMissing, http.StatusUnprocessableEntity},
		{ErrorTypeUnauthorized, http.StatusUnauthorized},
		{ErrorTypeStorageError, http.StatusInternalServerError},
		{ErrorTypeDatabaseError, http.StatusInternalServerError},
		{ErrorTypeInternal, http.StatusInternalServerError},
		{ErrorType("SOMETHING_NEW"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.errorType), func(t *testing.T) {
			if got := ErrorTypeToHTTPStatus(tt.errorType); got != tt.want {
				t.Errorf("ErrorTypeToHTTPStatus(%s) = %d, want %d", tt.errorType, got, tt.want)
			}
		})
	}
}
