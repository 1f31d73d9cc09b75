package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormatting(t *testing.T) {
	err := NewAppError(ErrorTypeValidation, "bad input", fmt.Errorf("field missing"))
	assert.Equal(t, "validation: bad input (caused by: field missing)", err.Error())

	bare := NewAppError(ErrorTypePermission, "denied", nil)
	assert.Equal(t, "permission: denied", bare.Error())
}

func TestAppErrorUnwrapAndContext(t *testing.T) {
	cause := fmt.Errorf("root")
	err := NewAppError(ErrorTypeFileSystem, "disk trouble", cause).
		WithContext("path", "/backups")

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "/backups", err.Context["path"])
}

func TestClassifyError(t *testing.T) {
	classifier := NewErrorClassifier()

	tests := []struct {
		name            string
		err             error
		wantType        ErrorType
		wantRecoverable bool
	}{
		{
			name:     "nil error",
			err:      nil,
			wantType: "",
		},
		{
			name:     "file not found",
			err:      &os.PathError{Op: "open", Path: "/missing", Err: syscall.ENOENT},
			wantType: ErrorTypeValidation,
		},
		{
			name:     "permission denied",
			err:      &os.PathError{Op: "open", Path: "/root/secret", Err: syscall.EACCES},
			wantType: ErrorTypePermission,
		},
		{
			name:     "disk full",
			err:      &os.PathError{Op: "write", Path: "/backups/a.tar", Err: syscall.ENOSPC},
			wantType: ErrorTypeFileSystem,
		},
		{
			name:            "context deadline",
			err:             context.DeadlineExceeded,
			wantType:        ErrorTypeTimeout,
			wantRecoverable: true,
		},
		{
			name:     "context canceled",
			err:      context.Canceled,
			wantType: ErrorTypeInterruption,
		},
		{
			name:            "dial failure",
			err:             &net.OpError{Op: "dial", Err: fmt.Errorf("connection refused")},
			wantType:        ErrorTypeNetwork,
			wantRecoverable: true,
		},
		{
			name:     "unknown",
			err:      fmt.Errorf("mystery"),
			wantType: ErrorTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.ClassifyError(tt.err)
			if tt.err == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantRecoverable, got.IsRecoverable())
		})
	}
}

func TestClassifyErrorPassesThroughAppError(t *testing.T) {
	original := NewAppError(ErrorTypeValidation, "already classified", nil)
	got := NewErrorClassifier().ClassifyError(fmt.Errorf("wrapped: %w", original))
	assert.Same(t, original, got)
}

func TestRetrySucceedsAfterRecoverableFailures(t *testing.T) {
	handler := NewRetryHandler(RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
	})

	attempts := 0
	err := handler.Retry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return NewRecoverableError(ErrorTypeNetwork, "flaky", nil)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryStopsOnUnrecoverableError(t *testing.T) {
	handler := NewDefaultRetryHandler()

	attempts := 0
	err := handler.Retry(context.Background(), func() error {
		attempts++
		return NewAppError(ErrorTypeValidation, "permanent", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts, "unrecoverable errors must not be retried")
	assert.Equal(t, ErrorTypeValidation, GetErrorType(err))
}

func TestRetryExhaustsAttempts(t *testing.T) {
	handler := NewRetryHandler(RetryConfig{
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
		Multiplier:  2.0,
	})

	attempts := 0
	err := handler.Retry(context.Background(), func() error {
		attempts++
		return NewRecoverableError(ErrorTypeTimeout, "always slow", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 2, attempts)

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 2, appErr.Context["attempts"])
}

func TestRetryHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewDefaultRetryHandler().Retry(ctx, func() error {
		t.Fatal("operation must not run with canceled context")
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, ErrorTypeInterruption, GetErrorType(err))
}

func TestIsRecoverableError(t *testing.T) {
	assert.True(t, IsRecoverableError(NewRecoverableError(ErrorTypeNetwork, "x", nil)))
	assert.False(t, IsRecoverableError(NewAppError(ErrorTypeValidation, "x", nil)))
	assert.False(t, IsRecoverableError(fmt.Errorf("plain")))
}

func TestFormatUserError(t *testing.T) {
	assert.Empty(t, FormatUserError(nil))

	err := NewAppError(ErrorTypePermission, "internal detail", nil)
	err.UserMessage = "You do not have access to this directory"
	assert.Equal(t, "You do not have access to this directory", FormatUserError(err))

	assert.Contains(t, FormatUserError(fmt.Errorf("raw")), "unexpected error")
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "ignored"))

	inner := NewAppError(ErrorTypeFileSystem, "inner", nil)
	wrapped := WrapError(inner, "outer message")
	assert.Equal(t, ErrorTypeFileSystem, GetErrorType(wrapped), "wrapping preserves the type")

	foreign := WrapError(fmt.Errorf("plain"), "renamed")
	var appErr *AppError
	require.True(t, errors.As(foreign, &appErr))
	assert.Equal(t, "renamed", appErr.Message)
}

func TestGracefulShutdownHandlerRunsFuncsInReverse(t *testing.T) {
	handler := NewGracefulShutdownHandler()

	var order []int
	handler.RegisterShutdownFunc(func() error {
		order = append(order, 1)
		return nil
	})
	handler.RegisterShutdownFunc(func() error {
		order = append(order, 2)
		return nil
	})

	handler.shutdown()
	handler.WaitForShutdown()

	assert.Equal(t, []int{2, 1}, order, "shutdown funcs run newest first")
}
