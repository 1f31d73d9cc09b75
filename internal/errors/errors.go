// Package errors classifies failures that reach the application layer
// and provides retry and shutdown plumbing built on that classification.
// The backup engine keeps its own error taxonomy; this package covers
// everything around it, such as uploads, webhooks and signal handling.
package errors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ErrorType is the coarse failure category used for retry decisions
// and user-facing messages.
type ErrorType string

const (
	ErrorTypeFileSystem   ErrorType = "filesystem"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypePermission   ErrorType = "permission"
	ErrorTypeNetwork      ErrorType = "network"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeInterruption ErrorType = "interruption"
	ErrorTypeUnknown      ErrorType = "unknown"
)

// AppError carries a classified failure through the application layer.
// Recoverable marks errors worth retrying; UserMessage, when set,
// replaces Message in terminal output.
type AppError struct {
	Type        ErrorType
	Message     string
	Cause       error
	Context     map[string]interface{}
	Recoverable bool
	UserMessage string
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// GetUserMessage prefers the user-facing text over the internal one.
func (e *AppError) GetUserMessage() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	return e.Message
}

func (e *AppError) IsRecoverable() bool {
	return e.Recoverable
}

// WithContext attaches a key/value pair and returns the error for chaining.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError builds an unrecoverable classified error.
func NewAppError(errorType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewRecoverableError builds a classified error that retry handlers may
// attempt again.
func NewRecoverableError(errorType ErrorType, message string, cause error) *AppError {
	appErr := NewAppError(errorType, message, cause)
	appErr.Recoverable = true
	return appErr
}

// ErrorClassifier maps raw errors from the filesystem, the network and
// canceled contexts onto the ErrorType taxonomy.
type ErrorClassifier struct{}

func NewErrorClassifier() *ErrorClassifier {
	return &ErrorClassifier{}
}

// ClassifyError turns any error into an AppError. Errors that are
// already classified pass through untouched.
func (ec *ErrorClassifier) ClassifyError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if classified := ec.classifyTransport(err); classified != nil {
		return classified
	}
	if classified := ec.classifyContext(err); classified != nil {
		return classified
	}
	if classified := ec.classifyPath(err); classified != nil {
		return classified
	}

	return NewAppError(ErrorTypeUnknown, "unexpected failure", err)
}

// classifyTransport covers upload and webhook traffic. Connection and
// I/O failures against a remote store are worth retrying.
func (ec *ErrorClassifier) classifyTransport(err error) *AppError {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewRecoverableError(ErrorTypeTimeout, "network operation timed out", err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch opErr.Op {
		case "dial":
			return NewRecoverableError(ErrorTypeNetwork, "remote endpoint unreachable", err)
		case "read", "write":
			return NewRecoverableError(ErrorTypeNetwork, "connection dropped mid transfer", err)
		}
	}
	return nil
}

func (ec *ErrorClassifier) classifyContext(err error) *AppError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewRecoverableError(ErrorTypeTimeout, "deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		return NewAppError(ErrorTypeInterruption, "run was canceled", err)
	}
	return nil
}

// classifyPath covers source trees, destinations and artifacts on disk.
// A missing path is a job input problem, not a filesystem fault.
func (ec *ErrorClassifier) classifyPath(err error) *AppError {
	var pathErr *os.PathError
	if !errors.As(err, &pathErr) {
		return nil
	}

	switch {
	case errors.Is(pathErr, fs.ErrNotExist):
		return NewAppError(ErrorTypeValidation,
			fmt.Sprintf("path does not exist: %s", pathErr.Path), err)
	case errors.Is(pathErr, fs.ErrPermission):
		return NewAppError(ErrorTypePermission,
			fmt.Sprintf("access denied: %s", pathErr.Path), err)
	case errors.Is(pathErr, syscall.ENOSPC):
		return NewAppError(ErrorTypeFileSystem, "destination volume is full", err)
	}
	return NewAppError(ErrorTypeFileSystem,
		fmt.Sprintf("filesystem fault on %s", pathErr.Path), err)
}

// RetryConfig bounds the retry loop.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultRetryConfig suits artifact uploads: a few attempts, capped
// exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
	}
}

// RetryHandler re-runs operations whose classified failure is
// recoverable.
type RetryHandler struct {
	config     RetryConfig
	classifier *ErrorClassifier
}

func NewRetryHandler(config RetryConfig) *RetryHandler {
	return &RetryHandler{config: config, classifier: NewErrorClassifier()}
}

func NewDefaultRetryHandler() *RetryHandler {
	return NewRetryHandler(DefaultRetryConfig())
}

// Retry runs the operation until it succeeds, fails unrecoverably, the
// attempt budget runs out or the context ends. An exhausted budget is
// reported with the attempt count in the error context.
func (rh *RetryHandler) Retry(ctx context.Context, operation func() error) error {
	delay := rh.config.BaseDelay
	var lastErr error

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return NewAppError(ErrorTypeInterruption, "retry loop canceled", ctx.Err())
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		classified := rh.classifier.ClassifyError(lastErr)
		if !classified.IsRecoverable() {
			return classified
		}
		if attempt >= rh.config.MaxAttempts {
			return classified.WithContext("attempts", rh.config.MaxAttempts)
		}

		select {
		case <-ctx.Done():
			return NewAppError(ErrorTypeInterruption, "retry loop canceled", ctx.Err())
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * rh.config.Multiplier)
		if delay > rh.config.MaxDelay {
			delay = rh.config.MaxDelay
		}
	}
}

// GracefulShutdownHandler runs registered cleanup functions when the
// process receives SIGINT or SIGTERM. Functions run newest first so
// that dependents shut down before the things they depend on.
type GracefulShutdownHandler struct {
	shutdownFuncs []func() error
	signals       chan os.Signal
	done          chan struct{}
}

func NewGracefulShutdownHandler() *GracefulShutdownHandler {
	return &GracefulShutdownHandler{
		signals: make(chan os.Signal, 1),
		done:    make(chan struct{}, 1),
	}
}

func (gsh *GracefulShutdownHandler) RegisterShutdownFunc(fn func() error) {
	gsh.shutdownFuncs = append(gsh.shutdownFuncs, fn)
}

// Start begins watching for termination signals.
func (gsh *GracefulShutdownHandler) Start() {
	signal.Notify(gsh.signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-gsh.signals
		gsh.shutdown()
	}()
}

// Stop detaches the signal watcher.
func (gsh *GracefulShutdownHandler) Stop() {
	signal.Stop(gsh.signals)
	close(gsh.signals)
}

// WaitForShutdown blocks until the cleanup functions have run.
func (gsh *GracefulShutdownHandler) WaitForShutdown() {
	<-gsh.done
}

func (gsh *GracefulShutdownHandler) shutdown() {
	defer func() { gsh.done <- struct{}{} }()

	for i := len(gsh.shutdownFuncs) - 1; i >= 0; i-- {
		if err := gsh.shutdownFuncs[i](); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown step failed: %v\n", err)
		}
	}
}

// IsRecoverableError reports whether err carries a recoverable
// classification. Unclassified errors are treated as final.
func IsRecoverableError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.IsRecoverable()
}

// GetErrorType extracts the classification, or Unknown for plain errors.
func GetErrorType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

// FormatUserError renders err for the terminal without leaking internal
// detail from unclassified errors.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.GetUserMessage()
	}
	return "An unexpected error occurred. Check the log output for details."
}

// WrapError layers a message on top of err, preserving an existing
// classification and classifying plain errors on the way through.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return NewAppError(appErr.Type, message, err)
	}

	classified := NewErrorClassifier().ClassifyError(err)
	classified.Message = message
	return classified
}
