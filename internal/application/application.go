package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"treesafe/internal/backup"
	"treesafe/internal/confirmation"
	"treesafe/internal/display"
	appErrors "treesafe/internal/errors"
	"treesafe/internal/logging"
)

// Application wires configuration, logging, display and the backup
// engine into one runnable unit shared by the CLI commands.
type Application struct {
	config          backup.SystemConfig
	logger          *logging.Logger
	renderer        *display.Renderer
	confirm         confirmation.ConfirmationService
	notifier        *backup.Notifier
	retry           *appErrors.RetryHandler
	shutdownHandler *appErrors.GracefulShutdownHandler
	options         Options
}

// Options holds per-invocation flags that override configuration.
type Options struct {
	Verbose     bool
	Quiet       bool
	AutoApprove bool
	LogFile     string
}

// NewApplication creates an application from validated configuration.
func NewApplication(config backup.SystemConfig, options Options) (*Application, error) {
	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	level := logging.LogLevel(config.Logging.Level)
	if options.Quiet {
		level = logging.LogLevelQuiet
	} else if options.Verbose {
		level = logging.LogLevelVerbose
	}

	logFile := config.Logging.File
	if options.LogFile != "" {
		logFile = options.LogFile
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:   level,
		Format:  config.Logging.Format,
		LogFile: logFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	app := &Application{
		config:          config,
		logger:          logger,
		renderer:        display.NewRenderer(options.Quiet),
		confirm:         confirmation.NewConfirmationService(),
		notifier:        backup.NewNotifier(config.Notify),
		retry:           appErrors.NewDefaultRetryHandler(),
		shutdownHandler: appErrors.NewGracefulShutdownHandler(),
		options:         options,
	}
	app.shutdownHandler.RegisterShutdownFunc(func() error {
		logger.Warn("Interrupted; shutting down")
		return nil
	})
	app.shutdownHandler.Start()

	return app, nil
}

// Logger exposes the process logger.
func (app *Application) Logger() *logging.Logger {
	return app.logger
}

// Renderer exposes the terminal renderer.
func (app *Application) Renderer() *display.Renderer {
	return app.renderer
}

// Close stops background handlers.
func (app *Application) Close() {
	app.shutdownHandler.Stop()
}

// ExecuteBackup runs one backup job to its terminal outcome, uploads and
// notifies as configured, and returns a non-nil error only for failed
// outcomes.
func (app *Application) ExecuteBackup(ctx context.Context, job *backup.BackupJob) error {
	orchestrator := backup.NewOrchestrator(
		backup.NewFileCheckpointStore(),
		app.logger,
		app.renderer.ProgressFunc(),
	)

	result := orchestrator.Run(ctx, job)
	app.renderer.RenderBackupResult(*job, result)

	if result.Outcome == backup.OutcomeSucceeded {
		app.uploadArtifact(ctx, result)
	}
	app.sendNotification(ctx, backup.NotificationPayload{
		JobID:    job.ID,
		Kind:     "backup",
		Outcome:  result.Outcome,
		Artifact: result.ArtifactPath(),
		Error:    errorText(result.Err),
	})

	if result.Outcome == backup.OutcomeFailed {
		app.reportFailure(result.Err)
		return result.Err
	}
	return nil
}

// ExecuteRestore runs one restore job, prompting first when the
// destination already holds files.
func (app *Application) ExecuteRestore(ctx context.Context, job *backup.RestoreJob) error {
	approved, err := app.confirm.ConfirmRestore(job.ArchivePath, job.Destination, app.options.AutoApprove)
	if err != nil {
		return err
	}
	if !approved {
		app.renderer.Warn("Restore aborted")
		return nil
	}

	orchestrator := backup.NewRestoreOrchestrator(app.logger, app.renderer.ProgressFunc())
	result := orchestrator.Run(ctx, job)
	app.renderer.RenderRestoreResult(*job, result)

	app.sendNotification(ctx, backup.NotificationPayload{
		JobID:   job.ID,
		Kind:    "restore",
		Outcome: result.Outcome,
		Error:   errorText(result.Err),
	})

	if result.Outcome == backup.OutcomeFailed {
		app.reportFailure(result.Err)
		return result.Err
	}
	return nil
}

// ShowCheckpoint prints the recorded checkpoint for a destination.
func (app *Application) ShowCheckpoint(destination string) error {
	instant, exists, err := backup.NewFileCheckpointStore().Get(destination)
	if err != nil {
		return err
	}
	app.renderer.RenderCheckpoint(destination, instant, exists)
	return nil
}

// ClearCheckpoint removes the recorded checkpoint for a destination.
func (app *Application) ClearCheckpoint(destination string) error {
	if err := backup.NewFileCheckpointStore().Clear(destination); err != nil {
		return err
	}
	app.logger.WithField("destination", destination).Info("Checkpoint cleared")
	app.renderer.Printf("Checkpoint cleared for %s\n", destination)
	return nil
}

// uploadArtifact copies a successful artifact to the configured remote
// store. Upload failures never retro-fail the job.
func (app *Application) uploadArtifact(ctx context.Context, result backup.BackupResult) {
	uploader, err := backup.NewUploader(ctx, app.config.Upload)
	if err != nil {
		app.logger.Errorf("Upload disabled: %v", err)
		app.renderer.Warn(fmt.Sprintf("Upload skipped: %v", err))
		return
	}
	if uploader == nil {
		return
	}

	localPath := result.ArtifactPath()
	objectName := filepath.Base(localPath)

	var location string
	err = app.retry.Retry(ctx, func() error {
		var uploadErr error
		location, uploadErr = uploader.Upload(ctx, localPath, objectName)
		return uploadErr
	})
	if err != nil {
		app.logger.WithFields(map[string]interface{}{
			"provider": uploader.Provider(),
			"artifact": localPath,
		}).Errorf("Artifact upload failed: %v", err)
		app.renderer.Warn(fmt.Sprintf("Upload failed: %v", err))
		return
	}

	app.logger.WithFields(map[string]interface{}{
		"provider": uploader.Provider(),
		"location": location,
	}).Info("Artifact uploaded")
	app.renderer.RenderUpload(uploader.Provider(), location)
}

// sendNotification posts the outcome webhook when configured.
func (app *Application) sendNotification(ctx context.Context, payload backup.NotificationPayload) {
	if !app.notifier.Enabled() {
		return
	}

	notifyCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := app.notifier.Notify(notifyCtx, payload); err != nil {
		app.logger.Warnf("Outcome notification failed: %v", err)
	}
}

// reportFailure logs structured failure detail and prints a
// user-oriented message.
func (app *Application) reportFailure(err *backup.BackupError) {
	if err == nil {
		return
	}

	app.logger.WithFields(map[string]interface{}{
		"error_kind": string(err.Kind),
		"context":    err.Context,
	}).Error("Job failed")

	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)
	if cause := errors.Unwrap(err); cause != nil {
		fmt.Fprintf(os.Stderr, "Cause: %v\n", cause)
	}
}

func errorText(err *backup.BackupError) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
