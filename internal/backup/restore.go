package backup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"treesafe/internal/logging"
)

// RestoreOrchestrator sequences decryption, format detection and
// extraction into one restore job execution.
type RestoreOrchestrator struct {
	ciphers   *CipherSet
	extractor *Extractor
	logger    *logging.Logger
	progress  ProgressFunc
}

// NewRestoreOrchestrator creates a restore orchestrator with default
// component strategies.
func NewRestoreOrchestrator(logger *logging.Logger, progress ProgressFunc) *RestoreOrchestrator {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &RestoreOrchestrator{
		ciphers:   NewCipherSet(),
		extractor: NewExtractor(),
		logger:    logger,
		progress:  progress,
	}
}

// Run executes a restore job to a terminal outcome. Decryption failures,
// unrecognized formats and extraction failures are all fatal; nothing is
// written to the destination before the format is known.
func (o *RestoreOrchestrator) Run(ctx context.Context, job *RestoreJob) RestoreResult {
	metrics := newJobMetrics()
	start := time.Now()

	format, fileCount, err := o.run(ctx, job, metrics)
	metrics.finish()

	o.logger.LogRestoreCompleted(job.ID, job.ArchivePath, job.Destination, fileCount, time.Since(start), err)

	if err != nil {
		return RestoreResult{
			Outcome: OutcomeFailed,
			Format:  format,
			Err:     AsBackupError(err, ErrKindExtraction),
			Metrics: metrics,
		}
	}
	return RestoreResult{
		Outcome:        OutcomeSucceeded,
		Format:         format,
		FilesExtracted: fileCount,
		Metrics:        metrics,
	}
}

func (o *RestoreOrchestrator) run(ctx context.Context, job *RestoreJob, metrics *JobMetrics) (ArchiveFormat, int, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, NewValidationError("job canceled before execution", err)
	}

	if _, err := os.Stat(job.ArchivePath); err != nil {
		return "", 0, NewValidationError("archive does not exist", err).
			WithContext("archive", job.ArchivePath)
	}

	archivePath := job.ArchivePath

	// Decryption stages plaintext in a private temp directory; the restore
	// destination is never touched until the format is recognized.
	if strings.HasSuffix(archivePath, EncryptedSuffix) {
		if len(job.Key) == 0 {
			return "", 0, NewValidationError("archive is encrypted but no key was supplied", nil).
				WithContext("archive", archivePath)
		}

		stop := metrics.track(StageDecrypting)
		staging, err := os.MkdirTemp("", "treesafe-restore-")
		if err != nil {
			stop()
			return "", 0, NewDecryptionError("failed to create staging directory", err)
		}
		defer os.RemoveAll(staging)

		plainName := strings.TrimSuffix(filepath.Base(archivePath), EncryptedSuffix)
		plainPath := filepath.Join(staging, plainName)
		err = o.ciphers.DecryptFile(archivePath, plainPath, job.Key)
		stop()
		if err != nil {
			return "", 0, err
		}
		archivePath = plainPath
		o.progress.emit(StageDecrypting, plainName)
	}

	// Format detection precedes any destination write.
	format, err := DetectFormat(archivePath)
	if err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(job.Destination, 0o755); err != nil {
		return format, 0, NewExtractionError("destination directory is not writable", err).
			WithContext("destination", job.Destination)
	}

	stop := metrics.track(StageExtracting)
	count, err := o.extractor.Extract(archivePath, job.Destination)
	stop()
	if err != nil {
		return format, count, err
	}
	metrics.FilesArchived = count
	o.progress.emit(StageExtracting, job.Destination)

	return format, count, nil
}
