package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"treesafe/internal/logging"
)

// Orchestrator sequences detection, archiving, encryption and checkpoint
// update into one backup job execution. Stages run strictly sequentially;
// every failure is terminal for the current job and no stage is retried.
// Callers re-invoke from the top, and must serialize jobs per destination.
type Orchestrator struct {
	archives    *ArchiveRegistry
	ciphers     *CipherSet
	detector    *ChangeSetDetector
	checkpoints CheckpointStore
	logger      *logging.Logger
	progress    ProgressFunc
}

// NewOrchestrator creates an orchestrator with default component
// strategies.
func NewOrchestrator(checkpoints CheckpointStore, logger *logging.Logger, progress ProgressFunc) *Orchestrator {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Orchestrator{
		archives:    NewArchiveRegistry(),
		ciphers:     NewCipherSet(),
		detector:    NewChangeSetDetector(),
		checkpoints: checkpoints,
		logger:      logger,
		progress:    progress,
	}
}

// NewOrchestratorWithDependencies creates an orchestrator with provided
// components.
func NewOrchestratorWithDependencies(
	archives *ArchiveRegistry,
	ciphers *CipherSet,
	detector *ChangeSetDetector,
	checkpoints CheckpointStore,
	logger *logging.Logger,
	progress ProgressFunc,
) *Orchestrator {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Orchestrator{
		archives:    archives,
		ciphers:     ciphers,
		detector:    detector,
		checkpoints: checkpoints,
		logger:      logger,
		progress:    progress,
	}
}

// Run executes a backup job to a terminal outcome.
func (o *Orchestrator) Run(ctx context.Context, job *BackupJob) BackupResult {
	metrics := newJobMetrics()
	done := o.logger.LogOperationStart("backup_job", map[string]interface{}{
		"job_id":      job.ID,
		"source":      job.Source,
		"destination": job.Destination,
		"codec":       string(job.Codec),
		"incremental": job.Incremental,
	})

	result := o.run(ctx, job, metrics)
	metrics.finish()
	result.Metrics = metrics

	if result.Err != nil {
		done(result.Err)
	} else {
		done(nil)
	}
	return result
}

func (o *Orchestrator) run(ctx context.Context, job *BackupJob, metrics *JobMetrics) BackupResult {
	// Validating
	stop := metrics.track(StageValidating)
	err := o.validate(ctx, job)
	stop()
	if err != nil {
		return o.fail(job, StageValidating, AsBackupError(err, ErrKindValidation))
	}
	o.progress.emit(StageValidating, "source and destination validated")

	// DetectingChanges: entered only for incremental jobs. Non-incremental
	// jobs archive the whole tree.
	var changes ChangeSet
	if job.Incremental {
		stop = metrics.track(StageDetectingChanges)
		changes, err = o.detectChanges(job)
		stop()
		if err != nil {
			return o.fail(job, StageDetectingChanges, AsBackupError(err, ErrKindValidation))
		}
		o.progress.emit(StageDetectingChanges, fmt.Sprintf("%d modified files", len(changes)))

		// An empty change set is a successful no-op, not an error. No
		// artifact is produced and the checkpoint is left untouched.
		if len(changes) == 0 {
			return BackupResult{Outcome: OutcomeNoChange}
		}
	}

	// Archiving
	stop = metrics.track(StageArchiving)
	artifact, fileCount, err := o.archive(job, changes)
	stop()
	if err != nil {
		return o.fail(job, StageArchiving, AsBackupError(err, ErrKindArchive))
	}
	metrics.FilesArchived = fileCount
	if info, statErr := os.Stat(artifact.Path); statErr == nil {
		metrics.ArtifactBytes = info.Size()
	}
	o.logger.LogArchiveCreated(job.ID, artifact.Path, fileCount, metrics.ArtifactBytes, metrics.StageDurations[StageArchiving])
	o.progress.emit(StageArchiving, filepath.Base(artifact.Path))

	// Encrypting: skipped without an EncryptionSpec. On failure the
	// plaintext artifact is preserved for inspection.
	if job.Encryption != nil {
		stop = metrics.track(StageEncrypting)
		cipherPath, encErr := o.ciphers.EncryptFile(artifact.Path, job.Encryption)
		stop()
		if encErr != nil {
			berr := AsBackupError(encErr, ErrKindEncryption).
				WithContext("plaintext_preserved", artifact.Path)
			return o.fail(job, StageEncrypting, berr)
		}
		artifact.Path = cipherPath
		artifact.Encrypted = true
		if info, statErr := os.Stat(cipherPath); statErr == nil {
			metrics.ArtifactBytes = info.Size()
		}
		o.progress.emit(StageEncrypting, filepath.Base(cipherPath))
	}

	// UpdatingCheckpoint: incremental jobs stamp the job start instant so
	// files modified mid-run land in the next change set.
	if job.Incremental {
		stop = metrics.track(StageUpdatingCheckpoint)
		err = o.checkpoints.Set(job.Destination, job.CreatedAt)
		stop()
		if err != nil {
			return o.fail(job, StageUpdatingCheckpoint, AsBackupError(err, ErrKindCheckpoint))
		}
		o.progress.emit(StageUpdatingCheckpoint, job.CreatedAt.Format(timestampLayout))
	}

	// Manifest sidecar is advisory; a write failure is logged, not fatal.
	if _, merr := WriteManifest(job, artifact, metrics); merr != nil {
		o.logger.Warnf("manifest write failed for %s: %v", artifact.Path, merr)
	}

	return BackupResult{Outcome: OutcomeSucceeded, Artifact: artifact}
}

// validate checks that the source is a readable directory and the
// destination is a writable directory.
func (o *Orchestrator) validate(ctx context.Context, job *BackupJob) error {
	if err := ctx.Err(); err != nil {
		return NewValidationError("job canceled before execution", err)
	}

	info, err := os.Stat(job.Source)
	if err != nil {
		return NewValidationError("source directory does not exist", err).
			WithContext("source", job.Source)
	}
	if !info.IsDir() {
		return NewValidationError("source is not a directory", nil).
			WithContext("source", job.Source)
	}
	dir, err := os.Open(job.Source)
	if err != nil {
		return NewValidationError("source directory is not readable", err).
			WithContext("source", job.Source)
	}
	dir.Close()

	info, err = os.Stat(job.Destination)
	if err != nil {
		return NewValidationError("destination directory does not exist", err).
			WithContext("destination", job.Destination)
	}
	if !info.IsDir() {
		return NewValidationError("destination is not a directory", nil).
			WithContext("destination", job.Destination)
	}

	// Write probe; stat alone cannot prove writability.
	probe := filepath.Join(job.Destination, ".treesafe_probe")
	if err := os.WriteFile(probe, []byte{}, 0o600); err != nil {
		return NewValidationError("destination directory is not writable", err).
			WithContext("destination", job.Destination)
	}
	os.Remove(probe)

	return nil
}

func (o *Orchestrator) detectChanges(job *BackupJob) (ChangeSet, error) {
	since, _, err := o.checkpoints.Get(job.Destination)
	if err != nil {
		return nil, err
	}

	changes, err := o.detector.Detect(job.Source, since)
	if err != nil {
		return nil, err
	}
	o.logger.LogChangeDetection(job.ID, job.Source, len(changes), since)
	return changes, nil
}

func (o *Orchestrator) archive(job *BackupJob, changes ChangeSet) (*Artifact, int, error) {
	builder, err := o.archives.Builder(job.Codec)
	if err != nil {
		return nil, 0, err
	}

	incrementalList := job.Incremental && changes != nil
	name, err := ArtifactBaseName(job, incrementalList)
	if err != nil {
		return nil, 0, err
	}
	destPath := filepath.Join(job.Destination, name)

	var count int
	if incrementalList {
		count, err = builder.BuildList(destPath, job.Source, changes)
	} else {
		count, err = builder.BuildTree(destPath, job.Source)
	}
	if err != nil {
		return nil, 0, err
	}

	return &Artifact{Path: destPath, Format: builder.Format()}, count, nil
}

func (o *Orchestrator) fail(job *BackupJob, stage Stage, err *BackupError) BackupResult {
	o.logger.LogStageTransition(job.ID, string(stage), 0, err)
	return BackupResult{
		Outcome: OutcomeFailed,
		Err:     err.WithContext("stage", string(stage)),
	}
}
