// Package backup implements the treesafe backup and restore engine.
//
// The engine turns a source directory into a single archive artifact,
// optionally scoped to the files changed since the last successful run
// and optionally wrapped in ciphertext, and reverses the transform on
// restore. It is deliberately sequential: one job, one orchestrator
// invocation, one terminal outcome.
//
// Core Components:
//
// - BackupOrchestrator: drives Validating -> DetectingChanges -> Archiving -> Encrypting -> UpdatingCheckpoint
// - RestoreOrchestrator: drives decryption, format detection and extraction
// - ArchiveBuilder: one strategy per container format (tar, tar.gz, tar.bz2, tar.zst, tar.lz4, zip)
// - CipherCodec: one strategy per encryption method (aes-256-cbc, chacha20)
// - ChangeSetDetector: selects files modified after a checkpoint instant
// - CheckpointStore: one plain-text epoch record per destination directory
//
// Example usage:
//
//	job, err := backup.NewJobBuilder().
//		Source("/data/projects").
//		Destination("/backups").
//		BaseName("projects").
//		Codec("gzip").
//		Build()
//	if err != nil {
//		return err
//	}
//
//	orch := backup.NewOrchestrator(store, logger, nil)
//	result := orch.Run(ctx, job)
//	switch result.Outcome {
//	case backup.OutcomeSucceeded:
//		fmt.Println("artifact:", result.ArtifactPath())
//	case backup.OutcomeNoChange:
//		fmt.Println("nothing to do")
//	case backup.OutcomeFailed:
//		return result.Err
//	}
package backup
