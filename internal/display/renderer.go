package display

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"treesafe/internal/backup"
)

// Renderer writes human-oriented progress and outcome output for backup
// and restore runs. Machine-oriented output stays on the logger; the
// renderer only touches the terminal.
type Renderer struct {
	out    io.Writer
	colors ColorSystem
	quiet  bool
}

// NewRenderer creates a renderer writing to stdout with terminal detection
func NewRenderer(quiet bool) *Renderer {
	return &Renderer{
		out:    os.Stdout,
		colors: NewColorSystem(),
		quiet:  quiet,
	}
}

// NewRendererWithWriter creates a renderer for a specific writer, without
// color support. Used by tests and scripted output.
func NewRendererWithWriter(out io.Writer, quiet bool) *Renderer {
	return &Renderer{
		out:    out,
		colors: NewPlainColorSystem(),
		quiet:  quiet,
	}
}

var stageLabels = map[backup.Stage]string{
	backup.StageValidating:         "Validating job",
	backup.StageDetectingChanges:   "Detecting changes",
	backup.StageArchiving:          "Archiving",
	backup.StageEncrypting:         "Encrypting",
	backup.StageUpdatingCheckpoint: "Updating checkpoint",
	backup.StageDecrypting:         "Decrypting",
	backup.StageExtracting:         "Extracting",
}

// ProgressFunc returns a callback suitable for the orchestrators. Each
// stage transition becomes one line.
func (r *Renderer) ProgressFunc() backup.ProgressFunc {
	return func(event backup.ProgressEvent) {
		if r.quiet {
			return
		}
		label, ok := stageLabels[event.Stage]
		if !ok {
			label = string(event.Stage)
		}
		arrow := r.colors.Colorize("->", ColorGray)
		if event.Message != "" {
			fmt.Fprintf(r.out, "%s %s: %s\n", arrow, label, event.Message)
			return
		}
		fmt.Fprintf(r.out, "%s %s\n", arrow, label)
	}
}

// RenderBackupResult prints the terminal outcome of a backup run.
func (r *Renderer) RenderBackupResult(job backup.BackupJob, result backup.BackupResult) {
	switch result.Outcome {
	case backup.OutcomeNoChange:
		fmt.Fprintln(r.out, r.colors.Colorize("No changes since last checkpoint; nothing to archive.", ColorYellow))
		return
	case backup.OutcomeFailed:
		fmt.Fprintln(r.out, r.colors.Sprintf(ColorRed, "Backup failed: %v", result.Err))
		return
	}

	fmt.Fprintln(r.out, r.colors.Colorize("Backup succeeded.", ColorGreen))
	if r.quiet {
		fmt.Fprintln(r.out, result.ArtifactPath())
		return
	}

	fmt.Fprintf(r.out, "  Artifact:  %s\n", result.ArtifactPath())
	fmt.Fprintf(r.out, "  Format:    %s\n", result.Artifact.Format)
	if result.Artifact.Encrypted {
		fmt.Fprintf(r.out, "  Encrypted: %s\n", job.Encryption.Method)
	}
	if result.Metrics != nil {
		fmt.Fprintf(r.out, "  Files:     %d\n", result.Metrics.FilesArchived)
		fmt.Fprintf(r.out, "  Size:      %s\n", formatBytes(result.Metrics.ArtifactBytes))
		fmt.Fprintf(r.out, "  Duration:  %s\n", formatDuration(result.Metrics.TotalDuration()))
		r.renderStageDurations(result.Metrics)
	}
}

// RenderRestoreResult prints the terminal outcome of a restore run.
func (r *Renderer) RenderRestoreResult(job backup.RestoreJob, result backup.RestoreResult) {
	if result.Outcome == backup.OutcomeFailed {
		fmt.Fprintln(r.out, r.colors.Sprintf(ColorRed, "Restore failed: %v", result.Err))
		return
	}

	fmt.Fprintln(r.out, r.colors.Colorize("Restore succeeded.", ColorGreen))
	if r.quiet {
		return
	}
	fmt.Fprintf(r.out, "  Archive:     %s\n", job.ArchivePath)
	fmt.Fprintf(r.out, "  Destination: %s\n", job.Destination)
	if result.Format != "" {
		fmt.Fprintf(r.out, "  Format:      %s\n", result.Format)
	}
	if result.FilesExtracted > 0 {
		fmt.Fprintf(r.out, "  Files:       %d\n", result.FilesExtracted)
	}
}

// RenderUpload prints where a successful artifact was copied.
func (r *Renderer) RenderUpload(provider, location string) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.out, "  Uploaded:  %s (%s)\n", location, provider)
}

// RenderCheckpoint prints the current checkpoint for a destination.
func (r *Renderer) RenderCheckpoint(destination string, instant time.Time, exists bool) {
	if !exists {
		fmt.Fprintf(r.out, "No checkpoint recorded for %s\n", destination)
		return
	}
	fmt.Fprintf(r.out, "Checkpoint for %s: %s\n", destination, instant.Format(time.RFC3339))
}

func (r *Renderer) renderStageDurations(metrics *backup.JobMetrics) {
	if len(metrics.StageDurations) == 0 {
		return
	}

	stages := make([]backup.Stage, 0, len(metrics.StageDurations))
	for stage := range metrics.StageDurations {
		stages = append(stages, stage)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i] < stages[j] })

	fmt.Fprintln(r.out, "  Stages:")
	for _, stage := range stages {
		label := stageLabels[stage]
		if label == "" {
			label = string(stage)
		}
		fmt.Fprintf(r.out, "    %-20s %s\n", label, formatDuration(metrics.StageDurations[stage]))
	}
}

// formatBytes renders a byte count with a binary unit suffix
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// formatDuration trims durations to a readable precision
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return d.Round(time.Second).String()
	case d >= time.Second:
		return d.Round(10 * time.Millisecond).String()
	default:
		return d.Round(time.Microsecond).String()
	}
}

// Printf writes formatted text directly to the renderer's output
func (r *Renderer) Printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

// Warn writes a single warning line
func (r *Renderer) Warn(message string) {
	fmt.Fprintln(r.out, r.colors.Colorize("! "+strings.TrimSpace(message), ColorYellow))
}
