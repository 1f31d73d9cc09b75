package backup

import "time"

// Stage identifies a pipeline stage for progress reporting.
type Stage string

const (
	StageValidating         Stage = "validating"
	StageDetectingChanges   Stage = "detecting_changes"
	StageArchiving          Stage = "archiving"
	StageEncrypting         Stage = "encrypting"
	StageUpdatingCheckpoint Stage = "updating_checkpoint"
	StageDecrypting         Stage = "decrypting"
	StageExtracting         Stage = "extracting"
)

// ProgressEvent is a coarse-grained stage-completion event. Adapters may
// render these however they like; the engine stays silent if nobody
// listens.
type ProgressEvent struct {
	Stage   Stage
	Message string
	At      time.Time
}

// ProgressFunc consumes progress events. A nil ProgressFunc is valid and
// means no reporting.
type ProgressFunc func(ProgressEvent)

// emit sends an event through fn if one is attached.
func (fn ProgressFunc) emit(stage Stage, message string) {
	if fn == nil {
		return
	}
	fn(ProgressEvent{Stage: stage, Message: message, At: time.Now()})
}
