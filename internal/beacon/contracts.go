package beacon

import "github.com/sitepulse/pulse/internal/model"

// SnapshotSink receives parsed snapshots for storage.
// Implemented by the store's InsertBuffer.
type SnapshotSink interface {
	Add(snapshot *model.VitalsSnapshot)
}

// EnvelopeProcessor consumes source-tagged beacon lines and emits canonical snapshots.
type EnvelopeProcessor interface {
	Name() string
	ProcessEnvelope(model.BeaconEnvelope) *ProcessResult
}

// NewEnvelopeProcessor creates the default processor implementation.
func NewEnvelopeProcessor(sink SnapshotSink, sourceName string) EnvelopeProcessor {
	return NewProcessor(sink, sourceName)
}
