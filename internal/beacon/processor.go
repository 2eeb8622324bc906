package beacon

import (
	"sync"
	"time"

	"github.com/sitepulse/pulse/internal/model"
)

// ProcessorNameVitals is the single processor implementation name.
const ProcessorNameVitals = "vitals"

// Processor parses beacon lines into snapshots and routes them to storage.
type Processor struct {
	mu         sync.RWMutex
	sink       SnapshotSink
	sourceName string
}

// NewProcessor creates a new beacon processor.
func NewProcessor(sink SnapshotSink, sourceName string) *Processor {
	return &Processor{
		sink:       sink,
		sourceName: sourceName,
	}
}

func (p *Processor) Name() string { return ProcessorNameVitals }

// ProcessResult holds the result of processing a beacon line.
type ProcessResult struct {
	Snapshot *model.VitalsSnapshot
}

// ProcessLine processes an untagged line using the processor source name.
func (p *Processor) ProcessLine(line string) *ProcessResult {
	return p.ProcessEnvelope(model.BeaconEnvelope{
		Source: p.getSourceName(),
		Line:   line,
	})
}

// ProcessEnvelope processes one source-tagged beacon line.
// Returns nil for empty or unparseable lines.
func (p *Processor) ProcessEnvelope(env model.BeaconEnvelope) *ProcessResult {
	if env.Line == "" {
		return nil
	}

	snapshot := ParseBeacon(env.Line)
	if snapshot == nil {
		return nil
	}

	source := env.Source
	if source == "" {
		source = p.getSourceName()
	}
	snapshot.Source = source

	if snapshot.CollectedAt.IsZero() {
		snapshot.CollectedAt = time.Now().UTC()
	}
	if snapshot.Locale == "" {
		snapshot.Locale = "en"
	}

	if p.sink != nil {
		p.sink.Add(snapshot)
	}

	return &ProcessResult{Snapshot: snapshot}
}

// SetSourceName updates the default source name for untagged lines.
func (p *Processor) SetSourceName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sourceName = name
}

func (p *Processor) getSourceName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sourceName
}
