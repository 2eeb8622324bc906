package model

// BeaconEnvelope carries one raw beacon payload with source metadata.
// It is the transport contract between input plugins and processing.
type BeaconEnvelope struct {
	Source string
	Line   string
}
