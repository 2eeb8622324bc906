package beaconsrc

import "github.com/sitepulse/pulse/internal/model"

// BeaconSource is a unified interface for all beacon input sources (TCP, stdin).
type BeaconSource interface {
	Lines() <-chan model.BeaconEnvelope // read-only channel of beacon lines
	Stop()                              // graceful shutdown
	Name() string                       // "tcp", "stdin"
}
