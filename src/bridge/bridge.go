package bridge

import "github.com/escaperoom/backoffice/src/types"

// Bridge mirrors outbound broadcast events to an external pub/sub
// channel so side systems (a recording box, a secondary display
// server) can consume them. The mirror is strictly one-way: nothing
// read from the external channel ever reaches the hub, and the
// registry stays single-process.
type Bridge interface {
	// Publish mirrors one broadcast event outward.
	Publish(msg types.Message) error

	// Start connects to the external channel.
	Start() error

	// Stop shuts down the bridge connection.
	Stop() error

	// Available reports whether the bridge is connected and operational.
	Available() bool
}
