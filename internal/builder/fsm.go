package builder

import (
	"log/slog"

	"github.com/robbyt/go-fsm"
)

// Lifecycle states for a component build. The machine makes the previously
// implicit directory-existence state explicit and rejects out-of-order
// transitions.
const (
	StateAbsent     = "absent"
	StateFetched    = "fetched"
	StateConfigured = "configured"
	StateBuilt      = "built"
	StateInstalled  = "installed"
	StateError      = "error"
)

// buildTransitions is the legal transition table: a strict forward path with
// an error sink reachable from every non-terminal state.
var buildTransitions = map[string][]string{
	StateAbsent:     {StateFetched, StateError},
	StateFetched:    {StateConfigured, StateError},
	StateConfigured: {StateBuilt, StateError},
	StateBuilt:      {StateInstalled, StateError},
	StateInstalled:  {},
	StateError:      {},
}

// newMachine creates a fresh lifecycle machine starting at absent.
func newMachine(handler slog.Handler) (*fsm.Machine, error) {
	return fsm.New(handler, StateAbsent, buildTransitions)
}
