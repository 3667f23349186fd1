package registry

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/escaperoom/backoffice/src/types"
)

// Registry is the in-memory table of currently connected game clients.
// Entries are keyed by transport-assigned connection ID; a gameId
// multimap supports duplicate gameIds (grouped games with several
// roles or instances are separate entries on purpose).
//
// Every effective mutation signals the Changes channel. The signal
// channel has capacity one, so any number of mutations between two
// reads collapse into a single notification and observers see one
// settled snapshot instead of one broadcast per mutation.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*types.GameConnection
	order   []string                       // connection-arrival order
	byGame  map[string]map[string]struct{} // gameId -> set of connection ids
	dirty   chan struct{}
	logger  zerolog.Logger
}

// New creates an empty registry.
func New(logger zerolog.Logger) *Registry {
	return &Registry{
		entries: make(map[string]*types.GameConnection),
		byGame:  make(map[string]map[string]struct{}),
		dirty:   make(chan struct{}, 1),
		logger:  logger.With().Str("component", "registry").Logger(),
	}
}

// Changes exposes the coalesced change signal. One receive may stand
// for any number of mutations; read the snapshot after receiving.
func (r *Registry) Changes() <-chan struct{} {
	return r.dirty
}

// Register inserts the entry for a newly identified game connection.
// A duplicate connection ID should be impossible with transport-assigned
// IDs; it is logged and overwritten rather than treated as fatal.
func (r *Registry) Register(connectionID string, game types.GameConnection) {
	game.ConnectionID = connectionID

	r.mu.Lock()
	if old, ok := r.entries[connectionID]; ok {
		r.logger.Warn().
			Str("connection_id", connectionID).
			Str("game_id", old.GameID).
			Msg("duplicate connection id, overwriting")
		r.unindex(old)
	} else {
		r.order = append(r.order, connectionID)
	}
	entry := copyEntry(game) // normalizes nil actions/state to empty
	r.entries[connectionID] = &entry
	r.index(&entry)
	r.mu.Unlock()

	r.logger.Info().
		Str("connection_id", connectionID).
		Str("game_id", game.GameID).
		Str("name", game.Name).
		Msg("game registered")
	r.markDirty()
}

// UpdateState merges a state patch into an entry and, when a non-nil
// action list is given, replaces the declared actions. An unknown
// connection ID is a silent no-op: the connection may have closed while
// the update was in flight.
func (r *Registry) UpdateState(connectionID string, actions []types.GameAction, patch map[string]any) {
	r.mu.Lock()
	entry, ok := r.entries[connectionID]
	if !ok {
		r.mu.Unlock()
		return
	}
	if actions != nil {
		entry.AvailableActions = copyActions(actions)
	}
	for k, v := range patch {
		entry.State[k] = v
	}
	r.mu.Unlock()

	r.markDirty()
}

// Remove deletes the entry for a closed connection. It is idempotent;
// removing an unknown ID is a no-op and reports false.
func (r *Registry) Remove(connectionID string) bool {
	r.mu.Lock()
	entry, ok := r.entries[connectionID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	r.unindex(entry)
	delete(r.entries, connectionID)
	r.order = lo.Without(r.order, connectionID)
	r.mu.Unlock()

	r.logger.Info().
		Str("connection_id", connectionID).
		Str("game_id", entry.GameID).
		Msg("game removed")
	r.markDirty()
	return true
}

// Snapshot returns a deep copy of all entries in connection-arrival
// order. Callers cannot observe or cause mutation through it.
func (r *Registry) Snapshot() []types.GameConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Map(r.order, func(id string, _ int) types.GameConnection {
		return copyEntry(*r.entries[id])
	})
}

// FindByGameID returns the connection IDs whose gameId matches exactly.
// Grouping by base ID is an observer-side concern, not done here.
func (r *Registry) FindByGameID(gameID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.byGame[gameID]
	if !ok {
		return nil
	}
	// Return in arrival order for deterministic fan-out.
	ids := make([]string, 0, len(set))
	for _, id := range r.order {
		if _, member := set[id]; member {
			ids = append(ids, id)
		}
	}
	return ids
}

// Count returns the number of live entries.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) index(e *types.GameConnection) {
	set, ok := r.byGame[e.GameID]
	if !ok {
		set = make(map[string]struct{})
		r.byGame[e.GameID] = set
	}
	set[e.ConnectionID] = struct{}{}
}

func (r *Registry) unindex(e *types.GameConnection) {
	set, ok := r.byGame[e.GameID]
	if !ok {
		return
	}
	delete(set, e.ConnectionID)
	if len(set) == 0 {
		delete(r.byGame, e.GameID)
	}
}

func (r *Registry) markDirty() {
	select {
	case r.dirty <- struct{}{}:
	default:
	}
}

// copyEntry deep-copies an entry. State values are JSON scalars, so a
// key-level copy of the map is sufficient.
func copyEntry(e types.GameConnection) types.GameConnection {
	cp := e
	cp.AvailableActions = copyActions(e.AvailableActions)
	cp.State = make(map[string]any, len(e.State))
	for k, v := range e.State {
		cp.State[k] = v
	}
	return cp
}

func copyActions(actions []types.GameAction) []types.GameAction {
	return lo.Map(actions, func(a types.GameAction, _ int) types.GameAction {
		cp := a
		cp.Params = append([]string(nil), a.Params...)
		return cp
	})
}
