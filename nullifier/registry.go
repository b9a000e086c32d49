// Package nullifier tracks spent nullifier hashes and enforces
// at-most-once spends. The registry is a local mirror of the on-chain
// check so the engine never generates a proof that is already doomed.
package nullifier

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nightjar-zk/nightjar/field"
	"github.com/nightjar-zk/nightjar/store"
)

// ErrNullifierReplayed is returned by MarkSpent for an already-spent
// nullifier hash.
var ErrNullifierReplayed = errors.New("nullifier: already spent")

// Registry is a monotonic set of spent nullifier hashes. Entries are
// never removed. MarkSpent is an atomic check-and-set: under concurrent
// attempts for the same hash exactly one caller wins.
type Registry struct {
	mu    sync.RWMutex
	spent map[field.Element]struct{}
	store store.NullifierStore
	log   zerolog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithStore journals every accepted nullifier hash before it becomes
// visible.
func WithStore(s store.NullifierStore) Option {
	return func(r *Registry) { r.store = s }
}

// WithLogger sets the registry's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		spent: make(map[field.Element]struct{}),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsSpent reports whether the nullifier hash has been marked spent.
func (r *Registry) IsSpent(hash field.Element) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.spent[hash]
	return ok
}

// MarkSpent records the nullifier hash, failing with
// ErrNullifierReplayed if it is already present. When a store is
// configured the hash is journaled first; a failed journal write leaves
// the registry unchanged.
func (r *Registry) MarkSpent(hash field.Element) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.spent[hash]; ok {
		return fmt.Errorf("%w: %s", ErrNullifierReplayed, hash.Hex())
	}
	if r.store != nil {
		if err := r.store.AppendNullifier(hash); err != nil {
			return fmt.Errorf("nullifier: journal: %w", err)
		}
	}
	r.spent[hash] = struct{}{}
	r.log.Debug().Str("nullifierHash", hash.Hex()).Msg("marked spent")
	return nil
}

// Count returns the number of spent entries.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.spent)
}

// Restore loads journaled hashes, replacing current state. Duplicates
// in the journal are tolerated; the store is not written.
func (r *Registry) Restore(hashes []field.Element) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spent = make(map[field.Element]struct{}, len(hashes))
	for _, h := range hashes {
		r.spent[h] = struct{}{}
	}
	r.log.Info().Int("nullifiers", len(hashes)).Msg("restored registry")
}
