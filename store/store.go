// Package store defines the persistence operations the engine needs for
// tree leaves and spent nullifiers. Durable storage is an injected
// dependency; the in-memory managers work without one.
package store

import "github.com/nightjar-zk/nightjar/field"

// LeafStore journals appended commitments in leaf-index order.
type LeafStore interface {
	AppendLeaf(index uint64, leaf field.Element) error
}

// NullifierStore journals spent nullifier hashes. Entries are never
// removed.
type NullifierStore interface {
	AppendNullifier(hash field.Element) error
}
