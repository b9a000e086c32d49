// Package merkle implements the append-only commitment tree: fixed
// depth, zero-value padding, incremental root updates and inclusion
// proofs against the current root.
package merkle

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nightjar-zk/nightjar/config"
	"github.com/nightjar-zk/nightjar/field"
	"github.com/nightjar-zk/nightjar/poseidon"
	"github.com/nightjar-zk/nightjar/store"
)

var (
	ErrTreeFull    = errors.New("merkle: tree is full")
	ErrUnknownLeaf = errors.New("merkle: unknown leaf index")
	ErrUnknownRoot = errors.New("merkle: unknown root")
)

// Tree is a fixed-depth append-only Merkle tree over commitments.
// Appends are single-writer; reads observe a consistent snapshot.
//
// Node rule at every level: parent = Poseidon(left, right), with the
// left/right order decided by the path index bit. The withdrawal circuit
// replays the same rule, so the two must stay bit-exact.
type Tree struct {
	mu    sync.RWMutex
	depth int

	// zeros[l] is the hash of an all-zero subtree of height l.
	zeros []field.Element
	// nodes[l] holds the filled nodes of level l; nodes[0] are leaves.
	nodes [][]field.Element

	// Bounded history of past roots, oldest first, for withdrawal
	// root checks. known counts occurrences so duplicate roots (e.g.
	// zero-leaf appends) survive eviction correctly.
	roots   []field.Element
	known   map[field.Element]int
	history int

	leafStore store.LeafStore
	log       zerolog.Logger
}

// Option configures a Tree.
type Option func(*Tree)

// WithDepth overrides the tree depth. Intended for tests; production
// trees use config.TreeDepth, which the withdrawal circuit is compiled
// against.
func WithDepth(d int) Option {
	return func(t *Tree) { t.depth = d }
}

// WithRootHistory overrides how many past roots are retained.
func WithRootHistory(n int) Option {
	return func(t *Tree) { t.history = n }
}

// WithLeafStore journals every accepted leaf before it becomes visible.
func WithLeafStore(s store.LeafStore) Option {
	return func(t *Tree) { t.leafStore = s }
}

// WithLogger sets the tree's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(t *Tree) { t.log = log }
}

// New returns an empty tree of depth config.TreeDepth.
func New(opts ...Option) *Tree {
	t := &Tree{
		depth:   config.TreeDepth,
		history: config.RootHistory,
		known:   make(map[field.Element]int),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.zeros = make([]field.Element, t.depth+1)
	for l := 1; l <= t.depth; l++ {
		t.zeros[l] = poseidon.HashPair(t.zeros[l-1], t.zeros[l-1])
	}
	t.nodes = make([][]field.Element, t.depth+1)
	t.remember(t.zeros[t.depth])
	return t
}

// Depth returns the tree depth.
func (t *Tree) Depth() int {
	return t.depth
}

// LeafCount returns the number of appended leaves.
func (t *Tree) LeafCount() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return uint64(len(t.nodes[0]))
}

// Append inserts a commitment as the next leaf and returns its index
// and the new root. Returns ErrTreeFull once 2^depth leaves exist.
// When a leaf store is configured the leaf is journaled first; a failed
// journal write leaves the tree unchanged.
func (t *Tree) Append(leaf field.Element) (uint64, field.Element, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if uint64(len(t.nodes[0])) >= uint64(1)<<t.depth {
		return 0, field.Element{}, ErrTreeFull
	}
	index := uint64(len(t.nodes[0]))
	if t.leafStore != nil {
		if err := t.leafStore.AppendLeaf(index, leaf); err != nil {
			return 0, field.Element{}, fmt.Errorf("merkle: journal leaf %d: %w", index, err)
		}
	}
	root := t.insert(index, leaf)
	t.remember(root)
	t.log.Debug().Uint64("leaf", index).Str("root", root.Hex()).Msg("appended commitment")
	return index, root, nil
}

// insert writes the leaf and recomputes the path to the root.
// Caller holds the write lock.
func (t *Tree) insert(index uint64, leaf field.Element) field.Element {
	cur := leaf
	t.setNode(0, index, cur)
	i := index
	for l := 0; l < t.depth; l++ {
		var left, right field.Element
		if i&1 == 0 {
			left, right = cur, t.nodeOrZero(l, i+1)
		} else {
			left, right = t.nodeOrZero(l, i-1), cur
		}
		cur = poseidon.HashPair(left, right)
		i >>= 1
		t.setNode(l+1, i, cur)
	}
	return cur
}

func (t *Tree) setNode(level int, i uint64, v field.Element) {
	if i == uint64(len(t.nodes[level])) {
		t.nodes[level] = append(t.nodes[level], v)
		return
	}
	t.nodes[level][i] = v
}

func (t *Tree) nodeOrZero(level int, i uint64) field.Element {
	if i < uint64(len(t.nodes[level])) {
		return t.nodes[level][i]
	}
	return t.zeros[level]
}

// Root returns the current root.
func (t *Tree) Root() field.Element {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rootLocked()
}

func (t *Tree) rootLocked() field.Element {
	if len(t.nodes[t.depth]) == 0 {
		return t.zeros[t.depth]
	}
	return t.nodes[t.depth][0]
}

// KnownRoot reports whether r is the current root or one of the
// retained historical roots.
func (t *Tree) KnownRoot(r field.Element) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.known[r] > 0
}

// remember records a new root, evicting the oldest beyond the history
// bound. Caller holds the write lock (or is the constructor).
func (t *Tree) remember(r field.Element) {
	t.roots = append(t.roots, r)
	t.known[r]++
	if len(t.roots) > t.history+1 {
		old := t.roots[0]
		t.roots = t.roots[1:]
		if t.known[old]--; t.known[old] == 0 {
			delete(t.known, old)
		}
	}
}

// Prove returns the inclusion proof for the leaf at index against the
// current root. Deterministic: the same tree state yields the same
// proof. Returns ErrUnknownLeaf for out-of-range indices.
func (t *Tree) Prove(index uint64) (Proof, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if index >= uint64(len(t.nodes[0])) {
		return Proof{}, fmt.Errorf("%w: %d", ErrUnknownLeaf, index)
	}
	p := Proof{
		Leaf:         t.nodes[0][index],
		Root:         t.rootLocked(),
		PathElements: make([]field.Element, t.depth),
		PathIndices:  make([]uint8, t.depth),
	}
	i := index
	for l := 0; l < t.depth; l++ {
		p.PathElements[l] = t.nodeOrZero(l, i^1)
		p.PathIndices[l] = uint8(i & 1)
		i >>= 1
	}
	return p, nil
}

// Restore rebuilds the tree from a journaled leaf sequence, replacing
// any current state. The root is a pure function of the ordered leaves,
// so replay reproduces the original tree exactly. The leaf store is not
// written during restore.
func (t *Tree) Restore(leaves []field.Element) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if uint64(len(leaves)) > uint64(1)<<t.depth {
		return ErrTreeFull
	}
	t.nodes = make([][]field.Element, t.depth+1)
	t.roots = nil
	t.known = make(map[field.Element]int)
	t.remember(t.zeros[t.depth])
	for i, leaf := range leaves {
		root := t.insert(uint64(i), leaf)
		t.remember(root)
	}
	t.log.Info().Int("leaves", len(leaves)).Str("root", t.rootLocked().Hex()).Msg("restored tree")
	return nil
}
