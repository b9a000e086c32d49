package merkle

import (
	"github.com/nightjar-zk/nightjar/field"
	"github.com/nightjar-zk/nightjar/poseidon"
)

// Proof is a Merkle inclusion proof. PathElements[l] is the sibling at
// level l; PathIndices[l] is 0 when the running node is the left child
// at that level, 1 when it is the right child.
type Proof struct {
	Leaf         field.Element
	PathElements []field.Element
	PathIndices  []uint8
	Root         field.Element
}

// Verify replays the sibling chain from the leaf and reports whether it
// reproduces the stored root. The left/right order per level is the
// same convention the withdrawal circuit enforces.
func (p *Proof) Verify() bool {
	if len(p.PathElements) != len(p.PathIndices) {
		return false
	}
	cur := p.Leaf
	for l, sib := range p.PathElements {
		switch p.PathIndices[l] {
		case 0:
			cur = poseidon.HashPair(cur, sib)
		case 1:
			cur = poseidon.HashPair(sib, cur)
		default:
			return false
		}
	}
	return cur.Equal(p.Root)
}
