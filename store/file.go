package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nightjar-zk/nightjar/field"
)

const (
	recordLeaf      = "leaf"
	recordNullifier = "nullifier"
)

type record struct {
	Type  string        `json:"type"`
	Index uint64        `json:"index,omitempty"`
	Value field.Element `json:"value"`
}

// FileStore is a JSON-lines journal implementing both LeafStore and
// NullifierStore. Appends are serialized and flushed to the OS before
// returning, so a crash never loses an acknowledged entry silently.
type FileStore struct {
	mu   sync.Mutex
	f    *os.File
	path string
	log  zerolog.Logger
}

var (
	_ LeafStore      = (*FileStore)(nil)
	_ NullifierStore = (*FileStore)(nil)
)

// OpenFileStore opens (or creates) the journal at path for appending.
func OpenFileStore(path string, log zerolog.Logger) (*FileStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("store: open journal: %w", err)
	}
	return &FileStore{f: f, path: path, log: log}, nil
}

func (s *FileStore) append(rec record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: encode record: %w", err)
	}
	b = append(b, '\n')
	if _, err := s.f.Write(b); err != nil {
		return fmt.Errorf("store: append record: %w", err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("store: sync journal: %w", err)
	}
	return nil
}

// AppendLeaf implements LeafStore.
func (s *FileStore) AppendLeaf(index uint64, leaf field.Element) error {
	return s.append(record{Type: recordLeaf, Index: index, Value: leaf})
}

// AppendNullifier implements NullifierStore.
func (s *FileStore) AppendNullifier(hash field.Element) error {
	return s.append(record{Type: recordNullifier, Value: hash})
}

// Close flushes and closes the journal file.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

// ReadJournal replays a journal file and returns the leaves in
// leaf-index order plus the recorded nullifier hashes. It is the restart
// path: feed the leaves to the tree's Restore and the nullifiers to the
// registry's Restore.
func ReadJournal(path string) (leaves []field.Element, nullifiers []field.Element, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("store: open journal: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, nil, fmt.Errorf("store: journal line %d: %w", line, err)
		}
		switch rec.Type {
		case recordLeaf:
			if rec.Index != uint64(len(leaves)) {
				return nil, nil, fmt.Errorf("store: journal line %d: leaf index %d out of order", line, rec.Index)
			}
			leaves = append(leaves, rec.Value)
		case recordNullifier:
			nullifiers = append(nullifiers, rec.Value)
		default:
			return nil, nil, fmt.Errorf("store: journal line %d: unknown record type %q", line, rec.Type)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("store: read journal: %w", err)
	}
	return leaves, nullifiers, nil
}
