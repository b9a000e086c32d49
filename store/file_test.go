package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nightjar-zk/nightjar/field"
)

func TestJournalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.ndjson")
	s, err := OpenFileStore(path, zerolog.Nop())
	require.NoError(t, err)

	leaves := []field.Element{field.FromUint64(10), field.FromUint64(20), field.FromUint64(30)}
	for i, leaf := range leaves {
		require.NoError(t, s.AppendLeaf(uint64(i), leaf))
	}
	require.NoError(t, s.AppendNullifier(field.FromUint64(99)))
	require.NoError(t, s.AppendLeaf(3, field.FromUint64(40)))
	require.NoError(t, s.Close())

	gotLeaves, gotNullifiers, err := ReadJournal(path)
	require.NoError(t, err)
	require.Len(t, gotLeaves, 4)
	for i, leaf := range leaves {
		require.True(t, gotLeaves[i].Equal(leaf), "leaf %d", i)
	}
	require.True(t, gotLeaves[3].Equal(field.FromUint64(40)))
	require.Len(t, gotNullifiers, 1)
	require.True(t, gotNullifiers[0].Equal(field.FromUint64(99)))
}

func TestJournalReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.ndjson")

	s, err := OpenFileStore(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.AppendLeaf(0, field.FromUint64(1)))
	require.NoError(t, s.Close())

	s, err = OpenFileStore(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.AppendLeaf(1, field.FromUint64(2)))
	require.NoError(t, s.Close())

	leaves, _, err := ReadJournal(path)
	require.NoError(t, err)
	require.Len(t, leaves, 2)
}

func TestJournalOutOfOrderLeaf(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.ndjson")
	s, err := OpenFileStore(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.AppendLeaf(0, field.FromUint64(1)))
	require.NoError(t, s.AppendLeaf(2, field.FromUint64(3)))
	require.NoError(t, s.Close())

	_, _, err = ReadJournal(path)
	require.ErrorContains(t, err, "out of order")
}

func TestJournalRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.ndjson")
	require.NoError(t, os.WriteFile(path, []byte("{\"type\":\"leaf\",\"index\":0,\"value\":\"0x01\"}\nnot json\n"), 0o600))

	_, _, err := ReadJournal(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("{\"type\":\"checkpoint\",\"value\":\"0x01\"}\n"), 0o600))
	_, _, err = ReadJournal(path)
	require.ErrorContains(t, err, "unknown record type")
}
