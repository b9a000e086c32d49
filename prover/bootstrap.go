package prover

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/gnark/backend/groth16"

	"github.com/nightjar-zk/nightjar/circuits"
	"github.com/nightjar-zk/nightjar/config"
)

// Bootstrap compiles the named circuit and runs an in-process Groth16
// setup, writing the constraint system, proving key, verifying key and
// a JSON verifying key under dir. The circuit is registered in memory
// as well, so Prove works immediately afterwards.
//
// This is the minimal non-production bootstrap mode: production keys
// come from an external trusted-setup ceremony and are consumed through
// Load.
func (s *Service) Bootstrap(name circuits.Name, dir string) error {
	if _, err := circuits.ParseName(string(name)); err != nil {
		return err
	}
	s.log.Warn().Str("circuit", string(name)).
		Msg("bootstrapping circuit keys in-process; not for production use")

	cs, err := circuits.Compile(name)
	if err != nil {
		return err
	}
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return fmt.Errorf("prover: setup %s: %w", name, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("prover: create artifact dir: %w", err)
	}
	paths := DefaultArtifactPaths(dir, name)
	if err := writeArtifact(paths.ConstraintSystem, cs); err != nil {
		return err
	}
	if err := writeArtifact(paths.ProvingKey, pk); err != nil {
		return err
	}
	if err := writeArtifact(paths.VerifyingKey, vk); err != nil {
		return err
	}

	vkJSONPath := filepath.Join(dir, string(name)+config.ExtVerifyingKeyJSON)
	f, err := os.Create(vkJSONPath)
	if err != nil {
		return fmt.Errorf("prover: create %s: %w", vkJSONPath, err)
	}
	defer f.Close()
	if err := ExportVerifyingKey(vk, f); err != nil {
		return err
	}

	s.mu.Lock()
	s.arts[name] = &artifact{cs: cs, pk: pk, vk: vk}
	s.mu.Unlock()
	s.log.Info().Str("circuit", string(name)).Str("dir", dir).Msg("wrote circuit artifacts")
	return nil
}

func writeArtifact(path string, src io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("prover: create %s: %w", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if _, err := src.WriteTo(w); err != nil {
		return fmt.Errorf("prover: write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("prover: flush %s: %w", path, err)
	}
	return nil
}
