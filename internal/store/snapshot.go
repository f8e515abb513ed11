package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Moshiii/Alpha-Arena-Lite/internal/portfolio"
)

// SaveSnapshot serializes the full portfolio state to a JSON snapshot at
// path. The write is atomic (temp file + fsync + rename) so a crash
// mid-write never leaves truncated state behind.
func SaveSnapshot(path string, p *portfolio.Portfolio) error {
	data, err := json.MarshalIndent(p.State(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling snapshot: %w", err)
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return nil
}

// LoadSnapshot reads a snapshot and reconstructs a Portfolio against the
// configured symbol universe. A missing file surfaces as fs.ErrNotExist so
// the caller can choose to construct a fresh portfolio instead; any other
// structural problem is portfolio.ErrMalformedSnapshot.
func LoadSnapshot(path string, symbols []string) (*portfolio.Portfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var state portfolio.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", portfolio.ErrMalformedSnapshot, err)
	}

	p, err := portfolio.FromState(state, symbols)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot %s: %w", path, err)
	}
	return p, nil
}

// writeFileAtomic writes data to path via a temp file in the same directory
// followed by a rename. The temp file is fsynced before the rename and the
// parent directory is fsynced best-effort afterwards.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
