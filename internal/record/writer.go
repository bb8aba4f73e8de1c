package record

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Write serializes the readings to path as a single JSON array, power values
// rounded to two decimal places. The document is written to a temporary file
// in the target directory and renamed into place, so a reader never observes
// a partial file and a failed write leaves any prior file untouched.
func Write(path string, readings []Reading) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	out := make([]Reading, len(readings))
	for i, r := range readings {
		out[i] = Reading{
			Timestamp:  r.Timestamp,
			PowerWatts: math.Round(r.PowerWatts*100) / 100,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal readings: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
