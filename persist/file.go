// Package persist stores the editor session and the bookmark list as JSON
// snapshots at fixed locations. Every save is a full overwrite; every load
// degrades to a default value instead of failing.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
)

// logger is looked up on use so it picks up the backend configured in main.
func logger() commonlog.Logger {
	return commonlog.GetLogger("bitpad.persist")
}

// writeJSON encodes v and atomically replaces path with the result. The data
// is written to a temporary file in the same directory and renamed over path,
// so a crash never leaves a truncated file behind.
func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// readJSON decodes the file at path into v.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func optionalPath(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func pathPtr(p string) *string {
	if p == "" {
		return nil
	}
	return &p
}
