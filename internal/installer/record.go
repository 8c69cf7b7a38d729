package installer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const recordFileName = ".bootstrap.json"

// Record describes the installer that produced a prefix.
type Record struct {
	URL         string `json:"url"`
	SHA256      string `json:"sha256"`
	Platform    string `json:"platform"`
	InstalledAt string `json:"installed_at"`
}

// RecordPath is where the install record of prefix lives.
func RecordPath(prefix string) string {
	return filepath.Join(prefix, recordFileName)
}

// ReadRecord loads the install record. ok is false when the prefix was never
// bootstrapped by this tool.
func ReadRecord(prefix string) (rec Record, ok bool, err error) {
	contents, err := os.ReadFile(RecordPath(prefix))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("read install record: %w", err)
	}
	if err := json.Unmarshal(contents, &rec); err != nil {
		return Record{}, false, fmt.Errorf("unmarshal install record: %w", err)
	}
	return rec, true, nil
}

func saveRecord(prefix string, rec Record) error {
	buf, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal install record: %w", err)
	}

	tmp, err := os.CreateTemp(prefix, "record-*.json")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp record: %w", err)
	}
	if err := os.Rename(tmp.Name(), RecordPath(prefix)); err != nil {
		return fmt.Errorf("replace install record: %w", err)
	}
	return nil
}
