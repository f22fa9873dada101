package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"canvas/internal/domain"
)

// ExportJSON writes d to path as indented JSON. The file is written next to
// its destination and renamed into place.
func ExportJSON(path string, d domain.Document) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}

// ImportJSON reads a document written by ExportJSON, normalizes it and
// checks its invariants.
func ImportJSON(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("import %s: %w", path, err)
	}
	return DecodeDocument(data)
}

// DecodeDocument parses and validates a JSON document.
func DecodeDocument(data []byte) (domain.Document, error) {
	var d domain.Document
	if err := json.Unmarshal(data, &d); err != nil {
		return domain.Document{}, fmt.Errorf("decode document: %w", err)
	}
	d = domain.Normalize(d)
	if err := domain.Validate(d); err != nil {
		return domain.Document{}, fmt.Errorf("decode document: %w", err)
	}
	return d, nil
}
