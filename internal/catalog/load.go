package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// maxFileSize caps catalog files read from disk.
const maxFileSize = 1 * 1024 * 1024

// LoadFile reads a catalog from a JSON file holding an array of pieces:
//
//	[{"id": 1, "name": "Block 01", "color": "red", "volume": 1, "shape": [[0,0,0]]}]
func LoadFile(path string) (*Catalog, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("catalog file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat catalog file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("catalog file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}
	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a JSON piece array and validates it with New.
func Parse(r io.Reader) (*Catalog, error) {
	var pieces []Piece
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&pieces); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	c, err := New(pieces)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return c, nil
}

// WriteJSON encodes the catalog in the format read by Parse.
func (c *Catalog) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c.Pieces())
}
