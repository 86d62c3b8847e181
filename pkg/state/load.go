package state

import (
	"errors"
	"io"
	"os"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

var ErrInvalidDocument = errors.New("state: document is not a mapping")

// LoadData decodes a YAML (or JSON) mapping into data for Options.Data. An
// empty document yields an empty map.
func LoadData(r io.Reader) (map[string]any, error) {
	var doc any
	err := yaml.NewDecoder(r).Decode(&doc)
	if errors.Is(err, io.EOF) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, xerrors.Errorf("failed to decode state: %v", err)
	}
	if doc == nil {
		return map[string]any{}, nil
	}

	data, ok := doc.(map[string]any)
	if !ok {
		return nil, xerrors.Errorf("got %T: %w", doc, ErrInvalidDocument)
	}
	return data, nil
}

// LoadDataFile reads the document at path with LoadData.
func LoadDataFile(path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to open state file: %v", err)
	}
	defer f.Close()

	data, err := LoadData(f)
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// ParseValue decodes a single YAML scalar or flow collection, so "3" is an
// int, "true" a bool and "[1, 2]" a list.
func ParseValue(text string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return nil, xerrors.Errorf("failed to parse value %q: %v", text, err)
	}
	return v, nil
}
