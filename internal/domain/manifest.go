package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/tailscale/hujson"
	"modsync.dev/pkg/modsync/internal/adapter"
	m "modsync.dev/pkg/modsync/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var errManifestNotObject = errors.New("manifest is not a JSON object")

// HasManifest reports whether dir directly contains a manifest file.
func HasManifest(fsAdapter adapter.FSAdapter, dir m.Path) bool {
	info, err := fsAdapter.FileInfo(manifestPath(dir))
	return err == nil && !info.IsDir()
}

// ReadManifest loads and parses dir/manifest.json.
func ReadManifest(fsAdapter adapter.FSAdapter, dir m.Path) (m.Manifest, error) {
	data, err := fsAdapter.ReadFile(manifestPath(dir))
	if err != nil {
		return m.Manifest{}, err
	}

	manifest, err := ParseManifest(data)
	if err != nil {
		return m.Manifest{}, fmt.Errorf("%s: %w", manifestPath(dir), err)
	}

	return manifest, nil
}

// ParseManifest decodes a manifest written in the relaxed JSON dialect mod
// loaders accept: line comments, block comments and trailing commas.
//
// The document must be a JSON object. UniqueID is read only when it is a
// string; the informational fields are kept as text whatever their type.
func ParseManifest(data []byte) (m.Manifest, error) {
	standard, err := StandardizeJSON(data)
	if err != nil {
		return m.Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(standard, &fields); err != nil {
		return m.Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}

	if fields == nil {
		return m.Manifest{}, fmt.Errorf("parse manifest: %w", errManifestNotObject)
	}

	id, _ := stringField(fields["UniqueID"])

	return m.Manifest{
		UniqueID:    id,
		Name:        displayField(fields["Name"]),
		Author:      displayField(fields["Author"]),
		Version:     displayField(fields["Version"]),
		Description: displayField(fields["Description"]),
	}, nil
}

// StandardizeJSON strips a byte order mark, comments and trailing commas so
// the result can be handed to encoding/json. The input is not modified.
func StandardizeJSON(data []byte) ([]byte, error) {
	data = bytes.Clone(bytes.TrimPrefix(data, utf8BOM))

	return hujson.Standardize(data)
}

func manifestPath(dir m.Path) m.Path {
	return m.Path(filepath.Join(string(dir), m.ManifestFileName))
}

func stringField(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return "", false
	}

	return s, true
}

// displayField renders a field as text: strings verbatim, null as empty and
// anything else as compact JSON.
func displayField(raw json.RawMessage) string {
	if s, ok := stringField(raw); ok {
		return s
	}

	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return string(raw)
	}

	return compact.String()
}
