// Package manifest reads analysis input manifests in JSON, YAML or TOML.
//
// A manifest lists the discovered files and the import edges produced by an
// upstream extractor:
//
//	root = "."
//	budget = 8000
//
//	[[files]]
//	path = "src/models/user.schema.ts"
//	content_file = "src/models/user.schema.ts"
//
//	[[edges]]
//	from = "src/services/user.service.ts"
//	to = "src/models/user.schema.ts"
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"ctxmap/internal/errors"
	"ctxmap/internal/graph"
)

// Format is a manifest encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath detects the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".toml":
		return FormatTOML, true
	default:
		return "", false
	}
}

// File is one manifest file entry. Absent signals are derived from the
// file outline; absent token counts are counted from content.
type File struct {
	Path        string         `json:"path" yaml:"path" toml:"path"`
	Size        int64          `json:"size,omitempty" yaml:"size,omitempty" toml:"size,omitempty"`
	Language    string         `json:"language,omitempty" yaml:"language,omitempty" toml:"language,omitempty"`
	Tokens      int            `json:"tokens,omitempty" yaml:"tokens,omitempty" toml:"tokens,omitempty"`
	ContentFile string         `json:"content_file,omitempty" yaml:"content_file,omitempty" toml:"content_file,omitempty"`
	Signals     *graph.Signals `json:"signals,omitempty" yaml:"signals,omitempty" toml:"signals,omitempty"`
}

// Edge is one manifest import edge.
type Edge struct {
	From       string  `json:"from" yaml:"from" toml:"from"`
	To         string  `json:"to,omitempty" yaml:"to,omitempty" toml:"to,omitempty"`
	Weight     float64 `json:"weight,omitempty" yaml:"weight,omitempty" toml:"weight,omitempty"`
	Unresolved bool    `json:"unresolved,omitempty" yaml:"unresolved,omitempty" toml:"unresolved,omitempty"`
}

// Manifest is a decoded input manifest.
type Manifest struct {
	// Root is the directory content files are read from, relative to the
	// manifest's own directory.
	Root   string `json:"root,omitempty" yaml:"root,omitempty" toml:"root,omitempty"`
	Budget int    `json:"budget,omitempty" yaml:"budget,omitempty" toml:"budget,omitempty"`
	Files  []File `json:"files" yaml:"files" toml:"files"`
	Edges  []Edge `json:"edges" yaml:"edges" toml:"edges"`

	baseDir string
}

// RootDir returns the directory content files are resolved against.
func (m *Manifest) RootDir() string {
	base := m.baseDir
	if base == "" {
		base = "."
	}
	if m.Root == "" {
		return base
	}
	if filepath.IsAbs(m.Root) {
		return m.Root
	}
	return filepath.Join(base, filepath.FromSlash(m.Root))
}

// Load reads and decodes the manifest at path.
func Load(path string) (*Manifest, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return nil, invalid(fmt.Sprintf("unsupported manifest extension %q", filepath.Ext(path)), nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, invalid("read manifest", err)
	}
	m, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	m.baseDir = filepath.Dir(path)
	return m, nil
}

// Parse decodes a manifest. Content files resolve against the working
// directory unless Root is absolute.
func Parse(data []byte, format Format) (*Manifest, error) {
	var m Manifest
	var err error
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&m)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&m)
	case FormatTOML:
		var md toml.MetaData
		md, err = toml.Decode(string(data), &m)
		if err == nil {
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				err = fmt.Errorf("unknown key %q", undecoded[0].String())
			}
		}
	default:
		return nil, invalid(fmt.Sprintf("unsupported manifest format %q", format), nil)
	}
	if err != nil {
		return nil, invalid(fmt.Sprintf("parse %s manifest", format), err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks required fields.
func (m *Manifest) Validate() error {
	if m.Budget < 0 {
		return invalid("budget must not be negative", nil)
	}
	for i, f := range m.Files {
		if graph.NormalizePath(f.Path) == "" {
			return invalid(fmt.Sprintf("files[%d]: path is required", i), nil)
		}
		if f.Tokens < 0 {
			return invalid(fmt.Sprintf("files[%d]: tokens must not be negative", i), nil)
		}
	}
	for i, e := range m.Edges {
		if graph.NormalizePath(e.From) == "" {
			return invalid(fmt.Sprintf("edges[%d]: from is required", i), nil)
		}
	}
	return nil
}

func invalid(message string, cause error) *errors.AnalysisError {
	return errors.NewAnalysisError(errors.InvalidInput, message, cause, nil)
}
