package schema

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

// ParseModel decodes a schema description, then normalizes and validates it.
func ParseModel(r io.Reader) (*Model, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Model
	if err := dec.Decode(&m); err != nil && err != io.EOF {
		return nil, errors.Annotate(err, "decoding schema")
	}
	m.Normalize()
	if err := m.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &m, nil
}

// LoadModel reads a schema description or snapshot file.
func LoadModel(path string) (*Model, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.NotFoundf("schema file %q", path)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()

	m, err := ParseModel(f)
	if err != nil {
		return nil, errors.Annotatef(err, "loading %s", path)
	}
	return m, nil
}

// SaveModel writes the model as YAML, creating the parent directory if needed.
func SaveModel(path string, m *Model) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return errors.Annotate(err, "encoding schema")
	}
	if err := enc.Close(); err != nil {
		return errors.Trace(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(os.WriteFile(path, buf.Bytes(), 0o644))
}
