package schema

import (
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// document is the serialized form of a model.
type document struct {
	Types []*Type `yaml:"types" msgpack:"types"`
}

// LoadYAML reads a model document and returns its snapshot.
func LoadYAML(r io.Reader) (*Snapshot, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("schema: decode model: %w", err)
	}
	return NewSnapshot(doc.Types...)
}

// LoadFile reads the model document stored at path.
func LoadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := LoadYAML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// MarshalYAML implements yaml.Marshaler.
func (s *Snapshot) MarshalYAML() (any, error) {
	return document{Types: s.types}, nil
}

// MarshalBinary encodes the snapshot types with msgpack. The generation is
// not encoded; it belongs to the publishing store.
func (s *Snapshot) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal(document{Types: s.types})
}

// UnmarshalBinary decodes a snapshot encoded by MarshalBinary.
func UnmarshalBinary(data []byte) (*Snapshot, error) {
	var doc document
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("schema: decode snapshot: %w", err)
	}
	return NewSnapshot(doc.Types...)
}
