package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader reads a seed file from disk.
type Loader struct {
	filePath string
}

// NewLoader creates a Loader for filePath.
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Path returns the file the loader reads.
func (l *Loader) Path() string { return l.filePath }

// Load reads and parses the seed file. Environment references like ${VAR}
// are expanded before parsing; unknown keys are rejected.
func (l *Loader) Load() (File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return File{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes seed YAML. An empty document yields an empty File.
func Parse(data []byte) (File, error) {
	data = []byte(os.ExpandEnv(string(data)))

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("failed to parse seed yaml: %w", err)
	}
	return f, nil
}
