package schemaspec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Tables []TableDecl `yaml:"tables"`
}

// ParseYAML compiles a YAML document of the form
//
//	tables:
//	  - name: songs
//	    columns: [{name: id, type: INTEGER}]
//
// Unknown keys are rejected.
func ParseYAML(data []byte) ([]Table, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f yamlFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &DeclError{Field: "tables", Message: "no table declarations found"}
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(f.Tables) == 0 {
		return nil, &DeclError{Field: "tables", Message: "no table declarations found"}
	}
	return compileAll(f.Tables)
}

// Load reads declarations from a .cue, .yaml or .yml file, or from a
// directory holding a CUE package.
func Load(path string) ([]Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("schema file: %w", err)
	}
	if info.IsDir() {
		return LoadCUEDir(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return loadCUEFile(path)
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("schema file %s: unknown extension (want .cue, .yaml or .yml)", path)
	}
}
