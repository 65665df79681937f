package subscribers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLFile reads recipients from a YAML document on every call:
//
//	subscribers:
//	  - email: jane@example.com
//	  - email: bob@example.com
//	    active: false
//
// Entries without an explicit active flag are active. A missing file is an
// error, not an empty list; an empty list would mark every event delivered.
type YAMLFile struct {
	path string
}

// NewYAMLFile creates a directory backed by the file at path.
func NewYAMLFile(path string) *YAMLFile {
	return &YAMLFile{path: path}
}

type yamlDocument struct {
	Subscribers []struct {
		Email  string `yaml:"email"`
		Active *bool  `yaml:"active"`
	} `yaml:"subscribers"`
}

func (y *YAMLFile) ActiveRecipients(ctx context.Context) ([]string, error) {
	data, err := os.ReadFile(y.path)
	if err != nil {
		return nil, errors.Join(ErrReadFile, err)
	}

	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrReadFile, fmt.Errorf("decode %s: %w", y.path, err))
	}

	out := make([]string, 0, len(doc.Subscribers))
	for _, s := range doc.Subscribers {
		if s.Active != nil && !*s.Active {
			continue
		}
		out = append(out, s.Email)
	}
	return clean(out), nil
}
