// Package checklist holds the ordered question lists auditors answer. A
// question's position in its list is the answer index stored in audits.
package checklist

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

var ErrUnknownChecklist = errors.New("unknown checklist")

type Checklist struct {
	Name  string `yaml:"name" json:"name"`
	Title string `yaml:"title" json:"title"`
	// Kind prefixes the file names of reports generated from this checklist.
	Kind      string   `yaml:"kind" json:"kind"`
	Areas     []string `yaml:"areas,omitempty" json:"areas,omitempty"`
	Questions []string `yaml:"questions" json:"questions"`
}

type Set struct {
	Checklists []Checklist `yaml:"checklists"`
}

// Default returns the embedded checklists.
func Default() *Set {
	s, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded checklist is invalid: %v", err))
	}
	return s
}

// Load reads checklists from a YAML file, or returns the embedded ones when
// path is empty.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checklist: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Set, error) {
	s := &Set{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse checklist: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Set) validate() error {
	if len(s.Checklists) == 0 {
		return errors.New("no checklists defined")
	}
	seen := map[string]bool{}
	for i, c := range s.Checklists {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("checklist %d has no name", i)
		}
		if seen[name] {
			return fmt.Errorf("duplicate checklist %q", name)
		}
		seen[name] = true
		if len(c.Questions) == 0 {
			return fmt.Errorf("checklist %q has no questions", name)
		}
		for j, q := range c.Questions {
			if strings.TrimSpace(q) == "" {
				return fmt.Errorf("checklist %q question %d is empty", name, j+1)
			}
		}
	}
	return nil
}

// Get returns the named checklist. An empty name selects the first one.
func (s *Set) Get(name string) (*Checklist, error) {
	if name == "" {
		return &s.Checklists[0], nil
	}
	for i := range s.Checklists {
		if s.Checklists[i].Name == name {
			return &s.Checklists[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownChecklist, name)
}
