// Package labels loads the controlled vocabulary of hazard labels from a
// YAML policy file. A hazard may only be filed with labels the policy
// defines.
package labels

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/containerd/errdefs"
	"gopkg.in/yaml.v3"
)

var (
	// ErrPolicyNotFound is returned when the policy file does not exist.
	// A missing policy is never treated as an empty taxonomy.
	ErrPolicyNotFound = fmt.Errorf("label policy file not found: %w", errdefs.ErrNotFound)

	// ErrInvalidPolicy is returned for policies that cannot be parsed or
	// define no usable labels.
	ErrInvalidPolicy = fmt.Errorf("invalid label policy: %w", errdefs.ErrInvalidArgument)

	// ErrInvalidArgument is returned for an unknown Detail.
	ErrInvalidArgument = fmt.Errorf("invalid argument: %w", errdefs.ErrInvalidArgument)
)

// Label is one entry of the hazard label policy
type Label struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Color       string `yaml:"color,omitempty" json:"color,omitempty"`
}

// Taxonomy is the immutable set of labels loaded from one policy file
type Taxonomy struct {
	path   string
	labels []Label
	index  map[string]struct{}
}

// Load reads and validates the label policy at path
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPolicyNotFound, path)
		}
		return nil, fmt.Errorf("failed to read label policy %s: %w", path, err)
	}

	taxonomy, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	taxonomy.path = path

	return taxonomy, nil
}

// Parse builds a taxonomy from a YAML sequence of labels
func Parse(data []byte) (*Taxonomy, error) {
	var labels []Label

	if err := yaml.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}

	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no labels defined", ErrInvalidPolicy)
	}

	index := make(map[string]struct{}, len(labels))
	for i, label := range labels {
		if label.Name == "" {
			return nil, fmt.Errorf("%w: label %d has no name", ErrInvalidPolicy, i+1)
		}
		if _, dup := index[label.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrInvalidPolicy, label.Name)
		}
		index[label.Name] = struct{}{}
	}

	return &Taxonomy{labels: labels, index: index}, nil
}

// Path returns the policy file the taxonomy was loaded from
func (t *Taxonomy) Path() string {
	return t.path
}

// Len returns the number of labels in the taxonomy
func (t *Taxonomy) Len() int {
	return len(t.labels)
}

// IsMember reports whether name is a label of the taxonomy. Matching is
// exact and case-sensitive.
func (t *Taxonomy) IsMember(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Names returns the label names in policy order
func (t *Taxonomy) Names() []string {
	names := make([]string, 0, len(t.labels))
	for _, label := range t.labels {
		names = append(names, label.Name)
	}
	return names
}

// Listing is the policy at one level of detail. Labels is set for
// DetailFull and Names for DetailNameOnly; the other field is nil.
type Listing struct {
	Detail Detail
	Labels []Label
	Names  []string
}

// Len returns the number of labels in the listing
func (l Listing) Len() int {
	if l.Detail == DetailNameOnly {
		return len(l.Names)
	}
	return len(l.Labels)
}

// List returns the policy at the requested level of detail: full label
// records, or just the names. The returned slices are copies; callers
// cannot mutate the taxonomy through them.
func (t *Taxonomy) List(detail Detail) (Listing, error) {
	switch detail {
	case DetailFull:
		labels := make([]Label, len(t.labels))
		copy(labels, t.labels)
		return Listing{Detail: detail, Labels: labels}, nil
	case DetailNameOnly:
		return Listing{Detail: detail, Names: t.Names()}, nil
	default:
		return Listing{}, fmt.Errorf("%w: detail %s", ErrInvalidArgument, detail)
	}
}
