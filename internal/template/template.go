// Package template holds the message templates and the store that serves them.
package template

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
)

// ContentType is the body format of a template.
type ContentType string

const (
	Plain ContentType = "plain"
	HTML  ContentType = "html"
)

// PlaceholderPattern matches {identifier} placeholders in subjects and bodies.
var PlaceholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Record is a single message template.
type Record struct {
	ID          int         `yaml:"id"`
	Name        string      `yaml:"name"`
	Language    string      `yaml:"language"`
	ContentType ContentType `yaml:"content_type"`
	Subject     string      `yaml:"subject"`
	Body        string      `yaml:"body"`
}

// Validate checks that the record carries every required field.
func (r Record) Validate() error {
	var errs []error
	if r.ID <= 0 {
		errs = append(errs, fmt.Errorf("id must be positive, got %d", r.ID))
	}
	if r.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if r.Subject == "" {
		errs = append(errs, errors.New("subject is required"))
	}
	if r.Body == "" {
		errs = append(errs, errors.New("body is required"))
	}
	switch r.ContentType {
	case Plain, HTML:
	default:
		errs = append(errs, fmt.Errorf("unknown content type %q", r.ContentType))
	}
	if len(errs) > 0 {
		return fmt.Errorf("template %d: %w", r.ID, errors.Join(errs...))
	}
	return nil
}

// Placeholders returns the distinct placeholder names used by the subject
// and body, in order of first appearance.
func (r Record) Placeholders() []string {
	var names []string
	for _, text := range []string{r.Subject, r.Body} {
		for _, m := range PlaceholderPattern.FindAllStringSubmatch(text, -1) {
			if !slices.Contains(names, m[1]) {
				names = append(names, m[1])
			}
		}
	}
	return names
}

// Store is a read-only set of templates keyed by id.
type Store struct {
	records map[int]Record
	ids     []int
}

// NewStore validates records and returns a store holding them.
func NewStore(records ...Record) (*Store, error) {
	if len(records) == 0 {
		return nil, errors.New("template store needs at least one template")
	}
	s := &Store{records: make(map[int]Record, len(records))}
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.records[r.ID]; dup {
			return nil, fmt.Errorf("duplicate template id %d", r.ID)
		}
		s.records[r.ID] = r
		s.ids = append(s.ids, r.ID)
	}
	slices.Sort(s.ids)
	return s, nil
}

// Get returns the template with the given id.
func (s *Store) Get(id int) (Record, bool) {
	r, ok := s.records[id]
	return r, ok
}

// IDs returns all template ids in ascending order.
func (s *Store) IDs() []int {
	return slices.Clone(s.ids)
}

// Builtin returns the store of built-in templates.
func Builtin() *Store {
	s, err := NewStore(builtinRecords...)
	if err != nil {
		panic(fmt.Sprintf("built-in templates are invalid: %v", err))
	}
	return s
}
