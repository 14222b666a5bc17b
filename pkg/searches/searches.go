package searches

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samvad-hq/catalog-harvester/pkg/catalog"
	"gopkg.in/yaml.v3"
)

// Package searches loads the saved listings and searches the harvester walks.

const (
	KindListing = "listing"
	KindSearch  = "search"

	defaultMaxPages = 10
)

// Search is one saved query declared in the searches file. Listings only
// read Params.Page, as their start page; every other filter is ignored.
type Search struct {
	ID       string               `json:"id" yaml:"id"`
	Name     string               `json:"name" yaml:"name"`
	Kind     string               `json:"kind" yaml:"kind"`
	Params   catalog.SearchParams `json:"params" yaml:"params"`
	MaxPages int                  `json:"max_pages" yaml:"max_pages"`
	Enabled  *bool                `json:"enabled" yaml:"enabled"`
}

// IsEnabled reports whether the entry should be harvested; unset means enabled.
func (s Search) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// StartPage is the first page to request: params.page when set, else 1.
func (s Search) StartPage() int {
	if s.Params.Page != nil && *s.Params.Page > 0 {
		return *s.Params.Page
	}
	return catalog.DefaultPage
}

type fileFormat struct {
	Searches []Search `json:"searches" yaml:"searches"`
}

// Registry holds the validated searches in file order.
type Registry struct {
	searches []Search
	idx      map[string]Search
}

// LoadRegistry loads searches from a YAML or JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("searches file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open searches file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read searches file: %w", err)
	}

	parsed, err := parseFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewRegistry(parsed.Searches)
}

// NewRegistry validates entries and builds a Registry.
func NewRegistry(entries []Search) (*Registry, error) {
	reg := &Registry{
		searches: make([]Search, 0, len(entries)),
		idx:      make(map[string]Search, len(entries)),
	}
	for i := range entries {
		s := sanitize(entries[i])
		if err := validate(s); err != nil {
			return nil, fmt.Errorf("searches[%d]: %w", i, err)
		}
		if _, exists := reg.idx[s.ID]; exists {
			return nil, fmt.Errorf("duplicate search id %q", s.ID)
		}
		reg.searches = append(reg.searches, s)
		reg.idx[s.ID] = s
	}
	return reg, nil
}

// All returns a copy of every loaded search.
func (r *Registry) All() []Search {
	if r == nil || len(r.searches) == 0 {
		return nil
	}
	out := make([]Search, len(r.searches))
	copy(out, r.searches)
	return out
}

// Enabled returns the searches that are not explicitly disabled.
func (r *Registry) Enabled() []Search {
	if r == nil {
		return nil
	}
	var out []Search
	for _, s := range r.searches {
		if s.IsEnabled() {
			out = append(out, s)
		}
	}
	return out
}

// ByID returns the search with the given id.
func (r *Registry) ByID(id string) (Search, bool) {
	if r == nil {
		return Search{}, false
	}
	s, ok := r.idx[strings.TrimSpace(id)]
	return s, ok
}

type unmarshalFn func([]byte, any) error

func parseFile(data []byte, ext string) (fileFormat, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var lastErr error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var f fileFormat
		if err := d.fn(data, &f); err != nil {
			lastErr = fmt.Errorf("decode %s searches: %w", d.name, err)
			continue
		}
		return f, nil
	}
	if lastErr != nil {
		return fileFormat{}, lastErr
	}
	return fileFormat{}, errors.New("searches file format not recognized (expected YAML or JSON)")
}

func sanitize(s Search) Search {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	s.Kind = strings.ToLower(strings.TrimSpace(s.Kind))
	if s.Kind == "" {
		s.Kind = KindSearch
	}
	if s.MaxPages <= 0 {
		s.MaxPages = defaultMaxPages
	}
	return s
}

func validate(s Search) error {
	if s.ID == "" {
		return errors.New("id is required")
	}
	if s.Name == "" {
		return fmt.Errorf("name is required for search %q", s.ID)
	}
	switch s.Kind {
	case KindListing, KindSearch:
	default:
		return fmt.Errorf("unsupported kind %q for search %q", s.Kind, s.ID)
	}
	return nil
}
