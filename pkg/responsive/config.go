package responsive

import (
	"fmt"
	"maps"
	"slices"
)

// Shape tags the form a configuration was supplied in.
type Shape int

const (
	// ShapeList is an ordered list of options, each carrying its own Name.
	ShapeList Shape = iota
	// ShapeMap maps a pattern to one set of options.
	ShapeMap
	// ShapeMapOfLists maps a pattern to several sets of options, one per variant.
	ShapeMapOfLists
)

func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeMap:
		return "map"
	case ShapeMapOfLists:
		return "map-of-lists"
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// PatternOptions is one key of a map-shaped configuration.
type PatternOptions struct {
	Pattern string
	Options []ImageOptions
}

// Pattern pairs a pattern with its variants.
func Pattern(pattern string, opts ...ImageOptions) PatternOptions {
	return PatternOptions{Pattern: pattern, Options: opts}
}

// Config is the configuration table of a responsive run. List is used by
// ShapeList, Patterns by the two map shapes. Pattern order is significant.
type Config struct {
	Shape    Shape
	List     []ImageOptions
	Patterns []PatternOptions
}

// FromList builds a list-shaped configuration.
func FromList(list ...ImageOptions) Config {
	return Config{Shape: ShapeList, List: list}
}

// FromPatterns builds an ordered map-of-lists configuration.
func FromPatterns(patterns ...PatternOptions) Config {
	return Config{Shape: ShapeMapOfLists, Patterns: patterns}
}

// FromMap builds a map-shaped configuration. Keys are taken in sorted order.
func FromMap(m map[string]ImageOptions) Config {
	cfg := Config{Shape: ShapeMap}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		cfg.Patterns = append(cfg.Patterns, Pattern(k, m[k]))
	}
	return cfg
}

// FromMapOfLists builds a map-of-lists configuration. Keys are taken in
// sorted order.
func FromMapOfLists(m map[string][]ImageOptions) Config {
	cfg := Config{Shape: ShapeMapOfLists}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		cfg.Patterns = append(cfg.Patterns, Pattern(k, m[k]...))
	}
	return cfg
}

// Len returns the number of entries cfg normalizes to.
func (c Config) Len() int {
	if c.Shape == ShapeList {
		return len(c.List)
	}
	n := 0
	for _, p := range c.Patterns {
		n += len(p.Options)
	}
	return n
}

// Normalize flattens cfg into resolved entries in input order. Each entry
// is DefaultEntry overlaid with global, then with its own options. The
// name is the pattern key when there is one, else the options' own Name;
// it never comes from global.
func Normalize(cfg Config, global ImageOptions) ([]Entry, error) {
	entries := make([]Entry, 0, cfg.Len())

	add := func(key string, o *ImageOptions) error {
		e := DefaultEntry()
		global.apply(&e)
		o.apply(&e)
		e.Name = o.Name
		if key != "" {
			e.Name = key
		}
		if err := e.Validate(); err != nil {
			return fmt.Errorf("config entry %d: %w", len(entries), err)
		}
		entries = append(entries, e)
		return nil
	}

	switch cfg.Shape {
	case ShapeList:
		for i := range cfg.List {
			if err := add("", &cfg.List[i]); err != nil {
				return nil, err
			}
		}
	case ShapeMap, ShapeMapOfLists:
		for _, p := range cfg.Patterns {
			for i := range p.Options {
				if err := add(p.Pattern, &p.Options[i]); err != nil {
					return nil, err
				}
			}
		}
	default:
		return nil, fmt.Errorf("unknown config shape %v", cfg.Shape)
	}
	return entries, nil
}
