package responsive

import (
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Option values in configuration files often take more than one shape:
// rotate may be true or an angle, crop may be true, a gravity number or a
// position name. Each such type decodes from the generic value produced by
// the TOML, YAML and JSON decoders through a single fromAny method.

func decodeYAML(n *yaml.Node, fn func(any) error) error {
	var v any
	if err := n.Decode(&v); err != nil {
		return err
	}
	return fn(v)
}

func decodeJSON(b []byte, fn func(any) error) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return fn(v)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// Crop is a crop position (centre, north, ..., entropy, attention).
// It decodes from a position name, true (centre) or a gravity number.
// The zero value disables cropping.
type Crop string

// gravities maps numeric gravity values to positions.
var gravities = map[int]Crop{
	1: "north", 2: "east", 3: "south", 4: "west",
	5: "northeast", 6: "southeast", 7: "southwest", 8: "northwest",
	16: "entropy", 17: "attention",
}

func (c *Crop) fromAny(v any) error {
	switch x := v.(type) {
	case nil:
		*c = ""
	case bool:
		*c = ""
		if x {
			*c = "centre"
		}
	case string:
		*c = Crop(x)
	default:
		n, ok := toInt(v)
		if !ok {
			return fmt.Errorf("crop must be a position, bool or gravity number, got %v", v)
		}
		if n == 0 {
			*c = ""
			return nil
		}
		g, ok := gravities[n]
		if !ok {
			return fmt.Errorf("unknown crop gravity %d", n)
		}
		*c = g
	}
	return nil
}

func (c *Crop) UnmarshalTOML(v any) error       { return c.fromAny(v) }
func (c *Crop) UnmarshalYAML(n *yaml.Node) error { return decodeYAML(n, c.fromAny) }
func (c *Crop) UnmarshalJSON(b []byte) error     { return decodeJSON(b, c.fromAny) }

// Amount is an operation toggle with an optional parameter: false is off,
// true is on with the backend default, a number is on with that value.
type Amount struct {
	On       bool
	Value    float64
	HasValue bool
}

// On returns an enabled Amount without a value.
func On() Amount { return Amount{On: true} }

// Value returns an enabled Amount with value v.
func Value(v float64) Amount { return Amount{On: true, Value: v, HasValue: true} }

func (a *Amount) fromAny(v any) error {
	switch x := v.(type) {
	case nil:
		*a = Amount{}
	case bool:
		*a = Amount{On: x}
	default:
		f, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("expected bool or number, got %v", v)
		}
		*a = Value(f)
	}
	return nil
}

func (a *Amount) UnmarshalTOML(v any) error       { return a.fromAny(v) }
func (a *Amount) UnmarshalYAML(n *yaml.Node) error { return decodeYAML(n, a.fromAny) }
func (a *Amount) UnmarshalJSON(b []byte) error     { return decodeJSON(b, a.fromAny) }

// SharpenSpec configures sharpening. It decodes from a bool, a sigma or a
// table with sigma, flat and jagged.
type SharpenSpec struct {
	On     bool
	Sigma  float64
	Flat   float64
	Jagged float64
}

func (s *SharpenSpec) fromAny(v any) error {
	switch x := v.(type) {
	case nil:
		*s = SharpenSpec{}
	case bool:
		*s = SharpenSpec{On: x}
	case map[string]any:
		*s = SharpenSpec{On: true}
		for k, fv := range x {
			f, ok := toFloat(fv)
			if !ok {
				return fmt.Errorf("sharpen.%s must be a number, got %v", k, fv)
			}
			switch k {
			case "sigma":
				s.Sigma = f
			case "flat":
				s.Flat = f
			case "jagged":
				s.Jagged = f
			default:
				return fmt.Errorf("unknown sharpen option %q", k)
			}
		}
	default:
		f, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("sharpen must be a bool, number or table, got %v", v)
		}
		*s = SharpenSpec{On: f != 0, Sigma: f}
	}
	return nil
}

func (s *SharpenSpec) UnmarshalTOML(v any) error       { return s.fromAny(v) }
func (s *SharpenSpec) UnmarshalYAML(n *yaml.Node) error { return decodeYAML(n, s.fromAny) }
func (s *SharpenSpec) UnmarshalJSON(b []byte) error     { return decodeJSON(b, s.fromAny) }

// TileSpec configures tiled output. It decodes from a bool or a table with
// size and overlap.
type TileSpec struct {
	On      bool
	Size    int
	Overlap int
}

func (t *TileSpec) fromAny(v any) error {
	switch x := v.(type) {
	case nil:
		*t = TileSpec{}
	case bool:
		*t = TileSpec{On: x}
	case map[string]any:
		*t = TileSpec{On: true}
		for k, iv := range x {
			n, ok := toInt(iv)
			if !ok {
				return fmt.Errorf("tile.%s must be an integer, got %v", k, iv)
			}
			switch k {
			case "size":
				t.Size = n
			case "overlap":
				t.Overlap = n
			default:
				return fmt.Errorf("unknown tile option %q", k)
			}
		}
	default:
		return fmt.Errorf("tile must be a bool or table, got %v", v)
	}
	return nil
}

func (t *TileSpec) UnmarshalTOML(v any) error       { return t.fromAny(v) }
func (t *TileSpec) UnmarshalYAML(n *yaml.Node) error { return decodeYAML(n, t.fromAny) }
func (t *TileSpec) UnmarshalJSON(b []byte) error     { return decodeJSON(b, t.fromAny) }

// Region is an extraction rectangle in source pixels.
type Region struct {
	Left   int `toml:"left" yaml:"left" json:"left"`
	Top    int `toml:"top" yaml:"top" json:"top"`
	Width  int `toml:"width" yaml:"width" json:"width"`
	Height int `toml:"height" yaml:"height" json:"height"`
}
