package responsive

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/imgflow/pkg/errors"
)

// SizeSpec is a target dimension: an absolute pixel count ("200") or a
// percentage of the source dimension ("50%"). The zero value is unset.
type SizeSpec string

// Pixels returns an absolute size.
func Pixels(n int) SizeSpec { return SizeSpec(strconv.Itoa(n)) }

// Percent returns a relative size.
func Percent(p float64) SizeSpec {
	return SizeSpec(strconv.FormatFloat(p, 'f', -1, 64) + "%")
}

// IsSet reports whether the spec constrains its axis.
func (s SizeSpec) IsSet() bool { return s != "" }

// Resolve returns the pixel size for an axis whose source size is original.
// ok is false when the spec is unset.
func (s SizeSpec) Resolve(original int) (px int, ok bool, err error) {
	if !s.IsSet() {
		return 0, false, nil
	}
	raw := strings.TrimSpace(string(s))

	if i := strings.Index(raw, "%"); i >= 0 {
		pct, err := strconv.ParseFloat(strings.TrimSpace(raw[:i]), 64)
		if err != nil || math.IsNaN(pct) || pct < 0 {
			return 0, false, errs.New(errs.ErrCodeInvalidSizeSpec, "wrong percentage size %q", string(s))
		}
		return int(math.Round(float64(original) * pct * 0.01)), true, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false, errs.New(errs.ErrCodeInvalidSizeSpec, "wrong size %q", string(s))
	}
	return n, true, nil
}

// ResolveSize is the function form of SizeSpec.Resolve.
func ResolveSize(spec SizeSpec, original int) (int, bool, error) {
	return spec.Resolve(original)
}

func (s *SizeSpec) fromAny(v any) error {
	switch x := v.(type) {
	case nil:
		*s = ""
	case string:
		*s = SizeSpec(x)
	default:
		f, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("size must be a number or string, got %T", v)
		}
		*s = SizeSpec(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return nil
}

// UnmarshalTOML implements toml.Unmarshaler.
func (s *SizeSpec) UnmarshalTOML(v any) error { return s.fromAny(v) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *SizeSpec) UnmarshalYAML(n *yaml.Node) error { return decodeYAML(n, s.fromAny) }

// UnmarshalJSON implements json.Unmarshaler.
func (s *SizeSpec) UnmarshalJSON(b []byte) error { return decodeJSON(b, s.fromAny) }

var _ json.Unmarshaler = (*SizeSpec)(nil)
