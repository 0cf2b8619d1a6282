package transform

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	errs "github.com/matzehuels/imgflow/pkg/errors"
)

var namedColors = map[string]color.NRGBA{
	"transparent": {},
	"black":       {A: 255},
	"white":       {R: 255, G: 255, B: 255, A: 255},
}

// parseColor accepts #rgb, #rrggbb, #rrggbbaa and a few names.
// The empty string is opaque black.
func parseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return color.NRGBA{A: 255}, nil
	}
	if c, ok := namedColors[s]; ok {
		return c, nil
	}

	alpha := uint8(255)
	if len(s) == 9 && s[0] == '#' {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid color %q", s)
		}
		alpha = uint8(a)
		s = s[:7]
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid color %q", s)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// ValidColor reports whether s is a colour the backends accept.
func ValidColor(s string) error {
	_, err := parseColor(s)
	return err
}
