package svg

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	errs "github.com/matzehuels/imgflow/pkg/errors"
)

// Mode selects the source of an SVG's intrinsic size.
type Mode string

const (
	ModeAuto           Mode = "auto"           // width/height when both are set, else viewBox
	ModeWidthAndHeight Mode = "widthAndHeight" // root width and height attributes
	ModeViewBox        Mode = "viewbox"        // root viewBox attribute
)

// Dimensions is the intrinsic size of a document in user units.
// A zero field means the size could not be determined.
type Dimensions struct {
	Width  float64
	Height float64
}

// Known reports whether both sides are set.
func (d Dimensions) Known() bool {
	return d.Width > 0 && d.Height > 0
}

type rootAttrs struct {
	width, height, viewBox string
}

// Dimension reads the intrinsic size of an SVG document from its root
// element. Percentages do not describe an intrinsic size and are reported
// as unknown.
func Dimension(data []byte, mode Mode) (Dimensions, error) {
	root, err := parseRoot(data)
	if err != nil {
		return Dimensions{}, err
	}

	switch mode {
	case ModeAuto, "":
		if root.width != "" && root.height != "" {
			return lengths(root.width, root.height), nil
		}
		return viewBox(root.viewBox), nil
	case ModeWidthAndHeight:
		return lengths(root.width, root.height), nil
	case ModeViewBox:
		return viewBox(root.viewBox), nil
	}
	return Dimensions{}, errs.New(errs.ErrCodeInvalidInput, "unknown dimension mode %q", mode)
}

func parseRoot(data []byte) (rootAttrs, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return rootAttrs{}, errs.New(errs.ErrCodeInvalidInput, "no svg root element")
		}
		if err != nil {
			return rootAttrs{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "parse svg")
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "svg" {
			return rootAttrs{}, errs.New(errs.ErrCodeInvalidInput, "root element is <%s>, not <svg>", start.Name.Local)
		}
		var r rootAttrs
		for _, a := range start.Attr {
			switch a.Name.Local {
			case "width":
				r.width = strings.TrimSpace(a.Value)
			case "height":
				r.height = strings.TrimSpace(a.Value)
			case "viewBox":
				r.viewBox = strings.TrimSpace(a.Value)
			}
		}
		return r, nil
	}
}

func lengths(w, h string) Dimensions {
	return Dimensions{Width: length(w), Height: length(h)}
}

// length parses the numeric prefix of an SVG length ("120", "120px", "4.5em").
func length(s string) float64 {
	if s == "" || strings.HasSuffix(s, "%") {
		return 0
	}
	end := 0
	for end < len(s) && strings.IndexByte("+-.0123456789eE", s[end]) >= 0 {
		end++
	}
	// A trailing exponent marker belongs to a unit such as "em".
	for end > 0 && (s[end-1] == 'e' || s[end-1] == 'E') {
		end--
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// viewBox returns the width and height of "min-x min-y width height".
func viewBox(s string) Dimensions {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 4 {
		return Dimensions{}
	}
	var d Dimensions
	if w, err := strconv.ParseFloat(fields[2], 64); err == nil && w > 0 {
		d.Width = w
	}
	if h, err := strconv.ParseFloat(fields[3], 64); err == nil && h > 0 {
		d.Height = h
	}
	return d
}
