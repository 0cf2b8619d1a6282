package responsive

import (
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/imgflow/pkg/errors"
)

// RenameSpec describes the destination of a variant relative to the source
// file's base directory.
//
// A Template replaces the whole relative path. It may reference the source
// path through {dirname}, {basename} and {extname}; a template without
// placeholders is a literal path ("logo@2x.png"). Otherwise the individual
// parts are replaced: a nil part keeps the source's part, Prefix and Suffix
// wrap the base name.
type RenameSpec struct {
	Template string
	Dirname  *string
	Basename *string
	Extname  *string
	Prefix   string
	Suffix   string
}

// RenameTo returns a RenameSpec with a path template.
func RenameTo(template string) *RenameSpec { return &RenameSpec{Template: template} }

// Apply returns the renamed relative path for rel, a slash-separated path
// relative to the base directory. The result must stay inside the base.
func (r *RenameSpec) Apply(rel string) (string, error) {
	dir, file := path.Split(rel)
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" {
		dir = "."
	}
	ext := path.Ext(file)
	base := strings.TrimSuffix(file, ext)

	var out string
	if r.Template != "" {
		out = strings.NewReplacer(
			"{dirname}", dir,
			"{basename}", base,
			"{extname}", ext,
		).Replace(r.Template)
	} else {
		if r.Dirname != nil {
			dir = *r.Dirname
		}
		if r.Basename != nil {
			base = *r.Basename
		}
		if r.Extname != nil {
			ext = *r.Extname
		}
		out = path.Join(dir, r.Prefix+base+r.Suffix+ext)
	}

	out = path.Clean(out)
	if err := errs.ValidatePath(out); err != nil {
		return "", fmt.Errorf("rename %q: %w", rel, err)
	}
	return out, nil
}

func (r *RenameSpec) fromAny(v any) error {
	switch x := v.(type) {
	case string:
		*r = RenameSpec{Template: x}
	case map[string]any:
		*r = RenameSpec{}
		for k, pv := range x {
			s, ok := pv.(string)
			if !ok {
				return fmt.Errorf("rename.%s must be a string, got %v", k, pv)
			}
			switch k {
			case "dirname":
				r.Dirname = &s
			case "basename":
				r.Basename = &s
			case "extname":
				r.Extname = &s
			case "prefix":
				r.Prefix = s
			case "suffix":
				r.Suffix = s
			default:
				return fmt.Errorf("unknown rename option %q", k)
			}
		}
	default:
		return fmt.Errorf("rename must be a string or table, got %T", v)
	}
	return nil
}

func (r *RenameSpec) UnmarshalTOML(v any) error       { return r.fromAny(v) }
func (r *RenameSpec) UnmarshalYAML(n *yaml.Node) error { return decodeYAML(n, r.fromAny) }
func (r *RenameSpec) UnmarshalJSON(b []byte) error     { return decodeJSON(b, r.fromAny) }
