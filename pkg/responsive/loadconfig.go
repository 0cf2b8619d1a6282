package responsive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/imgflow/pkg/errors"
)

// LoadConfig reads a responsive configuration file. The format follows the
// extension: .toml, or .yaml/.yml. The file holds an optional "defaults"
// table of global options and an "images" value that is either a list of
// options with names, or a table keyed by pattern whose values are options
// or lists of options. Key order in the file is preserved.
//
//	[defaults]
//	quality = 85
//
//	[images."*.png"]
//	width = "50%"
//
//	[[images."hero-*.jpg"]]
//	width = 1600
//	[[images."hero-*.jpg"]]
//	width = 800
//	rename = { suffix = "-sm" }
func LoadConfig(path string) (Config, ImageOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, ImageOptions{}, fmt.Errorf("read config: %w", err)
	}

	var (
		cfg      Config
		defaults ImageOptions
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		cfg, defaults, err = parseTOML(data)
	case ".yaml", ".yml":
		cfg, defaults, err = parseYAML(data)
	default:
		return Config{}, ImageOptions{}, errs.New(errs.ErrCodeInvalidConfig, "unsupported config file type %q", ext)
	}
	if err != nil {
		return Config{}, ImageOptions{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "config %s", path)
	}
	if cfg.Len() == 0 {
		return Config{}, ImageOptions{}, errs.New(errs.ErrCodeInvalidConfig, "config %s: no images configured", path)
	}
	return cfg, defaults, nil
}

func parseTOML(data []byte) (Config, ImageOptions, error) {
	var doc struct {
		Defaults ImageOptions   `toml:"defaults"`
		Images   toml.Primitive `toml:"images"`
	}
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return Config{}, ImageOptions{}, err
	}

	if !md.IsDefined("images") {
		return Config{}, doc.Defaults, nil
	}
	// Tables only introduced by [images."pattern"] headers have no type.
	switch t := md.Type("images"); t {
	case "ArrayHash", "Array":
		var list []ImageOptions
		if err := md.PrimitiveDecode(doc.Images, &list); err != nil {
			return Config{}, ImageOptions{}, err
		}
		return FromList(list...), doc.Defaults, nil
	case "Hash", "":
	default:
		return Config{}, ImageOptions{}, fmt.Errorf("images must be a list or a table, got %s", t)
	}

	var byPattern map[string]toml.Primitive
	if err := md.PrimitiveDecode(doc.Images, &byPattern); err != nil {
		return Config{}, ImageOptions{}, err
	}

	cfg := Config{Shape: ShapeMap}
	seen := make(map[string]bool)
	for _, key := range md.Keys() {
		if len(key) < 2 || key[0] != "images" || seen[key[1]] {
			continue
		}
		pattern := key[1]
		seen[pattern] = true

		p := PatternOptions{Pattern: pattern}
		if t := md.Type("images", pattern); t == "Hash" || t == "" {
			var o ImageOptions
			if err := md.PrimitiveDecode(byPattern[pattern], &o); err != nil {
				return Config{}, ImageOptions{}, fmt.Errorf("images.%q: %w", pattern, err)
			}
			p.Options = []ImageOptions{o}
		} else {
			if err := md.PrimitiveDecode(byPattern[pattern], &p.Options); err != nil {
				return Config{}, ImageOptions{}, fmt.Errorf("images.%q: %w", pattern, err)
			}
			cfg.Shape = ShapeMapOfLists
		}
		cfg.Patterns = append(cfg.Patterns, p)
	}
	return cfg, doc.Defaults, nil
}

func parseYAML(data []byte) (Config, ImageOptions, error) {
	var doc struct {
		Defaults ImageOptions `yaml:"defaults"`
		Images   yaml.Node    `yaml:"images"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Config{}, ImageOptions{}, err
	}

	switch doc.Images.Kind {
	case 0:
		return Config{}, doc.Defaults, nil
	case yaml.SequenceNode:
		var list []ImageOptions
		if err := doc.Images.Decode(&list); err != nil {
			return Config{}, ImageOptions{}, err
		}
		return FromList(list...), doc.Defaults, nil
	case yaml.MappingNode:
	default:
		return Config{}, ImageOptions{}, fmt.Errorf("line %d: images must be a list or a mapping", doc.Images.Line)
	}

	cfg := Config{Shape: ShapeMap}
	content := doc.Images.Content
	for i := 0; i+1 < len(content); i += 2 {
		key, value := content[i], content[i+1]
		p := PatternOptions{Pattern: key.Value}
		if value.Kind == yaml.SequenceNode {
			if err := value.Decode(&p.Options); err != nil {
				return Config{}, ImageOptions{}, fmt.Errorf("images.%q: %w", key.Value, err)
			}
			cfg.Shape = ShapeMapOfLists
		} else {
			var o ImageOptions
			if err := value.Decode(&o); err != nil {
				return Config{}, ImageOptions{}, fmt.Errorf("images.%q: %w", key.Value, err)
			}
			p.Options = []ImageOptions{o}
		}
		cfg.Patterns = append(cfg.Patterns, p)
	}
	return cfg, doc.Defaults, nil
}
