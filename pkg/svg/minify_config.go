package svg

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/imgflow/pkg/errors"
	"github.com/matzehuels/imgflow/pkg/vfile"
)

// PresetDefault is the plugin that stands for the default optimization set.
// Its "overrides" parameter maps plugin names to false (disabled) or to
// their parameters.
const PresetDefault = "preset-default"

// configNames are looked up in the working directory, in order.
var configNames = []string{"imgflow-svgmin.yaml", "imgflow-svgmin.yml", "imgflow-svgmin.toml"}

// Plugin is one optimization step and its parameters.
type Plugin struct {
	Name   string
	Active bool
	Params map[string]any
}

// PluginSet is an ordered plugin list. In configuration files it is either
// a list (names or {name, active, params} tables) or a map from plugin name
// to true, false or a parameter table. Maps decoded from TOML and JSON have
// no order and are sorted by name; YAML keeps document order.
type PluginSet []Plugin

// Index returns the position of the named plugin or -1.
func (s PluginSet) Index(name string) int {
	return slices.IndexFunc(s, func(p Plugin) bool { return p.Name == name })
}

func (s PluginSet) clone() PluginSet {
	if s == nil {
		return nil
	}
	out := make(PluginSet, len(s))
	for i, p := range s {
		out[i] = Plugin{Name: p.Name, Active: p.Active}
		if p.Params != nil {
			out[i].Params = deepCopy(p.Params).(map[string]any)
		}
	}
	return out
}

func (s *PluginSet) fromAny(v any) error {
	switch x := v.(type) {
	case nil:
		*s = nil
	case map[string]any:
		out := make(PluginSet, 0, len(x))
		for _, name := range slices.Sorted(maps.Keys(x)) {
			p, err := pluginFromValue(name, x[name])
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		*s = out
	case []map[string]any:
		out := make(PluginSet, 0, len(x))
		for _, item := range x {
			p, err := pluginFromItem(item)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		*s = out
	case []any:
		out := make(PluginSet, 0, len(x))
		for _, item := range x {
			p, err := pluginFromItem(item)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		*s = out
	default:
		return fmt.Errorf("plugins: expected a list or a map, got %T", v)
	}
	return nil
}

// pluginFromValue decodes the value of a {name: value} entry.
func pluginFromValue(name string, v any) (Plugin, error) {
	switch x := v.(type) {
	case nil:
		return Plugin{Name: name, Active: true}, nil
	case bool:
		return Plugin{Name: name, Active: x}, nil
	case map[string]any:
		return Plugin{Name: name, Active: true, Params: x}, nil
	}
	return Plugin{}, fmt.Errorf("plugin %q: expected a boolean or parameters, got %T", name, v)
}

// pluginFromItem decodes a list item.
func pluginFromItem(v any) (Plugin, error) {
	switch x := v.(type) {
	case string:
		return Plugin{Name: x, Active: true}, nil
	case map[string]any:
		name, _ := x["name"].(string)
		if name == "" {
			return Plugin{}, fmt.Errorf("plugin list entry without a name")
		}
		p := Plugin{Name: name, Active: true}
		for k, val := range x {
			switch k {
			case "name":
			case "active":
				b, ok := val.(bool)
				if !ok {
					return Plugin{}, fmt.Errorf("plugin %q: active must be a boolean", name)
				}
				p.Active = b
			case "params":
				params, ok := val.(map[string]any)
				if !ok {
					return Plugin{}, fmt.Errorf("plugin %q: params must be a table", name)
				}
				p.Params = params
			default:
				return Plugin{}, fmt.Errorf("plugin %q: unknown key %q", name, k)
			}
		}
		return p, nil
	}
	return Plugin{}, fmt.Errorf("plugin list entry: expected a name or a table, got %T", v)
}

// UnmarshalTOML implements toml.Unmarshaler.
func (s *PluginSet) UnmarshalTOML(v any) error { return s.fromAny(v) }

// UnmarshalJSON implements json.Unmarshaler.
func (s *PluginSet) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return s.fromAny(v)
}

// UnmarshalYAML implements yaml.Unmarshaler. Mapping keys keep their order.
func (s *PluginSet) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		var v any
		if err := n.Decode(&v); err != nil {
			return err
		}
		return s.fromAny(v)
	}
	out := make(PluginSet, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		var v any
		if err := n.Content[i+1].Decode(&v); err != nil {
			return err
		}
		p, err := pluginFromValue(n.Content[i].Value, v)
		if err != nil {
			return err
		}
		out = append(out, p)
	}
	*s = out
	return nil
}

// MinifyConfig drives the SVG optimizer.
type MinifyConfig struct {
	// Precision is the number of significant digits kept in numbers.
	// Nil or 0 keeps numbers as precise as they are.
	Precision *int      `toml:"precision" yaml:"precision" json:"precision"`
	Plugins   PluginSet `toml:"plugins" yaml:"plugins" json:"plugins"`
}

func (c MinifyConfig) clone() MinifyConfig {
	out := MinifyConfig{Plugins: c.Plugins.clone()}
	if c.Precision != nil {
		p := *c.Precision
		out.Precision = &p
	}
	return out
}

// Enabled reports whether the named plugin runs. Without a plugin list the
// default preset runs. An explicit entry wins; otherwise the plugin runs
// when an active preset-default does not disable it in its overrides.
func (c MinifyConfig) Enabled(name string) bool {
	if len(c.Plugins) == 0 {
		return true
	}
	if i := c.Plugins.Index(name); i >= 0 {
		return c.Plugins[i].Active
	}
	i := c.Plugins.Index(PresetDefault)
	if i < 0 || !c.Plugins[i].Active {
		return false
	}
	if ov, ok := overrides(c.Plugins[i])[name]; ok {
		if b, ok := ov.(bool); ok {
			return b
		}
	}
	return true
}

// Param returns a parameter of the named plugin, looking through
// preset-default overrides when the plugin has no entry of its own.
func (c MinifyConfig) Param(name, key string) (any, bool) {
	if i := c.Plugins.Index(name); i >= 0 {
		v, ok := c.Plugins[i].Params[key]
		return v, ok
	}
	if i := c.Plugins.Index(PresetDefault); i >= 0 {
		if params, ok := overrides(c.Plugins[i])[name].(map[string]any); ok {
			v, ok := params[key]
			return v, ok
		}
	}
	return nil, false
}

func overrides(p Plugin) map[string]any {
	ov, _ := p.Params["overrides"].(map[string]any)
	return ov
}

// MinifyOptions are the per-run options of the svgmin stage.
type MinifyOptions struct {
	MinifyConfig

	ConfigFile string // explicit config file; otherwise imgflow-svgmin.* in Cwd
	Cwd        string // directory searched for a config file; defaults to the process cwd

	// NoOverride uses MinifyConfig as given and ignores config files.
	NoOverride bool

	// NoExtendDefaultPlugins uses the option plugins as the complete list
	// instead of overrides of preset-default, when no config file declares
	// plugins.
	NoExtendDefaultPlugins bool
}

// MinifyOptionsFunc computes options per file.
type MinifyOptionsFunc func(f *vfile.File) (MinifyOptions, error)

// LoadMinifyConfig reads a TOML or YAML optimizer config.
func LoadMinifyConfig(path string) (MinifyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MinifyConfig{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "read svgmin config")
	}

	var cfg MinifyConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		return MinifyConfig{}, errs.New(errs.ErrCodeInvalidConfig, "svgmin config %q: unsupported file type", path)
	}
	if err != nil {
		return MinifyConfig{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse svgmin config %q", path)
	}
	return cfg, nil
}

// configCache holds the discovered config per working directory so that
// the disk is scanned once per directory.
var configCache sync.Map // map[string]MinifyConfig

func loadCached(configFile, cwd string) (MinifyConfig, error) {
	if configFile != "" {
		if !filepath.IsAbs(configFile) && cwd != "" {
			configFile = filepath.Join(cwd, configFile)
		}
		return LoadMinifyConfig(configFile)
	}

	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return MinifyConfig{}, err
		}
		cwd = wd
	}
	if v, ok := configCache.Load(cwd); ok {
		return v.(MinifyConfig).clone(), nil
	}

	var cfg MinifyConfig
	for _, name := range configNames {
		path := filepath.Join(cwd, name)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		loaded, err := LoadMinifyConfig(path)
		if err != nil {
			return MinifyConfig{}, err
		}
		cfg = loaded
		break
	}
	v, _ := configCache.LoadOrStore(cwd, cfg)
	return v.(MinifyConfig).clone(), nil
}

// ResolveMinifyConfig merges opts with the config file.
//
// With NoOverride the options are used as given. Otherwise option values
// replace file values. When the file declares plugins, option plugins
// replace the same-named file plugins and the rest are appended. When it
// does not, option plugins become overrides of preset-default, unless
// NoExtendDefaultPlugins is set.
func ResolveMinifyConfig(opts MinifyOptions) (MinifyConfig, error) {
	if opts.NoOverride {
		return opts.MinifyConfig.clone(), nil
	}

	file, err := loadCached(opts.ConfigFile, opts.Cwd)
	if err != nil {
		return MinifyConfig{}, err
	}

	merged := file
	if opts.Precision != nil {
		p := *opts.Precision
		merged.Precision = &p
	}

	given := opts.Plugins.clone()
	switch {
	case given == nil:
	case len(file.Plugins) > 0:
		merged.Plugins = mergePlugins(file.Plugins, given)
	case !opts.NoExtendDefaultPlugins:
		merged.Plugins = PluginSet{extendDefault(given)}
	default:
		merged.Plugins = given
	}
	return merged, nil
}

func mergePlugins(base, overrides PluginSet) PluginSet {
	out := slices.Clone(base)
	for _, p := range overrides {
		if i := out.Index(p.Name); i >= 0 {
			out[i] = p
		} else {
			out = append(out, p)
		}
	}
	return out
}

func extendDefault(plugins PluginSet) Plugin {
	ov := make(map[string]any, len(plugins))
	for _, p := range plugins {
		switch {
		case !p.Active:
			ov[p.Name] = false
		case p.Params != nil:
			ov[p.Name] = p.Params
		default:
			ov[p.Name] = true
		}
	}
	return Plugin{Name: PresetDefault, Active: true, Params: map[string]any{"overrides": ov}}
}

func deepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[k] = deepCopy(val)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, val := range x {
			s[i] = deepCopy(val)
		}
		return s
	}
	return v
}
